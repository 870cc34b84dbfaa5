package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/replyhive/replyhive-backend/internal/data/repos"
	types "github.com/replyhive/replyhive-backend/internal/domain"
	domainagg "github.com/replyhive/replyhive-backend/internal/domain/aggregates"
	"github.com/replyhive/replyhive-backend/internal/pkg/ctxutil"
	"github.com/replyhive/replyhive-backend/internal/pkg/dbctx"
	"github.com/replyhive/replyhive-backend/internal/platform/envutil"
	"github.com/replyhive/replyhive-backend/internal/platform/logger"
)

// AuthService owns account registration and the token lifecycle. Access
// tokens are short-lived HS256 JWTs; refresh tokens are opaque uuids stored
// sha256-hashed and rotated on every refresh.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, in LoginInput) (*AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthResult, error)
	Logout(ctx context.Context, refreshToken string) error
	// SetContextFromToken verifies an access token and attaches the
	// account identity to the context for everything downstream.
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	AccessTTL() time.Duration
	// StartTokenJanitor sweeps expired refresh-token rows on an interval
	// until the context is cancelled.
	StartTokenJanitor(ctx context.Context)
}

type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResult struct {
	Account      *types.Account `json:"account"`
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	ExpiresAt    time.Time      `json:"expires_at"`
}

type AuthConfig struct {
	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// AuthConfigFromEnv reads JWT_SECRET_KEY plus optional AUTH_ACCESS_TTL and
// AUTH_REFRESH_TTL overrides.
func AuthConfigFromEnv() AuthConfig {
	return AuthConfig{
		JWTSecret:  envutil.String("JWT_SECRET_KEY", ""),
		AccessTTL:  envutil.Duration("AUTH_ACCESS_TTL", 15*time.Minute),
		RefreshTTL: envutil.Duration("AUTH_REFRESH_TTL", 30*24*time.Hour),
	}
}

type authService struct {
	db       *gorm.DB
	log      *logger.Logger
	accounts repos.AccountRepo
	tokens   repos.AccountTokenRepo
	cfg      AuthConfig
}

func NewAuthService(db *gorm.DB, log *logger.Logger, accounts repos.AccountRepo, tokens repos.AccountTokenRepo, cfg AuthConfig) AuthService {
	return &authService{
		db:       db,
		log:      log.With("service", "AuthService"),
		accounts: accounts,
		tokens:   tokens,
		cfg:      cfg,
	}
}

type accessClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

func (as *authService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	const op = "Auth.Register"

	email := strings.ToLower(strings.TrimSpace(in.Email))
	name := strings.TrimSpace(in.Name)
	if email == "" || !strings.Contains(email, "@") {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "a valid email is required", nil)
	}
	if len(in.Password) < 8 {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "password must be at least 8 characters", nil)
	}
	if name == "" {
		name = email
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}

	var result *AuthResult
	txErr := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}

		if _, err := as.accounts.GetByEmail(dbc, email); err == nil {
			return domainagg.NewError(domainagg.CodeConflict, op, "email already registered", nil)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		account, err := as.accounts.Create(dbc, &types.Account{
			Email:    email,
			Password: string(hashed),
			Name:     name,
		})
		if err != nil {
			return err
		}

		issued, err := as.issueTokens(dbc, account)
		if err != nil {
			return err
		}
		result = issued
		return nil
	})
	if txErr != nil {
		return nil, serviceError(op, txErr)
	}
	as.log.Info("account registered", "account_id", result.Account.ID.String())
	return result, nil
}

func (as *authService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	const op = "Auth.Login"

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "email and password are required", nil)
	}

	account, err := as.accounts.GetByEmail(dbctx.Context{Ctx: ctx}, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainagg.NewError(domainagg.CodeUnauthorized, op, "invalid email or password", nil)
		}
		return nil, serviceError(op, err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(in.Password)); err != nil {
		return nil, domainagg.NewError(domainagg.CodeUnauthorized, op, "invalid email or password", nil)
	}

	var result *AuthResult
	txErr := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		issued, err := as.issueTokens(dbctx.Context{Ctx: ctx, Tx: tx}, account)
		if err != nil {
			return err
		}
		result = issued
		return nil
	})
	if txErr != nil {
		return nil, serviceError(op, txErr)
	}
	return result, nil
}

func (as *authService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	const op = "Auth.Refresh"

	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "refresh token is required", nil)
	}

	// A rotated token showing up again means it leaked somewhere. Kill every
	// session for the account before rejecting the call.
	if row, err := as.tokens.GetByHash(dbctx.Context{Ctx: ctx}, hashToken(refreshToken)); err == nil && row.RevokedAt != nil {
		if err := as.tokens.RevokeAllForAccount(dbctx.Context{Ctx: ctx}, row.AccountID); err != nil {
			return nil, serviceError(op, err)
		}
		as.log.Warn("refresh token reuse detected, all sessions revoked",
			"account_id", row.AccountID.String())
		return nil, domainagg.NewError(domainagg.CodeUnauthorized, op, "refresh token is invalid or expired", nil)
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, serviceError(op, err)
	}

	var result *AuthResult
	txErr := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}

		row, err := as.tokens.GetActiveByHash(dbc, hashToken(refreshToken))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainagg.NewError(domainagg.CodeUnauthorized, op, "refresh token is invalid or expired", nil)
			}
			return err
		}
		account, err := as.accounts.GetByID(dbc, row.AccountID)
		if err != nil {
			return err
		}

		// Rotation: the presented token dies with this call.
		if err := as.tokens.Revoke(dbc, row.ID); err != nil {
			return err
		}
		issued, err := as.issueTokens(dbc, account)
		if err != nil {
			return err
		}
		result = issued
		return nil
	})
	if txErr != nil {
		return nil, serviceError(op, txErr)
	}
	return result, nil
}

func (as *authService) Logout(ctx context.Context, refreshToken string) error {
	const op = "Auth.Logout"

	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return domainagg.NewError(domainagg.CodeValidation, op, "refresh token is required", nil)
	}

	txErr := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		row, err := as.tokens.GetActiveByHash(dbc, hashToken(refreshToken))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Logging out an already-dead session is not an error.
				return nil
			}
			return err
		}
		return as.tokens.Revoke(dbc, row.ID)
	})
	if txErr != nil {
		return serviceError(op, txErr)
	}
	return nil
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	const op = "Auth.SetContextFromToken"

	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return ctx, domainagg.NewError(domainagg.CodeUnauthorized, op, "missing access token", nil)
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &accessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(as.cfg.JWTSecret), nil
	})
	if err != nil {
		return ctx, domainagg.NewError(domainagg.CodeUnauthorized, op, "invalid or expired access token", err)
	}
	claims, ok := parsed.Claims.(*accessClaims)
	if !ok || !parsed.Valid {
		return ctx, domainagg.NewError(domainagg.CodeUnauthorized, op, "invalid or expired access token", nil)
	}
	accountID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, domainagg.NewError(domainagg.CodeUnauthorized, op, "invalid subject in access token", err)
	}

	account, err := as.accounts.GetByID(dbctx.Context{Ctx: ctx}, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ctx, domainagg.NewError(domainagg.CodeUnauthorized, op, "account no longer exists", nil)
		}
		return ctx, serviceError(op, err)
	}

	rd := &ctxutil.RequestData{
		AccountID:   account.ID,
		Email:       account.Email,
		TokenString: tokenString,
	}
	return ctxutil.WithRequestData(ctx, rd), nil
}

func (as *authService) AccessTTL() time.Duration {
	return as.cfg.AccessTTL
}

func (as *authService) StartTokenJanitor(ctx context.Context) {
	interval := envutil.Duration("AUTH_TOKEN_SWEEP_INTERVAL", time.Hour)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := as.tokens.PurgeExpired(dbctx.Context{Ctx: ctx}, time.Now().UTC())
				if err != nil {
					as.log.Error("expired token sweep failed", "error", err)
					continue
				}
				if n > 0 {
					as.log.Info("swept expired refresh tokens", "deleted", n)
				}
			}
		}
	}()
}

// issueTokens mints an access JWT plus a fresh refresh token row. Callers
// own the surrounding transaction.
func (as *authService) issueTokens(dbc dbctx.Context, account *types.Account) (*AuthResult, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(as.cfg.AccessTTL)

	claims := accessClaims{
		Email: account.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(as.cfg.JWTSecret))
	if err != nil {
		return nil, err
	}

	refreshToken := uuid.New().String()
	if _, err := as.tokens.Create(dbc, &types.AccountToken{
		AccountID: account.ID,
		TokenHash: hashToken(refreshToken),
		ExpiresAt: now.Add(as.cfg.RefreshTTL),
	}); err != nil {
		return nil, err
	}

	return &AuthResult{
		Account:      account,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	}, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
