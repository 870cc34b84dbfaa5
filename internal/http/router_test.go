package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/replyhive/replyhive-backend/internal/domain"
	httpH "github.com/replyhive/replyhive-backend/internal/http/handlers"
	httpMW "github.com/replyhive/replyhive-backend/internal/http/middleware"
	"github.com/replyhive/replyhive-backend/internal/pkg/ctxutil"
	"github.com/replyhive/replyhive-backend/internal/platform/logger"
	"github.com/replyhive/replyhive-backend/internal/services"
)

type stubAuthService struct {
	services.AuthService

	accountID uuid.UUID
	wantToken string
}

func (s *stubAuthService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString != s.wantToken {
		return ctx, errors.New("bad token")
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{AccountID: s.accountID, TokenString: tokenString}), nil
}

func (s *stubAuthService) AccessTTL() time.Duration { return 15 * time.Minute }

type stubAgentService struct {
	services.AgentService
}

func (s *stubAgentService) List(ctx context.Context) ([]*types.Agent, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil {
		return nil, errors.New("no request data on context")
	}
	return []*types.Agent{}, nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *stubAuthService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	t.Cleanup(log.Sync)

	auth := &stubAuthService{accountID: uuid.New(), wantToken: "good-token"}
	r := NewRouter(RouterConfig{
		Log:            log,
		AuthMiddleware: httpMW.NewAuthMiddleware(log, auth),
		HealthHandler:  httpH.NewHealthHandler(),
		AgentHandler:   httpH.NewAgentHandler(&stubAgentService{}),
	})
	return r, auth
}

func TestHealthcheckIsPublic(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/healthcheck", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusOK)
	}
	if rec.Body.String() != "ok" {
		t.Fatalf("unexpected body: got=%q want=%q", rec.Body.String(), "ok")
	}
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/agents", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusUnauthorized)
	}
}

func TestProtectedRouteRejectsBadToken(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/agents", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusUnauthorized)
	}
}

func TestProtectedRoutePassesWithToken(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/agents", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got=%d want=%d body=%s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if got := rec.Header().Get("X-Request-Id"); got == "" {
		t.Fatal("expected X-Request-Id response header")
	}
	if got := rec.Header().Get("X-Trace-Id"); got == "" {
		t.Fatal("expected X-Trace-Id response header")
	}
}
