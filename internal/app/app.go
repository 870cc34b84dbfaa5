package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/replyhive/replyhive-backend/internal/data/db"
	"github.com/replyhive/replyhive-backend/internal/observability"
	"github.com/replyhive/replyhive-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Services Services
	Clients  Clients
	Metrics  *observability.Metrics

	pg           *db.PostgresService
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	metrics := observability.Init(log)

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	theDB := pg.DB()

	clientset, err := wireClients(log)
	if err != nil {
		log.Sync()
		return nil, err
	}

	reposet := wireRepos(theDB, log)
	serviceset := wireServices(theDB, log, cfg, reposet, clientset)
	handlerset := wireHandlers(log, serviceset)
	middleware := wireMiddleware(log, serviceset)
	router := wireRouter(log, metrics, handlerset, middleware)

	return &App{
		Log:      log,
		DB:       theDB,
		Router:   router,
		Cfg:      cfg,
		Repos:    reposet,
		Services: serviceset,
		Clients:  clientset,
		Metrics:  metrics,
		pg:       pg,
	}, nil
}

// Start launches the background pieces: tracing, the metrics endpoint, the
// infra collectors and the token janitor. Safe to call once; later calls are
// no-ops.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	a.otelShutdown = observability.InitOTel(ctx, a.Log, observability.OtelConfig{
		ServiceName: "replyhive-backend",
		Environment: os.Getenv("APP_ENV"),
		Version:     os.Getenv("APP_VERSION"),
	})

	if a.Services.Auth != nil {
		a.Services.Auth.StartTokenJanitor(ctx)
	}

	if a.Metrics != nil {
		a.Metrics.StartServer(ctx, a.Log, a.Cfg.MetricsAddr)
		a.Metrics.StartPostgresCollector(ctx, a.Log, a.DB)
		if a.Cfg.RedisAddr != "" {
			a.Metrics.StartRedisCollector(ctx, a.Log, a.Cfg.RedisAddr)
		}
		a.Metrics.StartSLOEvaluator(ctx, a.Log)
	}
}

func (a *App) Run(addr string) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Router.Run(addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = a.otelShutdown(ctx)
		cancel()
		a.otelShutdown = nil
	}
	a.Clients.Close()
	if a.pg != nil {
		_ = a.pg.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
