package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/studypulse/studypulse-backend/internal/cache"
	redisclient "github.com/studypulse/studypulse-backend/internal/clients/redis"
	"github.com/studypulse/studypulse-backend/internal/config"
	"github.com/studypulse/studypulse-backend/internal/data/db"
	"github.com/studypulse/studypulse-backend/internal/jobs"
	"github.com/studypulse/studypulse-backend/internal/middleware"
	"github.com/studypulse/studypulse-backend/internal/observability"
	"github.com/studypulse/studypulse-backend/internal/pkg/envutil"
	"github.com/studypulse/studypulse-backend/internal/pkg/logger"
	"github.com/studypulse/studypulse-backend/internal/scheduler"
	"github.com/studypulse/studypulse-backend/internal/server"
)

const serviceName = "studypulse-backend"

// App owns every long-lived piece of the service: storage, cache, services,
// the HTTP router and the background scheduler.
type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      config.Config
	Repos    Repos
	Services Services
	Router   *gin.Engine

	redis        *redisclient.Client
	sched        scheduler.Scheduler
	otelShutdown func(context.Context) error
}

func New() (*App, error) {
	logMode := envutil.String("LOG_MODE", "development")
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	pg, err := db.NewPostgresService(log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	// Redis is the shared cache tier; the service runs degraded without it.
	var shared cache.SharedTier
	rdb, err := redisclient.NewClient(log)
	if err != nil {
		log.Warn("Redis unavailable, cache runs local-only", "error", err)
	} else {
		shared = rdb
	}
	cacheSvc := cache.NewService(log, shared, cache.Options{
		LocalCapacity: cfg.LocalCacheCapacity,
		LoadTTL:       cfg.LoadTTL,
		BurnoutTTL:    cfg.BurnoutTTL,
		DashboardTTL:  cfg.DashboardTTL,
	})

	repos := wireRepos(pg.DB(), log)
	svcs := wireServices(log, cfg, repos, cacheSvc)
	hnds := wireHandlers(log, svcs)

	authMW := middleware.NewAuthMiddleware(log, cfg.JWTSecretKey)

	log.Info("Wiring router...")
	router := server.NewRouter(server.RouterConfig{
		ServiceName:         serviceName,
		AuthMiddleware:      authMW,
		SignalHandler:       hnds.Signal,
		LoadHandler:         hnds.Load,
		BurnoutHandler:      hnds.Burnout,
		InterventionHandler: hnds.Intervention,
		PlanHandler:         hnds.Plan,
		PatternHandler:      hnds.Pattern,
		DashboardHandler:    hnds.Dashboard,
	})

	return &App{
		Log:      log,
		DB:       pg.DB(),
		Cfg:      cfg,
		Repos:    repos,
		Services: svcs,
		Router:   router,
		redis:    rdb,
	}, nil
}

// Start brings up tracing and the background jobs. Cron specs come from
// config and include a seconds field.
func (a *App) Start(ctx context.Context) error {
	a.otelShutdown = observability.InitOTel(ctx, a.Log, observability.OtelConfig{
		ServiceName: serviceName,
		Environment: envutil.String("APP_ENV", "development"),
		Version:     envutil.String("APP_VERSION", "dev"),
	})

	deps := jobs.Deps{
		Log:           a.Log,
		Load:          a.Services.Load,
		Burnout:       a.Services.Burnout,
		Patterns:      a.Services.Pattern,
		Interventions: a.Services.Intervention,
		Sink:          a.Services.Orchestration,
		Sessions:      a.Repos.Sessions,
		Signals:       a.Repos.Signals,
	}

	sched := scheduler.New(a.Log)
	sched.Every("load_sampler", a.Cfg.SamplerInterval, jobs.LoadSampler(deps))
	if err := sched.At("burnout_sweep", a.Cfg.BurnoutCronSpec, jobs.BurnoutSweep(deps)); err != nil {
		return fmt.Errorf("schedule burnout sweep: %w", err)
	}
	if err := sched.At("stress_pattern_sweep", a.Cfg.StressCronSpec, jobs.StressPatternSweep(deps)); err != nil {
		return fmt.Errorf("schedule stress pattern sweep: %w", err)
	}
	sched.Every("signal_retention", 24*time.Hour, jobs.SignalRetention(deps))
	sched.Start()
	a.sched = sched

	return nil
}

func (a *App) Run() error {
	addr := ":" + a.Cfg.Port
	a.Log.Info("Server listening", "addr", addr)
	return a.Router.Run(addr)
}

func (a *App) Close() {
	if a.sched != nil {
		a.sched.Stop()
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("tracer shutdown failed", "error", err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.Log.Warn("redis close failed", "error", err)
		}
	}
	a.Log.Sync()
}
