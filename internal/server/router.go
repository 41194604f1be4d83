package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/studypulse/studypulse-backend/internal/handlers"
	"github.com/studypulse/studypulse-backend/internal/middleware"
)

type RouterConfig struct {
	ServiceName string
	CORSOrigins []string

	AuthMiddleware      *middleware.AuthMiddleware
	SignalHandler       *handlers.SignalHandler
	LoadHandler         *handlers.LoadHandler
	BurnoutHandler      *handlers.BurnoutHandler
	InterventionHandler *handlers.InterventionHandler
	PlanHandler         *handlers.PlanHandler
	PatternHandler      *handlers.PatternHandler
	DashboardHandler    *handlers.DashboardHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.ServiceName))

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)

	// ===============
	// || Protected ||
	// ===============
	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())

	// Signals
	api.POST("/signals", cfg.SignalHandler.Ingest)
	// Load
	api.POST("/load/compute", cfg.LoadHandler.Compute)
	api.GET("/load/current", cfg.LoadHandler.Current)
	api.GET("/load/history", cfg.LoadHandler.History)
	// Burnout
	api.GET("/burnout/current", cfg.BurnoutHandler.Current)
	api.GET("/burnout/history", cfg.BurnoutHandler.History)
	api.POST("/burnout/assess", cfg.BurnoutHandler.Assess)
	// Interventions
	api.GET("/interventions", cfg.InterventionHandler.List)
	api.POST("/interventions/:id/apply", cfg.InterventionHandler.Apply)
	api.POST("/interventions/:id/skip", cfg.InterventionHandler.Skip)
	// Plans
	api.POST("/plans", cfg.PlanHandler.Create)
	api.GET("/plans/:id", cfg.PlanHandler.Get)
	api.POST("/plans/:id/activate", cfg.PlanHandler.Activate)
	api.POST("/plans/:id/adapt", cfg.PlanHandler.Adapt)
	api.POST("/plans/:id/close", cfg.PlanHandler.Close)
	// Stress pattern
	api.GET("/pattern", cfg.PatternHandler.Get)
	api.POST("/pattern/reanalyze", cfg.PatternHandler.Reanalyze)
	// Dashboard
	api.GET("/dashboard", cfg.DashboardHandler.Get)

	return router
}
