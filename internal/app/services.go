package app

import (
	"github.com/studypulse/studypulse-backend/internal/cache"
	"github.com/studypulse/studypulse-backend/internal/config"
	"github.com/studypulse/studypulse-backend/internal/pkg/logger"
	"github.com/studypulse/studypulse-backend/internal/services"
)

type Services struct {
	Signal        services.SignalService
	Load          services.LoadService
	Burnout       services.BurnoutService
	Intervention  services.InterventionService
	Orchestration services.OrchestrationService
	Pattern       services.StressPatternService
	Dashboard     services.DashboardService
}

func wireServices(log *logger.Logger, cfg config.Config, r Repos, cacheSvc *cache.Service) Services {
	log.Info("Wiring services...")

	signalSvc := services.NewSignalService(log, r.Signals)
	loadSvc := services.NewLoadService(log, cfg.Scoring, r.Signals, r.Scores, r.Patterns, cacheSvc)
	burnoutSvc := services.NewBurnoutService(log, cfg.Scoring, r.Scores, r.Sessions, r.Patterns, r.Assessments, cacheSvc)
	patternSvc := services.NewStressPatternService(log, r.Scores, r.Sessions, r.Patterns)

	// Intervention and orchestration reference each other: recommendations
	// are applied to plans, and adapting plans raises recommendations. The
	// applier is injected after both exist.
	interventionSvc := services.NewInterventionService(log, r.Interventions, r.Scores, r.Patterns, r.Plans)
	orchestrationSvc := services.NewOrchestrationService(log, r.Plans, r.Assessments, r.Scores, interventionSvc)
	interventionSvc.SetPlanApplier(orchestrationSvc)

	dashboardSvc := services.NewDashboardService(log, loadSvc, burnoutSvc, interventionSvc, cacheSvc)

	return Services{
		Signal:        signalSvc,
		Load:          loadSvc,
		Burnout:       burnoutSvc,
		Intervention:  interventionSvc,
		Orchestration: orchestrationSvc,
		Pattern:       patternSvc,
		Dashboard:     dashboardSvc,
	}
}
