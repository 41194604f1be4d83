package app

import (
	"github.com/studypulse/studypulse-backend/internal/handlers"
	"github.com/studypulse/studypulse-backend/internal/pkg/logger"
)

type Handlers struct {
	Signal       *handlers.SignalHandler
	Load         *handlers.LoadHandler
	Burnout      *handlers.BurnoutHandler
	Intervention *handlers.InterventionHandler
	Plan         *handlers.PlanHandler
	Pattern      *handlers.PatternHandler
	Dashboard    *handlers.DashboardHandler
}

func wireHandlers(log *logger.Logger, s Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Signal:       handlers.NewSignalHandler(log, s.Signal),
		Load:         handlers.NewLoadHandler(log, s.Load, s.Orchestration),
		Burnout:      handlers.NewBurnoutHandler(log, s.Burnout),
		Intervention: handlers.NewInterventionHandler(log, s.Intervention),
		Plan:         handlers.NewPlanHandler(log, s.Orchestration, s.Load),
		Pattern:      handlers.NewPatternHandler(log, s.Pattern),
		Dashboard:    handlers.NewDashboardHandler(log, s.Dashboard),
	}
}
