package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/studypulse/studypulse-backend/internal/cache"
	types "github.com/studypulse/studypulse-backend/internal/domain"
	"github.com/studypulse/studypulse-backend/internal/pkg/dbctx"
	"github.com/studypulse/studypulse-backend/internal/pkg/logger"
)

// DashboardSummary is the aggregate the frontend dashboard renders: the
// current load picture, the latest burnout assessment, and whatever
// interventions are still awaiting a decision.
type DashboardSummary struct {
	Load    *LoadSnapshot                       `json:"load"`
	Burnout *types.BurnoutRiskAssessment        `json:"burnout"`
	Pending []*types.InterventionRecommendation `json:"pending_interventions"`
}

type DashboardService interface {
	// Summary assembles the dashboard aggregate, served from cache for up
	// to the dashboard TTL.
	Summary(ctx context.Context, userID uuid.UUID) (*DashboardSummary, error)
}

type dashboardService struct {
	log           *logger.Logger
	load          LoadService
	burnout       BurnoutService
	interventions InterventionService
	cache         *cache.Service
}

func NewDashboardService(
	baseLog *logger.Logger,
	load LoadService,
	burnout BurnoutService,
	interventions InterventionService,
	cacheSvc *cache.Service,
) DashboardService {
	return &dashboardService{
		log:           baseLog.With("service", "DashboardService"),
		load:          load,
		burnout:       burnout,
		interventions: interventions,
		cache:         cacheSvc,
	}
}

func (s *dashboardService) Summary(ctx context.Context, userID uuid.UUID) (*DashboardSummary, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user required")
	}
	var out DashboardSummary
	_, err := s.cache.GetOrCompute(ctx, cache.ClassDashboard, userID.String(), &out, func(ctx context.Context) (any, error) {
		snap, err := s.load.GetCurrentLoad(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("load snapshot: %w", err)
		}
		latest, err := s.burnout.Latest(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("burnout state: %w", err)
		}
		pending, err := s.interventions.List(dbctx.Context{Ctx: ctx}, userID, types.InterventionPending)
		if err != nil {
			return nil, fmt.Errorf("pending interventions: %w", err)
		}
		return &DashboardSummary{Load: snap, Burnout: latest, Pending: pending}, nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
