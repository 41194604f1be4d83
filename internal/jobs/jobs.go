package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/studypulse/studypulse-backend/internal/data/repos"
	types "github.com/studypulse/studypulse-backend/internal/domain"
	"github.com/studypulse/studypulse-backend/internal/pkg/dbctx"
	apperr "github.com/studypulse/studypulse-backend/internal/pkg/errors"
	"github.com/studypulse/studypulse-backend/internal/pkg/logger"
	"github.com/studypulse/studypulse-backend/internal/services"
)

const (
	// activeUserWindow bounds which users the load sampler touches.
	activeUserWindow = 30 * time.Minute
	// sweepUserWindow bounds which users the nightly sweeps assess.
	sweepUserWindow = 14 * 24 * time.Hour
	// signalRetention is how long raw signals are kept.
	signalRetention = 90 * 24 * time.Hour
)

// Deps carries everything the background jobs touch. Each job is a closure
// over these, runnable by any scheduler.
type Deps struct {
	Log           *logger.Logger
	Load          services.LoadService
	Burnout       services.BurnoutService
	Patterns      services.StressPatternService
	Interventions services.InterventionService
	Sink          services.OverloadSink
	Sessions      repos.StudySessionRepo
	Signals       repos.BehavioralSignalRepo
}

// LoadSampler recomputes load for every recently active user, back-fills
// outcome readings on recently applied interventions, and routes overload
// events to the sink. One user's failure never stops the sweep.
func LoadSampler(d Deps) func(ctx context.Context) {
	log := d.Log.With("job", "load_sampler")
	return func(ctx context.Context) {
		dbc := dbctx.Context{Ctx: ctx}
		users, err := d.Sessions.ListActiveUserIDs(dbc, time.Now().UTC().Add(-activeUserWindow))
		if err != nil {
			log.Error("active user listing failed", "error", err)
			return
		}
		var overloads int
		for _, userID := range users {
			if ctx.Err() != nil {
				return
			}
			score, event, err := d.Load.ComputeCurrentLoad(dbc, userID, uuid.Nil, nil)
			if err != nil {
				log.Error("load compute failed", "user_id", userID, "error", err)
				continue
			}
			if d.Interventions != nil && score != nil {
				if err := d.Interventions.RecordOutcome(dbc, userID, score.Score); err != nil {
					log.Error("outcome back-fill failed", "user_id", userID, "error", err)
				}
			}
			if event == nil {
				continue
			}
			overloads++
			if d.Sink != nil {
				if err := d.Sink.HandleOverload(dbc, event); err != nil {
					log.Error("overload handling failed", "user_id", userID, "error", err)
				}
			}
		}
		log.Info("load sampling pass done", "users", len(users), "overloads", overloads)
	}
}

// BurnoutSweep assesses every user active in the rolling window and raises
// interventions for those at HIGH or CRITICAL risk.
func BurnoutSweep(d Deps) func(ctx context.Context) {
	log := d.Log.With("job", "burnout_sweep")
	return func(ctx context.Context) {
		dbc := dbctx.Context{Ctx: ctx}
		users, err := d.Sessions.ListActiveUserIDs(dbc, time.Now().UTC().Add(-sweepUserWindow))
		if err != nil {
			log.Error("active user listing failed", "error", err)
			return
		}
		var assessed, elevated int
		for _, userID := range users {
			if ctx.Err() != nil {
				return
			}
			assessment, err := d.Burnout.Assess(dbc, userID)
			if err != nil {
				if errors.Is(err, apperr.ErrDataInsufficient) {
					continue
				}
				log.Error("assessment failed", "user_id", userID, "error", err)
				continue
			}
			assessed++
			if assessment.RiskLevel != types.RiskHigh && assessment.RiskLevel != types.RiskCritical {
				continue
			}
			elevated++
			if d.Interventions != nil {
				if _, err := d.Interventions.RecommendForAssessment(dbc, assessment); err != nil {
					log.Error("recommendation failed", "user_id", userID, "error", err)
				}
			}
		}
		log.Info("burnout sweep done", "users", len(users), "assessed", assessed, "elevated", elevated)
	}
}

// StressPatternSweep refreshes per-user stress patterns. Users without
// enough history are skipped quietly.
func StressPatternSweep(d Deps) func(ctx context.Context) {
	log := d.Log.With("job", "stress_pattern_sweep")
	return func(ctx context.Context) {
		dbc := dbctx.Context{Ctx: ctx}
		users, err := d.Sessions.ListActiveUserIDs(dbc, time.Now().UTC().Add(-sweepUserWindow))
		if err != nil {
			log.Error("active user listing failed", "error", err)
			return
		}
		var updated int
		for _, userID := range users {
			if ctx.Err() != nil {
				return
			}
			if _, err := d.Patterns.Reanalyze(dbc, userID); err != nil {
				if !errors.Is(err, apperr.ErrDataInsufficient) {
					log.Error("pattern analysis failed", "user_id", userID, "error", err)
				}
				continue
			}
			updated++
		}
		log.Info("stress pattern sweep done", "users", len(users), "updated", updated)
	}
}

// SignalRetention drops raw signals past the retention horizon. Scores and
// assessments derived from them are kept.
func SignalRetention(d Deps) func(ctx context.Context) {
	log := d.Log.With("job", "signal_retention")
	return func(ctx context.Context) {
		dbc := dbctx.Context{Ctx: ctx}
		n, err := d.Signals.DeleteOlderThan(dbc, time.Now().UTC().Add(-signalRetention))
		if err != nil {
			log.Error("retention sweep failed", "error", err)
			return
		}
		log.Info("retention sweep done", "deleted", n)
	}
}
