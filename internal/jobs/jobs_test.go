package jobs

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/studypulse/studypulse-backend/internal/data/repos"
	types "github.com/studypulse/studypulse-backend/internal/domain"
	"github.com/studypulse/studypulse-backend/internal/pkg/dbctx"
	apperr "github.com/studypulse/studypulse-backend/internal/pkg/errors"
	"github.com/studypulse/studypulse-backend/internal/pkg/logger"
	"github.com/studypulse/studypulse-backend/internal/services"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

type stubSessions struct {
	users []uuid.UUID
}

func (s *stubSessions) Create(dbctx.Context, *types.StudySession) error          { return nil }
func (s *stubSessions) End(dbctx.Context, uuid.UUID, bool, *float64) error       { return nil }
func (s *stubSessions) AvgRetentionSince(dbctx.Context, uuid.UUID, time.Time) (*float64, error) {
	return nil, nil
}
func (s *stubSessions) CountsSince(dbctx.Context, uuid.UUID, time.Time) (repos.SessionCounts, error) {
	return repos.SessionCounts{}, nil
}
func (s *stubSessions) ListActiveUserIDs(dbctx.Context, time.Time) ([]uuid.UUID, error) {
	return s.users, nil
}

type stubLoad struct {
	computed []uuid.UUID
	failFor  uuid.UUID
	eventFor uuid.UUID
}

func (s *stubLoad) ComputeCurrentLoad(_ dbctx.Context, userID, _ uuid.UUID, _ []*types.BehavioralSignal) (*types.CognitiveLoadScore, *types.OverloadEvent, error) {
	if userID == s.failFor {
		return nil, nil, fmt.Errorf("boom")
	}
	s.computed = append(s.computed, userID)
	score := &types.CognitiveLoadScore{ID: uuid.New(), UserID: userID, Score: 50}
	if userID == s.eventFor {
		score.Score = 90
		return score, &types.OverloadEvent{ScoreID: score.ID, UserID: userID, Score: 90}, nil
	}
	return score, nil, nil
}

func (s *stubLoad) GetCurrentLoad(context.Context, uuid.UUID) (*services.LoadSnapshot, error) {
	return nil, nil
}

func (s *stubLoad) History(dbctx.Context, uuid.UUID, int) ([]*types.CognitiveLoadScore, error) {
	return nil, nil
}

type stubSink struct {
	events []*types.OverloadEvent
}

func (s *stubSink) HandleOverload(_ dbctx.Context, event *types.OverloadEvent) error {
	s.events = append(s.events, event)
	return nil
}

type stubBurnout struct {
	assessed []uuid.UUID
	levelFor map[uuid.UUID]types.RiskLevel
	thinFor  uuid.UUID
}

func (s *stubBurnout) Assess(_ dbctx.Context, userID uuid.UUID) (*types.BurnoutRiskAssessment, error) {
	if userID == s.thinFor {
		return nil, fmt.Errorf("window: %w", apperr.ErrDataInsufficient)
	}
	s.assessed = append(s.assessed, userID)
	level := types.RiskLow
	if l, ok := s.levelFor[userID]; ok {
		level = l
	}
	return &types.BurnoutRiskAssessment{ID: uuid.New(), UserID: userID, RiskLevel: level}, nil
}

func (s *stubBurnout) Latest(context.Context, uuid.UUID) (*types.BurnoutRiskAssessment, error) {
	return nil, nil
}

func (s *stubBurnout) History(dbctx.Context, uuid.UUID, int) ([]*types.BurnoutRiskAssessment, error) {
	return nil, nil
}

type stubInterventions struct {
	raisedFor   []uuid.UUID
	outcomesFor []uuid.UUID
}

func (s *stubInterventions) RecommendForAssessment(_ dbctx.Context, a *types.BurnoutRiskAssessment) ([]*types.InterventionRecommendation, error) {
	s.raisedFor = append(s.raisedFor, a.UserID)
	return nil, nil
}

func (s *stubInterventions) RecommendForOverload(dbctx.Context, *types.OverloadEvent) ([]*types.InterventionRecommendation, error) {
	return nil, nil
}

func (s *stubInterventions) List(dbctx.Context, uuid.UUID, types.InterventionStatus) ([]*types.InterventionRecommendation, error) {
	return nil, nil
}

func (s *stubInterventions) Apply(dbctx.Context, uuid.UUID, uuid.UUID) (*types.InterventionRecommendation, error) {
	return nil, nil
}

func (s *stubInterventions) Skip(dbctx.Context, uuid.UUID, uuid.UUID) error { return nil }

func (s *stubInterventions) RecordOutcome(_ dbctx.Context, userID uuid.UUID, _ float64) error {
	s.outcomesFor = append(s.outcomesFor, userID)
	return nil
}

func TestLoadSamplerContinuesPastFailures(t *testing.T) {
	good1, bad, overloaded := uuid.New(), uuid.New(), uuid.New()
	load := &stubLoad{failFor: bad, eventFor: overloaded}
	sink := &stubSink{}
	interventions := &stubInterventions{}

	run := LoadSampler(Deps{
		Log:           testLogger(t),
		Load:          load,
		Sink:          sink,
		Interventions: interventions,
		Sessions:      &stubSessions{users: []uuid.UUID{good1, bad, overloaded}},
	})
	run(context.Background())

	if len(load.computed) != 2 {
		t.Fatalf("computed for %d users, want 2", len(load.computed))
	}
	if len(sink.events) != 1 || sink.events[0].UserID != overloaded {
		t.Fatalf("sink events = %+v, want one for %s", sink.events, overloaded)
	}
	if len(interventions.outcomesFor) != 2 {
		t.Fatalf("outcome back-fill ran for %d users, want 2 (failed compute skipped)", len(interventions.outcomesFor))
	}
}

func TestBurnoutSweepRaisesForElevatedOnly(t *testing.T) {
	calm, hot, thin := uuid.New(), uuid.New(), uuid.New()
	burnout := &stubBurnout{
		thinFor:  thin,
		levelFor: map[uuid.UUID]types.RiskLevel{hot: types.RiskCritical},
	}
	interventions := &stubInterventions{}

	run := BurnoutSweep(Deps{
		Log:           testLogger(t),
		Burnout:       burnout,
		Interventions: interventions,
		Sessions:      &stubSessions{users: []uuid.UUID{calm, hot, thin}},
	})
	run(context.Background())

	if len(burnout.assessed) != 2 {
		t.Fatalf("assessed %d users, want 2 (thin history skipped)", len(burnout.assessed))
	}
	if len(interventions.raisedFor) != 1 || interventions.raisedFor[0] != hot {
		t.Fatalf("interventions raised for %v, want only %s", interventions.raisedFor, hot)
	}
}

func TestSweepStopsOnCanceledContext(t *testing.T) {
	load := &stubLoad{}
	run := LoadSampler(Deps{
		Log:      testLogger(t),
		Load:     load,
		Sessions: &stubSessions{users: []uuid.UUID{uuid.New(), uuid.New()}},
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	run(ctx)

	if len(load.computed) != 0 {
		t.Fatalf("canceled sweep still computed %d users", len(load.computed))
	}
}
