package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/studypulse/studypulse-backend/internal/data/repos"
	types "github.com/studypulse/studypulse-backend/internal/domain"
	"github.com/studypulse/studypulse-backend/internal/pkg/dbctx"
	apperr "github.com/studypulse/studypulse-backend/internal/pkg/errors"
)

type fakeSessionRepo struct {
	counts    repos.SessionCounts
	retention *float64
	userIDs   []uuid.UUID
}

func (f *fakeSessionRepo) Create(_ dbctx.Context, _ *types.StudySession) error { return nil }
func (f *fakeSessionRepo) End(_ dbctx.Context, _ uuid.UUID, _ bool, _ *float64) error {
	return nil
}
func (f *fakeSessionRepo) CountsSince(_ dbctx.Context, _ uuid.UUID, _ time.Time) (repos.SessionCounts, error) {
	return f.counts, nil
}
func (f *fakeSessionRepo) AvgRetentionSince(_ dbctx.Context, _ uuid.UUID, _ time.Time) (*float64, error) {
	return f.retention, nil
}
func (f *fakeSessionRepo) ListActiveUserIDs(_ dbctx.Context, _ time.Time) ([]uuid.UUID, error) {
	return f.userIDs, nil
}

func scoreWithBreakdown(score float64, at time.Time, inds ...types.StressIndicator) *types.CognitiveLoadScore {
	return &types.CognitiveLoadScore{
		ID:        uuid.New(),
		Score:     score,
		Level:     types.LevelForLoad(score),
		Breakdown: datatypes.NewJSONSlice(inds),
		CreatedAt: at,
	}
}

func TestReanalyzeNeedsSamples(t *testing.T) {
	scores := &fakeLoadScoreRepo{}
	svc := NewStressPatternService(testLogger(t), scores, &fakeSessionRepo{}, &fakePatternRepo{})
	dbc := dbctx.Context{Ctx: context.Background()}

	for i := 0; i < patternMinSamples-1; i++ {
		scores.rows = append(scores.rows, &types.CognitiveLoadScore{Score: 50, CreatedAt: time.Now().UTC()})
	}
	if _, err := svc.Reanalyze(dbc, uuid.New()); !errors.Is(err, apperr.ErrDataInsufficient) {
		t.Fatalf("thin history error = %v, want ErrDataInsufficient", err)
	}
}

func TestReanalyzeDerivesPattern(t *testing.T) {
	scores := &fakeLoadScoreRepo{}
	patterns := &fakePatternRepo{}
	sessions := &fakeSessionRepo{counts: repos.SessionCounts{Total: 20, Completed: 18}}
	svc := NewStressPatternService(testLogger(t), scores, sessions, patterns)
	dbc := dbctx.Context{Ctx: context.Background()}
	now := time.Now().UTC()

	// Heavy-load history where latency is the dominant indicator.
	for i := 0; i < 12; i++ {
		scores.rows = append(scores.rows, scoreWithBreakdown(72, now.Add(time.Duration(-i)*time.Hour),
			types.StressIndicator{Name: indicatorLatency, RawScore: 80, Evidence: true},
			types.StressIndicator{Name: indicatorErrorRate, RawScore: 30, Evidence: true},
		))
	}

	pattern, err := svc.Reanalyze(dbc, uuid.New())
	if err != nil {
		t.Fatalf("Reanalyze: %v", err)
	}
	if pattern.SampleCount != 12 {
		t.Fatalf("sample count = %d, want 12", pattern.SampleCount)
	}
	if len(pattern.PrimaryStressors) != 1 || pattern.PrimaryStressors[0] != indicatorLatency {
		t.Fatalf("stressors = %v, want [%s]", pattern.PrimaryStressors, indicatorLatency)
	}
	// 90% completion through constant high load reads as high tolerance.
	if pattern.LoadTolerance <= 0 || pattern.LoadTolerance > 10 {
		t.Fatalf("tolerance = %v, want in (0,10]", pattern.LoadTolerance)
	}
	if patterns.pattern == nil {
		t.Fatalf("pattern not stored")
	}
}

func TestToleranceBounds(t *testing.T) {
	highScores := func(n int) []*types.CognitiveLoadScore {
		out := make([]*types.CognitiveLoadScore, n)
		for i := range out {
			out[i] = &types.CognitiveLoadScore{Score: 75}
		}
		return out
	}

	// Perfect completion saturates at +10.
	got := toleranceFrom(highScores(10), repos.SessionCounts{Total: 10, Completed: 10})
	if got != 10 {
		t.Fatalf("full completion tolerance = %v, want 10", got)
	}
	// Abandoning everything saturates at -10.
	got = toleranceFrom(highScores(10), repos.SessionCounts{Total: 10, Skipped: 10})
	if got != -10 {
		t.Fatalf("full abandonment tolerance = %v, want -10", got)
	}
	// Too little heavy-load exposure to judge.
	calm := []*types.CognitiveLoadScore{{Score: 30}, {Score: 35}, {Score: 40}, {Score: 30}, {Score: 45}}
	if got := toleranceFrom(calm, repos.SessionCounts{Total: 10, Completed: 10}); got != 0 {
		t.Fatalf("calm history tolerance = %v, want 0", got)
	}
}

func TestAvgRecoveryHours(t *testing.T) {
	now := time.Now().UTC()
	mk := func(score float64, hoursAgo float64) *types.CognitiveLoadScore {
		return &types.CognitiveLoadScore{
			Score:     score,
			CreatedAt: now.Add(time.Duration(-hoursAgo * float64(time.Hour))),
		}
	}

	// Critical at t-10h, recovered below moderate at t-4h: 6 hours.
	scores := []*types.CognitiveLoadScore{mk(85, 10), mk(65, 8), mk(30, 4)}
	if got := avgRecoveryHours(scores); got < 5.9 || got > 6.1 {
		t.Fatalf("recovery hours = %v, want ~6", got)
	}

	// Never recovered: no episode.
	if got := avgRecoveryHours([]*types.CognitiveLoadScore{mk(85, 10), mk(82, 5)}); got != 0 {
		t.Fatalf("open episode recovery = %v, want 0", got)
	}
}
