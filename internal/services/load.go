package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/studypulse/studypulse-backend/internal/cache"
	"github.com/studypulse/studypulse-backend/internal/config"
	"github.com/studypulse/studypulse-backend/internal/data/repos"
	types "github.com/studypulse/studypulse-backend/internal/domain"
	"github.com/studypulse/studypulse-backend/internal/pkg/dbctx"
	"github.com/studypulse/studypulse-backend/internal/pkg/logger"
)

const (
	indicatorLatency     = "latency_deviation"
	indicatorErrorRate   = "error_rate"
	indicatorEngagement  = "engagement_drop"
	indicatorPerformance = "performance_decline"

	// emptySignalConfidence is the near-zero confidence attached to the
	// neutral default returned when no evidence exists.
	emptySignalConfidence = 0.05

	// recentSignalWindow bounds how far back the scorer looks when the
	// caller does not supply signals.
	recentSignalWindow = 30 * time.Minute
)

// LoadSnapshot is the cached read model for "current load": the latest
// score plus a trend direction derived from recent history.
type LoadSnapshot struct {
	Score *types.CognitiveLoadScore `json:"score"`
	Trend string                    `json:"trend"` // "rising", "falling", "stable", "unknown"
}

type LoadService interface {
	// ComputeCurrentLoad scores the user's recent signals, persists the
	// score, refreshes the cache, and reports an overload event when the
	// score crosses the personal critical threshold. When signals is nil
	// the last half hour is read from storage.
	ComputeCurrentLoad(dbc dbctx.Context, userID, sessionID uuid.UUID, signals []*types.BehavioralSignal) (*types.CognitiveLoadScore, *types.OverloadEvent, error)
	GetCurrentLoad(ctx context.Context, userID uuid.UUID) (*LoadSnapshot, error)
	History(dbc dbctx.Context, userID uuid.UUID, days int) ([]*types.CognitiveLoadScore, error)
}

type loadService struct {
	log      *logger.Logger
	scoring  config.Scoring
	signals  repos.BehavioralSignalRepo
	scores   repos.LoadScoreRepo
	patterns repos.StressPatternRepo
	cache    *cache.Service
}

func NewLoadService(
	baseLog *logger.Logger,
	scoring config.Scoring,
	signals repos.BehavioralSignalRepo,
	scores repos.LoadScoreRepo,
	patterns repos.StressPatternRepo,
	cacheSvc *cache.Service,
) LoadService {
	return &loadService{
		log:      baseLog.With("service", "LoadService"),
		scoring:  scoring,
		signals:  signals,
		scores:   scores,
		patterns: patterns,
		cache:    cacheSvc,
	}
}

func (s *loadService) ComputeCurrentLoad(dbc dbctx.Context, userID, sessionID uuid.UUID, signals []*types.BehavioralSignal) (*types.CognitiveLoadScore, *types.OverloadEvent, error) {
	if userID == uuid.Nil {
		return nil, nil, fmt.Errorf("user required")
	}

	if signals == nil {
		var err error
		signals, err = s.signals.ListRecent(dbc, userID, sessionID, time.Now().UTC().Add(-recentSignalWindow), 0)
		if err != nil {
			return nil, nil, fmt.Errorf("read recent signals: %w", err)
		}
	}

	pattern, err := s.patterns.GetByUser(dbc, userID)
	if err != nil {
		// Personalization is an enhancement, not a dependency.
		s.log.Warn("stress pattern read failed, scoring unpersonalized", "user_id", userID, "error", err)
		pattern = nil
	}

	value, breakdown, confidence := scoreSignals(s.scoring, signals)

	row := &types.CognitiveLoadScore{
		ID:         uuid.New(),
		UserID:     userID,
		Score:      value,
		Level:      types.LevelForLoad(value),
		Confidence: confidence,
		Breakdown:  datatypes.NewJSONSlice(breakdown),
		CreatedAt:  time.Now().UTC(),
	}
	if sessionID != uuid.Nil {
		sid := sessionID
		row.SessionID = &sid
	}

	if err := s.scores.Create(dbc, row); err != nil {
		return nil, nil, fmt.Errorf("persist load score: %w", err)
	}

	snapshot := &LoadSnapshot{Score: row, Trend: trendOf(append([]*types.CognitiveLoadScore{row}, mustRecent(s, dbc, userID)...))}
	if err := s.cache.Put(dbc.Ctx, cache.ClassCurrentLoad, userID.String(), snapshot); err != nil {
		s.log.Warn("load cache write failed", "user_id", userID, "error", err)
	}

	tolerance := 0.0
	if pattern != nil {
		tolerance = pattern.LoadTolerance
	}
	event := DetectOverload(row, tolerance)
	return row, event, nil
}

func (s *loadService) GetCurrentLoad(ctx context.Context, userID uuid.UUID) (*LoadSnapshot, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user required")
	}
	var snap LoadSnapshot
	_, err := s.cache.GetOrCompute(ctx, cache.ClassCurrentLoad, userID.String(), &snap, func(ctx context.Context) (any, error) {
		dbc := dbctx.Context{Ctx: ctx}
		recent, err := s.scores.ListRecent(dbc, userID, 6)
		if err != nil {
			return nil, err
		}
		if len(recent) == 0 {
			// A user with no history still gets a value, not an error.
			neutral := &types.CognitiveLoadScore{
				ID:         uuid.New(),
				UserID:     userID,
				Score:      s.scoring.NeutralScore,
				Level:      types.LevelForLoad(s.scoring.NeutralScore),
				Confidence: emptySignalConfidence,
				CreatedAt:  time.Now().UTC(),
			}
			return &LoadSnapshot{Score: neutral, Trend: "unknown"}, nil
		}
		return &LoadSnapshot{Score: recent[0], Trend: trendOf(recent)}, nil
	})
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *loadService) History(dbc dbctx.Context, userID uuid.UUID, days int) ([]*types.CognitiveLoadScore, error) {
	if days <= 0 {
		days = s.scoring.WindowDays
	}
	since := time.Now().UTC().AddDate(0, 0, -days)
	return s.scores.ListSince(dbc, userID, since)
}

func mustRecent(s *loadService, dbc dbctx.Context, userID uuid.UUID) []*types.CognitiveLoadScore {
	recent, err := s.scores.ListRecent(dbc, userID, 5)
	if err != nil {
		s.log.Warn("trend read failed", "user_id", userID, "error", err)
		return nil
	}
	return recent
}

// trendOf derives a direction from scores ordered most recent first.
func trendOf(scores []*types.CognitiveLoadScore) string {
	if len(scores) < 2 {
		return "unknown"
	}
	latest := scores[0].Score
	var older float64
	for _, sc := range scores[1:] {
		older += sc.Score
	}
	older /= float64(len(scores) - 1)
	switch {
	case latest > older+5:
		return "rising"
	case latest < older-5:
		return "falling"
	default:
		return "stable"
	}
}

// scoreSignals combines the normalized stress indicators into a 0-100 load
// score. Weights are renormalized over the indicators that actually have
// evidence; an empty signal set yields the calibrated neutral default with
// near-zero confidence. Holding other inputs fixed, a higher error rate or
// higher latency never lowers the result.
func scoreSignals(sc config.Scoring, signals []*types.BehavioralSignal) (float64, []types.StressIndicator, float64) {
	agg := aggregateSignals(signals)

	indicators := []types.StressIndicator{
		{Name: indicatorLatency, Weight: sc.LoadWeights.Latency},
		{Name: indicatorErrorRate, Weight: sc.LoadWeights.ErrorRate},
		{Name: indicatorEngagement, Weight: sc.LoadWeights.Engagement},
		{Name: indicatorPerformance, Weight: sc.LoadWeights.Performance},
	}

	indicators[0].RawScore, indicators[0].Evidence = latencyScore(agg, sc.BaselineLatencyMs)
	indicators[1].RawScore, indicators[1].Evidence = errorRateScore(agg)
	indicators[2].RawScore, indicators[2].Evidence = engagementScore(agg)
	indicators[3].RawScore, indicators[3].Evidence = performanceScore(agg)

	var weightSum float64
	evidenced := 0
	for i := range indicators {
		if indicators[i].Evidence {
			weightSum += indicators[i].Weight
			evidenced++
		}
	}
	if evidenced == 0 || weightSum <= 0 {
		return sc.NeutralScore, indicators, emptySignalConfidence
	}

	var total float64
	for i := range indicators {
		if !indicators[i].Evidence {
			continue
		}
		contribution := indicators[i].RawScore * (indicators[i].Weight / weightSum)
		indicators[i].Contribution = contribution
		total += contribution
	}
	total = clamp(total, 0, 100)

	confidence := float64(evidenced) / float64(len(indicators))
	return total, indicators, confidence
}

type signalAggregate struct {
	latencySum   float64
	latencyCount int

	errorCount    int
	hasErrors     bool
	interactions  int
	hasInteract   bool
	pauseCount    int
	hasPauses     bool
	pauseDuration float64
	hasPauseDur   bool

	performance []float64
}

func aggregateSignals(signals []*types.BehavioralSignal) signalAggregate {
	var agg signalAggregate
	for _, sig := range signals {
		if sig == nil {
			continue
		}
		for _, v := range sig.LatencySamplesMs {
			agg.latencySum += v
			agg.latencyCount++
		}
		if sig.ErrorCount != nil {
			agg.errorCount += *sig.ErrorCount
			agg.hasErrors = true
		}
		if sig.InteractionCount != nil {
			agg.interactions += *sig.InteractionCount
			agg.hasInteract = true
		}
		if sig.PauseCount != nil {
			agg.pauseCount += *sig.PauseCount
			agg.hasPauses = true
		}
		if sig.PauseDurationMs != nil {
			agg.pauseDuration += *sig.PauseDurationMs
			agg.hasPauseDur = true
		}
		agg.performance = append(agg.performance, sig.PerformanceScores...)
	}
	return agg
}

// latencyScore maps mean latency relative to the baseline into [0,100]:
// at baseline 50, at double the baseline 100, at zero 0.
func latencyScore(agg signalAggregate, baselineMs float64) (float64, bool) {
	if agg.latencyCount == 0 || baselineMs <= 0 {
		return 0, false
	}
	mean := agg.latencySum / float64(agg.latencyCount)
	deviation := (mean - baselineMs) / baselineMs
	return clamp(50+50*deviation, 0, 100), true
}

func errorRateScore(agg signalAggregate) (float64, bool) {
	if !agg.hasErrors {
		return 0, false
	}
	denom := agg.errorCount
	if agg.hasInteract && agg.interactions > denom {
		denom = agg.interactions
	}
	if denom == 0 {
		return 0, true
	}
	rate := float64(agg.errorCount) / float64(denom)
	return clamp(rate*100, 0, 100), true
}

// engagementScore reads pause frequency and cumulative pause time as
// engagement-drop evidence; six pauses or ten paused minutes saturate their
// component.
func engagementScore(agg signalAggregate) (float64, bool) {
	if !agg.hasPauses && !agg.hasPauseDur {
		return 0, false
	}
	var parts, sum float64
	if agg.hasPauses {
		sum += math.Min(float64(agg.pauseCount)/6.0, 1)
		parts++
	}
	if agg.hasPauseDur {
		sum += math.Min(agg.pauseDuration/(10*60*1000), 1)
		parts++
	}
	return clamp(sum/parts*100, 0, 100), true
}

// performanceScore reads decline across the sample series plus distance
// from full marks on the recent half.
func performanceScore(agg signalAggregate) (float64, bool) {
	n := len(agg.performance)
	if n == 0 {
		return 0, false
	}
	if n == 1 {
		return clamp((1-agg.performance[0])*100, 0, 100), true
	}
	half := n / 2
	first := mean(agg.performance[:half])
	second := mean(agg.performance[half:])
	drop := math.Max(0, first-second)
	base := 1 - second
	return clamp((0.6*drop+0.4*base)*100, 0, 100), true
}

func mean(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
