package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/studypulse/studypulse-backend/internal/data/repos"
	types "github.com/studypulse/studypulse-backend/internal/domain"
	"github.com/studypulse/studypulse-backend/internal/pkg/dbctx"
	apperr "github.com/studypulse/studypulse-backend/internal/pkg/errors"
	"github.com/studypulse/studypulse-backend/internal/pkg/logger"
)

const (
	// patternWindowDays is how far back the analysis looks.
	patternWindowDays = 30
	// patternMinSamples is the score count below which no pattern is derived.
	patternMinSamples = 10
	// stressorRawCut marks an indicator as a primary stressor when its
	// average raw score reaches it.
	stressorRawCut = 60.0
)

type StressPatternService interface {
	// Reanalyze rebuilds the user's stress response pattern from recent
	// score history and session behavior. ErrDataInsufficient below the
	// sample floor.
	Reanalyze(dbc dbctx.Context, userID uuid.UUID) (*types.StressResponsePattern, error)
	Get(dbc dbctx.Context, userID uuid.UUID) (*types.StressResponsePattern, error)
}

type stressPatternService struct {
	log      *logger.Logger
	scores   repos.LoadScoreRepo
	sessions repos.StudySessionRepo
	patterns repos.StressPatternRepo
}

func NewStressPatternService(
	baseLog *logger.Logger,
	scores repos.LoadScoreRepo,
	sessions repos.StudySessionRepo,
	patterns repos.StressPatternRepo,
) StressPatternService {
	return &stressPatternService{
		log:      baseLog.With("service", "StressPatternService"),
		scores:   scores,
		sessions: sessions,
		patterns: patterns,
	}
}

func (s *stressPatternService) Reanalyze(dbc dbctx.Context, userID uuid.UUID) (*types.StressResponsePattern, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user required")
	}
	since := time.Now().UTC().AddDate(0, 0, -patternWindowDays)

	scores, err := s.scores.ListSince(dbc, userID, since)
	if err != nil {
		return nil, fmt.Errorf("score history: %w", err)
	}
	if len(scores) < patternMinSamples {
		return nil, fmt.Errorf("%d of %d samples: %w", len(scores), patternMinSamples, apperr.ErrDataInsufficient)
	}
	counts, err := s.sessions.CountsSince(dbc, userID, since)
	if err != nil {
		return nil, fmt.Errorf("session counts: %w", err)
	}

	pattern := &types.StressResponsePattern{
		ID:               uuid.New(),
		UserID:           userID,
		PrimaryStressors: datatypes.NewJSONSlice(primaryStressors(scores)),
		CopingStrategies: datatypes.NewJSONSlice(copingFor(primaryStressors(scores))),
		AvgRecoveryHours: avgRecoveryHours(scores),
		LoadTolerance:    toleranceFrom(scores, counts),
		SampleCount:      len(scores),
		UpdatedAt:        time.Now().UTC(),
	}
	if err := s.patterns.Upsert(dbc, pattern); err != nil {
		return nil, fmt.Errorf("store pattern: %w", err)
	}
	s.log.Info("stress pattern reanalyzed",
		"user_id", userID,
		"samples", pattern.SampleCount,
		"tolerance", pattern.LoadTolerance,
	)
	return pattern, nil
}

func (s *stressPatternService) Get(dbc dbctx.Context, userID uuid.UUID) (*types.StressResponsePattern, error) {
	pattern, err := s.patterns.GetByUser(dbc, userID)
	if err != nil {
		return nil, err
	}
	if pattern == nil {
		return nil, fmt.Errorf("pattern for user %s: %w", userID, apperr.ErrNotFound)
	}
	return pattern, nil
}

// primaryStressors picks indicators whose average raw score across the
// window is high, worst first.
func primaryStressors(scores []*types.CognitiveLoadScore) []string {
	sums := map[string]float64{}
	counts := map[string]int{}
	for _, score := range scores {
		for _, ind := range score.Breakdown {
			if !ind.Evidence {
				continue
			}
			sums[ind.Name] += ind.RawScore
			counts[ind.Name]++
		}
	}
	type avg struct {
		name string
		v    float64
	}
	var avgs []avg
	for name, sum := range sums {
		a := sum / float64(counts[name])
		if a >= stressorRawCut {
			avgs = append(avgs, avg{name, a})
		}
	}
	sort.Slice(avgs, func(i, j int) bool {
		if avgs[i].v != avgs[j].v {
			return avgs[i].v > avgs[j].v
		}
		return avgs[i].name < avgs[j].name
	})
	out := make([]string, 0, len(avgs))
	for _, a := range avgs {
		out = append(out, a.name)
	}
	return out
}

func copingFor(stressors []string) []string {
	var out []string
	for _, s := range stressors {
		switch s {
		case indicatorLatency:
			out = append(out, "shorter blocks with more frequent breaks")
		case indicatorErrorRate:
			out = append(out, "slow down and review before advancing")
		case indicatorEngagement:
			out = append(out, "vary content kinds within a session")
		case indicatorPerformance:
			out = append(out, "drop difficulty when performance slips")
		}
	}
	return out
}

// avgRecoveryHours measures how long CRITICAL episodes take to fall back
// below the MODERATE cut. Zero when the window has no completed episode.
func avgRecoveryHours(scores []*types.CognitiveLoadScore) float64 {
	var total float64
	episodes := 0
	var criticalAt *time.Time
	for _, score := range scores {
		switch {
		case score.Score >= types.LoadCriticalCut:
			if criticalAt == nil {
				at := score.CreatedAt
				criticalAt = &at
			}
		case score.Score < types.LoadModerateCut && criticalAt != nil:
			total += score.CreatedAt.Sub(*criticalAt).Hours()
			episodes++
			criticalAt = nil
		}
	}
	if episodes == 0 {
		return 0
	}
	return total / float64(episodes)
}

// toleranceFrom shifts the personal overload threshold. Users who keep
// completing sessions through heavy load tolerate more; users who abandon
// under load tolerate less. Always within [-10,10].
func toleranceFrom(scores []*types.CognitiveLoadScore, counts repos.SessionCounts) float64 {
	highShare := 0.0
	for _, score := range scores {
		if score.Score >= types.LoadHighCut {
			highShare++
		}
	}
	highShare /= float64(len(scores))
	if highShare < 0.2 || counts.Total == 0 {
		// Not enough heavy-load exposure to judge either way.
		return 0
	}
	completionRate := float64(counts.Completed) / float64(counts.Total)
	return clamp((completionRate-0.5)*20, -10, 10)
}
