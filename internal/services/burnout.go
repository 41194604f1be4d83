package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	"github.com/studypulse/studypulse-backend/internal/cache"
	"github.com/studypulse/studypulse-backend/internal/config"
	"github.com/studypulse/studypulse-backend/internal/data/repos"
	types "github.com/studypulse/studypulse-backend/internal/domain"
	"github.com/studypulse/studypulse-backend/internal/pkg/dbctx"
	"github.com/studypulse/studypulse-backend/internal/pkg/logger"
)

const (
	factorChronicLoad        = "chronic_load"
	factorStudyIntensity     = "study_intensity"
	factorPerformanceDecline = "performance_decline"
	factorAbandonRate        = "abandon_rate"

	// sustainedLoadDays is the consecutive-day run of HIGH-or-worse daily
	// load that raises a warning signal.
	sustainedLoadDays = 5

	// saturationSessionsPerDay is the pace at which the intensity factor
	// reaches its maximum.
	saturationSessionsPerDay = 3.0
)

type BurnoutService interface {
	// Assess runs a full rolling-window assessment for one user, persists
	// the result, and refreshes the cache. Returns ErrDataInsufficient when
	// the window holds no usable evidence at all.
	Assess(dbc dbctx.Context, userID uuid.UUID) (*types.BurnoutRiskAssessment, error)
	Latest(ctx context.Context, userID uuid.UUID) (*types.BurnoutRiskAssessment, error)
	History(dbc dbctx.Context, userID uuid.UUID, days int) ([]*types.BurnoutRiskAssessment, error)
}

type burnoutService struct {
	log         *logger.Logger
	scoring     config.Scoring
	scores      repos.LoadScoreRepo
	sessions    repos.StudySessionRepo
	patterns    repos.StressPatternRepo
	assessments repos.BurnoutAssessmentRepo
	cache       *cache.Service
}

func NewBurnoutService(
	baseLog *logger.Logger,
	scoring config.Scoring,
	scores repos.LoadScoreRepo,
	sessions repos.StudySessionRepo,
	patterns repos.StressPatternRepo,
	assessments repos.BurnoutAssessmentRepo,
	cacheSvc *cache.Service,
) BurnoutService {
	return &burnoutService{
		log:         baseLog.With("service", "BurnoutService"),
		scoring:     scoring,
		scores:      scores,
		sessions:    sessions,
		patterns:    patterns,
		assessments: assessments,
		cache:       cacheSvc,
	}
}

// assessmentWindow is everything the pure assessment math consumes, gathered
// up front so the computation itself touches no storage.
type assessmentWindow struct {
	Scores       []*types.CognitiveLoadScore
	Counts       repos.SessionCounts
	AvgRetention *float64
	Pattern      *types.StressResponsePattern
}

func (s *burnoutService) Assess(dbc dbctx.Context, userID uuid.UUID) (*types.BurnoutRiskAssessment, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user required")
	}

	windowDays := s.scoring.WindowDays
	since := time.Now().UTC().AddDate(0, 0, -windowDays)

	// The four window reads are independent; fetch them in parallel. The
	// fan-out deliberately ignores any caller transaction: these are plain
	// reads and *gorm.DB is safe for concurrent use where a tx is not.
	var win assessmentWindow
	g, gctx := errgroup.WithContext(dbc.Ctx)
	g.Go(func() error {
		rows, err := s.scores.ListSince(dbctx.Context{Ctx: gctx}, userID, since)
		if err != nil {
			return fmt.Errorf("load scores: %w", err)
		}
		win.Scores = rows
		return nil
	})
	g.Go(func() error {
		counts, err := s.sessions.CountsSince(dbctx.Context{Ctx: gctx}, userID, since)
		if err != nil {
			return fmt.Errorf("session counts: %w", err)
		}
		win.Counts = counts
		return nil
	})
	g.Go(func() error {
		avg, err := s.sessions.AvgRetentionSince(dbctx.Context{Ctx: gctx}, userID, since)
		if err != nil {
			return fmt.Errorf("retention: %w", err)
		}
		win.AvgRetention = avg
		return nil
	})
	g.Go(func() error {
		pattern, err := s.patterns.GetByUser(dbctx.Context{Ctx: gctx}, userID)
		if err != nil {
			return fmt.Errorf("stress pattern: %w", err)
		}
		win.Pattern = pattern
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("gather assessment window: %w", err)
	}

	risk, factors, warnings, confidence, err := assessWindow(s.scoring, win, windowDays)
	if err != nil {
		return nil, err
	}

	level := types.LevelForRisk(risk)
	row := &types.BurnoutRiskAssessment{
		ID:              uuid.New(),
		UserID:          userID,
		AssessedAt:      time.Now().UTC(),
		WindowDays:      windowDays,
		RiskScore:       risk,
		RiskLevel:       level,
		Confidence:      confidence,
		Factors:         datatypes.NewJSONSlice(factors),
		Warnings:        datatypes.NewJSONSlice(warnings),
		Recommendations: datatypes.NewJSONSlice(recommendationsFor(level, warnings)),
		MissionOverride: level == types.RiskHigh || level == types.RiskCritical,
	}

	if err := s.assessments.Create(dbc, row); err != nil {
		return nil, fmt.Errorf("persist assessment: %w", err)
	}
	if err := s.cache.Put(dbc.Ctx, cache.ClassBurnout, userID.String(), row); err != nil {
		s.log.Warn("burnout cache write failed", "user_id", userID, "error", err)
	}
	s.log.Info("burnout assessment complete",
		"user_id", userID,
		"risk_score", risk,
		"risk_level", level,
		"confidence", confidence,
	)
	return row, nil
}

func (s *burnoutService) Latest(ctx context.Context, userID uuid.UUID) (*types.BurnoutRiskAssessment, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user required")
	}
	var row types.BurnoutRiskAssessment
	_, err := s.cache.GetOrCompute(ctx, cache.ClassBurnout, userID.String(), &row, func(ctx context.Context) (any, error) {
		latest, err := s.assessments.Latest(dbctx.Context{Ctx: ctx}, userID)
		if err != nil {
			return nil, err
		}
		if latest == nil {
			// A user never assessed still gets an answer, not an error.
			return &types.BurnoutRiskAssessment{
				ID:         uuid.New(),
				UserID:     userID,
				AssessedAt: time.Now().UTC(),
				WindowDays: s.scoring.WindowDays,
				RiskScore:  0,
				RiskLevel:  types.RiskLow,
				Confidence: emptySignalConfidence,
				Warnings: datatypes.NewJSONSlice([]types.WarningSignal{{
					Code:    "insufficient_data",
					Message: "no burnout assessment on record",
				}}),
				Recommendations: datatypes.NewJSONSlice(recommendationsFor(types.RiskLow, nil)),
			}, nil
		}
		return latest, nil
	})
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *burnoutService) History(dbc dbctx.Context, userID uuid.UUID, days int) ([]*types.BurnoutRiskAssessment, error) {
	if days <= 0 {
		days = 90
	}
	since := time.Now().UTC().AddDate(0, 0, -days)
	return s.assessments.ListSince(dbc, userID, since)
}

// assessWindow turns a gathered window into a risk score, factor breakdown,
// warning signals, and confidence. Weights renormalize over factors with
// evidence; a window with no evidence at all degrades to a zero-risk
// assessment at near-zero confidence rather than failing.
func assessWindow(sc config.Scoring, win assessmentWindow, windowDays int) (float64, []types.ContributingFactor, []types.WarningSignal, float64, error) {
	factors := []types.ContributingFactor{
		{Name: factorChronicLoad, Weight: sc.BurnoutWeights.ChronicLoad},
		{Name: factorStudyIntensity, Weight: sc.BurnoutWeights.StudyIntensity},
		{Name: factorPerformanceDecline, Weight: sc.BurnoutWeights.PerformanceDecline},
		{Name: factorAbandonRate, Weight: sc.BurnoutWeights.AbandonRate},
	}
	evidence := make([]bool, len(factors))

	if len(win.Scores) > 0 {
		var sum float64
		for _, row := range win.Scores {
			sum += row.Score
		}
		factors[0].Score = clamp(sum/float64(len(win.Scores)), 0, 100)
		evidence[0] = true
	}

	if win.Counts.Total > 0 {
		pace := float64(win.Counts.Total) / float64(windowDays)
		factors[1].Score = clamp(pace/saturationSessionsPerDay*100, 0, 100)
		evidence[1] = true

		rate := float64(win.Counts.Skipped) / float64(win.Counts.Total)
		factors[3].Score = clamp(rate*100, 0, 100)
		evidence[3] = true
	}

	if win.AvgRetention != nil {
		factors[2].Score = clamp((1-*win.AvgRetention)*100, 0, 100)
		evidence[2] = true
	}

	var weightSum float64
	evidenced := 0
	for i := range factors {
		if evidence[i] {
			weightSum += factors[i].Weight
			evidenced++
		}
	}
	if evidenced == 0 || weightSum <= 0 {
		warnings := []types.WarningSignal{{
			Code:    "insufficient_data",
			Message: fmt.Sprintf("no usage evidence in the last %d days", windowDays),
		}}
		return 0, nil, warnings, emptySignalConfidence, nil
	}

	var risk float64
	kept := make([]types.ContributingFactor, 0, evidenced)
	for i := range factors {
		if !evidence[i] {
			continue
		}
		factors[i].Weight = factors[i].Weight / weightSum
		factors[i].Severity = severityFor(factors[i].Score)
		risk += factors[i].Score * factors[i].Weight
		kept = append(kept, factors[i])
	}
	risk = clamp(risk, 0, 100)

	warnings := warningsFor(win, windowDays)

	dataDays := distinctScoreDays(win.Scores)
	if dataDays == 0 && win.Counts.Total > 0 {
		dataDays = 1
	}
	confidence := float64(evidenced) / float64(len(factors))
	if dataDays < sc.MinAssessmentDays {
		confidence *= float64(dataDays) / float64(sc.MinAssessmentDays)
		warnings = append(warnings, types.WarningSignal{
			Code:    "sparse_window",
			Message: fmt.Sprintf("only %d day(s) of data in a %d-day window", dataDays, windowDays),
		})
	}

	return risk, kept, warnings, confidence, nil
}

func severityFor(score float64) types.FactorSeverity {
	switch {
	case score >= 67:
		return types.SeverityHigh
	case score >= 34:
		return types.SeverityModerate
	default:
		return types.SeverityLow
	}
}

func warningsFor(win assessmentWindow, windowDays int) []types.WarningSignal {
	var out []types.WarningSignal

	if run := longestHighLoadRun(win.Scores); run >= sustainedLoadDays {
		out = append(out, types.WarningSignal{
			Code:    "sustained_high_load",
			Message: fmt.Sprintf("daily load at HIGH or above for %d consecutive days", run),
		})
	}
	if win.Counts.Total >= 5 {
		rate := float64(win.Counts.Skipped) / float64(win.Counts.Total)
		if rate >= 0.4 {
			out = append(out, types.WarningSignal{
				Code:    "high_abandon_rate",
				Message: fmt.Sprintf("%d of %d sessions skipped in the last %d days", win.Counts.Skipped, win.Counts.Total, windowDays),
			})
		}
	}
	if win.AvgRetention != nil && *win.AvgRetention < 0.5 {
		out = append(out, types.WarningSignal{
			Code:    "retention_slipping",
			Message: fmt.Sprintf("average retention %.2f over the window", *win.AvgRetention),
		})
	}
	return out
}

// longestHighLoadRun finds the longest run of consecutive calendar days
// whose peak load reached the HIGH band.
func longestHighLoadRun(scores []*types.CognitiveLoadScore) int {
	if len(scores) == 0 {
		return 0
	}
	peaks := map[string]float64{}
	for _, row := range scores {
		day := row.CreatedAt.UTC().Format("2006-01-02")
		if row.Score > peaks[day] {
			peaks[day] = row.Score
		}
	}
	days := make([]string, 0, len(peaks))
	for day := range peaks {
		days = append(days, day)
	}
	sort.Strings(days)

	best, run := 0, 0
	var prev time.Time
	for _, day := range days {
		d, err := time.Parse("2006-01-02", day)
		if err != nil {
			continue
		}
		if peaks[day] < types.LoadHighCut {
			run = 0
		} else if run > 0 && d.Sub(prev) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		if run > best {
			best = run
		}
		prev = d
	}
	return best
}

func distinctScoreDays(scores []*types.CognitiveLoadScore) int {
	days := map[string]struct{}{}
	for _, row := range scores {
		days[row.CreatedAt.UTC().Format("2006-01-02")] = struct{}{}
	}
	return len(days)
}

func recommendationsFor(level types.RiskLevel, warnings []types.WarningSignal) []string {
	var out []string
	switch level {
	case types.RiskCritical:
		out = append(out, "pause study plans and take mandatory rest", "reduce workload before resuming")
	case types.RiskHigh:
		out = append(out, "take a mandatory rest day before the next session", "reduce daily study workload", "add longer breaks between sessions")
	case types.RiskMedium:
		out = append(out, "watch load trends and keep sessions short")
	default:
		out = append(out, "keep the current pace")
	}
	for _, w := range warnings {
		if w.Code == "retention_slipping" {
			out = append(out, "lower content difficulty until retention recovers")
		}
	}
	return out
}
