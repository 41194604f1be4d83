package services

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/studypulse/studypulse-backend/internal/data/repos"
	types "github.com/studypulse/studypulse-backend/internal/domain"
	"github.com/studypulse/studypulse-backend/internal/pkg/dbctx"
	apperr "github.com/studypulse/studypulse-backend/internal/pkg/errors"
	"github.com/studypulse/studypulse-backend/internal/pkg/logger"
)

// maxPlanWriteAttempts bounds the optimistic-write retry loop before the
// caller sees a conflict.
const maxPlanWriteAttempts = 3

// PlanRequest is the caller's sizing input for a new plan; load and burnout
// state decide how much of it survives.
type PlanRequest struct {
	UserID          uuid.UUID `json:"user_id"`
	MissionID       uuid.UUID `json:"mission_id"`
	PlannedStart    time.Time `json:"planned_start"`
	BaseDurationMin int       `json:"base_duration_min"`
}

type OrchestrationService interface {
	// GeneratePlan proposes a plan sized to current cognitive state. A HIGH
	// or CRITICAL burnout assessment overrides everything else and yields a
	// short recovery plan.
	GeneratePlan(dbc dbctx.Context, req PlanRequest) (*types.SessionOrchestrationPlan, error)
	Get(dbc dbctx.Context, planID uuid.UUID) (*types.SessionOrchestrationPlan, error)
	// Activate moves a proposed plan to active. Activating an already
	// active plan is a no-op.
	Activate(dbc dbctx.Context, planID uuid.UUID, sessionID *uuid.UUID) (*types.SessionOrchestrationPlan, error)
	// AdaptToLoad folds a fresh load reading into a running plan. Readings
	// below the HIGH band leave the plan untouched.
	AdaptToLoad(dbc dbctx.Context, planID uuid.UUID, score *types.CognitiveLoadScore) (*types.SessionOrchestrationPlan, error)
	// Close ends the plan. Closed is terminal; closing again is a no-op.
	Close(dbc dbctx.Context, planID uuid.UUID, actualDurationMin *int, actualLoad *float64) (*types.SessionOrchestrationPlan, error)

	OverloadSink
	PlanApplier
}

type orchestrationService struct {
	log         *logger.Logger
	plans       repos.SessionPlanRepo
	assessments repos.BurnoutAssessmentRepo
	scores      repos.LoadScoreRepo

	interventions InterventionService

	// Serializes adaptation of the same plan within this process; cross
	// process writers are caught by the version guard.
	planLocks sync.Map
}

func NewOrchestrationService(
	baseLog *logger.Logger,
	plans repos.SessionPlanRepo,
	assessments repos.BurnoutAssessmentRepo,
	scores repos.LoadScoreRepo,
	interventions InterventionService,
) OrchestrationService {
	return &orchestrationService{
		log:           baseLog.With("service", "OrchestrationService"),
		plans:         plans,
		assessments:   assessments,
		scores:        scores,
		interventions: interventions,
	}
}

func (s *orchestrationService) GeneratePlan(dbc dbctx.Context, req PlanRequest) (*types.SessionOrchestrationPlan, error) {
	if req.UserID == uuid.Nil || req.MissionID == uuid.Nil {
		return nil, fmt.Errorf("user and mission required: %w", apperr.ErrValidation)
	}
	if req.BaseDurationMin <= 0 {
		req.BaseDurationMin = 45
	}
	if req.PlannedStart.IsZero() {
		req.PlannedStart = time.Now().UTC()
	}

	assessment, err := s.assessments.Latest(dbc, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("read burnout state: %w", err)
	}

	var (
		intensity types.Intensity
		duration  int
		reasoning []string
	)
	if assessment != nil && (assessment.RiskLevel == types.RiskHigh || assessment.RiskLevel == types.RiskCritical) {
		// Recovery override: burnout state outranks everything the caller
		// or the load picture asks for.
		intensity = types.IntensityRecovery
		duration = min(20, req.BaseDurationMin)
		reasoning = append(reasoning, fmt.Sprintf("recovery override: burnout risk is %s", assessment.RiskLevel))
	} else {
		level := types.LoadLow
		if latest, err := s.scores.Latest(dbc, req.UserID); err == nil && latest != nil {
			level = latest.Level
		}
		intensity, duration = sizingForLoad(level, req.BaseDurationMin)
		reasoning = append(reasoning, fmt.Sprintf("sized for %s current load", level))
	}

	plan := &types.SessionOrchestrationPlan{
		ID:                 uuid.New(),
		UserID:             req.UserID,
		MissionID:          req.MissionID,
		Status:             types.PlanProposed,
		PlannedStart:       req.PlannedStart.UTC(),
		PlannedDurationMin: duration,
		Intensity:          intensity,
		ContentSequence:    datatypes.NewJSONSlice(buildSequence(intensity, duration)),
		Reasoning:          datatypes.NewJSONSlice(reasoning),
		PlannedLoad:        plannedLoadFor(intensity),
		Version:            1,
		CreatedAt:          time.Now().UTC(),
		UpdatedAt:          time.Now().UTC(),
	}
	if err := s.plans.Create(dbc, plan); err != nil {
		return nil, fmt.Errorf("persist plan: %w", err)
	}
	s.log.Info("plan generated",
		"plan_id", plan.ID,
		"user_id", req.UserID,
		"intensity", intensity,
		"duration_min", duration,
	)
	return plan, nil
}

func (s *orchestrationService) Get(dbc dbctx.Context, planID uuid.UUID) (*types.SessionOrchestrationPlan, error) {
	plan, err := s.plans.GetByID(dbc, planID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, fmt.Errorf("plan %s: %w", planID, apperr.ErrNotFound)
	}
	return plan, nil
}

func (s *orchestrationService) Activate(dbc dbctx.Context, planID uuid.UUID, sessionID *uuid.UUID) (*types.SessionOrchestrationPlan, error) {
	return s.mutatePlan(dbc, planID, func(plan *types.SessionOrchestrationPlan) (bool, error) {
		switch plan.Status {
		case types.PlanActive, types.PlanAdapting:
			return false, nil
		case types.PlanProposed:
		default:
			return false, fmt.Errorf("cannot activate plan in status %s: %w", plan.Status, apperr.ErrValidation)
		}
		now := time.Now().UTC()
		plan.Status = types.PlanActive
		plan.ActualStart = &now
		plan.SessionID = sessionID
		return true, nil
	})
}

func (s *orchestrationService) AdaptToLoad(dbc dbctx.Context, planID uuid.UUID, score *types.CognitiveLoadScore) (*types.SessionOrchestrationPlan, error) {
	if score == nil {
		return nil, fmt.Errorf("score required: %w", apperr.ErrValidation)
	}
	return s.mutatePlan(dbc, planID, func(plan *types.SessionOrchestrationPlan) (bool, error) {
		if plan.Status == types.PlanProposed {
			return false, fmt.Errorf("plan not active: %w", apperr.ErrValidation)
		}
		if score.Level != types.LoadHigh && score.Level != types.LoadCritical {
			return false, nil
		}
		trigger := "load_reading"
		if score.Level == types.LoadCritical {
			trigger = "overload"
		}
		easePlan(plan, score.Level)
		appendAdaptation(plan, types.PlanAdaptation{
			At:        time.Now().UTC(),
			Trigger:   trigger,
			LoadScore: score.Score,
			Change:    fmt.Sprintf("eased to %s intensity, %d min remaining", plan.Intensity, plan.PlannedDurationMin),
		})
		plan.Status = types.PlanAdapting
		return true, nil
	})
}

// HandleOverload reacts to an acute overload event: the open plan is eased
// immediately and overload interventions are raised. Implements
// OverloadSink.
func (s *orchestrationService) HandleOverload(dbc dbctx.Context, event *types.OverloadEvent) error {
	if event == nil {
		return nil
	}
	open, err := s.plans.ListOpenByUser(dbc, event.UserID)
	if err != nil {
		return fmt.Errorf("open plans: %w", err)
	}
	for _, plan := range open {
		if plan.Status == types.PlanProposed {
			continue
		}
		if _, err := s.AdaptToLoad(dbc, plan.ID, &types.CognitiveLoadScore{
			ID:     event.ScoreID,
			UserID: event.UserID,
			Score:  event.Score,
			Level:  types.LevelForLoad(event.Score),
		}); err != nil {
			s.log.Error("overload adaptation failed", "plan_id", plan.ID, "error", err)
		}
	}
	if s.interventions != nil {
		if _, err := s.interventions.RecommendForOverload(dbc, event); err != nil {
			s.log.Error("overload recommendations failed", "user_id", event.UserID, "error", err)
		}
	}
	return nil
}

// ApplyIntervention mutates the target plan according to the intervention
// type. Implements PlanApplier.
func (s *orchestrationService) ApplyIntervention(dbc dbctx.Context, planID uuid.UUID, rec *types.InterventionRecommendation) error {
	if rec == nil {
		return fmt.Errorf("recommendation required: %w", apperr.ErrValidation)
	}
	if rec.Type == types.InterventionMandatoryRest {
		_, err := s.Close(dbc, planID, nil, nil)
		return err
	}
	_, err := s.mutatePlan(dbc, planID, func(plan *types.SessionOrchestrationPlan) (bool, error) {
		change := applyInterventionToPlan(plan, rec.Type)
		if change == "" {
			return false, nil
		}
		appendAdaptation(plan, types.PlanAdaptation{
			At:      time.Now().UTC(),
			Trigger: "intervention",
			Change:  change,
		})
		if plan.Status == types.PlanActive {
			plan.Status = types.PlanAdapting
		}
		return true, nil
	})
	return err
}

func (s *orchestrationService) Close(dbc dbctx.Context, planID uuid.UUID, actualDurationMin *int, actualLoad *float64) (*types.SessionOrchestrationPlan, error) {
	plan, err := s.mutatePlan(dbc, planID, func(plan *types.SessionOrchestrationPlan) (bool, error) {
		plan.Status = types.PlanClosed
		if actualDurationMin != nil {
			plan.ActualDurationMin = actualDurationMin
		}
		if actualLoad != nil {
			plan.ActualLoad = actualLoad
		}
		return true, nil
	})
	if errors.Is(err, apperr.ErrPlanClosed) {
		// Already closed; closing twice is not an error.
		return s.plans.GetByID(dbc, planID)
	}
	return plan, err
}

// mutatePlan runs one guarded read-mutate-write cycle with bounded retries.
// The mutate callback returns whether anything changed; unchanged plans are
// not written. Closed plans reject every mutation with ErrPlanClosed.
func (s *orchestrationService) mutatePlan(dbc dbctx.Context, planID uuid.UUID, mutate func(*types.SessionOrchestrationPlan) (bool, error)) (*types.SessionOrchestrationPlan, error) {
	if planID == uuid.Nil {
		return nil, fmt.Errorf("plan id required: %w", apperr.ErrValidation)
	}
	muAny, _ := s.planLocks.LoadOrStore(planID, &sync.Mutex{})
	mu := muAny.(*sync.Mutex)
	mu.Lock()
	defer mu.Unlock()

	for attempt := 1; attempt <= maxPlanWriteAttempts; attempt++ {
		plan, err := s.plans.GetByID(dbc, planID)
		if err != nil {
			return nil, err
		}
		if plan == nil {
			return nil, fmt.Errorf("plan %s: %w", planID, apperr.ErrNotFound)
		}
		if plan.Status == types.PlanClosed {
			return nil, fmt.Errorf("plan %s: %w", planID, apperr.ErrPlanClosed)
		}

		changed, err := mutate(plan)
		if err != nil {
			return nil, err
		}
		if !changed {
			return plan, nil
		}

		n, err := s.plans.UpdateIfVersion(dbc, plan, plan.Version)
		if err != nil {
			return nil, fmt.Errorf("write plan: %w", err)
		}
		if n > 0 {
			return plan, nil
		}
		s.log.Warn("plan version conflict, retrying", "plan_id", planID, "attempt", attempt)
	}
	return nil, fmt.Errorf("plan %s: %w", planID, apperr.ErrConcurrencyConflict)
}

// sizingForLoad maps the current load band onto intensity and duration.
func sizingForLoad(level types.LoadLevel, baseMin int) (types.Intensity, int) {
	switch level {
	case types.LoadCritical:
		return types.IntensityRecovery, min(20, baseMin)
	case types.LoadHigh:
		return types.IntensityLight, baseMin * 7 / 10
	case types.LoadModerate:
		return types.IntensityModerate, baseMin
	default:
		return types.IntensityIntense, baseMin
	}
}

func plannedLoadFor(intensity types.Intensity) float64 {
	switch intensity {
	case types.IntensityRecovery:
		return 20
	case types.IntensityLight:
		return 35
	case types.IntensityModerate:
		return 50
	default:
		return 65
	}
}

// buildSequence lays out study blocks separated by breaks. Heavier
// intensities get longer blocks and shorter breaks.
func buildSequence(intensity types.Intensity, durationMin int) []types.ContentItem {
	var blockMin, breakMin int
	var kinds []string
	switch intensity {
	case types.IntensityRecovery:
		blockMin, breakMin, kinds = 10, 10, []string{"review"}
	case types.IntensityLight:
		blockMin, breakMin, kinds = 15, 10, []string{"review", "practice"}
	case types.IntensityModerate:
		blockMin, breakMin, kinds = 20, 5, []string{"new", "review"}
	default:
		blockMin, breakMin, kinds = 25, 5, []string{"new", "practice"}
	}

	var out []types.ContentItem
	remaining := durationMin
	for i := 0; remaining > 0; i++ {
		b := min(blockMin, remaining)
		out = append(out, types.ContentItem{
			Kind:        kinds[i%len(kinds)],
			DurationMin: b,
		})
		remaining -= b
		if remaining > 0 {
			out = append(out, types.ContentItem{Kind: "break", DurationMin: breakMin})
		}
	}
	return out
}

// easePlan steps intensity down and trims remaining duration. CRITICAL
// readings go straight to recovery.
func easePlan(plan *types.SessionOrchestrationPlan, level types.LoadLevel) {
	if level == types.LoadCritical {
		plan.Intensity = types.IntensityRecovery
		plan.PlannedDurationMin = min(plan.PlannedDurationMin, 20)
	} else {
		plan.Intensity = stepDown(plan.Intensity)
		plan.PlannedDurationMin = plan.PlannedDurationMin * 8 / 10
	}
	if plan.PlannedDurationMin < 10 {
		plan.PlannedDurationMin = 10
	}
	plan.ContentSequence = datatypes.NewJSONSlice(buildSequence(plan.Intensity, plan.PlannedDurationMin))
	plan.PlannedLoad = plannedLoadFor(plan.Intensity)
}

func stepDown(in types.Intensity) types.Intensity {
	switch in {
	case types.IntensityIntense:
		return types.IntensityModerate
	case types.IntensityModerate:
		return types.IntensityLight
	default:
		return types.IntensityRecovery
	}
}

// applyInterventionToPlan performs the per-type mutation and describes it.
// An empty return means the type has no plan-side effect.
func applyInterventionToPlan(plan *types.SessionOrchestrationPlan, typ types.InterventionType) string {
	switch typ {
	case types.InterventionWorkloadReduction:
		plan.PlannedDurationMin = max(10, plan.PlannedDurationMin*7/10)
		plan.ContentSequence = datatypes.NewJSONSlice(buildSequence(plan.Intensity, plan.PlannedDurationMin))
		return fmt.Sprintf("workload reduced to %d min", plan.PlannedDurationMin)
	case types.InterventionDifficultyReduction:
		plan.Intensity = stepDown(plan.Intensity)
		plan.PlannedLoad = plannedLoadFor(plan.Intensity)
		plan.ContentSequence = datatypes.NewJSONSlice(buildSequence(plan.Intensity, plan.PlannedDurationMin))
		return fmt.Sprintf("difficulty stepped down to %s", plan.Intensity)
	case types.InterventionBreakSchedule:
		seq := doubleBreaks(plan.ContentSequence)
		plan.ContentSequence = datatypes.NewJSONSlice(seq)
		return "break schedule extended"
	case types.InterventionContentSimplify:
		seq := []types.ContentItem(plan.ContentSequence)
		for i := range seq {
			if seq[i].Kind == "new" {
				seq[i].Kind = "review"
			}
		}
		plan.ContentSequence = datatypes.NewJSONSlice(seq)
		return "new content replaced with review"
	default:
		return ""
	}
}

func appendAdaptation(plan *types.SessionOrchestrationPlan, a types.PlanAdaptation) {
	seq := append([]types.PlanAdaptation(plan.Adaptations), a)
	plan.Adaptations = datatypes.NewJSONSlice(seq)
}

func doubleBreaks(seq []types.ContentItem) []types.ContentItem {
	out := make([]types.ContentItem, len(seq))
	copy(out, seq)
	for i := range out {
		if out[i].Kind == "break" {
			out[i].DurationMin *= 2
		}
	}
	return out
}
