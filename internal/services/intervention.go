package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/studypulse/studypulse-backend/internal/data/repos"
	types "github.com/studypulse/studypulse-backend/internal/domain"
	"github.com/studypulse/studypulse-backend/internal/pkg/dbctx"
	apperr "github.com/studypulse/studypulse-backend/internal/pkg/errors"
	"github.com/studypulse/studypulse-backend/internal/pkg/logger"
)

// PlanApplier carries an intervention into the user's open study plan. The
// orchestration service implements it; the wiring connects the two after
// both exist.
type PlanApplier interface {
	ApplyIntervention(dbc dbctx.Context, planID uuid.UUID, rec *types.InterventionRecommendation) error
}

type InterventionService interface {
	// RecommendForAssessment derives ranked interventions from a burnout
	// assessment and persists them as pending.
	RecommendForAssessment(dbc dbctx.Context, assessment *types.BurnoutRiskAssessment) ([]*types.InterventionRecommendation, error)
	// RecommendForOverload derives interventions from an acute overload
	// event. Burnout-driven rules always carry better (lower) priorities
	// than overload-driven ones.
	RecommendForOverload(dbc dbctx.Context, event *types.OverloadEvent) ([]*types.InterventionRecommendation, error)
	List(dbc dbctx.Context, userID uuid.UUID, status types.InterventionStatus) ([]*types.InterventionRecommendation, error)
	// Apply moves a recommendation to applied and carries it into the
	// target plan. Re-applying an applied recommendation is a no-op that
	// returns the current row.
	Apply(dbc dbctx.Context, userID, id uuid.UUID) (*types.InterventionRecommendation, error)
	Skip(dbc dbctx.Context, userID, id uuid.UUID) error
	// RecordOutcome back-fills load_after on recently applied
	// recommendations once a fresh load reading exists, completing the
	// before/after effectiveness pair started at Apply.
	RecordOutcome(dbc dbctx.Context, userID uuid.UUID, load float64) error
}

type interventionService struct {
	log           *logger.Logger
	interventions repos.InterventionRepo
	scores        repos.LoadScoreRepo
	patterns      repos.StressPatternRepo
	plans         repos.SessionPlanRepo

	applier PlanApplier
}

func NewInterventionService(
	baseLog *logger.Logger,
	interventions repos.InterventionRepo,
	scores repos.LoadScoreRepo,
	patterns repos.StressPatternRepo,
	plans repos.SessionPlanRepo,
) *interventionService {
	return &interventionService{
		log:           baseLog.With("service", "InterventionService"),
		interventions: interventions,
		scores:        scores,
		patterns:      patterns,
		plans:         plans,
	}
}

// SetPlanApplier wires the plan-side effect in after construction; the
// orchestration service depends on this service too.
func (s *interventionService) SetPlanApplier(a PlanApplier) { s.applier = a }

// ruleInput is the complete state the rule table reads. Same input, same
// output, always.
type ruleInput struct {
	BurnoutLevel types.RiskLevel
	Overload     bool
	Stressors    []string
}

type ruleOutput struct {
	Type        types.InterventionType
	Priority    int
	Effect      float64
	Description string
	Reasoning   string
}

// evaluateRules is the deterministic rule table. Priorities are globally
// ordered: burnout outcomes occupy 1-3, acute overload 4-5, pattern-derived
// adjustments 6. Duplicate types keep the best priority.
func evaluateRules(in ruleInput) []ruleOutput {
	var out []ruleOutput

	switch in.BurnoutLevel {
	case types.RiskCritical:
		out = append(out,
			ruleOutput{
				Type:        types.InterventionMandatoryRest,
				Priority:    1,
				Effect:      40,
				Description: "Pause all study plans and rest before resuming",
				Reasoning:   "burnout risk is CRITICAL",
			},
			ruleOutput{
				Type:        types.InterventionWorkloadReduction,
				Priority:    2,
				Effect:      25,
				Description: "Resume with a substantially reduced daily workload",
				Reasoning:   "burnout risk is CRITICAL",
			},
		)
	case types.RiskHigh:
		out = append(out,
			ruleOutput{
				Type:        types.InterventionMandatoryRest,
				Priority:    2,
				Effect:      30,
				Description: "Take a mandatory rest day before the next session",
				Reasoning:   "burnout risk is HIGH",
			},
			ruleOutput{
				Type:        types.InterventionWorkloadReduction,
				Priority:    3,
				Effect:      20,
				Description: "Reduce daily study workload",
				Reasoning:   "burnout risk is HIGH",
			},
		)
	}

	if in.Overload {
		out = append(out,
			ruleOutput{
				Type:        types.InterventionBreakSchedule,
				Priority:    4,
				Effect:      15,
				Description: "Insert longer breaks between study blocks",
				Reasoning:   "cognitive load crossed the critical threshold",
			},
			ruleOutput{
				Type:        types.InterventionDifficultyReduction,
				Priority:    5,
				Effect:      10,
				Description: "Drop to easier material for the rest of the session",
				Reasoning:   "cognitive load crossed the critical threshold",
			},
		)
	}

	for _, stressor := range in.Stressors {
		if stressor == indicatorPerformance || stressor == indicatorErrorRate {
			out = append(out, ruleOutput{
				Type:        types.InterventionContentSimplify,
				Priority:    6,
				Effect:      10,
				Description: "Simplify upcoming content presentation",
				Reasoning:   fmt.Sprintf("recurring stressor: %s", stressor),
			})
			break
		}
	}

	// Best priority per type, stable overall order.
	seen := map[types.InterventionType]bool{}
	deduped := out[:0]
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	for _, r := range out {
		if seen[r.Type] {
			continue
		}
		seen[r.Type] = true
		deduped = append(deduped, r)
	}
	return deduped
}

func (s *interventionService) RecommendForAssessment(dbc dbctx.Context, assessment *types.BurnoutRiskAssessment) ([]*types.InterventionRecommendation, error) {
	if assessment == nil {
		return nil, fmt.Errorf("assessment required: %w", apperr.ErrValidation)
	}
	in := ruleInput{BurnoutLevel: assessment.RiskLevel}
	if pattern, err := s.patterns.GetByUser(dbc, assessment.UserID); err == nil && pattern != nil {
		in.Stressors = pattern.PrimaryStressors
	}
	return s.materialize(dbc, assessment.UserID, evaluateRules(in))
}

func (s *interventionService) RecommendForOverload(dbc dbctx.Context, event *types.OverloadEvent) ([]*types.InterventionRecommendation, error) {
	if event == nil {
		return nil, fmt.Errorf("event required: %w", apperr.ErrValidation)
	}
	in := ruleInput{Overload: true}
	if pattern, err := s.patterns.GetByUser(dbc, event.UserID); err == nil && pattern != nil {
		in.Stressors = pattern.PrimaryStressors
	}
	return s.materialize(dbc, event.UserID, evaluateRules(in))
}

// materialize persists rule outputs as pending recommendations, targeting
// the user's most recent open plan when one exists.
func (s *interventionService) materialize(dbc dbctx.Context, userID uuid.UUID, rules []ruleOutput) ([]*types.InterventionRecommendation, error) {
	if len(rules) == 0 {
		return nil, nil
	}

	var targetPlan *uuid.UUID
	open, err := s.plans.ListOpenByUser(dbc, userID)
	if err != nil {
		s.log.Warn("open plan lookup failed", "user_id", userID, "error", err)
	} else if len(open) > 0 {
		id := open[0].ID
		targetPlan = &id
	}

	now := time.Now().UTC()
	rows := make([]*types.InterventionRecommendation, 0, len(rules))
	for _, r := range rules {
		rows = append(rows, &types.InterventionRecommendation{
			ID:              uuid.New(),
			UserID:          userID,
			Type:            r.Type,
			Priority:        r.Priority,
			Description:     r.Description,
			Reasoning:       r.Reasoning,
			EstimatedEffect: r.Effect,
			TargetPlanID:    targetPlan,
			Status:          types.InterventionPending,
			CreatedAt:       now,
		})
	}
	if err := s.interventions.CreateBatch(dbc, rows); err != nil {
		return nil, fmt.Errorf("persist recommendations: %w", err)
	}
	return rows, nil
}

func (s *interventionService) List(dbc dbctx.Context, userID uuid.UUID, status types.InterventionStatus) ([]*types.InterventionRecommendation, error) {
	return s.interventions.ListByUser(dbc, userID, status, 100)
}

func (s *interventionService) Apply(dbc dbctx.Context, userID, id uuid.UUID) (*types.InterventionRecommendation, error) {
	rec, err := s.interventions.GetByID(dbc, id)
	if err != nil {
		return nil, err
	}
	if rec == nil || rec.UserID != userID {
		return nil, fmt.Errorf("intervention %s: %w", id, apperr.ErrNotFound)
	}
	if rec.Status == types.InterventionApplied {
		return rec, nil
	}

	var loadBefore *float64
	if latest, err := s.scores.Latest(dbc, userID); err == nil && latest != nil {
		loadBefore = &latest.Score
	}

	n, err := s.interventions.MarkApplied(dbc, id, loadBefore)
	if err != nil {
		return nil, fmt.Errorf("mark applied: %w", err)
	}
	if n == 0 {
		// Lost the race to another apply; the row is already applied.
		return s.interventions.GetByID(dbc, id)
	}

	if rec.TargetPlanID != nil && s.applier != nil {
		if err := s.applier.ApplyIntervention(dbc, *rec.TargetPlanID, rec); err != nil {
			s.log.Error("plan-side intervention apply failed",
				"intervention_id", id,
				"plan_id", *rec.TargetPlanID,
				"error", err,
			)
			return nil, fmt.Errorf("apply to plan: %w", err)
		}
	}

	return s.interventions.GetByID(dbc, id)
}

func (s *interventionService) Skip(dbc dbctx.Context, userID, id uuid.UUID) error {
	rec, err := s.interventions.GetByID(dbc, id)
	if err != nil {
		return err
	}
	if rec == nil || rec.UserID != userID {
		return fmt.Errorf("intervention %s: %w", id, apperr.ErrNotFound)
	}
	n, err := s.interventions.MarkSkipped(dbc, id)
	if err != nil {
		return err
	}
	if n == 0 && rec.Status != types.InterventionSkipped {
		return fmt.Errorf("intervention %s is %s: %w", id, rec.Status, apperr.ErrValidation)
	}
	return nil
}

const (
	// outcomeSettleDelay is how long an applied intervention gets to take
	// effect before a reading is accepted as its load_after.
	outcomeSettleDelay = 30 * time.Minute
	// outcomeWindow bounds how far back outcome back-fill looks.
	outcomeWindow = 24 * time.Hour
)

func (s *interventionService) RecordOutcome(dbc dbctx.Context, userID uuid.UUID, load float64) error {
	rows, err := s.interventions.ListAppliedWithoutOutcome(dbc, userID, time.Now().UTC().Add(-outcomeWindow))
	if err != nil {
		return fmt.Errorf("list applied interventions: %w", err)
	}
	for _, rec := range rows {
		if rec.AppliedAt == nil || time.Since(*rec.AppliedAt) < outcomeSettleDelay {
			continue
		}
		if err := s.interventions.SetLoadAfter(dbc, rec.ID, load); err != nil {
			return fmt.Errorf("record outcome for %s: %w", rec.ID, err)
		}
		s.log.Debug("intervention outcome recorded", "intervention_id", rec.ID, "load_after", load)
	}
	return nil
}
