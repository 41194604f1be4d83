package services

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	types "github.com/studypulse/studypulse-backend/internal/domain"
	"github.com/studypulse/studypulse-backend/internal/pkg/dbctx"
	apperr "github.com/studypulse/studypulse-backend/internal/pkg/errors"
)

type countingApplier struct {
	calls  int
	lastID uuid.UUID
	err    error
}

func (c *countingApplier) ApplyIntervention(_ dbctx.Context, planID uuid.UUID, _ *types.InterventionRecommendation) error {
	c.calls++
	c.lastID = planID
	return c.err
}

func newInterventionFixture(t *testing.T) (*interventionService, *fakeInterventionRepo, *fakePlanRepo, *fakeLoadScoreRepo, *fakePatternRepo) {
	t.Helper()
	interventions := newFakeInterventionRepo()
	plans := newFakePlanRepo()
	scores := &fakeLoadScoreRepo{}
	patterns := &fakePatternRepo{}
	svc := NewInterventionService(testLogger(t), interventions, scores, patterns, plans)
	return svc, interventions, plans, scores, patterns
}

func TestEvaluateRulesDeterministic(t *testing.T) {
	in := ruleInput{
		BurnoutLevel: types.RiskCritical,
		Overload:     true,
		Stressors:    []string{indicatorPerformance},
	}
	first := evaluateRules(in)
	second := evaluateRules(in)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("same input produced different outputs:\n%+v\n%+v", first, second)
	}
	for i := 1; i < len(first); i++ {
		if first[i].Priority < first[i-1].Priority {
			t.Fatalf("output not ordered by priority: %+v", first)
		}
	}
}

func TestEvaluateRulesBurnoutOutranksOverload(t *testing.T) {
	both := evaluateRules(ruleInput{BurnoutLevel: types.RiskCritical, Overload: true})
	if len(both) != 4 {
		t.Fatalf("got %d rules, want 4", len(both))
	}
	if both[0].Type != types.InterventionMandatoryRest || both[0].Priority != 1 {
		t.Fatalf("first rule = %+v, want mandatory_rest at priority 1", both[0])
	}
	overloadOnly := evaluateRules(ruleInput{Overload: true})
	for _, r := range overloadOnly {
		if r.Priority <= 3 {
			t.Fatalf("overload rule %s got burnout-tier priority %d", r.Type, r.Priority)
		}
	}
}

func TestEvaluateRulesHighBurnout(t *testing.T) {
	out := evaluateRules(ruleInput{BurnoutLevel: types.RiskHigh})
	if len(out) != 2 {
		t.Fatalf("HIGH burnout rules = %+v, want mandatory_rest then workload_reduction", out)
	}
	if out[0].Type != types.InterventionMandatoryRest {
		t.Fatalf("first HIGH rule = %+v, want mandatory_rest", out[0])
	}
	if out[1].Type != types.InterventionWorkloadReduction {
		t.Fatalf("second HIGH rule = %+v, want workload_reduction", out[1])
	}
	if out := evaluateRules(ruleInput{BurnoutLevel: types.RiskLow}); len(out) != 0 {
		t.Fatalf("LOW burnout produced rules: %+v", out)
	}
}

func TestEvaluateRulesStressorAddsSimplification(t *testing.T) {
	out := evaluateRules(ruleInput{Overload: true, Stressors: []string{indicatorErrorRate}})
	found := false
	for _, r := range out {
		if r.Type == types.InterventionContentSimplify {
			found = true
		}
	}
	if !found {
		t.Fatalf("error-rate stressor did not add content_simplification: %+v", out)
	}
}

func TestRecommendForOverloadTargetsOpenPlan(t *testing.T) {
	svc, _, plans, _, _ := newInterventionFixture(t)
	dbc := dbctx.Context{Ctx: context.Background()}
	userID := uuid.New()

	plan := &types.SessionOrchestrationPlan{
		ID:        uuid.New(),
		UserID:    userID,
		MissionID: uuid.New(),
		Status:    types.PlanActive,
		CreatedAt: time.Now().UTC(),
	}
	if err := plans.Create(dbc, plan); err != nil {
		t.Fatalf("seed plan: %v", err)
	}

	recs, err := svc.RecommendForOverload(dbc, &types.OverloadEvent{
		ScoreID:    uuid.New(),
		UserID:     userID,
		Score:      88,
		DetectedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("RecommendForOverload: %v", err)
	}
	if len(recs) == 0 {
		t.Fatalf("no recommendations for overload")
	}
	for _, rec := range recs {
		if rec.Status != types.InterventionPending {
			t.Fatalf("recommendation created as %s, want pending", rec.Status)
		}
		if rec.TargetPlanID == nil || *rec.TargetPlanID != plan.ID {
			t.Fatalf("recommendation not targeted at open plan: %+v", rec)
		}
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	svc, _, plans, scores, _ := newInterventionFixture(t)
	applier := &countingApplier{}
	svc.SetPlanApplier(applier)
	dbc := dbctx.Context{Ctx: context.Background()}
	userID := uuid.New()

	plan := &types.SessionOrchestrationPlan{
		ID:        uuid.New(),
		UserID:    userID,
		MissionID: uuid.New(),
		Status:    types.PlanActive,
		CreatedAt: time.Now().UTC(),
	}
	if err := plans.Create(dbc, plan); err != nil {
		t.Fatalf("seed plan: %v", err)
	}
	scores.latest = &types.CognitiveLoadScore{Score: 82, CreatedAt: time.Now().UTC()}

	recs, err := svc.RecommendForOverload(dbc, &types.OverloadEvent{UserID: userID, Score: 85})
	if err != nil || len(recs) == 0 {
		t.Fatalf("seed recommendations: %v", err)
	}
	target := recs[0]

	first, err := svc.Apply(dbc, userID, target.ID)
	if err != nil {
		t.Fatalf("first apply: %v", err)
	}
	if first.Status != types.InterventionApplied || first.AppliedAt == nil {
		t.Fatalf("first apply left status %s", first.Status)
	}
	if first.LoadBefore == nil || *first.LoadBefore != 82 {
		t.Fatalf("load before not captured: %+v", first.LoadBefore)
	}
	if applier.calls != 1 || applier.lastID != plan.ID {
		t.Fatalf("plan applier calls = %d (plan %s), want 1 on %s", applier.calls, applier.lastID, plan.ID)
	}

	second, err := svc.Apply(dbc, userID, target.ID)
	if err != nil {
		t.Fatalf("second apply: %v", err)
	}
	if second.Status != types.InterventionApplied {
		t.Fatalf("second apply left status %s", second.Status)
	}
	if applier.calls != 1 {
		t.Fatalf("second apply re-ran the plan mutation (%d calls)", applier.calls)
	}
	if !second.AppliedAt.Equal(*first.AppliedAt) {
		t.Fatalf("second apply moved applied_at from %v to %v", first.AppliedAt, second.AppliedAt)
	}
}

func TestApplyWrongUserIsNotFound(t *testing.T) {
	svc, interventions, _, _, _ := newInterventionFixture(t)
	dbc := dbctx.Context{Ctx: context.Background()}

	rec := &types.InterventionRecommendation{
		ID:     uuid.New(),
		UserID: uuid.New(),
		Type:   types.InterventionBreakSchedule,
		Status: types.InterventionPending,
	}
	if err := interventions.CreateBatch(dbc, []*types.InterventionRecommendation{rec}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := svc.Apply(dbc, uuid.New(), rec.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("cross-user apply error = %v, want ErrNotFound", err)
	}
	if _, err := svc.Apply(dbc, rec.UserID, uuid.New()); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("unknown id apply error = %v, want ErrNotFound", err)
	}
}

func TestSkipAppliedIsRejected(t *testing.T) {
	svc, interventions, _, _, _ := newInterventionFixture(t)
	dbc := dbctx.Context{Ctx: context.Background()}
	userID := uuid.New()

	rec := &types.InterventionRecommendation{
		ID:     uuid.New(),
		UserID: userID,
		Type:   types.InterventionBreakSchedule,
		Status: types.InterventionPending,
	}
	if err := interventions.CreateBatch(dbc, []*types.InterventionRecommendation{rec}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := svc.Apply(dbc, userID, rec.ID); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := svc.Skip(dbc, userID, rec.ID); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("skip after apply error = %v, want ErrValidation", err)
	}
}

func TestRecommendForAssessmentUsesPattern(t *testing.T) {
	svc, _, _, _, patterns := newInterventionFixture(t)
	dbc := dbctx.Context{Ctx: context.Background()}
	userID := uuid.New()
	patterns.pattern = &types.StressResponsePattern{
		UserID:           userID,
		PrimaryStressors: datatypes.NewJSONSlice([]string{indicatorPerformance}),
	}

	recs, err := svc.RecommendForAssessment(dbc, &types.BurnoutRiskAssessment{
		ID:        uuid.New(),
		UserID:    userID,
		RiskLevel: types.RiskHigh,
	})
	if err != nil {
		t.Fatalf("RecommendForAssessment: %v", err)
	}
	var typs []types.InterventionType
	for _, r := range recs {
		typs = append(typs, r.Type)
	}
	want := []types.InterventionType{types.InterventionMandatoryRest, types.InterventionWorkloadReduction, types.InterventionContentSimplify}
	if !reflect.DeepEqual(typs, want) {
		t.Fatalf("types = %v, want %v", typs, want)
	}
}

func TestRecordOutcomeBackfillsSettledApplies(t *testing.T) {
	svc, interventions, _, _, _ := newInterventionFixture(t)
	dbc := dbctx.Context{Ctx: context.Background()}
	userID := uuid.New()

	settled := time.Now().UTC().Add(-time.Hour)
	fresh := time.Now().UTC().Add(-5 * time.Minute)
	before := 82.0
	settledRec := &types.InterventionRecommendation{
		ID:         uuid.New(),
		UserID:     userID,
		Type:       types.InterventionWorkloadReduction,
		Status:     types.InterventionApplied,
		AppliedAt:  &settled,
		LoadBefore: &before,
	}
	freshRec := &types.InterventionRecommendation{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      types.InterventionBreakSchedule,
		Status:    types.InterventionApplied,
		AppliedAt: &fresh,
	}
	if err := interventions.CreateBatch(dbc, []*types.InterventionRecommendation{settledRec, freshRec}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := svc.RecordOutcome(dbc, userID, 55); err != nil {
		t.Fatalf("RecordOutcome: %v", err)
	}

	got, _ := interventions.GetByID(dbc, settledRec.ID)
	if got.LoadAfter == nil || *got.LoadAfter != 55 {
		t.Fatalf("settled apply load_after = %v, want 55", got.LoadAfter)
	}
	if *got.LoadBefore != 82 {
		t.Fatalf("load_before changed: %v", *got.LoadBefore)
	}
	recent, _ := interventions.GetByID(dbc, freshRec.ID)
	if recent.LoadAfter != nil {
		t.Fatalf("apply inside the settle delay got load_after %v", *recent.LoadAfter)
	}

	// A second pass finds nothing left to fill and leaves the value alone.
	if err := svc.RecordOutcome(dbc, userID, 61); err != nil {
		t.Fatalf("RecordOutcome second pass: %v", err)
	}
	got, _ = interventions.GetByID(dbc, settledRec.ID)
	if *got.LoadAfter != 55 {
		t.Fatalf("back-fill overwrote a recorded outcome: %v", *got.LoadAfter)
	}
}
