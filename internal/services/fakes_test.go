package services

import (
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"

	types "github.com/studypulse/studypulse-backend/internal/domain"
	"github.com/studypulse/studypulse-backend/internal/pkg/dbctx"
	"github.com/studypulse/studypulse-backend/internal/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

// fakePlanRepo keeps plans in memory with real version semantics so the
// optimistic-write paths behave like the database would.
type fakePlanRepo struct {
	plans map[uuid.UUID]*types.SessionOrchestrationPlan

	// failUpdates makes the next n UpdateIfVersion calls report a version
	// conflict without writing.
	failUpdates int
	updateCalls int
}

func newFakePlanRepo() *fakePlanRepo {
	return &fakePlanRepo{plans: map[uuid.UUID]*types.SessionOrchestrationPlan{}}
}

func (f *fakePlanRepo) Create(_ dbctx.Context, row *types.SessionOrchestrationPlan) error {
	if row.Version == 0 {
		row.Version = 1
	}
	cp := *row
	f.plans[row.ID] = &cp
	return nil
}

func (f *fakePlanRepo) GetByID(_ dbctx.Context, id uuid.UUID) (*types.SessionOrchestrationPlan, error) {
	row, ok := f.plans[id]
	if !ok {
		return nil, nil
	}
	cp := *row
	return &cp, nil
}

func (f *fakePlanRepo) ListOpenByUser(_ dbctx.Context, userID uuid.UUID) ([]*types.SessionOrchestrationPlan, error) {
	var out []*types.SessionOrchestrationPlan
	for _, row := range f.plans {
		if row.UserID == userID && row.Status != types.PlanClosed {
			cp := *row
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakePlanRepo) UpdateIfVersion(_ dbctx.Context, row *types.SessionOrchestrationPlan, expectedVersion int) (int64, error) {
	f.updateCalls++
	if f.failUpdates > 0 {
		f.failUpdates--
		return 0, nil
	}
	stored, ok := f.plans[row.ID]
	if !ok || stored.Version != expectedVersion {
		return 0, nil
	}
	cp := *row
	cp.Version = expectedVersion + 1
	cp.UpdatedAt = time.Now().UTC()
	f.plans[row.ID] = &cp
	row.Version = cp.Version
	return 1, nil
}

type fakeInterventionRepo struct {
	recs map[uuid.UUID]*types.InterventionRecommendation
}

func newFakeInterventionRepo() *fakeInterventionRepo {
	return &fakeInterventionRepo{recs: map[uuid.UUID]*types.InterventionRecommendation{}}
}

func (f *fakeInterventionRepo) CreateBatch(_ dbctx.Context, rows []*types.InterventionRecommendation) error {
	for _, row := range rows {
		cp := *row
		f.recs[row.ID] = &cp
	}
	return nil
}

func (f *fakeInterventionRepo) GetByID(_ dbctx.Context, id uuid.UUID) (*types.InterventionRecommendation, error) {
	row, ok := f.recs[id]
	if !ok {
		return nil, nil
	}
	cp := *row
	return &cp, nil
}

func (f *fakeInterventionRepo) ListByUser(_ dbctx.Context, userID uuid.UUID, status types.InterventionStatus, _ int) ([]*types.InterventionRecommendation, error) {
	var out []*types.InterventionRecommendation
	for _, row := range f.recs {
		if row.UserID != userID {
			continue
		}
		if status != "" && row.Status != status {
			continue
		}
		cp := *row
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out, nil
}

func (f *fakeInterventionRepo) MarkApplied(_ dbctx.Context, id uuid.UUID, loadBefore *float64) (int64, error) {
	row, ok := f.recs[id]
	if !ok || row.Status == types.InterventionApplied {
		return 0, nil
	}
	now := time.Now().UTC()
	row.Status = types.InterventionApplied
	row.AppliedAt = &now
	if loadBefore != nil {
		row.LoadBefore = loadBefore
	}
	return 1, nil
}

func (f *fakeInterventionRepo) MarkSkipped(_ dbctx.Context, id uuid.UUID) (int64, error) {
	row, ok := f.recs[id]
	if !ok || row.Status != types.InterventionPending {
		return 0, nil
	}
	row.Status = types.InterventionSkipped
	return 1, nil
}

func (f *fakeInterventionRepo) SetLoadAfter(_ dbctx.Context, id uuid.UUID, loadAfter float64) error {
	if row, ok := f.recs[id]; ok && row.Status == types.InterventionApplied {
		row.LoadAfter = &loadAfter
	}
	return nil
}

func (f *fakeInterventionRepo) ListAppliedWithoutOutcome(_ dbctx.Context, userID uuid.UUID, since time.Time) ([]*types.InterventionRecommendation, error) {
	var out []*types.InterventionRecommendation
	for _, row := range f.recs {
		if row.UserID != userID || row.Status != types.InterventionApplied || row.LoadAfter != nil {
			continue
		}
		if row.AppliedAt == nil || row.AppliedAt.Before(since) {
			continue
		}
		cp := *row
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AppliedAt.Before(*out[j].AppliedAt) })
	return out, nil
}

type fakeLoadScoreRepo struct {
	latest *types.CognitiveLoadScore
	rows   []*types.CognitiveLoadScore
}

func (f *fakeLoadScoreRepo) Create(_ dbctx.Context, row *types.CognitiveLoadScore) error {
	f.rows = append(f.rows, row)
	f.latest = row
	return nil
}

func (f *fakeLoadScoreRepo) Latest(_ dbctx.Context, _ uuid.UUID) (*types.CognitiveLoadScore, error) {
	return f.latest, nil
}

func (f *fakeLoadScoreRepo) ListSince(_ dbctx.Context, _ uuid.UUID, since time.Time) ([]*types.CognitiveLoadScore, error) {
	var out []*types.CognitiveLoadScore
	for _, row := range f.rows {
		if !row.CreatedAt.Before(since) {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeLoadScoreRepo) ListRecent(_ dbctx.Context, _ uuid.UUID, limit int) ([]*types.CognitiveLoadScore, error) {
	out := make([]*types.CognitiveLoadScore, len(f.rows))
	copy(out, f.rows)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakePatternRepo struct {
	pattern *types.StressResponsePattern
}

func (f *fakePatternRepo) GetByUser(_ dbctx.Context, _ uuid.UUID) (*types.StressResponsePattern, error) {
	return f.pattern, nil
}

func (f *fakePatternRepo) Upsert(_ dbctx.Context, row *types.StressResponsePattern) error {
	f.pattern = row
	return nil
}

type fakeAssessmentRepo struct {
	latest *types.BurnoutRiskAssessment
	rows   []*types.BurnoutRiskAssessment
}

func (f *fakeAssessmentRepo) Create(_ dbctx.Context, row *types.BurnoutRiskAssessment) error {
	f.rows = append(f.rows, row)
	f.latest = row
	return nil
}

func (f *fakeAssessmentRepo) Latest(_ dbctx.Context, _ uuid.UUID) (*types.BurnoutRiskAssessment, error) {
	return f.latest, nil
}

func (f *fakeAssessmentRepo) ListSince(_ dbctx.Context, _ uuid.UUID, since time.Time) ([]*types.BurnoutRiskAssessment, error) {
	var out []*types.BurnoutRiskAssessment
	for _, row := range f.rows {
		if !row.AssessedAt.Before(since) {
			out = append(out, row)
		}
	}
	return out, nil
}
