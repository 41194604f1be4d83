package cognitive

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/studypulse/studypulse-backend/internal/domain"
	"github.com/studypulse/studypulse-backend/internal/pkg/dbctx"
	"github.com/studypulse/studypulse-backend/internal/pkg/logger"
)

type InterventionRepo interface {
	CreateBatch(dbc dbctx.Context, rows []*types.InterventionRecommendation) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.InterventionRecommendation, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID, status types.InterventionStatus, limit int) ([]*types.InterventionRecommendation, error)
	// MarkApplied transitions pending/skipped -> applied. Returns the number
	// of rows updated; 0 means the row was already applied or missing.
	MarkApplied(dbc dbctx.Context, id uuid.UUID, loadBefore *float64) (int64, error)
	MarkSkipped(dbc dbctx.Context, id uuid.UUID) (int64, error)
	SetLoadAfter(dbc dbctx.Context, id uuid.UUID, loadAfter float64) error
	// ListAppliedWithoutOutcome returns applied recommendations with no
	// load_after reading yet, applied at or after since.
	ListAppliedWithoutOutcome(dbc dbctx.Context, userID uuid.UUID, since time.Time) ([]*types.InterventionRecommendation, error)
}

type interventionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewInterventionRepo(db *gorm.DB, baseLog *logger.Logger) InterventionRepo {
	return &interventionRepo{
		db:  db,
		log: baseLog.With("repo", "InterventionRepo"),
	}
}

func (r *interventionRepo) CreateBatch(dbc dbctx.Context, rows []*types.InterventionRecommendation) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).Create(rows).Error
}

func (r *interventionRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.InterventionRecommendation, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.InterventionRecommendation
	if err := t.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *interventionRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, status types.InterventionStatus, limit int) ([]*types.InterventionRecommendation, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil {
		return nil, nil
	}
	q := t.WithContext(dbc.Ctx).Where("user_id = ?", userID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []*types.InterventionRecommendation
	if err := q.Order("priority ASC, created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *interventionRepo) MarkApplied(dbc dbctx.Context, id uuid.UUID, loadBefore *float64) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return 0, nil
	}
	updates := map[string]any{
		"status":     types.InterventionApplied,
		"applied_at": time.Now().UTC(),
	}
	if loadBefore != nil {
		updates["load_before"] = *loadBefore
	}
	// The guard keeps applied terminal with respect to pending: an applied
	// row is never re-applied and never reverts.
	res := t.WithContext(dbc.Ctx).
		Model(&types.InterventionRecommendation{}).
		Where("id = ? AND status <> ?", id, types.InterventionApplied).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *interventionRepo) MarkSkipped(dbc dbctx.Context, id uuid.UUID) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return 0, nil
	}
	res := t.WithContext(dbc.Ctx).
		Model(&types.InterventionRecommendation{}).
		Where("id = ? AND status = ?", id, types.InterventionPending).
		Update("status", types.InterventionSkipped)
	return res.RowsAffected, res.Error
}

func (r *interventionRepo) SetLoadAfter(dbc dbctx.Context, id uuid.UUID, loadAfter float64) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.InterventionRecommendation{}).
		Where("id = ? AND status = ?", id, types.InterventionApplied).
		Update("load_after", loadAfter).Error
}

func (r *interventionRepo) ListAppliedWithoutOutcome(dbc dbctx.Context, userID uuid.UUID, since time.Time) ([]*types.InterventionRecommendation, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil {
		return nil, nil
	}
	var rows []*types.InterventionRecommendation
	if err := t.WithContext(dbc.Ctx).
		Where("user_id = ? AND status = ? AND load_after IS NULL AND applied_at >= ?",
			userID, types.InterventionApplied, since).
		Order("applied_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
