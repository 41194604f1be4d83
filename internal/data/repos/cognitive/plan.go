package cognitive

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/studypulse/studypulse-backend/internal/domain"
	"github.com/studypulse/studypulse-backend/internal/pkg/dbctx"
	"github.com/studypulse/studypulse-backend/internal/pkg/logger"
)

type SessionPlanRepo interface {
	Create(dbc dbctx.Context, row *types.SessionOrchestrationPlan) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.SessionOrchestrationPlan, error)
	ListOpenByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.SessionOrchestrationPlan, error)
	// UpdateIfVersion writes the full row guarded by its optimistic version:
	// the write succeeds only when the stored version still equals
	// expectedVersion, and bumps Version by one. Returns rows affected.
	UpdateIfVersion(dbc dbctx.Context, row *types.SessionOrchestrationPlan, expectedVersion int) (int64, error)
}

type sessionPlanRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSessionPlanRepo(db *gorm.DB, baseLog *logger.Logger) SessionPlanRepo {
	return &sessionPlanRepo{
		db:  db,
		log: baseLog.With("repo", "SessionPlanRepo"),
	}
}

func (r *sessionPlanRepo) Create(dbc dbctx.Context, row *types.SessionOrchestrationPlan) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil {
		return nil
	}
	if row.Version == 0 {
		row.Version = 1
	}
	return t.WithContext(dbc.Ctx).Create(row).Error
}

func (r *sessionPlanRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.SessionOrchestrationPlan, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.SessionOrchestrationPlan
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

func (r *sessionPlanRepo) ListOpenByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.SessionOrchestrationPlan, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil {
		return nil, nil
	}
	var rows []*types.SessionOrchestrationPlan
	if err := t.WithContext(dbc.Ctx).
		Where("user_id = ? AND status <> ?", userID, types.PlanClosed).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *sessionPlanRepo) UpdateIfVersion(dbc dbctx.Context, row *types.SessionOrchestrationPlan, expectedVersion int) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil || row.ID == uuid.Nil {
		return 0, nil
	}
	updates := map[string]any{
		"status":               row.Status,
		"planned_start":        row.PlannedStart,
		"actual_start":         row.ActualStart,
		"planned_duration_min": row.PlannedDurationMin,
		"actual_duration_min":  row.ActualDurationMin,
		"intensity":            row.Intensity,
		"content_sequence":     row.ContentSequence,
		"adaptations":          row.Adaptations,
		"reasoning":            row.Reasoning,
		"planned_load":         row.PlannedLoad,
		"actual_load":          row.ActualLoad,
		"version":              expectedVersion + 1,
		"updated_at":           time.Now().UTC(),
	}
	res := t.WithContext(dbc.Ctx).
		Model(&types.SessionOrchestrationPlan{}).
		Where("id = ? AND version = ?", row.ID, expectedVersion).
		Updates(updates)
	if res.Error == nil && res.RowsAffected > 0 {
		row.Version = expectedVersion + 1
	}
	return res.RowsAffected, res.Error
}
