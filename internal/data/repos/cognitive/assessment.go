package cognitive

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/studypulse/studypulse-backend/internal/domain"
	"github.com/studypulse/studypulse-backend/internal/pkg/dbctx"
	"github.com/studypulse/studypulse-backend/internal/pkg/logger"
)

type BurnoutAssessmentRepo interface {
	Create(dbc dbctx.Context, row *types.BurnoutRiskAssessment) error
	Latest(dbc dbctx.Context, userID uuid.UUID) (*types.BurnoutRiskAssessment, error)
	ListSince(dbc dbctx.Context, userID uuid.UUID, since time.Time) ([]*types.BurnoutRiskAssessment, error)
}

type burnoutAssessmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBurnoutAssessmentRepo(db *gorm.DB, baseLog *logger.Logger) BurnoutAssessmentRepo {
	return &burnoutAssessmentRepo{
		db:  db,
		log: baseLog.With("repo", "BurnoutAssessmentRepo"),
	}
}

func (r *burnoutAssessmentRepo) Create(dbc dbctx.Context, row *types.BurnoutRiskAssessment) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil {
		return nil
	}
	return t.WithContext(dbc.Ctx).Create(row).Error
}

func (r *burnoutAssessmentRepo) Latest(dbc dbctx.Context, userID uuid.UUID) (*types.BurnoutRiskAssessment, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil {
		return nil, nil
	}
	var row types.BurnoutRiskAssessment
	if err := t.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Order("assessed_at DESC").
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *burnoutAssessmentRepo) ListSince(dbc dbctx.Context, userID uuid.UUID, since time.Time) ([]*types.BurnoutRiskAssessment, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil {
		return nil, nil
	}
	var rows []*types.BurnoutRiskAssessment
	if err := t.WithContext(dbc.Ctx).
		Where("user_id = ? AND assessed_at >= ?", userID, since).
		Order("assessed_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
