package cognitive

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/studypulse/studypulse-backend/internal/domain"
	"github.com/studypulse/studypulse-backend/internal/pkg/dbctx"
	"github.com/studypulse/studypulse-backend/internal/pkg/logger"
)

type StressPatternRepo interface {
	GetByUser(dbc dbctx.Context, userID uuid.UUID) (*types.StressResponsePattern, error)
	Upsert(dbc dbctx.Context, row *types.StressResponsePattern) error
}

type stressPatternRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStressPatternRepo(db *gorm.DB, baseLog *logger.Logger) StressPatternRepo {
	return &stressPatternRepo{
		db:  db,
		log: baseLog.With("repo", "StressPatternRepo"),
	}
}

func (r *stressPatternRepo) GetByUser(dbc dbctx.Context, userID uuid.UUID) (*types.StressResponsePattern, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil {
		return nil, nil
	}
	var row types.StressResponsePattern
	if err := t.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *stressPatternRepo) Upsert(dbc dbctx.Context, row *types.StressResponsePattern) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil || row.UserID == uuid.Nil {
		return nil
	}
	now := time.Now().UTC()
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
		row.CreatedAt = now
	}
	row.UpdatedAt = now
	return t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"primary_stressors", "coping_strategies", "avg_recovery_hours",
				"load_tolerance", "sample_count", "updated_at",
			}),
		}).
		Create(row).Error
}
