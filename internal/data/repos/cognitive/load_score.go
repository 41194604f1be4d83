package cognitive

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/studypulse/studypulse-backend/internal/domain"
	"github.com/studypulse/studypulse-backend/internal/pkg/dbctx"
	"github.com/studypulse/studypulse-backend/internal/pkg/logger"
)

type LoadScoreRepo interface {
	Create(dbc dbctx.Context, row *types.CognitiveLoadScore) error
	Latest(dbc dbctx.Context, userID uuid.UUID) (*types.CognitiveLoadScore, error)
	ListSince(dbc dbctx.Context, userID uuid.UUID, since time.Time) ([]*types.CognitiveLoadScore, error)
	ListRecent(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.CognitiveLoadScore, error)
}

type loadScoreRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLoadScoreRepo(db *gorm.DB, baseLog *logger.Logger) LoadScoreRepo {
	return &loadScoreRepo{
		db:  db,
		log: baseLog.With("repo", "LoadScoreRepo"),
	}
}

func (r *loadScoreRepo) Create(dbc dbctx.Context, row *types.CognitiveLoadScore) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil {
		return nil
	}
	return t.WithContext(dbc.Ctx).Create(row).Error
}

func (r *loadScoreRepo) Latest(dbc dbctx.Context, userID uuid.UUID) (*types.CognitiveLoadScore, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil {
		return nil, nil
	}
	var row types.CognitiveLoadScore
	if err := t.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *loadScoreRepo) ListSince(dbc dbctx.Context, userID uuid.UUID, since time.Time) ([]*types.CognitiveLoadScore, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil {
		return nil, nil
	}
	var rows []*types.CognitiveLoadScore
	if err := t.WithContext(dbc.Ctx).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *loadScoreRepo) ListRecent(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.CognitiveLoadScore, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil || limit <= 0 {
		return nil, nil
	}
	var rows []*types.CognitiveLoadScore
	if err := t.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
