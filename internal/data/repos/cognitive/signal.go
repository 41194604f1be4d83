package cognitive

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/studypulse/studypulse-backend/internal/domain"
	"github.com/studypulse/studypulse-backend/internal/pkg/dbctx"
	"github.com/studypulse/studypulse-backend/internal/pkg/logger"
)

type BehavioralSignalRepo interface {
	CreateBatch(dbc dbctx.Context, rows []*types.BehavioralSignal) (int, error)
	ListRecent(dbc dbctx.Context, userID, sessionID uuid.UUID, since time.Time, limit int) ([]*types.BehavioralSignal, error)
	DeleteOlderThan(dbc dbctx.Context, cutoff time.Time) (int64, error)
}

type behavioralSignalRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBehavioralSignalRepo(db *gorm.DB, baseLog *logger.Logger) BehavioralSignalRepo {
	return &behavioralSignalRepo{
		db:  db,
		log: baseLog.With("repo", "BehavioralSignalRepo"),
	}
}

func (r *behavioralSignalRepo) CreateBatch(dbc dbctx.Context, rows []*types.BehavioralSignal) (int, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return 0, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(rows).Error; err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (r *behavioralSignalRepo) ListRecent(dbc dbctx.Context, userID, sessionID uuid.UUID, since time.Time, limit int) ([]*types.BehavioralSignal, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil {
		return nil, nil
	}
	q := t.WithContext(dbc.Ctx).
		Where("user_id = ? AND occurred_at >= ?", userID, since)
	if sessionID != uuid.Nil {
		q = q.Where("session_id = ?", sessionID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []*types.BehavioralSignal
	if err := q.Order("occurred_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *behavioralSignalRepo) DeleteOlderThan(dbc dbctx.Context, cutoff time.Time) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	res := t.WithContext(dbc.Ctx).
		Where("occurred_at < ?", cutoff).
		Delete(&types.BehavioralSignal{})
	return res.RowsAffected, res.Error
}
