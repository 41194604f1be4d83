package cognitive

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/studypulse/studypulse-backend/internal/domain"
	"github.com/studypulse/studypulse-backend/internal/pkg/dbctx"
	"github.com/studypulse/studypulse-backend/internal/pkg/logger"
)

// SessionCounts aggregates completion behavior over a window.
type SessionCounts struct {
	Total     int
	Completed int
	Skipped   int
}

type StudySessionRepo interface {
	Create(dbc dbctx.Context, row *types.StudySession) error
	End(dbc dbctx.Context, id uuid.UUID, completed bool, retention *float64) error
	CountsSince(dbc dbctx.Context, userID uuid.UUID, since time.Time) (SessionCounts, error)
	AvgRetentionSince(dbc dbctx.Context, userID uuid.UUID, since time.Time) (*float64, error)
	ListActiveUserIDs(dbc dbctx.Context, since time.Time) ([]uuid.UUID, error)
}

type studySessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStudySessionRepo(db *gorm.DB, baseLog *logger.Logger) StudySessionRepo {
	return &studySessionRepo{
		db:  db,
		log: baseLog.With("repo", "StudySessionRepo"),
	}
}

func (r *studySessionRepo) Create(dbc dbctx.Context, row *types.StudySession) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil {
		return nil
	}
	return t.WithContext(dbc.Ctx).Create(row).Error
}

func (r *studySessionRepo) End(dbc dbctx.Context, id uuid.UUID, completed bool, retention *float64) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	updates := map[string]any{
		"ended_at":  time.Now().UTC(),
		"completed": completed,
	}
	if retention != nil {
		updates["retention_score"] = *retention
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.StudySession{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *studySessionRepo) CountsSince(dbc dbctx.Context, userID uuid.UUID, since time.Time) (SessionCounts, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out SessionCounts
	if userID == uuid.Nil {
		return out, nil
	}
	type rowT struct {
		Total     int
		Completed int
		Skipped   int
	}
	var row rowT
	err := t.WithContext(dbc.Ctx).
		Model(&types.StudySession{}).
		Select(
			"COUNT(*) AS total, "+
				"COUNT(*) FILTER (WHERE completed) AS completed, "+
				"COUNT(*) FILTER (WHERE skipped) AS skipped",
		).
		Where("user_id = ? AND started_at >= ?", userID, since).
		Scan(&row).Error
	if err != nil {
		return out, err
	}
	out.Total = row.Total
	out.Completed = row.Completed
	out.Skipped = row.Skipped
	return out, nil
}

func (r *studySessionRepo) AvgRetentionSince(dbc dbctx.Context, userID uuid.UUID, since time.Time) (*float64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil {
		return nil, nil
	}
	var avg *float64
	err := t.WithContext(dbc.Ctx).
		Model(&types.StudySession{}).
		Select("AVG(retention_score)").
		Where("user_id = ? AND started_at >= ? AND retention_score IS NOT NULL", userID, since).
		Scan(&avg).Error
	if err != nil {
		return nil, err
	}
	return avg, nil
}

func (r *studySessionRepo) ListActiveUserIDs(dbc dbctx.Context, since time.Time) ([]uuid.UUID, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var ids []uuid.UUID
	if err := t.WithContext(dbc.Ctx).
		Model(&types.StudySession{}).
		Distinct("user_id").
		Where("started_at >= ?", since).
		Pluck("user_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
