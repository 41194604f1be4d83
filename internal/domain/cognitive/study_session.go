package cognitive

import (
	"time"

	"github.com/google/uuid"
)

// StudySession is the per-session completion record the burnout assessor
// aggregates over. Session lifecycle itself is owned by an external
// collaborator; this row only keeps what risk assessment needs.
type StudySession struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index:idx_study_session,priority:1" json:"user_id"`
	MissionID *uuid.UUID `gorm:"type:uuid;index" json:"mission_id,omitempty"`

	StartedAt time.Time  `gorm:"not null;index:idx_study_session,priority:2" json:"started_at"`
	EndedAt   *time.Time `gorm:"column:ended_at" json:"ended_at,omitempty"`

	Completed bool `gorm:"not null;default:false" json:"completed"`
	Skipped   bool `gorm:"not null;default:false" json:"skipped"`

	// RetentionScore in [0,1]; nil when the session produced no recall data.
	RetentionScore *float64 `gorm:"column:retention_score" json:"retention_score,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (StudySession) TableName() string { return "study_session" }
