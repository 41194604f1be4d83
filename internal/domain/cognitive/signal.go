package cognitive

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// BehavioralSignal is one normalized snapshot of interaction telemetry for a
// user within a study session. Rows are append-only: a newer signal
// supersedes an older one, nothing is updated in place.
//
// Optional numeric evidence uses pointers. A nil field means "no evidence"
// and is excluded from downstream weighting; it is never coerced to zero.
type BehavioralSignal struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index:idx_behavioral_signal,priority:1" json:"user_id"`
	SessionID uuid.UUID `gorm:"type:uuid;not null;index:idx_behavioral_signal,priority:2" json:"session_id"`

	OccurredAt time.Time `gorm:"not null;index:idx_behavioral_signal,priority:3" json:"occurred_at"`

	// Response-latency samples in milliseconds, in arrival order.
	LatencySamplesMs datatypes.JSONSlice[float64] `gorm:"type:jsonb;column:latency_samples_ms" json:"latency_samples_ms,omitempty"`

	ErrorCount       *int     `gorm:"column:error_count" json:"error_count,omitempty"`
	InteractionCount *int     `gorm:"column:interaction_count" json:"interaction_count,omitempty"`
	PauseCount       *int     `gorm:"column:pause_count" json:"pause_count,omitempty"`
	PauseDurationMs  *float64 `gorm:"column:pause_duration_ms" json:"pause_duration_ms,omitempty"`

	// Recent performance scores in [0,1], most recent last.
	PerformanceScores datatypes.JSONSlice[float64] `gorm:"type:jsonb;column:performance_scores" json:"performance_scores,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (BehavioralSignal) TableName() string { return "behavioral_signal" }
