package cognitive

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type PlanStatus string

const (
	PlanProposed PlanStatus = "proposed"
	PlanActive   PlanStatus = "active"
	PlanAdapting PlanStatus = "adapting"
	PlanClosed   PlanStatus = "closed"
)

type Intensity string

const (
	IntensityRecovery Intensity = "recovery"
	IntensityLight    Intensity = "light"
	IntensityModerate Intensity = "moderate"
	IntensityIntense  Intensity = "intense"
)

// ContentItem is one entry in a plan's content sequence.
type ContentItem struct {
	Kind        string `json:"kind"` // "new", "review", "practice", "break"
	Ref         string `json:"ref,omitempty"`
	DurationMin int    `json:"duration_min"`
}

// PlanAdaptation is one logged mutation of an active plan.
type PlanAdaptation struct {
	At        time.Time `json:"at"`
	Trigger   string    `json:"trigger"` // "load_reading", "overload", "intervention", "burnout_override"
	LoadScore float64   `json:"load_score,omitempty"`
	Change    string    `json:"change"`
}

// SessionOrchestrationPlan governs one study session's timing, duration,
// intensity and content sequencing. It is mutated in place while the
// session runs and closed (terminal) when it ends. Concurrent adaptation
// triggers are serialized through the Version column: writers read the
// current version and write only if it is unchanged.
type SessionOrchestrationPlan struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index:idx_session_plan,priority:1" json:"user_id"`
	MissionID uuid.UUID  `gorm:"type:uuid;not null;index:idx_session_plan,priority:2" json:"mission_id"`
	SessionID *uuid.UUID `gorm:"type:uuid;index" json:"session_id,omitempty"`

	Status PlanStatus `gorm:"type:text;not null;default:'proposed'" json:"status"`

	PlannedStart       time.Time  `gorm:"not null" json:"planned_start"`
	ActualStart        *time.Time `gorm:"column:actual_start" json:"actual_start,omitempty"`
	PlannedDurationMin int        `gorm:"not null" json:"planned_duration_min"`
	ActualDurationMin  *int       `gorm:"column:actual_duration_min" json:"actual_duration_min,omitempty"`

	Intensity Intensity `gorm:"type:text;not null" json:"intensity"`

	ContentSequence datatypes.JSONSlice[ContentItem]    `gorm:"type:jsonb;column:content_sequence" json:"content_sequence,omitempty"`
	Adaptations     datatypes.JSONSlice[PlanAdaptation] `gorm:"type:jsonb;column:adaptations" json:"adaptations,omitempty"`
	Reasoning       datatypes.JSONSlice[string]         `gorm:"type:jsonb;column:reasoning" json:"reasoning,omitempty"`

	PlannedLoad float64  `gorm:"not null;default:0" json:"planned_load"`
	ActualLoad  *float64 `gorm:"column:actual_load" json:"actual_load,omitempty"`

	Version int `gorm:"not null;default:1" json:"version"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (SessionOrchestrationPlan) TableName() string { return "session_orchestration_plan" }
