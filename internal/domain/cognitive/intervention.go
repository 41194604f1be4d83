package cognitive

import (
	"time"

	"github.com/google/uuid"
)

type InterventionType string

const (
	InterventionWorkloadReduction   InterventionType = "workload_reduction"
	InterventionDifficultyReduction InterventionType = "difficulty_reduction"
	InterventionBreakSchedule       InterventionType = "break_schedule_adjustment"
	InterventionContentSimplify     InterventionType = "content_simplification"
	InterventionMandatoryRest       InterventionType = "mandatory_rest"
)

type InterventionStatus string

const (
	InterventionPending InterventionStatus = "pending"
	InterventionApplied InterventionStatus = "applied"
	InterventionSkipped InterventionStatus = "skipped"
)

// InterventionRecommendation is one ranked corrective action produced by
// the rule table. Only the applying component moves its status, and a
// recommendation never transitions from applied back to pending.
type InterventionRecommendation struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	Type        InterventionType `gorm:"type:text;not null" json:"type"`
	Priority    int              `gorm:"not null" json:"priority"`
	Description string           `gorm:"type:text;not null" json:"description"`
	Reasoning   string           `gorm:"type:text" json:"reasoning,omitempty"`
	// EstimatedEffect is the expected load reduction in score points.
	EstimatedEffect float64 `gorm:"not null;default:0" json:"estimated_effect"`

	TargetPlanID *uuid.UUID `gorm:"type:uuid;index" json:"target_plan_id,omitempty"`

	Status InterventionStatus `gorm:"type:text;not null;default:'pending'" json:"status"`

	// Load readings around application, for effectiveness tracking.
	LoadBefore *float64 `gorm:"column:load_before" json:"load_before,omitempty"`
	LoadAfter  *float64 `gorm:"column:load_after" json:"load_after,omitempty"`

	CreatedAt time.Time  `gorm:"not null;default:now();index" json:"created_at"`
	AppliedAt *time.Time `gorm:"column:applied_at" json:"applied_at,omitempty"`
}

func (InterventionRecommendation) TableName() string { return "intervention_recommendation" }
