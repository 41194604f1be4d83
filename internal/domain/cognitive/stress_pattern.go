package cognitive

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// StressResponsePattern captures longer-horizon personalization evidence
// for one user: what tends to stress them, how fast they recover, and how
// much load they tolerate relative to the population default. One row per
// user, updated in place as evidence accumulates.
type StressResponsePattern struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`

	PrimaryStressors datatypes.JSONSlice[string] `gorm:"type:jsonb;column:primary_stressors" json:"primary_stressors,omitempty"`
	CopingStrategies datatypes.JSONSlice[string] `gorm:"type:jsonb;column:coping_strategies" json:"coping_strategies,omitempty"`

	AvgRecoveryHours float64 `gorm:"not null;default:0" json:"avg_recovery_hours"`

	// LoadTolerance shifts the personal overload threshold in score points,
	// bounded to [-10,10] by the analysis job.
	LoadTolerance float64 `gorm:"not null;default:0" json:"load_tolerance"`

	SampleCount int `gorm:"not null;default:0" json:"sample_count"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (StressResponsePattern) TableName() string { return "stress_response_pattern" }
