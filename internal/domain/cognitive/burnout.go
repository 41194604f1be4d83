package cognitive

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// Risk band cut points, inclusive on the lower bound:
// [0,25) LOW, [25,50) MEDIUM, [50,75) HIGH, [75,100] CRITICAL.
const (
	RiskMediumCut   = 25.0
	RiskHighCut     = 50.0
	RiskCriticalCut = 75.0
)

// LevelForRisk buckets a burnout risk score into its discrete band.
func LevelForRisk(score float64) RiskLevel {
	switch {
	case score >= RiskCriticalCut:
		return RiskCritical
	case score >= RiskHighCut:
		return RiskHigh
	case score >= RiskMediumCut:
		return RiskMedium
	default:
		return RiskLow
	}
}

type FactorSeverity string

const (
	SeverityLow      FactorSeverity = "low"
	SeverityModerate FactorSeverity = "moderate"
	SeverityHigh     FactorSeverity = "high"
)

// ContributingFactor is one weighted component of a burnout assessment.
type ContributingFactor struct {
	Name     string         `json:"name"`
	Score    float64        `json:"score"`
	Weight   float64        `json:"weight"`
	Severity FactorSeverity `json:"severity"`
}

// WarningSignal is a human-readable observation backing an assessment,
// e.g. "sustained high load for 5+ consecutive days".
type WarningSignal struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// BurnoutRiskAssessment is the output of one batch assessment run. One row
// per user per run; history is retained for trend display.
type BurnoutRiskAssessment struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index:idx_burnout_assessment,priority:1" json:"user_id"`

	AssessedAt time.Time `gorm:"not null;index:idx_burnout_assessment,priority:2" json:"assessed_at"`
	WindowDays int       `gorm:"not null" json:"window_days"`

	RiskScore  float64   `gorm:"not null" json:"risk_score"`
	RiskLevel  RiskLevel `gorm:"type:text;not null" json:"risk_level"`
	Confidence float64   `gorm:"not null" json:"confidence"`

	Factors         datatypes.JSONSlice[ContributingFactor] `gorm:"type:jsonb;column:factors" json:"factors,omitempty"`
	Warnings        datatypes.JSONSlice[WarningSignal]      `gorm:"type:jsonb;column:warnings" json:"warnings,omitempty"`
	Recommendations datatypes.JSONSlice[string]             `gorm:"type:jsonb;column:recommendations" json:"recommendations,omitempty"`

	// MissionOverride tells external mission-generation logic to hold back
	// normal planning; set when risk is HIGH or CRITICAL.
	MissionOverride bool `gorm:"not null;default:false" json:"mission_override"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (BurnoutRiskAssessment) TableName() string { return "burnout_risk_assessment" }
