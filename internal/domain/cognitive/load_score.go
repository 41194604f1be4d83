package cognitive

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type LoadLevel string

const (
	LoadLow      LoadLevel = "LOW"
	LoadModerate LoadLevel = "MODERATE"
	LoadHigh     LoadLevel = "HIGH"
	LoadCritical LoadLevel = "CRITICAL"
)

// Load band cut points. Each band is inclusive on its lower bound:
// [0,40) LOW, [40,60) MODERATE, [60,80) HIGH, [80,100] CRITICAL.
const (
	LoadModerateCut = 40.0
	LoadHighCut     = 60.0
	LoadCriticalCut = 80.0
)

// LevelForLoad buckets a load score into its discrete band.
func LevelForLoad(score float64) LoadLevel {
	switch {
	case score >= LoadCriticalCut:
		return LoadCritical
	case score >= LoadHighCut:
		return LoadHigh
	case score >= LoadModerateCut:
		return LoadModerate
	default:
		return LoadLow
	}
}

// StressIndicator is one weighted sub-signal contribution to a load score.
type StressIndicator struct {
	Name         string  `json:"name"`
	RawScore     float64 `json:"raw_score"`
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"`
	// Evidence reports whether the underlying signal fields were present.
	Evidence bool `json:"evidence"`
}

// CognitiveLoadScore is a point-in-time 0-100 estimate of mental strain.
// Rows are append-only; newer scores supersede older ones.
type CognitiveLoadScore struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index:idx_load_score,priority:1" json:"user_id"`
	SessionID *uuid.UUID `gorm:"type:uuid;index" json:"session_id,omitempty"`

	Score      float64   `gorm:"not null" json:"score"`
	Level      LoadLevel `gorm:"type:text;not null" json:"level"`
	Confidence float64   `gorm:"not null" json:"confidence"`

	Breakdown datatypes.JSONSlice[StressIndicator] `gorm:"type:jsonb;column:breakdown" json:"breakdown,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now();index:idx_load_score,priority:2" json:"created_at"`
}

func (CognitiveLoadScore) TableName() string { return "cognitive_load_score" }

// OverloadEvent is emitted when a score lands in the CRITICAL band. It
// carries the score and a back-reference so downstream consumers can react
// without re-reading storage.
type OverloadEvent struct {
	ScoreID    uuid.UUID  `json:"score_id"`
	UserID     uuid.UUID  `json:"user_id"`
	SessionID  *uuid.UUID `json:"session_id,omitempty"`
	Score      float64    `json:"score"`
	DetectedAt time.Time  `json:"detected_at"`
}
