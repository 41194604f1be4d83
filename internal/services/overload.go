package services

import (
	"time"

	types "github.com/studypulse/studypulse-backend/internal/domain"
	"github.com/studypulse/studypulse-backend/internal/pkg/dbctx"
)

// Personal tolerance may shift the critical threshold, but never outside
// this band.
const (
	overloadCutFloor   = 70.0
	overloadCutCeiling = 90.0
)

// OverloadSink receives overload events for downstream reaction. The
// orchestration service implements it; the wiring decides who listens.
type OverloadSink interface {
	HandleOverload(dbc dbctx.Context, event *types.OverloadEvent) error
}

// EffectiveOverloadCut is the critical threshold shifted by the user's
// load tolerance and clamped to the allowed band.
func EffectiveOverloadCut(tolerance float64) float64 {
	return clamp(types.LoadCriticalCut+tolerance, overloadCutFloor, overloadCutCeiling)
}

// DetectOverload reports whether a score crosses the user's effective
// critical threshold. Pure: no storage, no clock beyond the stamp.
func DetectOverload(score *types.CognitiveLoadScore, tolerance float64) *types.OverloadEvent {
	if score == nil || score.Score < EffectiveOverloadCut(tolerance) {
		return nil
	}
	return &types.OverloadEvent{
		ScoreID:    score.ID,
		UserID:     score.UserID,
		SessionID:  score.SessionID,
		Score:      score.Score,
		DetectedAt: time.Now().UTC(),
	}
}
