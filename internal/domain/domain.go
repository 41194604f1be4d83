// Package domain re-exports the domain model under a single import path so
// repos and services can refer to every persisted type as types.X.
package domain

import (
	"github.com/studypulse/studypulse-backend/internal/domain/cognitive"
)

type (
	BehavioralSignal           = cognitive.BehavioralSignal
	CognitiveLoadScore         = cognitive.CognitiveLoadScore
	StressIndicator            = cognitive.StressIndicator
	OverloadEvent              = cognitive.OverloadEvent
	BurnoutRiskAssessment      = cognitive.BurnoutRiskAssessment
	ContributingFactor         = cognitive.ContributingFactor
	WarningSignal              = cognitive.WarningSignal
	InterventionRecommendation = cognitive.InterventionRecommendation
	SessionOrchestrationPlan   = cognitive.SessionOrchestrationPlan
	PlanAdaptation             = cognitive.PlanAdaptation
	ContentItem                = cognitive.ContentItem
	StressResponsePattern      = cognitive.StressResponsePattern
	StudySession               = cognitive.StudySession

	LoadLevel          = cognitive.LoadLevel
	RiskLevel          = cognitive.RiskLevel
	FactorSeverity     = cognitive.FactorSeverity
	InterventionType   = cognitive.InterventionType
	InterventionStatus = cognitive.InterventionStatus
	PlanStatus         = cognitive.PlanStatus
	Intensity          = cognitive.Intensity
)

const (
	LoadLow      = cognitive.LoadLow
	LoadModerate = cognitive.LoadModerate
	LoadHigh     = cognitive.LoadHigh
	LoadCritical = cognitive.LoadCritical

	LoadModerateCut = cognitive.LoadModerateCut
	LoadHighCut     = cognitive.LoadHighCut
	LoadCriticalCut = cognitive.LoadCriticalCut

	RiskLow      = cognitive.RiskLow
	RiskMedium   = cognitive.RiskMedium
	RiskHigh     = cognitive.RiskHigh
	RiskCritical = cognitive.RiskCritical

	RiskMediumCut   = cognitive.RiskMediumCut
	RiskHighCut     = cognitive.RiskHighCut
	RiskCriticalCut = cognitive.RiskCriticalCut

	SeverityLow      = cognitive.SeverityLow
	SeverityModerate = cognitive.SeverityModerate
	SeverityHigh     = cognitive.SeverityHigh

	InterventionWorkloadReduction   = cognitive.InterventionWorkloadReduction
	InterventionDifficultyReduction = cognitive.InterventionDifficultyReduction
	InterventionBreakSchedule       = cognitive.InterventionBreakSchedule
	InterventionContentSimplify     = cognitive.InterventionContentSimplify
	InterventionMandatoryRest       = cognitive.InterventionMandatoryRest

	InterventionPending = cognitive.InterventionPending
	InterventionApplied = cognitive.InterventionApplied
	InterventionSkipped = cognitive.InterventionSkipped

	PlanProposed = cognitive.PlanProposed
	PlanActive   = cognitive.PlanActive
	PlanAdapting = cognitive.PlanAdapting
	PlanClosed   = cognitive.PlanClosed

	IntensityRecovery = cognitive.IntensityRecovery
	IntensityLight    = cognitive.IntensityLight
	IntensityModerate = cognitive.IntensityModerate
	IntensityIntense  = cognitive.IntensityIntense
)

var (
	LevelForLoad = cognitive.LevelForLoad
	LevelForRisk = cognitive.LevelForRisk
)
