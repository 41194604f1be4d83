package repos

import (
	"gorm.io/gorm"

	"github.com/studypulse/studypulse-backend/internal/data/repos/cognitive"
	"github.com/studypulse/studypulse-backend/internal/pkg/logger"
)

type BehavioralSignalRepo = cognitive.BehavioralSignalRepo
type LoadScoreRepo = cognitive.LoadScoreRepo
type BurnoutAssessmentRepo = cognitive.BurnoutAssessmentRepo
type InterventionRepo = cognitive.InterventionRepo
type SessionPlanRepo = cognitive.SessionPlanRepo
type StressPatternRepo = cognitive.StressPatternRepo
type StudySessionRepo = cognitive.StudySessionRepo

type SessionCounts = cognitive.SessionCounts

func NewBehavioralSignalRepo(db *gorm.DB, log *logger.Logger) BehavioralSignalRepo {
	return cognitive.NewBehavioralSignalRepo(db, log)
}
func NewLoadScoreRepo(db *gorm.DB, log *logger.Logger) LoadScoreRepo {
	return cognitive.NewLoadScoreRepo(db, log)
}
func NewBurnoutAssessmentRepo(db *gorm.DB, log *logger.Logger) BurnoutAssessmentRepo {
	return cognitive.NewBurnoutAssessmentRepo(db, log)
}
func NewInterventionRepo(db *gorm.DB, log *logger.Logger) InterventionRepo {
	return cognitive.NewInterventionRepo(db, log)
}
func NewSessionPlanRepo(db *gorm.DB, log *logger.Logger) SessionPlanRepo {
	return cognitive.NewSessionPlanRepo(db, log)
}
func NewStressPatternRepo(db *gorm.DB, log *logger.Logger) StressPatternRepo {
	return cognitive.NewStressPatternRepo(db, log)
}
func NewStudySessionRepo(db *gorm.DB, log *logger.Logger) StudySessionRepo {
	return cognitive.NewStudySessionRepo(db, log)
}
