package app

import (
	"gorm.io/gorm"

	"github.com/studypulse/studypulse-backend/internal/data/repos"
	cogrepos "github.com/studypulse/studypulse-backend/internal/data/repos/cognitive"
	"github.com/studypulse/studypulse-backend/internal/pkg/logger"
)

type Repos struct {
	Signals       repos.BehavioralSignalRepo
	Scores        repos.LoadScoreRepo
	Assessments   repos.BurnoutAssessmentRepo
	Interventions repos.InterventionRepo
	Plans         repos.SessionPlanRepo
	Patterns      repos.StressPatternRepo
	Sessions      repos.StudySessionRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Signals:       cogrepos.NewBehavioralSignalRepo(db, log),
		Scores:        cogrepos.NewLoadScoreRepo(db, log),
		Assessments:   cogrepos.NewBurnoutAssessmentRepo(db, log),
		Interventions: cogrepos.NewInterventionRepo(db, log),
		Plans:         cogrepos.NewSessionPlanRepo(db, log),
		Patterns:      cogrepos.NewStressPatternRepo(db, log),
		Sessions:      cogrepos.NewStudySessionRepo(db, log),
	}
}
