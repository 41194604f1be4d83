package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/studypulse/studypulse-backend/internal/pkg/envutil"
)

// LoadWeights combine the stress-indicator sub-scores into a load score.
// They are calibration targets, never compiled in: defaults here are
// placeholders overridden by the weights file or environment.
type LoadWeights struct {
	Latency     float64 `yaml:"latency"`
	ErrorRate   float64 `yaml:"error_rate"`
	Engagement  float64 `yaml:"engagement"`
	Performance float64 `yaml:"performance"`
}

// BurnoutWeights combine contributing factors into a burnout risk score.
type BurnoutWeights struct {
	ChronicLoad        float64 `yaml:"chronic_load"`
	StudyIntensity     float64 `yaml:"study_intensity"`
	PerformanceDecline float64 `yaml:"performance_decline"`
	AbandonRate        float64 `yaml:"abandon_rate"`
}

// Scoring bundles every tunable the load scorer and burnout assessor use.
type Scoring struct {
	LoadWeights    LoadWeights    `yaml:"load_weights"`
	BurnoutWeights BurnoutWeights `yaml:"burnout_weights"`

	// NeutralScore is returned when no signal evidence exists at all.
	NeutralScore float64 `yaml:"neutral_score"`
	// BaselineLatencyMs is the population-default response latency used
	// until a personal baseline exists.
	BaselineLatencyMs float64 `yaml:"baseline_latency_ms"`
	// MinAssessmentDays is the data floor under which burnout assessments
	// degrade confidence instead of failing.
	MinAssessmentDays int `yaml:"min_assessment_days"`
	// WindowDays is the default burnout rolling window.
	WindowDays int `yaml:"window_days"`
}

type Config struct {
	Scoring Scoring

	JWTSecretKey string

	SamplerInterval time.Duration
	BurnoutCronSpec string
	StressCronSpec  string

	LoadTTL      time.Duration
	BurnoutTTL   time.Duration
	DashboardTTL time.Duration

	LocalCacheCapacity int
	Port               string
}

func defaultScoring() Scoring {
	return Scoring{
		LoadWeights: LoadWeights{
			Latency:     0.30,
			ErrorRate:   0.25,
			Engagement:  0.25,
			Performance: 0.20,
		},
		BurnoutWeights: BurnoutWeights{
			ChronicLoad:        0.35,
			StudyIntensity:     0.25,
			PerformanceDecline: 0.20,
			AbandonRate:        0.20,
		},
		NeutralScore:      50,
		BaselineLatencyMs: 2000,
		MinAssessmentDays: 3,
		WindowDays:        14,
	}
}

// Load assembles configuration from defaults, an optional YAML weights file
// (WEIGHTS_FILE) and environment overrides, in that order.
func Load() (Config, error) {
	cfg := Config{
		Scoring:            defaultScoring(),
		JWTSecretKey:       envutil.String("JWT_SECRET_KEY", "defaultsecret"),
		SamplerInterval:    envutil.Duration("LOAD_SAMPLER_INTERVAL", 5*time.Minute),
		BurnoutCronSpec:    envutil.String("BURNOUT_CRON", "0 0 3 * * *"),
		StressCronSpec:     envutil.String("STRESS_PATTERN_CRON", "0 0 4 * * 0"),
		LoadTTL:            envutil.Duration("CACHE_LOAD_TTL", 5*time.Minute),
		BurnoutTTL:         envutil.Duration("CACHE_BURNOUT_TTL", 24*time.Hour),
		DashboardTTL:       envutil.Duration("CACHE_DASHBOARD_TTL", time.Hour),
		LocalCacheCapacity: envutil.Int("CACHE_LOCAL_CAPACITY", 1024),
		Port:               envutil.String("PORT", "8080"),
	}

	if path := envutil.String("WEIGHTS_FILE", ""); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read weights file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg.Scoring); err != nil {
			return cfg, fmt.Errorf("parse weights file: %w", err)
		}
	}

	cfg.Scoring.LoadWeights = normalizeLoadWeights(cfg.Scoring.LoadWeights)
	cfg.Scoring.BurnoutWeights = normalizeBurnoutWeights(cfg.Scoring.BurnoutWeights)
	if cfg.Scoring.NeutralScore < 0 || cfg.Scoring.NeutralScore > 100 {
		cfg.Scoring.NeutralScore = 50
	}
	if cfg.Scoring.WindowDays < 1 {
		cfg.Scoring.WindowDays = 14
	}
	if cfg.Scoring.MinAssessmentDays < 1 {
		cfg.Scoring.MinAssessmentDays = 3
	}
	return cfg, nil
}

func normalizeLoadWeights(w LoadWeights) LoadWeights {
	sum := w.Latency + w.ErrorRate + w.Engagement + w.Performance
	if sum <= 0 {
		return defaultScoring().LoadWeights
	}
	return LoadWeights{
		Latency:     w.Latency / sum,
		ErrorRate:   w.ErrorRate / sum,
		Engagement:  w.Engagement / sum,
		Performance: w.Performance / sum,
	}
}

func normalizeBurnoutWeights(w BurnoutWeights) BurnoutWeights {
	sum := w.ChronicLoad + w.StudyIntensity + w.PerformanceDecline + w.AbandonRate
	if sum <= 0 {
		return defaultScoring().BurnoutWeights
	}
	return BurnoutWeights{
		ChronicLoad:        w.ChronicLoad / sum,
		StudyIntensity:     w.StudyIntensity / sum,
		PerformanceDecline: w.PerformanceDecline / sum,
		AbandonRate:        w.AbandonRate / sum,
	}
}
