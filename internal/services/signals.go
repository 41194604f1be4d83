package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/studypulse/studypulse-backend/internal/data/repos"
	types "github.com/studypulse/studypulse-backend/internal/domain"
	"github.com/studypulse/studypulse-backend/internal/pkg/dbctx"
	pkgerrors "github.com/studypulse/studypulse-backend/internal/pkg/errors"
	"github.com/studypulse/studypulse-backend/internal/pkg/logger"
)

// RawSignalInput is one interaction event as delivered by the client. The
// boundary is deliberately loose: events may arrive out of order and with
// missing fields. Missing numeric fields stay nil and are excluded from
// weighting downstream, never coerced to zero.
type RawSignalInput struct {
	OccurredAt        string    `json:"ts"`
	LatencySamplesMs  []float64 `json:"latency_samples_ms,omitempty"`
	ErrorCount        *int      `json:"error_count,omitempty"`
	InteractionCount  *int      `json:"interaction_count,omitempty"`
	PauseCount        *int      `json:"pause_count,omitempty"`
	PauseDurationMs   *float64  `json:"pause_duration_ms,omitempty"`
	PerformanceScores []float64 `json:"performance_scores,omitempty"`
}

// IngestResult reports how a batch fared: rejected records are logged and
// skipped, the rest of the batch goes through.
type IngestResult struct {
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
}

type SignalService interface {
	Ingest(dbc dbctx.Context, userID, sessionID uuid.UUID, batch []RawSignalInput) (IngestResult, error)
	ListRecent(dbc dbctx.Context, userID, sessionID uuid.UUID, since time.Time) ([]*types.BehavioralSignal, error)
}

type signalService struct {
	log     *logger.Logger
	signals repos.BehavioralSignalRepo
}

func NewSignalService(baseLog *logger.Logger, signals repos.BehavioralSignalRepo) SignalService {
	return &signalService{
		log:     baseLog.With("service", "SignalService"),
		signals: signals,
	}
}

func (s *signalService) Ingest(dbc dbctx.Context, userID, sessionID uuid.UUID, batch []RawSignalInput) (IngestResult, error) {
	var res IngestResult
	if userID == uuid.Nil || sessionID == uuid.Nil {
		return res, fmt.Errorf("%w: user and session required", pkgerrors.ErrValidation)
	}
	if len(batch) == 0 {
		return res, nil
	}

	rows := make([]*types.BehavioralSignal, 0, len(batch))
	for i := range batch {
		row, err := s.normalize(userID, sessionID, &batch[i])
		if err != nil {
			res.Rejected++
			s.log.Warn("rejected signal record",
				"user_id", userID,
				"session_id", sessionID,
				"index", i,
				"error", err,
			)
			continue
		}
		rows = append(rows, row)
	}

	n, err := s.signals.CreateBatch(dbc, rows)
	if err != nil {
		return res, fmt.Errorf("persist signals: %w", err)
	}
	res.Accepted = n
	return res, nil
}

func (s *signalService) ListRecent(dbc dbctx.Context, userID, sessionID uuid.UUID, since time.Time) ([]*types.BehavioralSignal, error) {
	return s.signals.ListRecent(dbc, userID, sessionID, since, 0)
}

func (s *signalService) normalize(userID, sessionID uuid.UUID, in *RawSignalInput) (*types.BehavioralSignal, error) {
	occurredAt, err := parseEventTime(in.OccurredAt)
	if err != nil {
		return nil, err
	}
	for _, v := range in.LatencySamplesMs {
		if v < 0 {
			return nil, fmt.Errorf("%w: negative latency sample", pkgerrors.ErrValidation)
		}
	}
	for _, v := range in.PerformanceScores {
		if v < 0 || v > 1 {
			return nil, fmt.Errorf("%w: performance score outside [0,1]", pkgerrors.ErrValidation)
		}
	}
	if in.ErrorCount != nil && *in.ErrorCount < 0 {
		return nil, fmt.Errorf("%w: negative error count", pkgerrors.ErrValidation)
	}
	if in.InteractionCount != nil && *in.InteractionCount < 0 {
		return nil, fmt.Errorf("%w: negative interaction count", pkgerrors.ErrValidation)
	}
	if in.PauseCount != nil && *in.PauseCount < 0 {
		return nil, fmt.Errorf("%w: negative pause count", pkgerrors.ErrValidation)
	}
	if in.PauseDurationMs != nil && *in.PauseDurationMs < 0 {
		return nil, fmt.Errorf("%w: negative pause duration", pkgerrors.ErrValidation)
	}

	row := &types.BehavioralSignal{
		ID:               uuid.New(),
		UserID:           userID,
		SessionID:        sessionID,
		OccurredAt:       occurredAt,
		ErrorCount:       in.ErrorCount,
		InteractionCount: in.InteractionCount,
		PauseCount:       in.PauseCount,
		PauseDurationMs:  in.PauseDurationMs,
		CreatedAt:        time.Now().UTC(),
	}
	if len(in.LatencySamplesMs) > 0 {
		row.LatencySamplesMs = datatypes.NewJSONSlice(in.LatencySamplesMs)
	}
	if len(in.PerformanceScores) > 0 {
		row.PerformanceScores = datatypes.NewJSONSlice(in.PerformanceScores)
	}
	return row, nil
}

func parseEventTime(ts string) (time.Time, error) {
	if ts == "" {
		return time.Time{}, fmt.Errorf("%w: missing timestamp", pkgerrors.ErrValidation)
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, ts); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unparseable timestamp %q", pkgerrors.ErrValidation, ts)
}
