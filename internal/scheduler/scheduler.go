package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron"

	"github.com/studypulse/studypulse-backend/internal/pkg/logger"
)

// Job is one unit of scheduled work. The context is canceled when the
// scheduler stops; jobs are expected to honor it.
type Job func(ctx context.Context)

// Scheduler runs named background jobs on intervals and cron expressions.
type Scheduler interface {
	// Every runs the job on a fixed interval, first run one interval after
	// Start.
	Every(name string, interval time.Duration, job Job)
	// At runs the job on a six-field cron expression (with seconds).
	At(name, spec string, job Job) error
	Start()
	Stop()
}

type entry struct {
	name     string
	interval time.Duration
	job      Job
}

type cronScheduler struct {
	log  *logger.Logger
	cron *cron.Cron

	mu      sync.Mutex
	tickers []entry
	running bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(baseLog *logger.Logger) Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &cronScheduler{
		log:    baseLog.With("component", "scheduler"),
		cron:   cron.New(),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (s *cronScheduler) Every(name string, interval time.Duration, job Job) {
	if interval <= 0 || job == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickers = append(s.tickers, entry{name: name, interval: interval, job: job})
}

func (s *cronScheduler) At(name, spec string, job Job) error {
	if job == nil {
		return fmt.Errorf("job %s: nil func", name)
	}
	if err := s.cron.AddFunc(spec, func() { s.runJob(name, job) }); err != nil {
		return fmt.Errorf("job %s: bad cron spec %q: %w", name, spec, err)
	}
	return nil
}

func (s *cronScheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	tickers := make([]entry, len(s.tickers))
	copy(tickers, s.tickers)
	s.mu.Unlock()

	s.cron.Start()
	for _, e := range tickers {
		e := e
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			t := time.NewTicker(e.interval)
			defer t.Stop()
			for {
				select {
				case <-s.ctx.Done():
					return
				case <-t.C:
					s.runJob(e.name, e.job)
				}
			}
		}()
	}
	s.log.Info("scheduler started", "interval_jobs", len(tickers))
}

func (s *cronScheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	s.cron.Stop()
	s.cancel()
	s.wg.Wait()
	s.log.Info("scheduler stopped")
}

func (s *cronScheduler) runJob(name string, job Job) {
	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("job panicked", "job", name, "panic", r)
		}
	}()
	job(s.ctx)
	s.log.Debug("job finished", "job", name, "took", time.Since(started).String())
}

// Manual is a Scheduler for tests: nothing fires on its own, registered
// jobs run when Trigger is called.
type Manual struct {
	mu   sync.Mutex
	jobs map[string]Job
}

func NewManual() *Manual {
	return &Manual{jobs: map[string]Job{}}
}

func (m *Manual) Every(name string, _ time.Duration, job Job) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[name] = job
}

func (m *Manual) At(name, _ string, job Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[name] = job
	return nil
}

func (m *Manual) Start() {}
func (m *Manual) Stop()  {}

// Trigger runs a registered job synchronously. False when no job has that
// name.
func (m *Manual) Trigger(ctx context.Context, name string) bool {
	m.mu.Lock()
	job, ok := m.jobs[name]
	m.mu.Unlock()
	if !ok {
		return false
	}
	job(ctx)
	return true
}
