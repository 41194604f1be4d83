package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/studypulse/studypulse-backend/internal/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func TestIntervalJobFiresAndStops(t *testing.T) {
	s := New(testLogger(t))
	var fired atomic.Int32
	s.Every("tick", 10*time.Millisecond, func(context.Context) {
		fired.Add(1)
	})

	s.Start()
	deadline := time.After(2 * time.Second)
	for fired.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("job fired %d times before deadline", fired.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
	s.Stop()

	after := fired.Load()
	time.Sleep(50 * time.Millisecond)
	if fired.Load() != after {
		t.Fatalf("job kept firing after Stop")
	}
}

func TestBadCronSpecRejected(t *testing.T) {
	s := New(testLogger(t))
	if err := s.At("bad", "not a cron spec", func(context.Context) {}); err == nil {
		t.Fatalf("bad spec accepted")
	}
	if err := s.At("nightly", "0 0 3 * * *", func(context.Context) {}); err != nil {
		t.Fatalf("valid spec rejected: %v", err)
	}
}

func TestJobPanicIsContained(t *testing.T) {
	s := New(testLogger(t)).(*cronScheduler)
	s.runJob("boom", func(context.Context) { panic("boom") })
}

func TestManualTrigger(t *testing.T) {
	m := NewManual()
	ran := false
	m.Every("sweep", time.Minute, func(context.Context) { ran = true })

	if m.Trigger(context.Background(), "missing") {
		t.Fatalf("unknown job triggered")
	}
	if !m.Trigger(context.Background(), "sweep") {
		t.Fatalf("registered job not found")
	}
	if !ran {
		t.Fatalf("job did not run")
	}
}
