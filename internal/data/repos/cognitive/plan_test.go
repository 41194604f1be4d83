package cognitive

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/studypulse/studypulse-backend/internal/data/repos/testutil"
	types "github.com/studypulse/studypulse-backend/internal/domain"
	"github.com/studypulse/studypulse-backend/internal/pkg/dbctx"
)

func TestSessionPlanRepo(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	repo := NewSessionPlanRepo(gdb, testutil.Logger(t))

	userID := uuid.New()
	plan := &types.SessionOrchestrationPlan{
		ID:                 uuid.New(),
		UserID:             userID,
		MissionID:          uuid.New(),
		Status:             types.PlanProposed,
		PlannedStart:       time.Now().UTC(),
		PlannedDurationMin: 45,
		Intensity:          types.IntensityModerate,
	}
	if err := repo.Create(dbc, plan); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if plan.Version != 1 {
		t.Fatalf("new plan version=%d, want 1", plan.Version)
	}

	got, err := repo.GetByID(dbc, plan.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID: err=%v got=%v", err, got)
	}

	got.Status = types.PlanActive
	n, err := repo.UpdateIfVersion(dbc, got, got.Version)
	if err != nil || n != 1 {
		t.Fatalf("UpdateIfVersion: n=%d err=%v", n, err)
	}
	if got.Version != 2 {
		t.Fatalf("version after update=%d, want 2", got.Version)
	}

	// A writer holding a stale version must not win.
	stale := *got
	stale.Status = types.PlanClosed
	n, err = repo.UpdateIfVersion(dbc, &stale, 1)
	if err != nil {
		t.Fatalf("stale UpdateIfVersion: %v", err)
	}
	if n != 0 {
		t.Fatalf("stale write affected %d rows, want 0", n)
	}

	open, err := repo.ListOpenByUser(dbc, userID)
	if err != nil || len(open) != 1 {
		t.Fatalf("ListOpenByUser: err=%v len=%d", err, len(open))
	}

	// Other users never see this plan.
	other, err := repo.ListOpenByUser(dbc, uuid.New())
	if err != nil || len(other) != 0 {
		t.Fatalf("cross-user ListOpenByUser: err=%v len=%d", err, len(other))
	}
}
