package analysis_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kokoron/kokoron-backend/internal/adapters/llm"
	"github.com/kokoron/kokoron-backend/internal/adapters/storage/memory"
	"github.com/kokoron/kokoron-backend/internal/app/analysis"
	"github.com/kokoron/kokoron-backend/internal/domain"
)

func TestRunPersistsAConsistentSet(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedEntry(t, store, 1, 4, "楽しい一日")

	client := llm.NewScriptedClient()
	engine := analysis.NewEngine(store, client)
	orch := analysis.NewOrchestrator(engine, store)

	orch.Run(ctx, testUser)

	set, err := store.GetMessages(ctx, testUser)
	if err != nil {
		t.Fatalf("GetMessages failed: %v", err)
	}
	if set.IsUpdating {
		t.Fatalf("isUpdating must be cleared after a run")
	}
	if set.DailyMessage == "" || set.WeeklyMessage == "" || set.MonthlyMessage == "" {
		t.Fatalf("all three period messages must be present: %+v", set)
	}
	if set.UpdatedAt.IsZero() {
		t.Fatalf("updatedAt must be stamped")
	}
	if client.CallCount() != 3 {
		t.Fatalf("expected one model call per period, got %d", client.CallCount())
	}
}

func TestRunSubstitutesFallbackForFailedPeriods(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	// The log store fails every window read; the message store works.
	client := llm.NewScriptedClient()
	engine := analysis.NewEngine(failingLogStore{}, client)
	orch := analysis.NewOrchestrator(engine, store)

	orch.Run(ctx, testUser)

	set, err := store.GetMessages(ctx, testUser)
	if err != nil {
		t.Fatalf("GetMessages failed: %v", err)
	}
	if set.IsUpdating {
		t.Fatalf("isUpdating must be cleared even when every period fails")
	}
	for _, msg := range []string{set.DailyMessage, set.WeeklyMessage, set.MonthlyMessage} {
		if msg != analysis.PeriodFallback {
			t.Fatalf("expected period fallback, got %q", msg)
		}
	}
}

// failingMarkStore rejects the initial merge-write but accepts the
// terminal overwrite, exercising the catch-all fallback path.
type failingMarkStore struct {
	*memory.Store
}

func (s failingMarkStore) MarkUpdating(context.Context, domain.UserID, time.Time) error {
	return errors.New("merge-write rejected")
}

func TestRunMarkUpdatingFailureStillClearsTheFlag(t *testing.T) {
	ctx := context.Background()
	mem := memory.NewStore()
	seedEntry(t, mem, 1, 4, "")

	client := llm.NewScriptedClient()
	engine := analysis.NewEngine(mem, client)
	orch := analysis.NewOrchestrator(engine, failingMarkStore{mem})

	orch.Run(ctx, testUser)

	set, err := mem.GetMessages(ctx, testUser)
	if err != nil {
		t.Fatalf("GetMessages failed: %v", err)
	}
	if set.IsUpdating {
		t.Fatalf("fallback write must clear isUpdating")
	}
	if set.DailyMessage != analysis.PeriodFallback {
		t.Fatalf("expected fallback set, got %+v", set)
	}
	if client.CallCount() != 0 {
		t.Fatalf("no period analysis should run after a failed mark, got %d calls", client.CallCount())
	}
}
