package fanout_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kokoron/kokoron-backend/internal/fanout"
)

func TestSettleAllKeepsTaskOrder(t *testing.T) {
	tasks := []fanout.Task[string]{
		func(ctx context.Context) (string, error) {
			time.Sleep(20 * time.Millisecond)
			return "slow", nil
		},
		func(ctx context.Context) (string, error) {
			return "fast", nil
		},
	}

	results := fanout.SettleAll(context.Background(), tasks)

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Value != "slow" || results[1].Value != "fast" {
		t.Fatalf("results out of order: %+v", results)
	}
}

func TestSettleAllOneFailureDoesNotAbortSiblings(t *testing.T) {
	boom := errors.New("boom")
	tasks := []fanout.Task[int]{
		func(ctx context.Context) (int, error) { return 1, nil },
		func(ctx context.Context) (int, error) { return 0, boom },
		func(ctx context.Context) (int, error) { return 3, nil },
	}

	results := fanout.SettleAll(context.Background(), tasks)

	if !results[0].Ok() || !results[2].Ok() {
		t.Fatalf("sibling tasks should have fulfilled: %+v", results)
	}
	if results[1].Ok() || !errors.Is(results[1].Err, boom) {
		t.Fatalf("expected task 1 to fail with boom, got %+v", results[1])
	}
}

func TestSettleAllRecoversPanics(t *testing.T) {
	tasks := []fanout.Task[int]{
		func(ctx context.Context) (int, error) { panic("kaboom") },
		func(ctx context.Context) (int, error) { return 7, nil },
	}

	results := fanout.SettleAll(context.Background(), tasks)

	if results[0].Ok() {
		t.Fatalf("panicking task should settle as failure")
	}
	if results[1].Value != 7 {
		t.Fatalf("expected sibling value 7, got %d", results[1].Value)
	}
}

func TestResultOrElse(t *testing.T) {
	ok := fanout.Result[string]{Value: "hello"}
	if got := ok.OrElse("fallback"); got != "hello" {
		t.Fatalf("OrElse on success: got %q", got)
	}

	failed := fanout.Result[string]{Err: errors.New("nope")}
	if got := failed.OrElse("fallback"); got != "fallback" {
		t.Fatalf("OrElse on failure: got %q", got)
	}
}
