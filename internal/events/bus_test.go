package events_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/kokoron/kokoron-backend/internal/domain"
	"github.com/kokoron/kokoron-backend/internal/events"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	bus := events.NewBus()

	var calls atomic.Int32
	for i := 0; i < 3; i++ {
		bus.Subscribe(func(_ context.Context, evt events.DiaryLogCreated) {
			if evt.UserID != "user-1" || evt.LogID != "log-1" {
				t.Errorf("unexpected event: %+v", evt)
			}
			calls.Add(1)
		})
	}

	bus.Publish(context.Background(), events.DiaryLogCreated{
		UserID: domain.UserID("user-1"),
		LogID:  domain.LogID("log-1"),
	})
	bus.Wait()

	if calls.Load() != 3 {
		t.Fatalf("expected 3 handler invocations, got %d", calls.Load())
	}
}

func TestPublishWithoutSubscribersIsANoop(t *testing.T) {
	bus := events.NewBus()
	bus.Publish(context.Background(), events.DiaryLogCreated{UserID: "u", LogID: "l"})
	bus.Wait()
}

func TestHandlersSurvivePublisherCancellation(t *testing.T) {
	bus := events.NewBus()

	started := make(chan struct{})
	var handlerErr error
	bus.Subscribe(func(ctx context.Context, _ events.DiaryLogCreated) {
		<-started
		handlerErr = ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	bus.Publish(ctx, events.DiaryLogCreated{UserID: "u", LogID: "l"})

	// The publisher's context dies right after publishing, as an HTTP
	// request context does once the response is written.
	cancel()
	close(started)
	bus.Wait()

	if handlerErr != nil {
		t.Fatalf("handler context must not inherit cancellation, got %v", handlerErr)
	}
}

func TestHandlerContextKeepsPublisherValues(t *testing.T) {
	bus := events.NewBus()

	type ctxKey string
	const key ctxKey = "request_id"

	var got any
	bus.Subscribe(func(ctx context.Context, _ events.DiaryLogCreated) {
		got = ctx.Value(key)
	})

	ctx, cancel := context.WithCancel(context.WithValue(context.Background(), key, "req-42"))
	bus.Publish(ctx, events.DiaryLogCreated{UserID: "u", LogID: "l"})
	cancel()
	bus.Wait()

	if got != "req-42" {
		t.Fatalf("handler context must keep the publisher's values, got %v", got)
	}
}
