package events

import (
	"context"
	"sync"

	"github.com/kokoron/kokoron-backend/internal/domain"
)

// DiaryLogCreated fires once per newly recorded diary entry.
type DiaryLogCreated struct {
	UserID domain.UserID
	LogID  domain.LogID
}

// Handler reacts to one DiaryLogCreated event. Handlers own their error
// handling; the bus never inspects outcomes.
type Handler func(ctx context.Context, evt DiaryLogCreated)

// Bus is a minimal in-process event bus. It replaces the implicit
// document-creation triggers of a hosted environment with an explicit
// subscription point, so core services stay unit-testable.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
	wg       sync.WaitGroup
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a handler for all future events.
func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Publish dispatches the event to every handler, each in its own
// goroutine. The publisher does not wait for handlers to finish.
//
// Handlers outlive the publishing call, so they must not die with it:
// the typical publisher is an HTTP handler whose context is canceled
// as soon as the response is written. Handlers therefore run on a
// context detached from cancellation but keeping the values (request
// id) of the publisher's context.
func (b *Bus) Publish(ctx context.Context, evt DiaryLogCreated) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	ctx = context.WithoutCancel(ctx)

	for _, h := range handlers {
		b.wg.Add(1)
		go func(h Handler) {
			defer b.wg.Done()
			h(ctx, evt)
		}(h)
	}
}

// Wait blocks until all in-flight handlers return. Used on shutdown
// and in tests.
func (b *Bus) Wait() {
	b.wg.Wait()
}
