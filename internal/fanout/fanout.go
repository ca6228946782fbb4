// Package fanout runs independent tasks concurrently and joins on all
// of their outcomes, successful or not. It is the settle-all primitive
// behind the multi-period analysis: one window failing must not abort
// its siblings.
package fanout

import (
	"context"
	"fmt"
	"sync"
)

// Result is the outcome of one task: a value or an error, never both.
type Result[T any] struct {
	Value T
	Err   error
}

// Ok reports whether the task fulfilled.
func (r Result[T]) Ok() bool {
	return r.Err == nil
}

// OrElse returns the value, or the fallback when the task failed.
func (r Result[T]) OrElse(fallback T) T {
	if r.Err != nil {
		return fallback
	}
	return r.Value
}

// Task is one unit of work.
type Task[T any] func(ctx context.Context) (T, error)

// SettleAll runs every task in its own goroutine and waits for all of
// them. Results come back in task order. A panicking task settles as a
// failed result instead of crashing the join.
func SettleAll[T any](ctx context.Context, tasks []Task[T]) []Result[T] {
	results := make([]Result[T], len(tasks))

	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		go func(i int, task Task[T]) {
			defer wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					results[i] = Result[T]{Err: fmt.Errorf("task %d panicked: %v", i, rec)}
				}
			}()
			v, err := task(ctx)
			results[i] = Result[T]{Value: v, Err: err}
		}(i, task)
	}
	wg.Wait()

	return results
}
