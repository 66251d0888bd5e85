// Package concurrency holds small helpers shared by components that fan
// work out to goroutines.
package concurrency

import (
	"context"

	"github.com/sourcegraph/conc/pool"
)

// NewPool returns a new pool where each task respects context cancellation.
// A maxGoroutines of zero or less leaves the pool unbounded.
func NewPool(ctx context.Context, maxGoroutines int) *pool.ContextPool {
	p := pool.New().WithContext(ctx)
	if maxGoroutines > 0 {
		p = p.WithMaxGoroutines(maxGoroutines)
	}
	return p
}

// TrySendThroughChannel attempts to send msg through channel, giving up when
// ctx is done. It reports whether the send happened.
func TrySendThroughChannel[T any](ctx context.Context, msg T, channel chan<- T) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case <-ctx.Done():
		return false
	case channel <- msg:
		return true
	}
}
