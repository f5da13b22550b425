package graph

import (
	"context"
	"fmt"
	"time"
)

// WithTimeout wraps a node function so that each invocation gets at most d.
// A non-positive d returns fn unchanged.
func WithTimeout[S, D any](name string, fn NodeFunc[S, D], d time.Duration) NodeFunc[S, D] {
	if d <= 0 {
		return fn
	}
	return func(ctx context.Context, state S) (D, error) {
		// Create a timeout context
		timeoutCtx, cancel := context.WithTimeout(ctx, d)
		defer cancel()

		type result struct {
			value D
			err   error
		}
		resultChan := make(chan result, 1)

		go func() {
			value, err := fn(timeoutCtx, state)
			resultChan <- result{value: value, err: err}
		}()

		select {
		case res := <-resultChan:
			return res.value, res.err
		case <-timeoutCtx.Done():
			var zero D
			if ctx.Err() != nil {
				return zero, ctx.Err()
			}
			return zero, fmt.Errorf("node %s timed out after %v: %w", name, d, timeoutCtx.Err())
		}
	}
}
