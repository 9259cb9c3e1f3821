package graph

import (
	"context"
	"fmt"
	"time"
)

// RetryConfig configures the RetryNode wrapper. Retry is a node-level
// concern; the executor itself never retries anything.
type RetryConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64

	// RetryableErrors determines whether an error should trigger a retry.
	RetryableErrors func(error) bool
}

// DefaultRetryConfig returns a default retry configuration.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
		RetryableErrors: func(_ error) bool {
			return true
		},
	}
}

// RetryNode decorates a node with retry-on-error and backoff. Only plain
// errors are retried; a node that returns an Error command has made a
// routing decision and is passed through untouched.
type RetryNode[T any] struct {
	inner  Node[T]
	config *RetryConfig
}

var _ Node[any] = (*RetryNode[any])(nil)

// NewRetryNode wraps a node with retry logic.
func NewRetryNode[T any](inner Node[T], config *RetryConfig) *RetryNode[T] {
	if config == nil {
		config = DefaultRetryConfig()
	}
	return &RetryNode[T]{inner: inner, config: config}
}

// ID returns the wrapped node's identifier.
func (rn *RetryNode[T]) ID() NodeID { return rn.inner.ID() }

// Description returns the wrapped node's description.
func (rn *RetryNode[T]) Description() string { return rn.inner.Description() }

// EntryPoint reports whether the wrapped node is an entry point.
func (rn *RetryNode[T]) EntryPoint() bool { return rn.inner.EntryPoint() }

// Run executes the wrapped node, retrying failed attempts with backoff.
func (rn *RetryNode[T]) Run(ctx context.Context, state State[T]) (*Command[T], error) {
	var lastErr error
	delay := rn.config.InitialDelay

	for attempt := 1; attempt <= rn.config.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("retry cancelled: %w", ctx.Err())
		default:
		}

		cmd, err := rn.inner.Run(ctx, state)
		if err == nil {
			return cmd, nil
		}

		lastErr = err

		if rn.config.RetryableErrors != nil && !rn.config.RetryableErrors(err) {
			return nil, fmt.Errorf("non-retryable error in %s: %w", rn.inner.ID(), err)
		}

		if attempt < rn.config.MaxAttempts {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, fmt.Errorf("retry cancelled: %w", ctx.Err())
			}
			delay = time.Duration(float64(delay) * rn.config.BackoffFactor)
			if delay > rn.config.MaxDelay {
				delay = rn.config.MaxDelay
			}
		}
	}

	return nil, fmt.Errorf("all %d attempts failed in %s: %w", rn.config.MaxAttempts, rn.inner.ID(), lastErr)
}
