package dataflow

import (
	"context"
	"time"
)

// Backoff returns how long to wait before retry number attempt (from 1).
type Backoff func(attempt int) time.Duration

// LinearBackoff waits attempt*step.
func LinearBackoff(step time.Duration) Backoff {
	return func(attempt int) time.Duration {
		return time.Duration(attempt) * step
	}
}

// Option tunes a Map or ForEach stage.
type Option func(*stage)

type stage struct {
	workers int
	retries int
	backoff Backoff
	buffer  int
	// skip reports whether an error that survived retries is ignored. Map
	// drops the item either way; ForEach returns the first error not skipped.
	skip func(error) bool
}

func newStage(opts []Option) *stage {
	s := &stage{workers: 1}
	for _, o := range opts {
		o(s)
	}
	return s
}

// WithWorkers runs the stage on n goroutines. Output order is not kept
// when n > 1.
func WithWorkers(n int) Option {
	return func(s *stage) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithBufferSize buffers the stage's output channel.
func WithBufferSize(n int) Option {
	return func(s *stage) {
		if n >= 0 {
			s.buffer = n
		}
	}
}

// WithRetry re-runs a failing item up to retries more times.
func WithRetry(retries int, backoff Backoff) Option {
	return func(s *stage) {
		s.retries = retries
		s.backoff = backoff
	}
}

// WithErrorHandler installs the skip predicate.
func WithErrorHandler(skip func(error) bool) Option {
	return func(s *stage) {
		s.skip = skip
	}
}

// attempt runs fn once plus up to retries more times while it fails.
func (s *stage) attempt(ctx context.Context, fn func() error) error {
	err := fn()
	for i := 1; err != nil && i <= s.retries; i++ {
		if s.backoff != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.backoff(i)):
			}
		}
		err = fn()
	}
	return err
}

func (s *stage) skipped(err error) bool {
	return s.skip != nil && s.skip(err)
}
