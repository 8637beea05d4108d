package batch

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	DefaultBatchSize = 5
	DefaultDelay     = time.Second
)

type Option func(r *Run)

func WithBatchSize(n int) Option {
	return func(r *Run) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// WithDelay sets the pause between chunks
func WithDelay(d time.Duration) Option {
	return func(r *Run) {
		if d >= 0 {
			r.delay = d
		}
	}
}

// WithProgress registers a callback that's invoked after every chunk and whenever the run changes state
func WithProgress(fn func(s Status)) Option {
	return func(r *Run) {
		r.progress = fn
	}
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(r *Run) {
		r.logger = logger
	}
}

func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(r *Run) {
		r.sleep = fn
	}
}

func WithClock(fn func() time.Time) Option {
	return func(r *Run) {
		r.clock = fn
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
