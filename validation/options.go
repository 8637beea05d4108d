package validation

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultBatchDelay is the pause between two chunks of a bulk validation
const DefaultBatchDelay = time.Second

type Option func(svc *Service)

func WithLogger(logger logrus.FieldLogger) Option {
	return func(svc *Service) {
		svc.logger = logger
	}
}

// WithBatchDelay sets the pause between chunks, 0 disables it
func WithBatchDelay(d time.Duration) Option {
	return func(svc *Service) {
		if d >= 0 {
			svc.batchDelay = d
		}
	}
}

// WithMiddleware wraps every dispatch. The first middleware given is the outermost.
func WithMiddleware(mw ...Middleware) Option {
	return func(svc *Service) {
		svc.middleware = append(svc.middleware, mw...)
	}
}

// WithSleep replaces the function used to wait between chunks
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(svc *Service) {
		svc.sleep = fn
	}
}

func WithClock(fn func() time.Time) Option {
	return func(svc *Service) {
		svc.clock = fn
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
