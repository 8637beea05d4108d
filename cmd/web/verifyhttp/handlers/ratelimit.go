package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	logRateLimiterDisabled    = "rate limit: disabled, no bucket configured"
	logRateLimitAboveMaxDelay = "rate limit: aborting request, above max allowed delay"
	logRateLimitThrottled     = "rate limit: throttling request, will continue after delay"
)

// TakeMaxDuration is satisfied by *ratelimit.Bucket
type TakeMaxDuration interface {
	TakeMaxDuration(count int64, maxWait time.Duration) (time.Duration, bool)
}

// WithRateLimiter delays requests until a token is available, requests that would wait longer than maxDelay are
// refused with 429.
func WithRateLimiter(logger logrus.FieldLogger, b TakeMaxDuration, maxDelay time.Duration) Middleware {
	logger = logger.WithField("middleware", "rate_limiter")

	if b == nil {
		logger.Info(logRateLimiterDisabled)
		return func(h http.Handler) http.Handler {
			return h
		}
	}

	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := logger.WithFields(logrus.Fields{
				"remote_addr":      r.RemoteAddr,
				RequestID.String(): r.Context().Value(RequestID),
				"max_delay":        maxDelay,
			})

			d, ok := b.TakeMaxDuration(1, maxDelay)
			if !ok {
				logger.Warn(logRateLimitAboveMaxDelay)

				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter(maxDelay)))
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = fmt.Fprint(w, `{"error":"Server busy, request aborted"}`)
				return
			}

			if d > 0 {
				logger.WithField("delay", d).Warn(logRateLimitThrottled)

				t := time.NewTimer(d)
				select {
				case <-r.Context().Done():
					t.Stop()
					return
				case <-t.C:
				}
			}

			h.ServeHTTP(w, r)
		})
	}
}

// retryAfter returns the whole seconds a client should wait, at least 1
func retryAfter(maxDelay time.Duration) int {
	s := int(maxDelay / time.Second)
	if maxDelay%time.Second > 0 {
		s++
	}

	if s < 1 {
		return 1
	}

	return s
}
