package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"
)

var ErrNoDeadlineControl = errors.New("request carries no deadline control")

type deadlineKey struct{}

// WithDeadlineControl lets handlers move the connection deadlines of their request with ExtendDeadline. It has to
// wrap the other middleware, writers such as the gzip writer hide the connection.
func WithDeadlineControl() Middleware {
	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rc := http.NewResponseController(w)
			handler.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), deadlineKey{}, rc)))
		})
	}
}

// ExtendDeadline sets the read and write deadline of the request's connection to d from now, d <= 0 removes them
func ExtendDeadline(ctx context.Context, d time.Duration) error {
	rc, ok := ctx.Value(deadlineKey{}).(*http.ResponseController)
	if !ok {
		return ErrNoDeadlineControl
	}

	var deadline time.Time
	if d > 0 {
		deadline = time.Now().Add(d)
	}

	if err := rc.SetReadDeadline(deadline); err != nil {
		return err
	}

	return rc.SetWriteDeadline(deadline)
}
