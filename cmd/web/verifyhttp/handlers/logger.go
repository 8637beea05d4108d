package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	RequestID contextValue = "request_id"

	// RequestIDHeader is honoured on requests and set on every response
	RequestIDHeader = "X-Request-ID"

	maxRequestIDLength = 64
)

type contextValue string

func (cv contextValue) String() string {
	return string(cv)
}

// WithRequestLogger assigns a request ID, the caller's or a new UUID, which is logged and stored in the request's context
func WithRequestLogger(logger logrus.FieldLogger) Middleware {
	logger = logger.WithField("middleware", "request_logger")

	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rid := r.Header.Get(RequestIDHeader)
			if rid == "" || len(rid) > maxRequestIDLength {
				rid = uuid.NewString()
			}

			logger := logger.WithFields(logrus.Fields{
				RequestID.String(): rid,
				"method":           r.Method,
				"uri":              r.RequestURI,
			})

			r = r.WithContext(context.WithValue(r.Context(), RequestID, rid))
			w.Header().Set(RequestIDHeader, rid)

			logger.WithFields(logrus.Fields{
				"content_length": r.ContentLength,
			}).Debug("Request start")

			writer := NewCustomResponseWriter(w)
			now := time.Now()

			defer func() {
				logger.WithFields(logrus.Fields{
					"time_µs":             time.Since(now).Microseconds(),
					"response_size_bytes": writer.BytesWritten,
					"http_status":         writer.Status,
				}).Debug("Request end")
			}()

			handler.ServeHTTP(writer, r)
		})
	}
}
