package handlers

import (
	"net/http"

	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

// WithCORS answers preflight requests and sets the CORS headers. Without allowed origins it's a no-op.
func WithCORS(logger logrus.FieldLogger, allowedOrigins, allowedHeaders []string) Middleware {
	logger = logger.WithField("middleware", "cors")

	if len(allowedOrigins) == 0 {
		logger.Debug("No allowed origins configured, CORS headers won't be set")
		return func(h http.Handler) http.Handler {
			return h
		}
	}

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedHeaders: allowedHeaders,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		ExposedHeaders: []string{RequestIDHeader},
	})

	return c.Handler
}
