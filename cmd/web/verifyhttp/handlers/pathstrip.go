package handlers

import (
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
)

// WithPathStrip removes a prefix from the request path, so that the API can be served below e.g. "/api". The prefix
// only matches whole segments, "/api" is stripped from "/api/validate" but not from "/apiary".
func WithPathStrip(logger logrus.FieldLogger, prefix string) Middleware {
	logger = logger.WithField("middleware", "path_strip")

	prefix = normalizeSlashes(logger, prefix)
	if prefix == "" {
		logger.Debug("Path strip disabled, no prefix configured")
		return func(h http.Handler) http.Handler {
			return h
		}
	}

	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p, ok := stripPrefix(r.URL.Path, prefix); ok {
				r.URL.Path = p
				r.URL.RawPath = ""
			}

			h.ServeHTTP(w, r)
		})
	}
}

func stripPrefix(path, prefix string) (string, bool) {
	if !strings.HasPrefix(path, prefix) {
		return path, false
	}

	rest := path[len(prefix):]
	switch {
	case rest == "":
		return "/", true
	case rest[0] == '/':
		return rest, true
	}

	return path, false
}

// normalizeSlashes makes sure the prefix starts with a `/` and doesn't end with one. A prefix of only slashes
// becomes empty.
func normalizeSlashes(logger logrus.FieldLogger, prefix string) string {
	trimmed := strings.Trim(prefix, `/`)
	if trimmed == "" {
		return ""
	}

	normalized := `/` + trimmed
	if normalized != prefix {
		logger.WithFields(logrus.Fields{
			"from": prefix,
			"to":   normalized,
		}).Warn("Path strip prefix corrected, it should start and not end with a `/`")
	}

	return normalized
}
