package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExtendDeadline(t *testing.T) {
	t.Run("without the middleware", func(t *testing.T) {
		err := ExtendDeadline(context.Background(), time.Second)
		assert.True(t, errors.Is(err, ErrNoDeadlineControl))
	})

	t.Run("writer without a connection", func(t *testing.T) {
		var err error
		h := WithDeadlineControl()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			err = ExtendDeadline(r.Context(), time.Second)
		}))

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil))
		assert.True(t, errors.Is(err, http.ErrNotSupported))
	})

	t.Run("live connection", func(t *testing.T) {
		errs := make(chan error, 1)
		h := WithDeadlineControl()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			errs <- ExtendDeadline(r.Context(), time.Second)
		}))

		ts := httptest.NewServer(h)
		defer ts.Close()

		resp, err := http.Post(ts.URL, "text/plain", nil)
		if assert.NoError(t, err) {
			_ = resp.Body.Close()
		}

		assert.NoError(t, <-errs)
	})
}

func TestCustomResponseWriter_Unwrap(t *testing.T) {
	rec := httptest.NewRecorder()
	w := NewCustomResponseWriter(rec)

	assert.Equal(t, http.ResponseWriter(rec), w.Unwrap())
}
