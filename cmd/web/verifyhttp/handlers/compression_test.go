package handlers

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithGzipHandler(t *testing.T) {
	// A results export is the typical large response
	export := "Email,Valid,Score,Provider,Status,Domain,Timestamp,Error\n" +
		strings.Repeat("john.doe@example.org,true,95,mslm,valid,example.org,2024-03-09T14:05:07.000Z,\n", 40)

	tests := []struct {
		name           string
		body           string
		acceptEncoding string
		wantCompressed bool
	}{
		{name: "large response", body: export, acceptEncoding: "gzip", wantCompressed: true},
		{name: "small response", body: export[:mtuSize-1], acceptEncoding: "gzip", wantCompressed: false},
		{name: "client without gzip", body: export, acceptEncoding: "", wantCompressed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := WithGzipHandler()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/csv")
				_, _ = io.WriteString(w, tt.body)
			}))

			req := httptest.NewRequest(http.MethodGet, "/results.csv", nil)
			if tt.acceptEncoding != "" {
				req.Header.Set("Accept-Encoding", tt.acceptEncoding)
			}

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, "Accept-Encoding", rec.Header().Get("Vary"))

			if !tt.wantCompressed {
				assert.Empty(t, rec.Header().Get("Content-Encoding"))
				assert.Equal(t, tt.body, rec.Body.String())
				return
			}

			require.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))

			zr, err := gzip.NewReader(rec.Body)
			require.NoError(t, err)

			b, err := io.ReadAll(zr)
			require.NoError(t, err)
			assert.Equal(t, tt.body, string(b))
		})
	}
}
