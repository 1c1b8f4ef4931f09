package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dfryer1193/portfolio/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// captureLogs redirects the global logger into a buffer for the duration of the test
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })
	return &buf
}

func TestHandlePanics(t *testing.T) {
	tests := []struct {
		name      string
		recovered any
	}{
		{name: "error value", recovered: errors.New("secret connection string leaked")},
		{name: "string value", recovered: "secret connection string leaked"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := captureLogs(t)

			r := gin.New()
			r.Use(RequestID(), gin.CustomRecovery(HandlePanics()))
			r.GET("/boom", func(c *gin.Context) { panic(tt.recovered) })

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

			assert.Equal(t, http.StatusInternalServerError, w.Code)
			assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
			assert.NotContains(t, w.Body.String(), "secret")
			assert.Contains(t, logs.String(), "secret connection string leaked")
		})
	}
}

func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{name: "generated when absent", incoming: "", keep: false},
		{name: "caller id reused", incoming: "abc-123", keep: true},
		{name: "oversized id replaced", incoming: strings.Repeat("x", maxIDLength+1), keep: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			r := gin.New()
			r.Use(RequestID())
			r.GET("/", func(c *gin.Context) {
				seen = GetRequestID(c)
				c.Status(http.StatusNoContent)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			echoed := w.Header().Get(RequestIDHeader)
			require.NotEmpty(t, echoed)
			assert.Equal(t, echoed, seen)
			if tt.keep {
				assert.Equal(t, tt.incoming, echoed)
			} else {
				assert.NotEqual(t, tt.incoming, echoed)
				assert.Len(t, echoed, 36)
			}
		})
	}
}

func TestLoggingMiddleware(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantLevel string
	}{
		{name: "success", status: http.StatusOK, wantLevel: "info"},
		{name: "client error", status: http.StatusNotFound, wantLevel: "warn"},
		{name: "server error", status: http.StatusServiceUnavailable, wantLevel: "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := captureLogs(t)

			r := gin.New()
			r.Use(RequestID(), LoggingMiddleware())
			r.GET("/blogs", func(c *gin.Context) { c.Status(tt.status) })

			req := httptest.NewRequest(http.MethodGet, "/blogs?page=2", nil)
			req.Header.Set(RequestIDHeader, "req-1")
			r.ServeHTTP(httptest.NewRecorder(), req)

			var entry map[string]any
			require.NoError(t, json.Unmarshal(logs.Bytes(), &entry))
			assert.Equal(t, tt.wantLevel, entry["level"])
			assert.Equal(t, "GET", entry["method"])
			assert.Equal(t, "/blogs", entry["path"])
			assert.Equal(t, float64(tt.status), entry["status"])
			assert.Equal(t, "req-1", entry["requestID"])
		})
	}
}

func TestMetrics(t *testing.T) {
	r := gin.New()
	r.Use(Metrics())
	r.GET("/blogs/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	matched := metrics.HTTPRequests.WithLabelValues("/blogs/:id", http.MethodGet, "200")
	unmatched := metrics.HTTPRequests.WithLabelValues("unmatched", http.MethodGet, "404")
	beforeMatched := testutil.ToFloat64(matched)
	beforeUnmatched := testutil.ToFloat64(unmatched)

	for _, path := range []string{"/blogs/a", "/blogs/b", "/nope"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, beforeMatched+2, testutil.ToFloat64(matched))
	assert.Equal(t, beforeUnmatched+1, testutil.ToFloat64(unmatched))
}
