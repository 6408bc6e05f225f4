package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), buf.String())
	return entry
}

func TestHTTPLoggingMiddleware(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantLevel string
	}{
		{"ok", http.StatusOK, "hello", "INFO"},
		{"bad request", http.StatusBadRequest, `{"error":"x"}`, "WARN"},
		{"server error", http.StatusInternalServerError, "boom", "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, nil))

			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("X-Request-ID", "req-1")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			req := httptest.NewRequest(http.MethodPost, "/api/analyze?debug=1", nil)
			w := httptest.NewRecorder()
			HTTPLoggingMiddleware(logger)(next).ServeHTTP(w, req)

			entry := decodeLine(t, &buf)
			assert.Equal(t, "http_request", entry["msg"])
			assert.Equal(t, tt.wantLevel, entry["level"])
			assert.Equal(t, "POST", entry["method"])
			assert.Equal(t, "/api/analyze", entry["path"])
			assert.Equal(t, "debug=1", entry["query"])
			assert.Equal(t, float64(tt.status), entry["status"])
			assert.Equal(t, float64(len(tt.body)), entry["bytes"])
			assert.Equal(t, "req-1", entry["request_id"])
			assert.Equal(t, "", entry["trace_id"])
		})
	}
}

func TestHTTPLoggingMiddlewareDefaultStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("implicit 200"))
	})
	HTTPLoggingMiddleware(logger)(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, float64(http.StatusOK), decodeLine(t, &buf)["status"])
}

func TestHTTPErrorLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	HTTPErrorLogger(logger, http.StatusBadRequest, errors.New("unexpected EOF"), httptest.NewRequest(http.MethodPost, "/api/analyze", nil))

	entry := decodeLine(t, &buf)
	assert.Equal(t, "http_error", entry["msg"])
	assert.Equal(t, "unexpected EOF", entry["error"])
	assert.Equal(t, float64(http.StatusBadRequest), entry["status"])
}

func TestLogRequest(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	LogRequest(logger, httptest.NewRequest(http.MethodGet, "/api/status", nil), "checked", slog.String("extra", "yes"))

	entry := decodeLine(t, &buf)
	assert.Equal(t, "checked", entry["msg"])
	assert.Equal(t, "/api/status", entry["path"])
	assert.Equal(t, "yes", entry["extra"])
}
