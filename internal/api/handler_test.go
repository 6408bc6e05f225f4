package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zombar/truthlens/internal/models"
)

// stubAnalyzer returns a fixed score and records the requests it saw
type stubAnalyzer struct {
	mu    sync.Mutex
	score float64
	seen  []models.AnalysisRequest
}

func (s *stubAnalyzer) Analyze(_ context.Context, req models.AnalysisRequest) *models.AnalysisResult {
	s.mu.Lock()
	s.seen = append(s.seen, req)
	s.mu.Unlock()

	result := models.NewAnalysisResult(req, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	result.CredibilityScore = s.score
	result.OverallAssessment = "stub"
	result.RedFlags = []string{"none"}
	result.PositiveIndicators = []string{"stubbed"}
	result.AIModel = "stub-model"
	return result
}

func setupTestHandler(t *testing.T, score float64) (*Handler, *stubAnalyzer) {
	t.Helper()
	stub := &stubAnalyzer{score: score}
	h := newHandler(stub,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetricsHandler(promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})),
	)
	return h, stub
}

func postAnalyze(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	handler, _ := setupTestHandler(t, 0.5)

	for _, path := range []string{"/health", "/api/health"} {
		t.Run(path, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

			require.Equal(t, http.StatusOK, w.Code)
			var response map[string]string
			require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
			assert.Equal(t, "ok", response["status"])
			_, err := time.Parse(time.RFC3339, response["time"])
			assert.NoError(t, err)
		})
	}
}

func TestStatusEndpoint(t *testing.T) {
	handler, _ := setupTestHandler(t, 0.5)

	w := httptest.NewRecorder()
	handler.mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, StatusMessage, w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
}

func TestAnalyzeEndpoint(t *testing.T) {
	handler, stub := setupTestHandler(t, 0.85)

	w := postAnalyze(t, handler.mux, `{"content":"Water boils at 100C at sea level.","source":"textbook"}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	_, err := uuid.Parse(w.Header().Get(RequestIDHeader))
	assert.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "Water boils at 100C at sea level.", body["originalContent"])
	assert.Equal(t, "textbook", body["source"])
	assert.Equal(t, 0.85, body["credibilityScore"])
	assert.Equal(t, models.LevelHigh, body["credibilityLevel"])
	assert.Equal(t, models.SeveritySuccess, body["credibilityColor"])
	assert.Equal(t, "stub-model", body["aiModel"])
	assert.Equal(t, "2024-05-01T12:00:00Z", body["analysisTimestamp"])

	require.Len(t, stub.seen, 1)
	assert.Equal(t, "textbook", stub.seen[0].Source)
}

func TestAnalyzeEndpointKeepsCallerRequestID(t *testing.T) {
	handler, _ := setupTestHandler(t, 0.5)
	id := uuid.NewString()

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(`{"content":"x"}`))
	req.Header.Set(RequestIDHeader, id)
	w := httptest.NewRecorder()
	handler.mux.ServeHTTP(w, req)

	assert.Equal(t, id, w.Header().Get(RequestIDHeader))
}

func TestAnalyzeEndpointRejects(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantError string
	}{
		{"malformed JSON", `{"content":`, "Invalid request body"},
		{"wrong type", `{"content": 42}`, "Invalid request body"},
		{"missing content", `{"source":"x"}`, "Content cannot be empty"},
		{"blank content", `{"content":"   \n\t"}`, "Content cannot be empty"},
		{"too long", `{"content":"` + strings.Repeat("a", models.MaxContentLength+1) + `"}`, "Content must be at most 1000 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, stub := setupTestHandler(t, 0.5)

			w := postAnalyze(t, handler.mux, tt.body)

			require.Equal(t, http.StatusBadRequest, w.Code)
			var body map[string]string
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.Equal(t, tt.wantError, body["error"])
			assert.Empty(t, stub.seen, "analyzer must not run for rejected input")
		})
	}
}

func TestAnalyzeEndpointAcceptsMaxLength(t *testing.T) {
	handler, stub := setupTestHandler(t, 0.5)

	w := postAnalyze(t, handler.mux, `{"content":"`+strings.Repeat("é", models.MaxContentLength)+`"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, stub.seen, 1)
}

func TestAnalyzeEndpointMethodNotAllowed(t *testing.T) {
	handler, _ := setupTestHandler(t, 0.5)

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		w := httptest.NewRecorder()
		handler.mux.ServeHTTP(w, httptest.NewRequest(method, "/api/analyze", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code, method)
	}
}

func TestCORSPreflight(t *testing.T) {
	handler, _ := setupTestHandler(t, 0.5)
	h := handler.withCORS()

	req := httptest.NewRequest(http.MethodOptions, "/api/analyze", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Less(t, w.Code, 300)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "truthlens_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	h := NewHandler(&stubAnalyzer{}, WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "truthlens_test_total 1")
}
