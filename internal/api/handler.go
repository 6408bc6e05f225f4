package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/zombar/truthlens/internal/models"
	"github.com/zombar/truthlens/internal/tracing"
	"github.com/zombar/truthlens/pkg/logging"
)

// StatusMessage is the body served by the status endpoint
const StatusMessage = "TruthLens API is operational"

// RequestIDHeader carries the per-request correlation ID
const RequestIDHeader = "X-Request-ID"

// maxBodyBytes bounds the analyze request body; content itself is capped far lower
const maxBodyBytes = 64 << 10

// Analyzer runs a credibility analysis for a validated request
type Analyzer interface {
	Analyze(ctx context.Context, req models.AnalysisRequest) *models.AnalysisResult
}

// Handler handles HTTP requests
type Handler struct {
	analyzer       Analyzer
	logger         *slog.Logger
	metricsHandler http.Handler
	mux            *http.ServeMux
}

// Option customizes a Handler
type Option func(*Handler)

// WithLogger sets the handler logger
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) { h.logger = logger }
}

// WithMetricsHandler replaces the default Prometheus handler served at /metrics
func WithMetricsHandler(m http.Handler) Option {
	return func(h *Handler) { h.metricsHandler = m }
}

// NewHandler creates a new API handler with CORS support and metrics
func NewHandler(a Analyzer, opts ...Option) http.Handler {
	return newHandler(a, opts...).withCORS()
}

func newHandler(a Analyzer, opts ...Option) *Handler {
	h := &Handler{
		analyzer:       a,
		logger:         slog.Default(),
		metricsHandler: promhttp.Handler(),
		mux:            http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.setupRoutes()
	return h
}

func (h *Handler) withCORS() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{RequestIDHeader},
	})
	return c.Handler(h.mux)
}

// setupRoutes configures all API routes
func (h *Handler) setupRoutes() {
	h.mux.Handle("/metrics", h.metricsHandler)
	h.mux.HandleFunc("/api/analyze", h.handleAnalyze)
	h.mux.HandleFunc("/api/status", h.handleStatus)
	h.mux.HandleFunc("/api/health", h.handleHealth)
	h.mux.HandleFunc("/health", h.handleHealth)
}

// handleHealth handles health check requests
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	respondJSON(w, map[string]string{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	}, http.StatusOK)
}

// handleStatus reports that the API is up
func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(StatusMessage))
}

// handleAnalyze validates the submitted content and returns its credibility analysis
func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	requestID := r.Header.Get(RequestIDHeader)
	if _, err := uuid.Parse(requestID); err != nil {
		requestID = uuid.NewString()
	}
	w.Header().Set(RequestIDHeader, requestID)

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req models.AnalysisRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		logging.HTTPErrorLogger(h.logger, http.StatusBadRequest, err, r)
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	tracing.SetSpanAttributes(r.Context(),
		attribute.String("request.id", requestID),
		attribute.Int("content.length", len(req.Content)),
		attribute.Bool("has_source", req.Source != ""),
	)

	if err := req.Validate(); err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			respondError(w, verr.Message, http.StatusBadRequest)
			return
		}
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	result := h.analyzer.Analyze(r.Context(), req)

	logging.LogRequest(h.logger, r, "content analyzed",
		slog.String("request_id", requestID),
		slog.String("ai_model", result.AIModel),
		slog.Float64("credibility_score", result.CredibilityScore),
		slog.String("credibility_level", result.CredibilityLevel()),
	)
	respondJSON(w, result.Response(), http.StatusOK)
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	respondJSON(w, map[string]string{"error": message}, statusCode)
}
