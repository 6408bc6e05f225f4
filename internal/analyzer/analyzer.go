package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zombar/truthlens/internal/metrics"
	"github.com/zombar/truthlens/internal/models"
	"github.com/zombar/truthlens/internal/openrouter"
	"github.com/zombar/truthlens/internal/tracing"
)

// Defaults used when the model's JSON omits a field
const (
	DefaultScore             = 0.5
	DefaultAssessment        = "Analysis completed"
	DefaultBiasAnalysis      = "No specific bias detected"
	DefaultFactCheckSummary  = "Fact-checking completed"
	UnparsedRedFlags         = "Unable to parse red flags"
	UnparsedPositiveSignals  = "Unable to parse positive indicators"
	FallbackBiasAnalysis     = "AI response could not be parsed properly. Manual review recommended."
	FallbackFactCheckSummary = "Automated fact-checking completed with limitations."

	// DefaultFallbackModel labels results produced by the heuristic scorer
	DefaultFallbackModel = "DeepSeek-V3"

	assessmentPreviewLength = 100
)

// FallbackPositiveIndicators is reported by every heuristic result
var FallbackPositiveIndicators = []string{"Content analyzed", "No immediate threats detected"}

// Reasons recorded with each analysis
const (
	ReasonDecoded       = "decoded"
	ReasonInvalidJSON   = "invalid_json"
	ReasonUpstreamError = "upstream_error"
)

// Completer returns the model's raw reply for a piece of content
type Completer interface {
	Analyze(ctx context.Context, content string) (string, error)
}

// Analyzer turns model replies into credibility results, falling back to a
// lexical heuristic when the reply is unusable
type Analyzer struct {
	client        Completer
	primaryModel  string
	fallbackModel string
	now           func() time.Time
	logger        *slog.Logger
	metrics       *metrics.BusinessMetrics
}

// Option customizes an Analyzer
type Option func(*Analyzer)

// WithPrimaryModel sets the aiModel label for results decoded from the model reply
func WithPrimaryModel(model string) Option {
	return func(a *Analyzer) { a.primaryModel = model }
}

// WithFallbackModel sets the aiModel label for heuristic results
func WithFallbackModel(model string) Option {
	return func(a *Analyzer) { a.fallbackModel = model }
}

// WithClock sets the source of analysis timestamps
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) { a.now = now }
}

// WithLogger sets the analyzer logger
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) { a.logger = logger }
}

// WithMetrics records per-path analysis counts and durations
func WithMetrics(m *metrics.BusinessMetrics) Option {
	return func(a *Analyzer) { a.metrics = m }
}

// New creates a new Analyzer backed by client
func New(client Completer, opts ...Option) *Analyzer {
	a := &Analyzer{
		client:        client,
		primaryModel:  openrouter.DefaultModel,
		fallbackModel: DefaultFallbackModel,
		now:           time.Now,
		logger:        slog.Default(),
	}
	if m, ok := client.(interface{ Model() string }); ok && m.Model() != "" {
		a.primaryModel = m.Model()
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze runs the full pipeline for a validated request. It always returns a
// result: upstream and parse failures degrade to the heuristic path.
func (a *Analyzer) Analyze(ctx context.Context, req models.AnalysisRequest) *models.AnalysisResult {
	ctx, span := tracing.Tracer().Start(ctx, "analyzer.analyze",
		trace.WithAttributes(
			attribute.Int("content.length", len(req.Content)),
			attribute.Bool("has_source", req.Source != ""),
		),
	)
	defer span.End()

	start := time.Now()

	var (
		result *models.AnalysisResult
		reason string
	)
	reply, err := a.client.Analyze(ctx, req.Content)
	if err != nil {
		a.logger.Warn("model request failed, using heuristic analysis", "error", err)
		span.RecordError(err)
		result, reason = a.fallback(req, openrouter.FailureText(err)), ReasonUpstreamError
	} else {
		result, reason = a.interpret(req, reply)
	}

	path := metrics.PathPrimary
	if reason != ReasonDecoded {
		path = metrics.PathFallback
	}
	span.SetAttributes(
		attribute.String("analysis.path", path),
		attribute.String("analysis.reason", reason),
		attribute.Float64("credibility.score", result.CredibilityScore),
	)
	a.metrics.RecordAnalysis(ctx, path, reason, time.Since(start).Seconds())

	a.logger.Info("analysis completed",
		"path", path,
		"reason", reason,
		"ai_model", result.AIModel,
		"credibility_score", result.CredibilityScore,
		"credibility_level", result.CredibilityLevel(),
	)
	return result
}

// Interpret builds a result from a model reply without calling the model
func (a *Analyzer) Interpret(req models.AnalysisRequest, reply string) *models.AnalysisResult {
	result, _ := a.interpret(req, reply)
	return result
}

func (a *Analyzer) interpret(req models.AnalysisRequest, reply string) (*models.AnalysisResult, string) {
	result, err := a.decode(req, reply)
	if err != nil {
		a.logger.Warn("model reply is not a usable assessment, using heuristic analysis",
			"error", err,
			"reply_length", len(reply),
		)
		return a.fallback(req, reply), ReasonInvalidJSON
	}
	return result, ReasonDecoded
}

// assessment mirrors the JSON object the prompt asks the model for.
// Pointers distinguish missing fields from zero values.
type assessment struct {
	CredibilityScore   *float64        `json:"credibilityScore"`
	OverallAssessment  *string         `json:"overallAssessment"`
	RedFlags           json.RawMessage `json:"redFlags"`
	PositiveIndicators json.RawMessage `json:"positiveIndicators"`
	BiasAnalysis       *string         `json:"biasAnalysis"`
	FactCheckSummary   *string         `json:"factCheckSummary"`
}

var errNotObject = errors.New("reply is not a JSON object")

// decode is the primary path: strict JSON decoding with per-field defaults
func (a *Analyzer) decode(req models.AnalysisRequest, reply string) (*models.AnalysisResult, error) {
	data := bytes.TrimSpace([]byte(reply))
	if len(data) == 0 || data[0] != '{' {
		return nil, errNotObject
	}

	var parsed assessment
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode assessment: %w", err)
	}

	redFlags, err := stringList(parsed.RedFlags, UnparsedRedFlags)
	if err != nil {
		return nil, fmt.Errorf("redFlags: %w", err)
	}
	positives, err := stringList(parsed.PositiveIndicators, UnparsedPositiveSignals)
	if err != nil {
		return nil, fmt.Errorf("positiveIndicators: %w", err)
	}

	result := models.NewAnalysisResult(req, a.now())
	result.AIModel = a.primaryModel
	result.CredibilityScore = clamp(valueOr(parsed.CredibilityScore, DefaultScore))
	result.OverallAssessment = valueOr(parsed.OverallAssessment, DefaultAssessment)
	result.BiasAnalysis = valueOr(parsed.BiasAnalysis, DefaultBiasAnalysis)
	result.FactCheckSummary = valueOr(parsed.FactCheckSummary, DefaultFactCheckSummary)
	result.RedFlags = redFlags
	result.PositiveIndicators = positives
	return result, nil
}

// stringList decodes a JSON array of strings. Anything other than a non-empty
// array yields the sentinel; an array holding non-strings is an error.
func stringList(raw json.RawMessage, sentinel string) ([]string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return []string{sentinel}, nil
	}

	var items []string
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return []string{sentinel}, nil
	}
	return items, nil
}

// fallback is the heuristic path, scored over the original content rather than the reply
func (a *Analyzer) fallback(req models.AnalysisRequest, reply string) *models.AnalysisResult {
	content := strings.ToLower(req.Content)

	result := models.NewAnalysisResult(req, a.now())
	result.AIModel = a.fallbackModel
	result.CredibilityScore = HeuristicScore(content)
	result.OverallAssessment = preview(reply, assessmentPreviewLength)
	result.BiasAnalysis = FallbackBiasAnalysis
	result.FactCheckSummary = FallbackFactCheckSummary
	result.RedFlags = DetectRedFlags(content)
	result.PositiveIndicators = append([]string(nil), FallbackPositiveIndicators...)
	return result
}

// preview returns the first n characters of s, with "..." appended if s was longer
func preview(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

func valueOr[T any](v *T, def T) T {
	if v == nil {
		return def
	}
	return *v
}

func clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
