package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/zombar/truthlens/internal/openrouter"
)

// DefaultEnvFile is loaded into the environment when present
const DefaultEnvFile = ".env"

// Config holds all TruthLens configuration.
type Config struct {
	OpenRouter OpenRouterConfig `yaml:"openrouter"`

	// FallbackModel labels results produced by the heuristic scorer
	FallbackModel string `yaml:"fallback_model"`

	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
	Tracing TracingConfig `yaml:"tracing"`
}

// OpenRouterConfig configures the chat completions client.
type OpenRouterConfig struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port string `yaml:"port"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// TracingConfig configures OTLP trace export.
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"service_name"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		OpenRouter: OpenRouterConfig{
			BaseURL: openrouter.DefaultBaseURL,
			Model:   openrouter.DefaultModel,
			Timeout: openrouter.DefaultTimeout,
		},
		FallbackModel: "DeepSeek-V3",
		Server:        ServerConfig{Port: "8080"},
		Logging:       LoggingConfig{Level: "info"},
		Tracing: TracingConfig{
			Endpoint:    "localhost:4317",
			ServiceName: "truthlens",
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (if
// path is set), the .env file in the working directory, and the environment,
// in that order of increasing precedence.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := loadEnvFile(DefaultEnvFile); err != nil {
		return nil, err
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadEnvFile adds variables from file to the environment without
// overriding ones already set. A missing file is not an error.
func loadEnvFile(file string) error {
	if err := godotenv.Load(file); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", file, err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	setString(&c.OpenRouter.APIKey, "OPENROUTER_API_KEY")
	setString(&c.OpenRouter.BaseURL, "OPENROUTER_BASE_URL")
	setString(&c.OpenRouter.Model, "OPENROUTER_MODEL")
	setString(&c.FallbackModel, "FALLBACK_MODEL")
	setString(&c.Server.Port, "PORT")
	setString(&c.Logging.Level, "LOG_LEVEL")
	setString(&c.Tracing.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setString(&c.Tracing.ServiceName, "OTEL_SERVICE_NAME")

	if v := os.Getenv("OPENROUTER_TIMEOUT"); v != "" {
		d, err := ParseTimeout(v)
		if err != nil {
			return fmt.Errorf("OPENROUTER_TIMEOUT: %w", err)
		}
		c.OpenRouter.Timeout = d
	}

	if v := os.Getenv("TRACING_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("TRACING_ENABLED: %w", err)
		}
		c.Tracing.Enabled = enabled
	}

	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// ParseTimeout accepts a Go duration ("45s", "2m") or a whole number of seconds.
func ParseTimeout(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q", v)
	}
	return d, nil
}

// Validate checks the configuration is usable for serving analyses.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.OpenRouter.APIKey) == "" {
		return fmt.Errorf("OpenRouter API key not configured (set OPENROUTER_API_KEY): %w", openrouter.ErrMissingAPIKey)
	}
	if c.OpenRouter.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.OpenRouter.Timeout)
	}
	if c.OpenRouter.Model == "" {
		return errors.New("model must be set")
	}
	if c.FallbackModel == "" || c.FallbackModel == c.OpenRouter.Model {
		return fmt.Errorf("fallback model label %q must be set and differ from the remote model", c.FallbackModel)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// LogLevel parses the configured logging level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", c.Logging.Level, err)
	}
	return level, nil
}

// ClientConfig returns the settings for the OpenRouter client.
func (c *Config) ClientConfig() openrouter.Config {
	return openrouter.Config{
		APIKey:  c.OpenRouter.APIKey,
		BaseURL: c.OpenRouter.BaseURL,
		Model:   c.OpenRouter.Model,
		Timeout: c.OpenRouter.Timeout,
	}
}
