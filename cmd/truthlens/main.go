package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zombar/truthlens/internal/config"
)

const version = "1.0.0"

// app carries state shared by the subcommands once flags are parsed
type app struct {
	configPath string
	logLevel   string
	cfg        *config.Config
	level      slog.Level
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:     "truthlens",
		Short:   "TruthLens - content credibility analysis",
		Version: version,
		Long: `TruthLens scores short pieces of text for credibility.

The text is sent to an OpenAI-compatible chat completions API (OpenRouter by
default) for assessment. When the model is unreachable or its reply cannot be
decoded, a lexical heuristic produces the result instead.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error (env: LOG_LEVEL)")

	root.AddCommand(newServeCmd(a), newAnalyzeCmd(a))
	return root
}

// load reads configuration and applies flags that override it
func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = a.logLevel
	}

	level, err := cfg.LogLevel()
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.level = level
	return nil
}

// newLogger builds the JSON logger used by every command and makes it the default
func (a *app) newLogger(w io.Writer) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: a.level,
	}))
	slog.SetDefault(logger)
	return logger
}
