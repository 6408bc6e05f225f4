package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zombar/truthlens/internal/analyzer"
	"github.com/zombar/truthlens/internal/models"
	"github.com/zombar/truthlens/internal/openrouter"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	var (
		content string
		source  string
		payload string
	)

	cmd := &cobra.Command{
		Use:   "analyze [content]",
		Short: "Analyze one piece of content and print the result as JSON",
		Example: `  truthlens analyze --content "BREAKING: they don't want you to know!!!"
  truthlens analyze "Unemployment fell to 4%, according to official data."
  truthlens analyze --content "..." --payload '{"credibilityScore": 0.4}'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if content == "" && len(args) > 0 {
				content = strings.Join(args, " ")
			}
			req := models.AnalysisRequest{Content: content, Source: source}
			if err := req.Validate(); err != nil {
				return err
			}

			logger := a.newLogger(cmd.ErrOrStderr())
			opts := []analyzer.Option{
				analyzer.WithPrimaryModel(a.cfg.OpenRouter.Model),
				analyzer.WithFallbackModel(a.cfg.FallbackModel),
				analyzer.WithLogger(logger),
			}

			var result *models.AnalysisResult
			if cmd.Flags().Changed("payload") {
				// Offline: interpret a model reply without calling the API
				result = analyzer.New(nil, opts...).Interpret(req, openrouter.StripCodeFence(payload))
			} else {
				if err := a.cfg.Validate(); err != nil {
					return err
				}
				client, err := openrouter.New(a.cfg.ClientConfig(), openrouter.WithLogger(logger))
				if err != nil {
					return err
				}
				result = analyzer.New(client, opts...).Analyze(cmd.Context(), req)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result.Response())
		},
	}

	cmd.Flags().StringVar(&content, "content", "", "Content to analyze (or pass it as arguments)")
	cmd.Flags().StringVar(&source, "source", "", "Where the content was seen")
	cmd.Flags().StringVar(&payload, "payload", "", "Interpret this model reply instead of calling the API")
	return cmd
}
