package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/taskflow/taskflow-api/internal/config"
	"github.com/taskflow/taskflow-api/internal/services/suggest"
)

// NewSuggestCmd creates the suggest command
func NewSuggestCmd() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:   "suggest [description]",
		Short: "Request a one-off category suggestion",
		Long:  "Send a task description to the configured LLM provider and print the suggested category",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			description := strings.Join(args, " ")

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			if cfg.OpenAIKey == "" {
				return fmt.Errorf("OPENAI_API_KEY is not configured")
			}

			var logger *zap.Logger
			if debug {
				logger, err = zap.NewDevelopment()
				if err != nil {
					return fmt.Errorf("failed to create logger: %w", err)
				}
			} else {
				logger = zap.NewNop()
			}

			provider := suggest.NewOpenAIProvider(
				cfg.OpenAIKey,
				cfg.AIBaseURL,
				cfg.AIModel,
				logger,
				debug,
			)

			ctx, cancel := context.WithTimeout(context.Background(), suggest.DefaultTimeout)
			defer cancel()

			start := time.Now()
			suggestion, err := provider.Suggest(ctx, description)
			if err != nil {
				return fmt.Errorf("suggestion failed: %w", err)
			}

			fmt.Printf("Description: %s\n", description)
			fmt.Printf("Category:    %s\n", suggestion.Category)
			if suggestion.Reasoning != "" {
				fmt.Printf("Reasoning:   %s\n", suggestion.Reasoning)
			}
			fmt.Printf("Latency:     %s\n", time.Since(start).Round(time.Millisecond))

			return nil
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging for the LLM request")

	return cmd
}
