package commands

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/hupe1980/chatrouter"
	"github.com/hupe1980/chatrouter/config"
	"github.com/hupe1980/chatrouter/logging"
)

var (
	// Global flags
	configFile string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "chatrouter",
	Short: "Intent router and streaming multi-agent chat server",
	Long: `chatrouter - classify chat messages into specialist domains and stream
the specialist's answer as ordered events.

Configuration is read from the YAML file given with --config and
overridden by CHATROUTER_* environment variables. Provider API keys
fall back to OPENAI_API_KEY, ANTHROPIC_API_KEY and GEMINI_API_KEY.

Examples:
  # Serve with the mock provider
  CHATROUTER_PROVIDER=mock chatrouter serve

  # Classify a message without generating an answer
  chatrouter route "What languages do you know?"

  # Chat against a running server
  chatrouter chat --url http://localhost:8080 "Tell me about yourself"`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(serveCmd, routeCmd, chatCmd, specialistsCmd, versionCmd)
}

// loadConfig loads and validates the configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

// newChatRouter builds an in-process ChatRouter from the configuration.
func newChatRouter(ctx context.Context) (*chatrouter.ChatRouter, *config.Config, logging.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	logger := cfg.NewLogger(os.Stderr)
	cr, err := chatrouter.FromConfig(ctx, cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return cr, cfg, logger, nil
}
