// Package cli implements the expense-assistant CLI commands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rcliao/expense-assistant/internal/category"
	"github.com/rcliao/expense-assistant/internal/config"
	"github.com/rcliao/expense-assistant/internal/llm"
	"github.com/rcliao/expense-assistant/internal/logger"
	"github.com/rcliao/expense-assistant/internal/metrics"
	"github.com/rcliao/expense-assistant/internal/pipeline"
	"github.com/rcliao/expense-assistant/internal/store"
)

var (
	dbPath       string
	formatFlag   string
	configPath   string
	verbose      bool
	providerFlag string
	modelFlag    string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "expense-assistant",
	Short: "Ask questions about your expenses",
	Long: "A conversational assistant over an expense CSV. Questions are planned into " +
		"ledger operations by a language model; conversations are kept in SQLite so " +
		"follow-up questions can reuse earlier context.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $EXPENSE_ASSISTANT_DB or ~/.expense-assistant/memory.db)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text")
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging to stderr")
	RootCmd.PersistentFlags().StringVar(&providerFlag, "provider", "", "LLM provider: anthropic or gemini")
	RootCmd.PersistentFlags().StringVar(&modelFlag, "model", "", "LLM model name")
}

// loadConfig reads the config file and environment, then applies flags.
func loadConfig() *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		exitErr("load config", err)
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if modelFlag != "" {
		cfg.Model = modelFlag
	}
	if providerFlag != "" && providerFlag != cfg.Provider {
		cfg.Provider = providerFlag
		cfg.Model = modelFlag
		cfg.APIKey = ""
		if err := cfg.Validate(); err != nil {
			exitErr("load config", err)
		}
	}
	return cfg
}

func getDBPath() string {
	return loadConfig().DBPath
}

func openStore() (*store.SQLiteStore, error) {
	return store.NewSQLiteStore(getDBPath())
}

func newLogger() *slog.Logger {
	return logger.New(os.Stderr, verbose)
}

// newClient builds the configured language model client with retries.
func newClient(ctx context.Context, cfg *config.Config, log *slog.Logger) (llm.Client, error) {
	var client llm.Client
	switch cfg.Provider {
	case config.ProviderGemini:
		g, err := llm.NewGeminiClient(ctx, cfg.APIKey, cfg.Model, int32(cfg.MaxTokens), log)
		if err != nil {
			return nil, err
		}
		client = g
	default:
		client = llm.NewAnthropicClient(cfg.APIKey, cfg.Model, int64(cfg.MaxTokens), log)
	}
	return llm.NewRetrying(client, llm.RetryConfig{Logger: log}), nil
}

func newPipeline(ctx context.Context, cfg *config.Config, log *slog.Logger, m *metrics.Metrics) (*pipeline.Pipeline, error) {
	client, err := newClient(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("llm client: %w", err)
	}
	return pipeline.New(&pipeline.Config{
		Logger:          log,
		LLM:             client,
		Categories:      category.NewMatcher(cfg.CategoryThreshold, 256),
		Metrics:         m,
		MemoryThreshold: cfg.MemoryThreshold,
		Currency:        cfg.Currency,
	})
}

func textFormat() bool {
	return formatFlag == "text"
}

func printJSON(w io.Writer, v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintln(w, string(b))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
