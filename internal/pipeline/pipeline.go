// Package pipeline turns a natural-language question into operation calls
// against a ledger: planning, intent extraction, argument backfill from
// conversation memory, step execution and answer synthesis.
package pipeline

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/rcliao/expense-assistant/internal/category"
	"github.com/rcliao/expense-assistant/internal/llm"
	"github.com/rcliao/expense-assistant/internal/metrics"
	"github.com/rcliao/expense-assistant/internal/ops"
	"github.com/rcliao/expense-assistant/internal/timeexpr"
)

// DefaultMemoryThreshold is the similarity a past query must exceed to
// lend its arguments to the current one.
const DefaultMemoryThreshold = 0.4

const (
	defaultMemoryWindow = 50
	defaultHistoryTurns = 3
)

var (
	// ErrNoSteps is returned when the planner produced an empty plan.
	ErrNoSteps = errors.New("no execution steps generated")
	// ErrUnparseable is returned when a model response does not match the
	// expected JSON shape.
	ErrUnparseable = errors.New("unparseable response")
)

// Config holds the configuration for the pipeline.
type Config struct {
	Logger     *slog.Logger
	LLM        llm.Client
	Prompts    *Prompts
	Clock      clockwork.Clock
	Resolver   *timeexpr.Resolver
	Categories *category.Matcher
	Metrics    *metrics.Metrics

	MemoryThreshold float64 // backfill similarity cutoff (default 0.4)
	MemoryWindow    int     // most recent entries considered for backfill (default 50)
	HistoryTurns    int     // recent entries shown to the planner (default 3)
	Currency        string  // amount prefix (default ₹)
}

// Pipeline answers queries. It holds no per-conversation state; memory is
// passed into and returned from Run.
type Pipeline struct {
	cfg *Config
	log *slog.Logger
}

// New validates cfg, fills defaults and returns a Pipeline.
func New(cfg *Config) (*Pipeline, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if cfg.LLM == nil {
		return nil, errors.New("LLM client is required")
	}
	if cfg.Prompts == nil {
		p, err := LoadPrompts()
		if err != nil {
			return nil, fmt.Errorf("load prompts: %w", err)
		}
		cfg.Prompts = p
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Resolver == nil {
		cfg.Resolver = timeexpr.New(cfg.Clock)
	}
	if cfg.Categories == nil {
		cfg.Categories = category.NewMatcher(category.DefaultThreshold, 0)
	}
	if cfg.MemoryThreshold == 0 {
		cfg.MemoryThreshold = DefaultMemoryThreshold
	}
	if cfg.MemoryThreshold < 0 || cfg.MemoryThreshold > 1 {
		return nil, fmt.Errorf("memory threshold must be in [0, 1], got %v", cfg.MemoryThreshold)
	}
	if cfg.MemoryWindow == 0 {
		cfg.MemoryWindow = defaultMemoryWindow
	}
	if cfg.HistoryTurns == 0 {
		cfg.HistoryTurns = defaultHistoryTurns
	}
	if cfg.Currency == "" {
		cfg.Currency = ops.DefaultCurrency
	}
	return &Pipeline{cfg: cfg, log: cfg.Logger}, nil
}
