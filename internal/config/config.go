// Package config loads settings from .env, an optional YAML file and
// EXPENSE_ASSISTANT_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"

	DefaultCategoryThreshold = 0.6
	DefaultMemoryThreshold   = 0.4
	DefaultMaxTokens         = 1024
	DefaultCurrency          = "₹"
)

// Config holds the assistant's settings. Load fills it from the config
// file, .env and the environment.
type Config struct {
	DBPath            string  `yaml:"db"`
	Provider          string  `yaml:"provider"`
	Model             string  `yaml:"model"`
	MaxTokens         int     `yaml:"max_tokens"`
	CategoryThreshold float64 `yaml:"category_threshold"`
	MemoryThreshold   float64 `yaml:"memory_threshold"`
	Currency          string  `yaml:"currency"`
	APIKey            string  `yaml:"-"`
}

// Load reads path (if non-empty) over a .env in the working directory, then
// applies environment overrides. The result is validated.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := env("EXPENSE_ASSISTANT_DB"); v != "" {
		c.DBPath = v
	}
	if v := env("EXPENSE_ASSISTANT_PROVIDER"); v != "" {
		c.Provider = v
	}
	if v := env("EXPENSE_ASSISTANT_MODEL"); v != "" {
		c.Model = v
	}
	if v := env("EXPENSE_ASSISTANT_CURRENCY"); v != "" {
		c.Currency = v
	}
	if v := env("EXPENSE_ASSISTANT_MAX_TOKENS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("EXPENSE_ASSISTANT_MAX_TOKENS: %w", err)
		}
		c.MaxTokens = n
	}
	for name, dst := range map[string]*float64{
		"EXPENSE_ASSISTANT_CATEGORY_THRESHOLD": &c.CategoryThreshold,
		"EXPENSE_ASSISTANT_MEMORY_THRESHOLD":   &c.MemoryThreshold,
	} {
		v := env(name)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*dst = f
	}
	return nil
}

// Validate fills defaults and rejects out-of-range values.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		home, _ := os.UserHomeDir()
		c.DBPath = filepath.Join(home, ".expense-assistant", "memory.db")
	}
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.Provider == "" {
		c.Provider = ProviderAnthropic
	}
	if c.Provider != ProviderAnthropic && c.Provider != ProviderGemini {
		return fmt.Errorf("unknown provider %q (use %s or %s)", c.Provider, ProviderAnthropic, ProviderGemini)
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.MaxTokens < 0 {
		return errors.New("max_tokens must be positive")
	}
	if c.CategoryThreshold == 0 {
		c.CategoryThreshold = DefaultCategoryThreshold
	}
	if c.MemoryThreshold == 0 {
		c.MemoryThreshold = DefaultMemoryThreshold
	}
	if c.CategoryThreshold < 0 || c.CategoryThreshold > 1 {
		return fmt.Errorf("category_threshold %v out of range [0,1]", c.CategoryThreshold)
	}
	if c.MemoryThreshold < 0 || c.MemoryThreshold > 1 {
		return fmt.Errorf("memory_threshold %v out of range [0,1]", c.MemoryThreshold)
	}
	if c.Currency == "" {
		c.Currency = DefaultCurrency
	}
	if c.APIKey == "" {
		c.APIKey = c.providerKey()
	}
	return nil
}

func (c *Config) providerKey() string {
	if c.Provider == ProviderGemini {
		return firstNonEmpty(env("GEMINI_API_KEY"), env("GOOGLE_API_KEY"))
	}
	return env("ANTHROPIC_API_KEY")
}

func env(name string) string {
	return strings.TrimSpace(os.Getenv(name))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
