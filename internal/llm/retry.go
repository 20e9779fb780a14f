package llm

import (
	"context"
	"errors"
	"log/slog"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/cenkalti/backoff/v5"
	genai "google.golang.org/genai"
)

// RetryConfig configures Retrying.
type RetryConfig struct {
	MaxTries  uint
	BackOff   backoff.BackOff
	Retryable func(error) bool
	Logger    *slog.Logger
}

// Retrying retries transient failures of the wrapped client with
// exponential backoff. Other errors are returned after the first attempt.
type Retrying struct {
	next Client
	cfg  RetryConfig
}

// NewRetrying wraps next. Zero config fields get defaults: 3 tries,
// exponential backoff, and IsRetryable.
func NewRetrying(next Client, cfg RetryConfig) *Retrying {
	if cfg.MaxTries == 0 {
		cfg.MaxTries = 3
	}
	if cfg.Retryable == nil {
		cfg.Retryable = IsRetryable
	}
	return &Retrying{next: next, cfg: cfg}
}

func (r *Retrying) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	b := r.cfg.BackOff
	if b == nil {
		b = backoff.NewExponentialBackOff()
	}
	attempt := 0
	return backoff.Retry(ctx, func() (string, error) {
		attempt++
		out, err := r.next.Complete(ctx, systemPrompt, userPrompt)
		if err == nil {
			return out, nil
		}
		if !r.cfg.Retryable(err) {
			return "", backoff.Permanent(err)
		}
		if r.cfg.Logger != nil {
			r.cfg.Logger.Warn("llm: retrying completion", "attempt", attempt, "error", err)
		}
		return "", err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(r.cfg.MaxTries))
}

// IsRetryable reports whether err is a rate limit or server-side failure
// from the Anthropic or Gemini API.
func IsRetryable(err error) bool {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.StatusCode)
	}
	var gErr genai.APIError
	if errors.As(err, &gErr) {
		return retryableStatus(gErr.Code)
	}
	var gPtr *genai.APIError
	if errors.As(err, &gPtr) && gPtr != nil {
		return retryableStatus(gPtr.Code)
	}
	return false
}

func retryableStatus(code int) bool {
	return code == 429 || code >= 500
}
