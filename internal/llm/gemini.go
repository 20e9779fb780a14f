package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	genai "google.golang.org/genai"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiClient implements Client with the Gemini API.
type GeminiClient struct {
	cli       *genai.Client
	model     string
	maxTokens int32
	log       *slog.Logger
}

// NewGeminiClient creates a client. An empty apiKey lets the SDK read
// GEMINI_API_KEY or GOOGLE_API_KEY from the environment.
func NewGeminiClient(ctx context.Context, apiKey, model string, maxTokens int32, log *slog.Logger) (*GeminiClient, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiClient{cli: cli, model: model, maxTokens: maxTokens, log: log}, nil
}

// Complete sends the prompt with the system instruction attached.
func (g *GeminiClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	start := time.Now()
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}},
	}
	if g.maxTokens > 0 {
		cfg.MaxOutputTokens = g.maxTokens
	}
	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: userPrompt}}}},
		cfg,
	)
	if err != nil {
		if g.log != nil {
			g.log.Warn("llm: gemini call failed", "model", g.model, "duration", time.Since(start), "error", err)
		}
		return "", fmt.Errorf("gemini API error: %w", err)
	}
	if g.log != nil {
		g.log.Debug("llm: gemini call completed", "model", g.model, "duration", time.Since(start))
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("no text content in response")
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}
