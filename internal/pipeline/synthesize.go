package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rcliao/expense-assistant/internal/model"
)

// Synthesize combines step results into one answer. Failed steps are
// included and labeled so the model can say what is missing.
func (p *Pipeline) Synthesize(ctx context.Context, query string, results []model.StepResult, instruction string) (string, error) {
	var steps strings.Builder
	for i, r := range results {
		fmt.Fprintf(&steps, "## Step %d: %s\n", i+1, r.Description)
		fmt.Fprintf(&steps, "**Operation**: %s\n", r.Operation)
		if r.Success() {
			steps.WriteString("**Status**: OK\n")
		} else {
			steps.WriteString("**Status**: FAILED\n")
		}
		fmt.Fprintf(&steps, "**Result**:\n%s\n\n", r.Render())
	}

	userPrompt := fmt.Sprintf(`User Question: %s

Synthesis instruction: %s

Step results:
%s
Please answer the user's question using the step results above.`, query, instruction, steps.String())

	response, err := p.cfg.LLM.Complete(ctx, p.cfg.Prompts.Synthesize, userPrompt)
	if err != nil {
		return "", fmt.Errorf("LLM completion failed: %w", err)
	}
	response = strings.TrimSpace(response)
	if response == "" {
		return "", errors.New("empty synthesis response")
	}
	return response, nil
}

// concatResults renders results for when synthesis is unavailable.
func concatResults(results []model.StepResult) string {
	parts := make([]string, 0, len(results))
	for i, r := range results {
		parts = append(parts, fmt.Sprintf("Step %d (%s):\n%s", i+1, r.Description, r.Render()))
	}
	return strings.Join(parts, "\n\n")
}
