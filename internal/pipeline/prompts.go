package pipeline

import (
	"fmt"
	"strings"

	"github.com/rcliao/expense-assistant/internal/ops"
	"github.com/rcliao/expense-assistant/internal/pipeline/prompts"
)

// Prompts contains the system prompts loaded from embedded files.
type Prompts struct {
	Plan       string // decomposes a query into steps
	Extract    string // extracts a single intent
	Synthesize string // combines step results
}

// LoadPrompts loads the prompts and injects the operation catalog.
func LoadPrompts() (*Prompts, error) {
	p := &Prompts{}
	var err error
	if p.Plan, err = loadPrompt("PLAN.md"); err != nil {
		return nil, fmt.Errorf("failed to load PLAN: %w", err)
	}
	if p.Extract, err = loadPrompt("EXTRACT.md"); err != nil {
		return nil, fmt.Errorf("failed to load EXTRACT: %w", err)
	}
	if p.Synthesize, err = loadPrompt("SYNTHESIZE.md"); err != nil {
		return nil, fmt.Errorf("failed to load SYNTHESIZE: %w", err)
	}

	catalog := ops.Describe()
	p.Plan = strings.Replace(p.Plan, "{{CATALOG}}", catalog, 1)
	p.Extract = strings.Replace(p.Extract, "{{CATALOG}}", catalog, 1)
	return p, nil
}

func loadPrompt(path string) (string, error) {
	data, err := prompts.PromptsFS.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}
