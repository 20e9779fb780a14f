package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rcliao/expense-assistant/internal/llm"
	"github.com/rcliao/expense-assistant/internal/model"
)

// Extract asks the model for a single operation call. An Intent with an
// empty Operation means the query matched no operation.
func (p *Pipeline) Extract(ctx context.Context, query string) (model.Intent, error) {
	response, err := p.cfg.LLM.Complete(ctx, p.cfg.Prompts.Extract, "User: "+query)
	if err != nil {
		return model.Intent{}, fmt.Errorf("LLM completion failed: %w", err)
	}
	intent, err := parseIntent(response)
	if err != nil {
		return model.Intent{}, err
	}
	if p.log != nil {
		p.log.Info("pipeline: extracted intent", "query", query, "operation", intent.Operation)
	}
	return intent, nil
}

// parseIntent decodes a flat {"operation": name, arg: value, ...} object.
func parseIntent(response string) (model.Intent, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(llm.StripFences(response)), &raw); err != nil {
		return model.Intent{}, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	opVal, ok := raw["operation"]
	if !ok {
		return model.Intent{}, fmt.Errorf("%w: missing operation", ErrUnparseable)
	}
	delete(raw, "operation")

	var op string
	switch v := opVal.(type) {
	case nil:
	case string:
		op = strings.TrimSpace(v)
	default:
		return model.Intent{}, fmt.Errorf("%w: operation must be a string, got %T", ErrUnparseable, opVal)
	}
	if strings.EqualFold(op, "none") || op == "" {
		return model.Intent{}, nil
	}
	return model.Intent{Operation: op, Arguments: model.Arguments(raw)}, nil
}
