package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rcliao/expense-assistant/internal/llm"
	"github.com/rcliao/expense-assistant/internal/model"
	"github.com/rcliao/expense-assistant/internal/session"
)

const historyAnswerLimit = 500

// Plan asks the model to decompose query into steps. Any error means the
// caller should fall back to single-step handling.
func (p *Pipeline) Plan(ctx context.Context, query string, mem session.Memory) (*model.Plan, error) {
	var user strings.Builder
	fmt.Fprintf(&user, "Current month: %s\n\n", p.cfg.Clock.Now().Format("2006-01"))
	if recent := mem.Recent(p.cfg.HistoryTurns); len(recent) > 0 {
		user.WriteString("Conversation so far:\n")
		for i := len(recent) - 1; i >= 0; i-- {
			fmt.Fprintf(&user, "User: %s\nAssistant: %s\n", recent[i].Query, llm.Truncate(recent[i].Answer, historyAnswerLimit))
		}
		user.WriteString("\n")
	}
	fmt.Fprintf(&user, "User Query: %s", query)

	response, err := p.cfg.LLM.Complete(ctx, p.cfg.Prompts.Plan, user.String())
	if err != nil {
		return nil, fmt.Errorf("LLM completion failed: %w", err)
	}
	plan, err := parsePlan(response)
	if err != nil {
		return nil, err
	}
	if p.log != nil {
		p.log.Info("pipeline: planned query", "query", query, "multi_step", plan.MultiStep, "steps", len(plan.Steps))
	}
	return plan, nil
}

type planJSON struct {
	MultiStep            *bool       `json:"is_multi_step"`
	Steps                *[]stepJSON `json:"steps"`
	SynthesisInstruction *string     `json:"synthesis_instruction"`
}

type stepJSON struct {
	Number      *int            `json:"step_number"`
	Description *string         `json:"description"`
	Operation   *string         `json:"operation"`
	Arguments   model.Arguments `json:"arguments"`
	Required    *bool           `json:"required"`
}

// parsePlan decodes a plan response. Only a surrounding code fence is
// tolerated; prose, missing keys or an empty step list are errors.
func parsePlan(response string) (*model.Plan, error) {
	var raw planJSON
	if err := json.Unmarshal([]byte(llm.StripFences(response)), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	switch {
	case raw.MultiStep == nil:
		return nil, fmt.Errorf("%w: missing is_multi_step", ErrUnparseable)
	case raw.Steps == nil:
		return nil, fmt.Errorf("%w: missing steps", ErrUnparseable)
	case raw.SynthesisInstruction == nil:
		return nil, fmt.Errorf("%w: missing synthesis_instruction", ErrUnparseable)
	case len(*raw.Steps) == 0:
		return nil, ErrNoSteps
	}

	plan := &model.Plan{MultiStep: *raw.MultiStep, SynthesisInstruction: *raw.SynthesisInstruction}
	for i, s := range *raw.Steps {
		switch {
		case s.Number == nil:
			return nil, fmt.Errorf("%w: step %d missing step_number", ErrUnparseable, i+1)
		case s.Description == nil:
			return nil, fmt.Errorf("%w: step %d missing description", ErrUnparseable, i+1)
		case s.Operation == nil || strings.TrimSpace(*s.Operation) == "":
			return nil, fmt.Errorf("%w: step %d missing operation", ErrUnparseable, i+1)
		case s.Arguments == nil:
			return nil, fmt.Errorf("%w: step %d missing arguments", ErrUnparseable, i+1)
		}
		step := model.Step{
			Number:      *s.Number,
			Description: *s.Description,
			Operation:   strings.TrimSpace(*s.Operation),
			Arguments:   s.Arguments,
		}
		if s.Required != nil {
			step.Required = *s.Required
		}
		plan.Steps = append(plan.Steps, step)
	}
	return plan, nil
}
