package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rcliao/expense-assistant/internal/ledger"
	"github.com/rcliao/expense-assistant/internal/model"
	"github.com/rcliao/expense-assistant/internal/session"
)

// Result is the answer to one query.
type Result struct {
	Text        string             `json:"text"`
	Chart       *model.Chart       `json:"chart,omitempty"`
	Steps       []model.StepResult `json:"steps"`
	Memory      session.Memory     `json:"-"`
	Diagnostics Diagnostics        `json:"diagnostics"`
}

// Diagnostics describes how a query was handled.
type Diagnostics struct {
	Route      string        `json:"route"`
	Operations []string      `json:"operations"`
	StepCount  int           `json:"step_count"`
	Planned    int           `json:"planned_steps,omitempty"`
	PlanError  string        `json:"plan_error,omitempty"`
	Elapsed    time.Duration `json:"elapsed"`
}

// Run answers query against table. It always returns an answer: planner,
// operation and synthesis failures are folded into the result. The
// returned Memory is mem plus one entry per successful step; mem itself
// is not modified.
func (p *Pipeline) Run(ctx context.Context, query string, table *ledger.Table, mem session.Memory) Result {
	start := p.cfg.Clock.Now()

	var res Result
	plan, err := p.Plan(ctx, query, mem)
	switch {
	case err != nil:
		p.cfg.Metrics.PlanFailure(planFailureReason(err))
		if p.log != nil {
			p.log.Warn("pipeline: planning failed, using single-step path", "query", query, "error", err)
		}
		res = p.runSingle(ctx, query, nil, table, mem)
		res.Diagnostics.Route = model.RouteFallback
		res.Diagnostics.PlanError = err.Error()
	case !plan.MultiStep:
		var planned *model.Step
		if len(plan.Steps) == 1 {
			planned = &plan.Steps[0]
		}
		res = p.runSingle(ctx, query, planned, table, mem)
	default:
		res = p.runMulti(ctx, query, plan, table, mem)
	}

	for _, s := range res.Steps {
		res.Diagnostics.Operations = append(res.Diagnostics.Operations, s.Operation)
	}
	res.Diagnostics.Elapsed = p.cfg.Clock.Since(start)
	p.cfg.Metrics.Query(res.Diagnostics.Route)
	if p.log != nil {
		p.log.Info("pipeline: answered query", "route", res.Diagnostics.Route,
			"steps", len(res.Steps), "memory", res.Memory.Len(), "elapsed", res.Diagnostics.Elapsed)
	}
	return res
}

// runSingle handles a one-operation query. A planned step is reused;
// otherwise the intent is extracted from the query.
func (p *Pipeline) runSingle(ctx context.Context, query string, planned *model.Step, table *ledger.Table, mem session.Memory) Result {
	res := Result{Memory: mem, Diagnostics: Diagnostics{Route: model.RouteSingle, StepCount: 1}}

	var intent model.Intent
	if planned != nil {
		intent = model.Intent{Operation: planned.Operation, Arguments: planned.Arguments}
	} else {
		var err error
		intent, err = p.Extract(ctx, query)
		if err != nil || intent.Operation == "" {
			reason := "no matching operation"
			if err != nil {
				reason = err.Error()
			}
			res.Text = helpMessage(query)
			res.Steps = []model.StepResult{{
				Outcome: model.Failure,
				Failure: model.Fail(model.NoIntent, "could not understand the request: %s", reason),
			}}
			res.Diagnostics.StepCount = 0
			return res
		}
	}

	intent = p.Backfill(query, intent, mem)
	step := model.Step{Number: 1, Description: query, Operation: intent.Operation, Arguments: intent.Arguments}
	if planned != nil {
		step.Description = planned.Description
	}
	sr := p.RunStep(ctx, step, table, mem)

	res.Steps = []model.StepResult{sr}
	res.Text = sr.Render()
	res.Chart = sr.Chart
	if sr.Success() {
		res.Memory = mem.Append(p.entry(query, sr, model.RouteSingle))
	}
	return res
}

// runMulti executes the plan in order. A failing required step stops the
// plan; other failures are kept for synthesis.
func (p *Pipeline) runMulti(ctx context.Context, query string, plan *model.Plan, table *ledger.Table, mem session.Memory) Result {
	res := Result{Diagnostics: Diagnostics{Route: model.RouteMulti, Planned: len(plan.Steps)}}

	for _, step := range plan.Steps {
		sr := p.RunStep(ctx, step, table, mem)
		res.Steps = append(res.Steps, sr)
		if sr.Success() {
			mem = mem.Append(p.entry(fmt.Sprintf("%s (Step: %s)", query, step.Description), sr, model.RouteMulti))
			if sr.Chart != nil {
				res.Chart = sr.Chart
			}
			continue
		}
		if step.IsRequired() {
			if p.log != nil {
				p.log.Warn("pipeline: required step failed, abandoning plan", "step", step.Number, "operation", step.Operation)
			}
			break
		}
	}
	res.Memory = mem
	res.Diagnostics.StepCount = len(res.Steps)

	if len(plan.Steps) == 1 {
		res.Text = res.Steps[0].Render()
		return res
	}

	text, err := p.Synthesize(ctx, query, res.Steps, plan.SynthesisInstruction)
	if err != nil {
		p.cfg.Metrics.SynthesisFailure()
		if p.log != nil {
			p.log.Warn("pipeline: synthesis failed, returning raw step results", "error", err)
		}
		text = fmt.Sprintf("Synthesis failed: %v\n\n%s", err, concatResults(res.Steps))
	}
	res.Text = text
	return res
}

func (p *Pipeline) entry(query string, sr model.StepResult, route string) model.MemoryEntry {
	return model.MemoryEntry{
		Query:     query,
		Operation: sr.Operation,
		Arguments: sr.Arguments,
		Answer:    sr.Text,
		Route:     route,
		CreatedAt: p.cfg.Clock.Now().UTC(),
	}
}

func planFailureReason(err error) string {
	switch {
	case errors.Is(err, ErrNoSteps):
		return "no_steps"
	case errors.Is(err, ErrUnparseable):
		return "unparseable"
	default:
		return "llm"
	}
}

func helpMessage(query string) string {
	return fmt.Sprintf("Sorry, I couldn't understand your request: '%s'.\n\n"+
		"You can ask me things like:\n"+
		"- What are my top 3 expenses?\n"+
		"- Show shopping expenses in June 2025\n"+
		"- How much did I spend on rent last month?\n"+
		"- Compare May vs June groceries\n\n"+
		"Try rephrasing your query to include a category, month, or amount.", query)
}
