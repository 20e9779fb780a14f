package pipeline

import (
	"context"
	"fmt"

	"github.com/rcliao/expense-assistant/internal/ledger"
	"github.com/rcliao/expense-assistant/internal/model"
	"github.com/rcliao/expense-assistant/internal/ops"
	"github.com/rcliao/expense-assistant/internal/session"
	"github.com/rcliao/expense-assistant/internal/timeexpr"
)

// unknownOperationLabel keeps model-invented operation names out of metric labels.
const unknownOperationLabel = "unknown"

// RunStep executes one step against table. Failures are reported in the
// result, never as an error.
func (p *Pipeline) RunStep(ctx context.Context, step model.Step, table *ledger.Table, mem session.Memory) (res model.StepResult) {
	res = model.StepResult{Operation: step.Operation, Description: step.Description, Arguments: step.Arguments.Clone()}
	_, known := ops.Lookup(step.Operation)
	label := step.Operation
	if !known {
		label = unknownOperationLabel
	}
	fail := func(f *model.StepFailure) model.StepResult {
		res.Outcome = model.Failure
		res.Failure = f
		p.cfg.Metrics.Step(label, model.Failure.String())
		if p.log != nil {
			p.log.Info("pipeline: step failed", "step", step.Number, "operation", step.Operation, "kind", f.Kind, "reason", f.Message)
		}
		return res
	}

	if !known {
		return fail(model.Fail(model.UnknownOperation, "unknown operation '%s'", step.Operation))
	}
	if err := ctx.Err(); err != nil {
		return fail(model.Fail(model.ExecutionFailed, "cancelled: %v", err))
	}

	defer func() {
		if r := recover(); r != nil {
			res = fail(model.Fail(model.ExecutionFailed, "%v", r))
		}
	}()

	res.Arguments = p.normalize(res.Arguments, table)
	env := &ops.Env{
		Table:      table,
		Memory:     mem.Entries(),
		Categories: p.cfg.Categories,
		Currency:   p.cfg.Currency,
	}
	out := ops.Execute(env, step.Operation, res.Arguments)
	if out.Failure != nil {
		return fail(out.Failure)
	}

	res.Outcome = model.Success
	res.Text = out.Text
	res.Chart = out.Chart
	p.cfg.Metrics.Step(label, model.Success.String())
	return res
}

// normalize resolves time expressions and canonicalizes category names.
// Unresolvable values are left as given for the operation to reject.
func (p *Pipeline) normalize(args model.Arguments, table *ledger.Table) model.Arguments {
	for k, v := range args {
		switch {
		case ops.IsTimeKey(k):
			args[k] = p.resolveTime(v)
		case ops.IsCategoryKey(k) && table != nil:
			if s, ok := v.(string); ok {
				if matched, ok := p.cfg.Categories.Match(s, table.Categories()); ok {
					args[k] = matched
				}
			}
		}
	}
	return args
}

// resolveTime resolves a string or each element of a list, flattening
// list resolutions in order.
func (p *Pipeline) resolveTime(v any) any {
	switch vv := v.(type) {
	case string:
		return p.cfg.Resolver.Resolve(vv).Value()
	case []string:
		return p.flatten(vv)
	case []any:
		items := make([]string, 0, len(vv))
		for _, e := range vv {
			if e != nil {
				items = append(items, fmt.Sprint(e))
			}
		}
		return p.flatten(items)
	default:
		return v
	}
}

func (p *Pipeline) flatten(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		r := p.cfg.Resolver.Resolve(it)
		if r.Kind == timeexpr.Unresolved {
			out = append(out, r.Raw)
			continue
		}
		out = append(out, r.Months...)
	}
	return out
}
