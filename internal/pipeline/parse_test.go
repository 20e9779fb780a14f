package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/expense-assistant/internal/model"
	"github.com/rcliao/expense-assistant/internal/session"
)

func TestParsePlan(t *testing.T) {
	plan, err := parsePlan("```json\n" + rentPlan + "\n```")
	require.NoError(t, err)
	assert.False(t, plan.MultiStep)
	require.Len(t, plan.Steps, 1)
	assert.Equal(t, model.Step{
		Number:      1,
		Description: "Total rent",
		Operation:   "sum_category_expenses",
		Arguments:   model.Arguments{"category": "rent"},
	}, plan.Steps[0])
	assert.Equal(t, "Return the total", plan.SynthesisInstruction)
}

func TestParsePlanRequiredFlag(t *testing.T) {
	plan, err := parsePlan(`{"is_multi_step": true, "steps": [
		{"step_number": 1, "description": "a", "operation": "top_n_expenses", "arguments": {}, "required": true},
		{"step_number": 2, "description": "b", "operation": "top_n_expenses", "arguments": {}}
	], "synthesis_instruction": "x"}`)
	require.NoError(t, err)
	assert.True(t, plan.Steps[0].IsRequired())
	assert.False(t, plan.Steps[1].IsRequired())
}

func TestParsePlanKeepsUnknownOperations(t *testing.T) {
	plan, err := parsePlan(`{"is_multi_step": false, "steps": [
		{"step_number": 1, "description": "a", "operation": "forecast", "arguments": {}}
	], "synthesis_instruction": ""}`)
	require.NoError(t, err)
	assert.Equal(t, "forecast", plan.Steps[0].Operation)
}

func TestParsePlanErrors(t *testing.T) {
	tests := map[string]string{
		"prose before":       `Here is the plan: {"is_multi_step": false, "steps": [], "synthesis_instruction": ""}`,
		"prose after":        rentPlan + " Hope that helps!",
		"not json":           "sum rent",
		"missing multi":      `{"steps": [{"step_number": 1, "description": "a", "operation": "x", "arguments": {}}], "synthesis_instruction": ""}`,
		"missing steps":      `{"is_multi_step": false, "synthesis_instruction": ""}`,
		"missing synthesis":  `{"is_multi_step": false, "steps": [{"step_number": 1, "description": "a", "operation": "x", "arguments": {}}]}`,
		"missing operation":  `{"is_multi_step": false, "steps": [{"step_number": 1, "description": "a", "arguments": {}}], "synthesis_instruction": ""}`,
		"missing arguments":  `{"is_multi_step": false, "steps": [{"step_number": 1, "description": "a", "operation": "x"}], "synthesis_instruction": ""}`,
		"wrong type":         `{"is_multi_step": "yes", "steps": [], "synthesis_instruction": ""}`,
		"steps not an array": `{"is_multi_step": false, "steps": {}, "synthesis_instruction": ""}`,
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := parsePlan(in)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnparseable)
		})
	}

	_, err := parsePlan(`{"is_multi_step": false, "steps": [], "synthesis_instruction": ""}`)
	assert.ErrorIs(t, err, ErrNoSteps)
}

func TestParseIntent(t *testing.T) {
	intent, err := parseIntent(`{"operation": "list_month_expenses", "month": "2025-06", "category": "Shopping"}`)
	require.NoError(t, err)
	assert.Equal(t, "list_month_expenses", intent.Operation)
	assert.Equal(t, model.Arguments{"month": "2025-06", "category": "Shopping"}, intent.Arguments)

	for _, in := range []string{`{"operation": null}`, `{"operation": "none"}`, "```json\n{\"operation\": \"\"}\n```"} {
		intent, err := parseIntent(in)
		require.NoError(t, err, in)
		assert.Empty(t, intent.Operation, in)
	}

	for _, in := range []string{`{"month": "2025-06"}`, `{"operation": 3}`, `top_n_expenses`, `["top_n_expenses"]`} {
		_, err := parseIntent(in)
		assert.ErrorIs(t, err, ErrUnparseable, in)
	}
}

func TestExtractWrapsCompletionError(t *testing.T) {
	p := newTestPipeline(t, newFakeLLM())
	_, err := p.Extract(context.Background(), "anything")
	assert.ErrorContains(t, err, "LLM completion failed")
}

func groceryMemory() session.Memory {
	return session.New("s1").Append(
		model.MemoryEntry{
			Query:     "show rent for may",
			Operation: "sum_category_expenses",
			Arguments: model.Arguments{"category": "Rent", "month": "2025-05"},
		},
		model.MemoryEntry{
			Query:     "how much did i spend on groceries in june",
			Operation: "sum_category_expenses",
			Arguments: model.Arguments{"category": "Groceries", "month": "2025-06"},
		},
	)
}

func TestBackfillFromMostSimilar(t *testing.T) {
	p := newTestPipeline(t, newFakeLLM())
	in := model.Intent{Operation: "list_month_expenses", Arguments: model.Arguments{}}

	out := p.Backfill("How much did I spend on groceries", in, groceryMemory())

	assert.Equal(t, model.Arguments{"category": "Groceries", "month": "2025-06"}, out.Arguments)
	assert.Empty(t, in.Arguments)
}

func TestBackfillNeverOverwrites(t *testing.T) {
	p := newTestPipeline(t, newFakeLLM())
	in := model.Intent{Operation: "list_month_expenses", Arguments: model.Arguments{"category": "Shopping"}}

	out := p.Backfill("how much did i spend on groceries", in, groceryMemory())

	assert.Equal(t, "Shopping", out.Arguments["category"])
	assert.Equal(t, "2025-06", out.Arguments["month"])
}

func TestBackfillBelowThreshold(t *testing.T) {
	p := newTestPipeline(t, newFakeLLM())
	mem := session.New("s1", model.MemoryEntry{
		Query:     "zzzz",
		Operation: "sum_category_expenses",
		Arguments: model.Arguments{"category": "Rent", "month": "2025-05"},
	})
	in := model.Intent{Operation: "top_n_expenses", Arguments: model.Arguments{}}

	out := p.Backfill("top expenses", in, mem)

	assert.Empty(t, out.Arguments)
}

func TestBackfillSkipsSummaries(t *testing.T) {
	p := newTestPipeline(t, newFakeLLM())
	mem := session.New("s1", model.MemoryEntry{
		Query:     "top expenses",
		Operation: "summarize_memory",
		Arguments: model.Arguments{"category": "Rent"},
	})

	out := p.Backfill("top expenses", model.Intent{Operation: "top_n_expenses"}, mem)

	assert.Empty(t, out.Arguments)
}

func TestBackfillOnlyDeclaredKeys(t *testing.T) {
	p := newTestPipeline(t, newFakeLLM())
	in := model.Intent{Operation: "compare_months", Arguments: model.Arguments{"month1": "2025-05", "month2": "2025-06"}}

	out := p.Backfill("how much did i spend on groceries", in, groceryMemory())

	assert.Equal(t, "Groceries", out.Arguments["category"])
	assert.NotContains(t, out.Arguments, "month")
}

func TestBackfillSkipsWhenComplete(t *testing.T) {
	p := newTestPipeline(t, newFakeLLM())
	args := model.Arguments{"category": "Rent", "month": "2025-01"}

	out := p.Backfill("how much did i spend on groceries", model.Intent{Operation: "sum_category_expenses", Arguments: args}, groceryMemory())

	assert.Equal(t, args, out.Arguments)
}

func TestResolveTimeArguments(t *testing.T) {
	p := newTestPipeline(t, newFakeLLM())
	args := p.normalize(model.Arguments{
		"month":    "last month",
		"months":   []any{"last 2 months", "2025-01", "whenever"},
		"month1":   "2025-03",
		"category": "rent",
		"n":        3,
	}, testTable(t))

	assert.Equal(t, "2025-06", args["month"])
	assert.Equal(t, []string{"2025-05", "2025-06", "2025-01", "whenever"}, args["months"])
	assert.Equal(t, "2025-03", args["month1"])
	assert.Equal(t, "Rent", args["category"])
	assert.Equal(t, 3, args["n"])
}
