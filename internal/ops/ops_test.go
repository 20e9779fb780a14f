package ops

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/expense-assistant/internal/category"
	"github.com/rcliao/expense-assistant/internal/ledger"
	"github.com/rcliao/expense-assistant/internal/model"
)

func testEnv(t *testing.T) *Env {
	t.Helper()
	row := func(date, cat, amt, note string) model.Transaction {
		d, err := time.Parse("2006-01-02", date)
		require.NoError(t, err)
		return model.Transaction{Date: d, Category: cat, Amount: decimal.RequireFromString(amt), Note: note}
	}
	return &Env{
		Table: ledger.NewTable([]model.Transaction{
			row("2025-05-01", "Rent", "1000", "May rent"),
			row("2025-05-05", "Groceries", "40.50", "Veggies"),
			row("2025-05-20", "Groceries", "59.50", "Big shop"),
			row("2025-06-01", "Rent", "1000", "June rent"),
			row("2025-06-10", "Groceries", "120", "Party supplies"),
			row("2025-06-12", "Shopping", "300", "Shoes"),
		}),
		Categories: category.NewMatcher(category.DefaultThreshold, 0),
	}
}

func TestExecuteSumCategory(t *testing.T) {
	env := testEnv(t)

	res := Execute(env, "sum_category_expenses", model.Arguments{"category": "rent"})
	require.Nil(t, res.Failure)
	assert.Equal(t, "Total spent on 'Rent': ₹2000.00", res.Text)

	res = Execute(env, "sum_category_expenses", model.Arguments{"category": "grocery", "month": "2025-05"})
	require.Nil(t, res.Failure)
	assert.Equal(t, "Total spent on 'Groceries' in 2025-05: ₹100.00", res.Text)
}

func TestExecuteTopN(t *testing.T) {
	env := testEnv(t)

	res := Execute(env, "top_n_expenses", model.Arguments{})
	require.Nil(t, res.Failure)
	assert.Contains(t, res.Text, "Top 3 expenses:")
	assert.Contains(t, res.Text, "1. May rent - ₹1000.00 (2025-05-01)")
	assert.Contains(t, res.Text, "2. June rent - ₹1000.00 (2025-06-01)")
	assert.Contains(t, res.Text, "3. Shoes - ₹300.00 (2025-06-12)")
	assert.Contains(t, res.Text, "Total: ₹2300.00")

	res = Execute(env, "top_n_expenses", model.Arguments{"n": "1", "category": "groceries", "month": "June 2025"})
	require.Nil(t, res.Failure)
	assert.Contains(t, res.Text, "Top 1 expenses in category 'Groceries' for 2025-06")
	assert.Contains(t, res.Text, "1. Party supplies - ₹120.00")

	res = Execute(env, "top_n_expenses", model.Arguments{"n": -2})
	require.NotNil(t, res.Failure)
	assert.Equal(t, model.InvalidArguments, res.Failure.Kind)
}

func TestExecuteListMonth(t *testing.T) {
	env := testEnv(t)

	res := Execute(env, "list_month_expenses", model.Arguments{"month": "2025-05", "category": "groceries"})
	require.Nil(t, res.Failure)
	assert.Equal(t, "Expenses in 2025-05 (Category: Groceries):\n"+
		"- 2025-05-05 | Groceries | ₹40.50 | Veggies\n"+
		"- 2025-05-20 | Groceries | ₹59.50 | Big shop\n"+
		"\nTotal: ₹100.00", res.Text)

	res = Execute(env, "list_month_expenses", model.Arguments{"month": "2024-01"})
	require.Nil(t, res.Failure)
	assert.Equal(t, "No expenses found for 2024-01.", res.Text)
}

func TestExecuteFailures(t *testing.T) {
	env := testEnv(t)

	tests := []struct {
		name string
		op   string
		args model.Arguments
		kind model.FailureKind
	}{
		{"unknown operation", "forecast_spending", nil, model.UnknownOperation},
		{"missing required", "sum_category_expenses", model.Arguments{}, model.InvalidArguments},
		{"blank required", "list_month_expenses", model.Arguments{"month": "  "}, model.InvalidArguments},
		{"unmatched category", "sum_category_expenses", model.Arguments{"category": "travel"}, model.Unresolved},
		{"unparseable month", "list_month_expenses", model.Arguments{"month": "someday"}, model.Unresolved},
		{"list for single month", "list_month_expenses", model.Arguments{"month": []string{"2025-05", "2025-06"}}, model.InvalidArguments},
		{"bad n", "top_n_expenses", model.Arguments{"n": "three"}, model.InvalidArguments},
		{"bad date", "date_range_expense", model.Arguments{"start_date": "June", "end_date": "2025-06-30"}, model.InvalidArguments},
		{"reversed range", "date_range_expense", model.Arguments{"start_date": "2025-06-30", "end_date": "2025-06-01"}, model.InvalidArguments},
		{"invalid mode", "category_summary", model.Arguments{"category": "rent", "mode": "median"}, model.InvalidArguments},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Execute(env, tt.op, tt.args)
			require.NotNil(t, res.Failure)
			assert.Equal(t, tt.kind, res.Failure.Kind)
			assert.NotEmpty(t, res.Failure.Message)
			assert.Empty(t, res.Text)
		})
	}
}

func TestExecuteWithoutTable(t *testing.T) {
	res := Execute(&Env{}, "sum_category_expenses", model.Arguments{"category": "rent"})
	require.NotNil(t, res.Failure)
	assert.Equal(t, model.ExecutionFailed, res.Failure.Kind)

	res = Execute(nil, "summarize_memory", nil)
	require.Nil(t, res.Failure)
	assert.Contains(t, res.Text, "Memory is empty")
}

func TestExecuteSingleElementListUnwrapped(t *testing.T) {
	res := Execute(testEnv(t), "sum_category_expenses", model.Arguments{"category": "rent", "month": []any{"2025-06"}})
	require.Nil(t, res.Failure)
	assert.Equal(t, "Total spent on 'Rent' in 2025-06: ₹1000.00", res.Text)
}

func TestExecuteDateRange(t *testing.T) {
	res := Execute(testEnv(t), "date_range_expense", model.Arguments{
		"start_date": "2025-05-05", "end_date": "2025-06-01", "category": "groceries",
	})
	require.Nil(t, res.Failure)
	assert.Contains(t, res.Text, "Expenses from 2025-05-05 to 2025-06-01 in category 'Groceries':")
	assert.Contains(t, res.Text, "Total: ₹100.00")
}

func TestExecuteCompareMonths(t *testing.T) {
	res := Execute(testEnv(t), "compare_months", model.Arguments{"month1": "2025-05", "month2": "2025-06"})
	require.Nil(t, res.Failure)
	assert.Equal(t, "Comparison of 2025-05 vs 2025-06:\n"+
		"- 2025-05: ₹1100.00\n"+
		"- 2025-06: ₹1420.00\n"+
		"- Difference: ₹320.00 (increase)", res.Text)
	assert.Nil(t, res.Chart)
}

func TestExecuteCompareCategory(t *testing.T) {
	res := Execute(testEnv(t), "compare_category", model.Arguments{"category1": "groceries", "category2": "shopping"})
	require.Nil(t, res.Failure)
	assert.Contains(t, res.Text, "Total Groceries: ₹220.00")
	assert.Contains(t, res.Text, "Total Shopping: ₹300.00")
	assert.Contains(t, res.Text, "Higher spend: Shopping")

	require.NotNil(t, res.Chart)
	assert.Equal(t, []string{"2025-05", "2025-06"}, res.Chart.Labels)
	require.Len(t, res.Chart.Series, 2)
	assert.Equal(t, []float64{100, 120}, res.Chart.Series[0].Values)
	assert.Equal(t, []float64{0, 300}, res.Chart.Series[1].Values)

	res = Execute(testEnv(t), "compare_category", model.Arguments{
		"category1": "groceries", "category2": "shopping", "months": "2025-05",
	})
	require.Nil(t, res.Failure)
	assert.Contains(t, res.Text, "Higher spend: Groceries")
}

func TestExecuteAverageCategory(t *testing.T) {
	res := Execute(testEnv(t), "average_category_expense", model.Arguments{"category": "groceries"})
	require.Nil(t, res.Failure)
	assert.Equal(t, "Average expense per month for 'Groceries':\n- 2025-05: ₹50.00\n- 2025-06: ₹120.00", res.Text)
	require.NotNil(t, res.Chart)
	assert.Equal(t, []float64{50, 120}, res.Chart.Series[0].Values)

	res = Execute(testEnv(t), "average_category_expense", model.Arguments{"category": "groceries", "months": []string{"nope"}})
	require.NotNil(t, res.Failure)
	assert.Equal(t, model.Unresolved, res.Failure.Kind)
}

func TestExecuteCategorySummary(t *testing.T) {
	env := testEnv(t)

	res := Execute(env, "category_summary", model.Arguments{"category": "groceries"})
	require.Nil(t, res.Failure)
	assert.Equal(t, "Total for category 'Groceries':\n- Total: ₹220.00", res.Text)

	res = Execute(env, "category_summary", model.Arguments{"category": "groceries", "mode": "average"})
	require.Nil(t, res.Failure)
	assert.Contains(t, res.Text, "Average per month: ₹110.00")

	res = Execute(env, "category_summary", model.Arguments{"category": "groceries", "mode": "count", "month": []string{"2025-05", "2025-06"}})
	require.Nil(t, res.Failure)
	assert.Equal(t, "Count for category 'Groceries' in 2025-05, 2025-06:\n- Transactions: 3", res.Text)
}

func TestExecuteSummarizeMemory(t *testing.T) {
	env := testEnv(t)
	list := Execute(env, "list_month_expenses", model.Arguments{"month": "2025-06"})
	require.Nil(t, list.Failure)

	env.Memory = []model.MemoryEntry{
		{Query: "june expenses", Operation: "list_month_expenses", Answer: list.Text},
		{Query: "summary", Operation: "summarize_memory", Answer: "- x | Rent | ₹99.00 | ignored"},
		{Query: "rent total", Operation: "sum_category_expenses", Answer: "Total spent on 'Rent': ₹2000.00"},
	}
	res := Execute(env, "summarize_memory", nil)
	require.Nil(t, res.Failure)
	assert.Contains(t, res.Text, "Summary of 3 past queries")
	assert.Contains(t, res.Text, "Total recorded spending: ₹1420.00")
	assert.Contains(t, res.Text, "- Rent: ₹1000.00\n- Shopping: ₹300.00\n- Groceries: ₹120.00")
}

func TestCatalog(t *testing.T) {
	all := All()
	require.Len(t, all, 9)
	for _, op := range all {
		got, ok := Lookup(string(op.Name()))
		require.True(t, ok)
		assert.Equal(t, op.Name(), got.Name())
		assert.NotEmpty(t, op.Summary())
		assert.NotEmpty(t, op.Examples())
	}

	op, _ := Lookup("sum_category_expenses")
	params := op.Params()
	require.Len(t, params, 2)
	assert.Equal(t, Param{Name: "category", Type: "string", Description: "expense category, fuzzy matched", Required: true}, params[0])
	assert.Equal(t, "month", params[1].Name)
	assert.False(t, params[1].Required)

	assert.True(t, Declares(op, "month"))
	assert.False(t, Declares(op, "months"))

	op, _ = Lookup("compare_category")
	assert.Equal(t, "array", op.Params()[2].Type)
}

func TestDescribe(t *testing.T) {
	desc := Describe()
	for _, op := range All() {
		assert.Contains(t, desc, "### "+string(op.Name()))
	}
	assert.Contains(t, desc, "Required: category (string): expense category, fuzzy matched")
	assert.Contains(t, desc, `Example: "How much did I spend on rent?" -> {"operation": "sum_category_expenses", "category": "rent"}`)
}

func TestIntentJSON(t *testing.T) {
	got := IntentJSON(CompareMonths, model.Arguments{"month2": "2025-06", "month1": "2025-05"})
	assert.Equal(t, `{"operation": "compare_months", "month1": "2025-05", "month2": "2025-06"}`, got)
}

func TestIsTimeKey(t *testing.T) {
	for _, k := range []string{"month", "months", "month1", "month2"} {
		assert.True(t, IsTimeKey(k))
	}
	assert.False(t, IsTimeKey("category"))
}
