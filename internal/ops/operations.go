package ops

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rcliao/expense-assistant/internal/ledger"
	"github.com/rcliao/expense-assistant/internal/model"
)

const defaultTopN = 3

type topNArgs struct {
	Category string `json:"category,omitempty" jsonschema:"expense category, fuzzy matched"`
	Month    string `json:"month,omitempty" jsonschema:"month as YYYY-MM or a phrase like 'last month'"`
	N        int    `json:"n,omitempty" jsonschema:"number of expenses to return, default 3"`
}

var topNExpenses = define(TopNExpenses,
	"Find the N largest expenses, optionally filtered by category and month.",
	func(env *Env, a topNArgs) (Output, *model.StepFailure) {
		n := a.N
		if n == 0 {
			n = defaultTopN
		}
		if n < 0 {
			return Output{}, model.Fail(model.InvalidArguments, "n must be positive, got %d", n)
		}

		var preds []ledger.Predicate
		title := fmt.Sprintf("Top %d expenses", n)
		if a.Category != "" {
			cat, f := env.category(a.Category)
			if f != nil {
				return Output{}, f
			}
			preds = append(preds, ledger.InCategory(cat))
			title += fmt.Sprintf(" in category '%s'", cat)
		}
		if a.Month != "" {
			month, f := env.month(a.Month)
			if f != nil {
				return Output{}, f
			}
			preds = append(preds, ledger.InMonths(month))
			title += " for " + month
		}

		rows := env.Table.Filter(preds...)
		if len(rows) == 0 {
			return Output{Text: "No matching expenses found."}, nil
		}
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Amount.GreaterThan(rows[j].Amount) })
		if len(rows) > n {
			rows = rows[:n]
		}

		var b strings.Builder
		b.WriteString(title + ":\n\n")
		for i, r := range rows {
			fmt.Fprintf(&b, "%d. %s - %s (%s)\n", i+1, r.Note, env.money(r.Amount), day(r.Date))
		}
		fmt.Fprintf(&b, "\nTotal: %s", env.money(ledger.Sum(rows)))
		return Output{Text: b.String()}, nil
	},
	Example{"What are my top 5 expenses?", model.Arguments{"n": 5}},
	Example{"Biggest grocery purchases last month", model.Arguments{"category": "groceries", "month": "last month"}},
)

type listMonthArgs struct {
	Month    string `json:"month" jsonschema:"month as YYYY-MM or a phrase like 'this month'"`
	Category string `json:"category,omitempty" jsonschema:"expense category, fuzzy matched"`
}

var listMonthExpenses = define(ListMonthExpenses,
	"List every expense in a month, optionally filtered by category.",
	func(env *Env, a listMonthArgs) (Output, *model.StepFailure) {
		month, f := env.month(a.Month)
		if f != nil {
			return Output{}, f
		}
		preds := []ledger.Predicate{ledger.InMonths(month)}
		title := "Expenses in " + month
		if a.Category != "" {
			cat, f := env.category(a.Category)
			if f != nil {
				return Output{}, f
			}
			preds = append(preds, ledger.InCategory(cat))
			title += fmt.Sprintf(" (Category: %s)", cat)
		}

		rows := env.Table.Filter(preds...)
		if len(rows) == 0 {
			return Output{Text: fmt.Sprintf("No expenses found for %s.", month)}, nil
		}
		return Output{Text: listing(env, title, rows)}, nil
	},
	Example{"Show my shopping expenses in June 2025", model.Arguments{"month": "2025-06", "category": "shopping"}},
	Example{"What did I spend on last month?", model.Arguments{"month": "last month"}},
)

type sumCategoryArgs struct {
	Category string `json:"category" jsonschema:"expense category, fuzzy matched"`
	Month    string `json:"month,omitempty" jsonschema:"month as YYYY-MM or a phrase like 'last month'"`
}

var sumCategoryExpenses = define(SumCategoryExpenses,
	"Total spending in one category, optionally within a month.",
	func(env *Env, a sumCategoryArgs) (Output, *model.StepFailure) {
		cat, f := env.category(a.Category)
		if f != nil {
			return Output{}, f
		}
		preds := []ledger.Predicate{ledger.InCategory(cat)}
		scope := ""
		if a.Month != "" {
			month, f := env.month(a.Month)
			if f != nil {
				return Output{}, f
			}
			preds = append(preds, ledger.InMonths(month))
			scope = " in " + month
		}

		rows := env.Table.Filter(preds...)
		if len(rows) == 0 {
			return Output{Text: fmt.Sprintf("No expenses found in category '%s'%s.", cat, scope)}, nil
		}
		return Output{Text: fmt.Sprintf("Total spent on '%s'%s: %s", cat, scope, env.money(ledger.Sum(rows)))}, nil
	},
	Example{"How much did I spend on rent?", model.Arguments{"category": "rent"}},
	Example{"Total groceries in May 2025", model.Arguments{"category": "groceries", "month": "2025-05"}},
)

type dateRangeArgs struct {
	StartDate string `json:"start_date" jsonschema:"first day, YYYY-MM-DD, inclusive"`
	EndDate   string `json:"end_date" jsonschema:"last day, YYYY-MM-DD, inclusive"`
	Category  string `json:"category,omitempty" jsonschema:"expense category, fuzzy matched"`
}

var dateRangeExpense = define(DateRangeExpense,
	"List and total expenses between two dates (inclusive), optionally by category.",
	func(env *Env, a dateRangeArgs) (Output, *model.StepFailure) {
		start, ok := ledger.ParseDate(a.StartDate)
		if !ok {
			return Output{}, model.Fail(model.InvalidArguments, "invalid start_date '%s'", a.StartDate)
		}
		end, ok := ledger.ParseDate(a.EndDate)
		if !ok {
			return Output{}, model.Fail(model.InvalidArguments, "invalid end_date '%s'", a.EndDate)
		}
		if end.Before(start) {
			return Output{}, model.Fail(model.InvalidArguments, "end_date %s is before start_date %s", day(end), day(start))
		}

		preds := []ledger.Predicate{ledger.Between(day(start), day(end))}
		title := fmt.Sprintf("Expenses from %s to %s", day(start), day(end))
		if a.Category != "" {
			cat, f := env.category(a.Category)
			if f != nil {
				return Output{}, f
			}
			preds = append(preds, ledger.InCategory(cat))
			title += fmt.Sprintf(" in category '%s'", cat)
		}

		rows := env.Table.Filter(preds...)
		if len(rows) == 0 {
			return Output{Text: fmt.Sprintf("No expenses found from %s to %s.", day(start), day(end))}, nil
		}
		return Output{Text: listing(env, title, rows)}, nil
	},
	Example{"Expenses between 2025-06-01 and 2025-06-15", model.Arguments{"start_date": "2025-06-01", "end_date": "2025-06-15"}},
)

type summarizeMemoryArgs struct{}

var summarizeMemory = define(SummarizeMemory,
	"Summarize the expenses listed in earlier answers of this conversation.",
	func(env *Env, _ summarizeMemoryArgs) (Output, *model.StepFailure) {
		if len(env.Memory) == 0 {
			return Output{Text: "Memory is empty. No spending history to summarize."}, nil
		}
		return Output{Text: summarizeEntries(env, env.Memory)}, nil
	},
	Example{"Summarize what we've looked at so far", model.Arguments{}},
)

type compareMonthsArgs struct {
	Month1   string `json:"month1" jsonschema:"earlier month, YYYY-MM or phrase"`
	Month2   string `json:"month2" jsonschema:"later month, YYYY-MM or phrase"`
	Category string `json:"category,omitempty" jsonschema:"expense category, fuzzy matched"`
}

var compareMonths = define(CompareMonths,
	"Compare total spending between two months, optionally for one category.",
	func(env *Env, a compareMonthsArgs) (Output, *model.StepFailure) {
		m1, f := env.month(a.Month1)
		if f != nil {
			return Output{}, f
		}
		m2, f := env.month(a.Month2)
		if f != nil {
			return Output{}, f
		}
		var preds []ledger.Predicate
		title := fmt.Sprintf("Comparison of %s vs %s", m1, m2)
		if a.Category != "" {
			cat, f := env.category(a.Category)
			if f != nil {
				return Output{}, f
			}
			preds = append(preds, ledger.InCategory(cat))
			title += fmt.Sprintf(" in category '%s'", cat)
		}

		s1 := ledger.Sum(env.Table.Filter(append(preds, ledger.InMonths(m1))...))
		s2 := ledger.Sum(env.Table.Filter(append(preds, ledger.InMonths(m2))...))
		diff := s2.Sub(s1)
		trend := "no change"
		switch diff.Sign() {
		case 1:
			trend = "increase"
		case -1:
			trend = "decrease"
		}
		text := fmt.Sprintf("%s:\n- %s: %s\n- %s: %s\n- Difference: %s (%s)",
			title, m1, env.money(s1), m2, env.money(s2), env.money(diff.Abs()), trend)
		return Output{Text: text}, nil
	},
	Example{"Compare May vs June groceries", model.Arguments{"month1": "2025-05", "month2": "2025-06", "category": "groceries"}},
)

type compareCategoryArgs struct {
	Category1 string   `json:"category1" jsonschema:"first category, fuzzy matched"`
	Category2 string   `json:"category2" jsonschema:"second category, fuzzy matched"`
	Months    MonthSet `json:"months,omitempty" jsonschema:"months to include, YYYY-MM or a phrase like 'last 3 months'"`
}

var compareCategory = define(CompareCategory,
	"Compare spending between two categories month by month.",
	func(env *Env, a compareCategoryArgs) (Output, *model.StepFailure) {
		c1, f := env.category(a.Category1)
		if f != nil {
			return Output{}, f
		}
		c2, f := env.category(a.Category2)
		if f != nil {
			return Output{}, f
		}
		var preds []ledger.Predicate
		if len(a.Months) > 0 {
			months, f := env.months(a.Months)
			if f != nil {
				return Output{}, f
			}
			preds = append(preds, ledger.InMonths(months...))
		}

		rows1 := env.Table.Filter(append(preds, ledger.InCategory(c1))...)
		rows2 := env.Table.Filter(append(preds, ledger.InCategory(c2))...)
		by1, by2 := sumByMonth(rows1), sumByMonth(rows2)
		labels := monthLabels(by1, by2)

		chart := &model.Chart{
			Title:  fmt.Sprintf("%s vs %s Spending by Month", c1, c2),
			Kind:   "bar",
			Labels: labels,
			Series: []model.Series{{Name: c1}, {Name: c2}},
		}
		for _, m := range labels {
			chart.Series[0].Values = append(chart.Series[0].Values, by1[m].InexactFloat64())
			chart.Series[1].Values = append(chart.Series[1].Values, by2[m].InexactFloat64())
		}

		t1, t2 := ledger.Sum(rows1), ledger.Sum(rows2)
		higher := "both categories equally"
		switch t1.Cmp(t2) {
		case 1:
			higher = c1
		case -1:
			higher = c2
		}
		text := fmt.Sprintf("Comparison of '%s' vs '%s':\n- Total %s: %s\n- Total %s: %s\n- Higher spend: %s",
			c1, c2, c1, env.money(t1), c2, env.money(t2), higher)
		return Output{Text: text, Chart: chart}, nil
	},
	Example{"Did I spend more on food or shopping in the last 3 months?", model.Arguments{"category1": "food", "category2": "shopping", "months": "last 3 months"}},
)

type averageCategoryArgs struct {
	Category string   `json:"category" jsonschema:"expense category, fuzzy matched"`
	Months   MonthSet `json:"months,omitempty" jsonschema:"months to include, YYYY-MM or a phrase like 'this year'"`
}

var averageCategoryExpense = define(AverageCategoryExpense,
	"Average expense amount per month for a category.",
	func(env *Env, a averageCategoryArgs) (Output, *model.StepFailure) {
		cat, f := env.category(a.Category)
		if f != nil {
			return Output{}, f
		}
		preds := []ledger.Predicate{ledger.InCategory(cat)}
		if len(a.Months) > 0 {
			months, f := env.months(a.Months)
			if f != nil {
				return Output{}, f
			}
			preds = append(preds, ledger.InMonths(months...))
		}

		rows := env.Table.Filter(preds...)
		if len(rows) == 0 {
			return Output{Text: fmt.Sprintf("No data found for '%s' in selected months.", cat)}, nil
		}

		sums, counts := sumByMonth(rows), countByMonth(rows)
		labels := monthLabels(sums)
		chart := &model.Chart{
			Title:  fmt.Sprintf("Average %s Expense by Month", cat),
			Kind:   "bar",
			Labels: labels,
			Series: []model.Series{{Name: cat}},
		}
		var b strings.Builder
		fmt.Fprintf(&b, "Average expense per month for '%s':", cat)
		for _, m := range labels {
			avg := sums[m].Div(decimal.NewFromInt(int64(counts[m])))
			fmt.Fprintf(&b, "\n- %s: %s", m, env.money(avg))
			chart.Series[0].Values = append(chart.Series[0].Values, avg.Round(2).InexactFloat64())
		}
		return Output{Text: b.String(), Chart: chart}, nil
	},
	Example{"Average rent this year", model.Arguments{"category": "rent", "months": "this year"}},
)

type categorySummaryArgs struct {
	Category string   `json:"category" jsonschema:"expense category, fuzzy matched"`
	Mode     string   `json:"mode,omitempty" jsonschema:"total, average or count; default total"`
	Month    MonthSet `json:"month,omitempty" jsonschema:"month or months to include, YYYY-MM or phrase"`
}

var categorySummary = define(CategorySummary,
	"Summarize a category as a total, a monthly average, or a transaction count.",
	func(env *Env, a categorySummaryArgs) (Output, *model.StepFailure) {
		mode := strings.ToLower(strings.TrimSpace(a.Mode))
		if mode == "" {
			mode = "total"
		}
		if mode != "total" && mode != "average" && mode != "count" {
			return Output{}, model.Fail(model.InvalidArguments, "invalid mode '%s'. Choose from total, average, count", a.Mode)
		}
		cat, f := env.category(a.Category)
		if f != nil {
			return Output{}, f
		}
		preds := []ledger.Predicate{ledger.InCategory(cat)}
		scope := ""
		if len(a.Month) > 0 {
			months, f := env.months(a.Month)
			if f != nil {
				return Output{}, f
			}
			preds = append(preds, ledger.InMonths(months...))
			scope = " in " + strings.Join(months, ", ")
		}

		rows := env.Table.Filter(preds...)
		if len(rows) == 0 {
			return Output{Text: fmt.Sprintf("No records found for '%s'%s.", cat, scope)}, nil
		}

		text := fmt.Sprintf("%s%s for category '%s'%s:\n", strings.ToUpper(mode[:1]), mode[1:], cat, scope)
		switch mode {
		case "total":
			text += "- Total: " + env.money(ledger.Sum(rows))
		case "average":
			sums := sumByMonth(rows)
			avg := ledger.Sum(rows).Div(decimal.NewFromInt(int64(len(sums))))
			text += "- Average per month: " + env.money(avg)
		case "count":
			text += fmt.Sprintf("- Transactions: %d", len(rows))
		}
		return Output{Text: text}, nil
	},
	Example{"How many times did I buy coffee last month?", model.Arguments{"category": "coffee", "mode": "count", "month": "last month"}},
	Example{"Average monthly shopping spend", model.Arguments{"category": "shopping", "mode": "average"}},
)

// listing renders rows as "- date | category | amount | note" lines
// followed by their total.
func listing(env *Env, title string, rows []model.Transaction) string {
	var b strings.Builder
	b.WriteString(title + ":\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "- %s | %s | %s | %s\n", day(r.Date), r.Category, env.money(r.Amount), r.Note)
	}
	fmt.Fprintf(&b, "\nTotal: %s", env.money(ledger.Sum(rows)))
	return b.String()
}

func sumByMonth(rows []model.Transaction) map[string]decimal.Decimal {
	out := map[string]decimal.Decimal{}
	for _, r := range rows {
		out[r.Month()] = out[r.Month()].Add(r.Amount)
	}
	return out
}

func countByMonth(rows []model.Transaction) map[string]int {
	out := map[string]int{}
	for _, r := range rows {
		out[r.Month()]++
	}
	return out
}

func monthLabels(sets ...map[string]decimal.Decimal) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range sets {
		for m := range s {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	sort.Strings(out)
	return out
}

func day(t time.Time) string { return t.Format("2006-01-02") }
