package ops

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rcliao/expense-assistant/internal/model"
)

// summarizeEntries totals the expense lines ("date | category | amount |
// note") found in earlier answers, grouped by category. Entries produced
// by summarize_memory itself are skipped.
func summarizeEntries(env *Env, entries []model.MemoryEntry) string {
	symbol := env.Currency
	if symbol == "" {
		symbol = DefaultCurrency
	}

	totals := map[string]decimal.Decimal{}
	var order []string
	grand := decimal.Zero
	found := 0
	for _, e := range entries {
		if e.Operation == string(SummarizeMemory) {
			continue
		}
		fallback, _ := e.Arguments.String("category")
		for _, line := range strings.Split(e.Answer, "\n") {
			if !strings.Contains(line, "|") || !strings.Contains(line, symbol) {
				continue
			}
			parts := strings.Split(line, "|")
			if len(parts) < 3 {
				continue
			}
			cat := strings.TrimSpace(parts[1])
			if cat == "" {
				cat = fallback
			}
			if cat == "" {
				cat = "Unknown"
			}
			raw := strings.NewReplacer(symbol, "", ",", "").Replace(strings.TrimSpace(parts[2]))
			amt, err := decimal.NewFromString(strings.TrimSpace(raw))
			if err != nil {
				continue
			}
			if _, ok := totals[cat]; !ok {
				order = append(order, cat)
			}
			totals[cat] = totals[cat].Add(amt)
			grand = grand.Add(amt)
			found++
		}
	}
	if found == 0 {
		return "No valid expenses found in memory."
	}

	sort.SliceStable(order, func(i, j int) bool { return totals[order[i]].GreaterThan(totals[order[j]]) })
	var b strings.Builder
	fmt.Fprintf(&b, "Summary of %d past queries:\n\n", len(entries))
	fmt.Fprintf(&b, "Total recorded spending: %s\n\n", env.money(grand))
	b.WriteString("Top spending categories:")
	for _, c := range order {
		fmt.Fprintf(&b, "\n- %s: %s", c, env.money(totals[c]))
	}
	return b.String()
}
