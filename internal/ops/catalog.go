package ops

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/rcliao/expense-assistant/internal/model"
)

var catalog = []Operation{
	topNExpenses,
	listMonthExpenses,
	sumCategoryExpenses,
	dateRangeExpense,
	summarizeMemory,
	compareMonths,
	compareCategory,
	averageCategoryExpense,
	categorySummary,
}

var byName = func() map[Name]Operation {
	m := make(map[Name]Operation, len(catalog))
	for _, op := range catalog {
		m[op.Name()] = op
	}
	return m
}()

// All returns the catalog in display order.
func All() []Operation {
	return append([]Operation(nil), catalog...)
}

// Lookup finds an operation by name.
func Lookup(name string) (Operation, bool) {
	op, ok := byName[Name(strings.TrimSpace(name))]
	return op, ok
}

// Time-valued argument keys. Their values pass through the time resolver
// before execution.
var timeKeys = map[string]bool{"month": true, "months": true, "month1": true, "month2": true}

// IsTimeKey reports whether key holds a time expression.
func IsTimeKey(key string) bool { return timeKeys[key] }

var categoryKeys = map[string]bool{"category": true, "category1": true, "category2": true}

// IsCategoryKey reports whether key names a ledger category.
func IsCategoryKey(key string) bool { return categoryKeys[key] }

// Declares reports whether op accepts an argument named key.
func Declares(op Operation, key string) bool {
	for _, p := range op.Params() {
		if p.Name == key {
			return true
		}
	}
	return false
}

// Describe renders the catalog for the language model: each operation with
// its arguments and example query to intent pairs.
func Describe() string {
	var b strings.Builder
	b.WriteString("Available operations:\n")
	for _, op := range catalog {
		fmt.Fprintf(&b, "\n### %s\n%s\n", op.Name(), op.Summary())
		var req, opt []string
		for _, p := range op.Params() {
			line := fmt.Sprintf("%s (%s)", p.Name, typeLabel(p.Type))
			if p.Description != "" {
				line += ": " + p.Description
			}
			if p.Required {
				req = append(req, line)
			} else {
				opt = append(opt, line)
			}
		}
		fmt.Fprintf(&b, "Required: %s\n", joinOrNone(req))
		fmt.Fprintf(&b, "Optional: %s\n", joinOrNone(opt))
		for _, ex := range op.Examples() {
			fmt.Fprintf(&b, "Example: %q -> %s\n", ex.Query, IntentJSON(op.Name(), ex.Arguments))
		}
	}
	return b.String()
}

// IntentJSON renders a flat intent object with the operation key first.
func IntentJSON(name Name, args model.Arguments) string {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, `{"operation": %q`, name)
	for _, k := range keys {
		v, err := json.Marshal(args[k])
		if err != nil {
			continue
		}
		fmt.Fprintf(&b, `, %q: %s`, k, v)
	}
	b.WriteString("}")
	return b.String()
}

func typeLabel(t string) string {
	if t == "array" {
		return "list of strings"
	}
	return t
}

func joinOrNone(s []string) string {
	if len(s) == 0 {
		return "none"
	}
	return strings.Join(s, "; ")
}
