// Package ledger holds the read-only transaction table the operations
// aggregate over.
package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/rcliao/expense-assistant/internal/model"
)

// Table is an immutable, date-ordered set of transactions.
type Table struct {
	rows       []model.Transaction
	categories []string
}

// NewTable copies rows into a Table ordered by date. Rows with a negative
// amount or a zero date are dropped.
func NewTable(rows []model.Transaction) *Table {
	kept := make([]model.Transaction, 0, len(rows))
	seen := map[string]bool{}
	var cats []string
	for _, r := range rows {
		if r.Date.IsZero() || r.Amount.IsNegative() {
			continue
		}
		kept = append(kept, r)
		if !seen[r.Category] {
			seen[r.Category] = true
			cats = append(cats, r.Category)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Date.Before(kept[j].Date) })
	return &Table{rows: kept, categories: cats}
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Rows returns a copy of the rows.
func (t *Table) Rows() []model.Transaction {
	return append([]model.Transaction(nil), t.rows...)
}

// Categories returns the distinct categories in first-seen order.
func (t *Table) Categories() []string {
	return append([]string(nil), t.categories...)
}

// Filter returns the rows accepted by every predicate.
func (t *Table) Filter(preds ...Predicate) []model.Transaction {
	var out []model.Transaction
	for _, r := range t.rows {
		ok := true
		for _, p := range preds {
			if !p(r) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, r)
		}
	}
	return out
}

// Predicate selects rows.
type Predicate func(model.Transaction) bool

// InCategory matches rows of exactly category.
func InCategory(category string) Predicate {
	return func(r model.Transaction) bool { return r.Category == category }
}

// InMonths matches rows whose YYYY-MM is one of months.
func InMonths(months ...string) Predicate {
	set := make(map[string]bool, len(months))
	for _, m := range months {
		set[m] = true
	}
	return func(r model.Transaction) bool { return set[r.Month()] }
}

// Between matches rows dated within [start, end], compared by day.
func Between(start, end string) Predicate {
	return func(r model.Transaction) bool {
		d := r.Date.Format("2006-01-02")
		return d >= start && d <= end
	}
}

// Sum totals the amounts of rows.
func Sum(rows []model.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.Amount)
	}
	return total
}
