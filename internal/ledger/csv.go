package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/shopspring/decimal"

	"github.com/rcliao/expense-assistant/internal/model"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02-01-2006",
	"02/01/2006",
	"2-1-2006",
	"2/1/2006",
	"02 Jan 2006",
	"Jan 2, 2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// ParseDate parses the date formats ledgers commonly use. Day-first
// layouts win over month-first ones.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// ParseAmount parses an amount, tolerating currency symbols and thousands
// separators.
func ParseAmount(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer(",", "", "₹", "", "$", "", "€", "", "£", "", " ", "").Replace(s)
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// LoadCSV reads a ledger CSV through an in-memory DuckDB. The file needs
// date, category and amount columns (any case); a notes or note column is
// optional. Rows with an unparseable date or amount are dropped.
func LoadCSV(ctx context.Context, path string) (*Table, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	defer db.Close()

	q := fmt.Sprintf("SELECT * FROM read_csv_auto('%s', all_varchar=true, header=true)",
		strings.ReplaceAll(path, "'", "''"))
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("read csv %s: %w", path, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	idx, err := columnIndex(cols)
	if err != nil {
		return nil, err
	}

	var txs []model.Transaction
	vals := make([]sql.NullString, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		date, ok := ParseDate(vals[idx.date].String)
		if !ok {
			continue
		}
		amount, ok := ParseAmount(vals[idx.amount].String)
		if !ok || amount.IsNegative() {
			continue
		}
		tx := model.Transaction{
			Date:     date,
			Category: strings.TrimSpace(vals[idx.category].String),
			Amount:   amount,
		}
		if idx.note >= 0 {
			tx.Note = strings.TrimSpace(vals[idx.note].String)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return NewTable(txs), nil
}

type columns struct {
	date, category, amount, note int
}

func columnIndex(cols []string) (columns, error) {
	idx := columns{date: -1, category: -1, amount: -1, note: -1}
	for i, c := range cols {
		switch strings.ToLower(strings.TrimSpace(c)) {
		case "date":
			idx.date = i
		case "category":
			idx.category = i
		case "amount":
			idx.amount = i
		case "notes", "note", "description":
			if idx.note < 0 {
				idx.note = i
			}
		}
	}
	var missing []string
	if idx.date < 0 {
		missing = append(missing, "date")
	}
	if idx.category < 0 {
		missing = append(missing, "category")
	}
	if idx.amount < 0 {
		missing = append(missing, "amount")
	}
	if len(missing) > 0 {
		return idx, fmt.Errorf("csv missing required columns: %s", strings.Join(missing, ", "))
	}
	return idx, nil
}
