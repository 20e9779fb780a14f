package ledger

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/expense-assistant/internal/model"
)

func tx(date, category, amount, note string) model.Transaction {
	d, _ := time.Parse("2006-01-02", date)
	return model.Transaction{Date: d, Category: category, Amount: decimal.RequireFromString(amount), Note: note}
}

func TestNewTable(t *testing.T) {
	table := NewTable([]model.Transaction{
		tx("2025-06-03", "Rent", "1200", "June rent"),
		tx("2025-05-10", "Groceries", "50.25", "Market"),
		tx("2025-05-11", "Groceries", "-3", "refund"),
		{Category: "Broken", Amount: decimal.NewFromInt(1)},
	})

	require.Equal(t, 2, table.Len())
	rows := table.Rows()
	assert.Equal(t, "Market", rows[0].Note)
	assert.Equal(t, "June rent", rows[1].Note)
	assert.Equal(t, []string{"Rent", "Groceries"}, table.Categories())

	rows[0].Note = "changed"
	assert.Equal(t, "Market", table.Rows()[0].Note)
}

func TestFilter(t *testing.T) {
	table := NewTable([]model.Transaction{
		tx("2025-05-01", "Rent", "1000", ""),
		tx("2025-05-20", "Food", "20", ""),
		tx("2025-06-01", "Rent", "1000", ""),
		tx("2025-06-15", "Food", "35.50", ""),
	})

	food := table.Filter(InCategory("Food"))
	assert.Len(t, food, 2)
	assert.True(t, Sum(food).Equal(decimal.RequireFromString("55.50")))

	june := table.Filter(InMonths("2025-06"), InCategory("Rent"))
	assert.Len(t, june, 1)

	ranged := table.Filter(Between("2025-05-20", "2025-06-01"))
	assert.Len(t, ranged, 2)

	assert.True(t, Sum(nil).IsZero())
}

func TestParseDate(t *testing.T) {
	for _, in := range []string{"2025-06-03", "2025/06/03", "03-06-2025", "03/06/2025", "3/6/2025", "2025-06-03 10:11:12"} {
		d, ok := ParseDate(in)
		require.True(t, ok, in)
		assert.Equal(t, "2025-06-03", d.Format("2006-01-02"), in)
	}
	_, ok := ParseDate("not a date")
	assert.False(t, ok)
}

func TestParseAmount(t *testing.T) {
	d, ok := ParseAmount("₹1,250.50")
	require.True(t, ok)
	assert.Equal(t, "1250.5", d.String())

	_, ok = ParseAmount("abc")
	assert.False(t, ok)
	_, ok = ParseAmount("")
	assert.False(t, ok)
}

func TestColumnIndex(t *testing.T) {
	idx, err := columnIndex([]string{"Date", "Category", "Amount", "Notes"})
	require.NoError(t, err)
	assert.Equal(t, columns{date: 0, category: 1, amount: 2, note: 3}, idx)

	_, err = columnIndex([]string{"Date", "Notes"})
	assert.ErrorContains(t, err, "category, amount")
}

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.csv")
	csv := "Date,Category,Amount,Notes\n" +
		"2025-05-01,Rent,1000,May rent\n" +
		"2025-05-02,Groceries,45.10,Weekly shop\n" +
		"garbage,Groceries,10,bad date\n" +
		"2025-05-03,Groceries,oops,bad amount\n" +
		"2025-06-01,Rent,1000,June rent\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	table, err := LoadCSV(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())
	assert.Equal(t, []string{"Rent", "Groceries"}, table.Categories())
	assert.Equal(t, "Weekly shop", table.Rows()[1].Note)
}
