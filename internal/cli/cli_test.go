package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/expense-assistant/internal/ledger"
	"github.com/rcliao/expense-assistant/internal/llm"
	"github.com/rcliao/expense-assistant/internal/model"
	"github.com/rcliao/expense-assistant/internal/pipeline"
	"github.com/rcliao/expense-assistant/internal/store"
)

const rentPlan = `{"is_multi_step": false, "steps": [
	{"step_number": 1, "description": "Rent in May", "operation": "sum_category_expenses",
	 "arguments": {"category": "rent", "month": "2025-05"}}
], "synthesis_instruction": ""}`

func testTable() *ledger.Table {
	day := func(m time.Month, d int) time.Time { return time.Date(2025, m, d, 0, 0, 0, 0, time.UTC) }
	return ledger.NewTable([]model.Transaction{
		{Date: day(5, 1), Category: "Rent", Amount: decimal.NewFromInt(1000), Note: "May rent"},
		{Date: day(5, 5), Category: "Groceries", Amount: decimal.RequireFromString("40.50"), Note: "Veggies"},
		{Date: day(6, 1), Category: "Rent", Amount: decimal.NewFromInt(1000), Note: "June rent"},
	})
}

func newTestConversation(t *testing.T, s store.Store, sessionID string) *conversation {
	t.Helper()
	client := llm.ClientFunc(func(ctx context.Context, system, user string) (string, error) {
		return rentPlan, nil
	})
	p, err := pipeline.New(&pipeline.Config{LLM: client})
	require.NoError(t, err)

	c := &conversation{store: s, pipeline: p, table: testTable()}
	require.NoError(t, c.open(context.Background(), sessionID))
	return c
}

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestConversationPersistsMemory(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	c := newTestConversation(t, s, "s1")
	res, err := c.ask(ctx, "how much rent in may")
	require.NoError(t, err)
	assert.Equal(t, "Total spent on 'Rent' in 2025-05: ₹1000.00", res.Text)

	saved, err := s.History(ctx, store.HistoryParams{SessionID: "s1"})
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, 1, saved[0].Seq)
	assert.Equal(t, "sum_category_expenses", saved[0].Operation)
	assert.Equal(t, "Rent", saved[0].Arguments["category"])

	// A new process continuing the session sees the earlier answer.
	again := newTestConversation(t, s, "s1")
	assert.Equal(t, 1, again.memory.Len())
	_, err = again.ask(ctx, "and rent in may again")
	require.NoError(t, err)

	saved, _ = s.History(ctx, store.HistoryParams{SessionID: "s1"})
	require.Len(t, saved, 2)
	assert.Equal(t, 2, saved[1].Seq)
}

func TestConversationNewSession(t *testing.T) {
	s := newTestStore(t)
	c := newTestConversation(t, s, "")
	assert.NotEmpty(t, c.sessionID())

	sess, err := s.GetSession(context.Background(), c.sessionID())
	require.NoError(t, err)
	assert.Equal(t, 0, sess.Entries)
}

func TestChatLoop(t *testing.T) {
	s := newTestStore(t)
	c := newTestConversation(t, s, "chat")

	var out bytes.Buffer
	err := chatLoop(context.Background(), strings.NewReader("rent in may\n\nquit\nrent in june\n"), &out, c)
	require.NoError(t, err)

	assert.Contains(t, out.String(), `"session": "chat"`)
	assert.Contains(t, out.String(), "₹1000.00")
	assert.Equal(t, 1, c.memory.Len())
}

func TestChatLoopEOF(t *testing.T) {
	s := newTestStore(t)
	c := newTestConversation(t, s, "chat")

	var out bytes.Buffer
	require.NoError(t, chatLoop(context.Background(), strings.NewReader("rent in may"), &out, c))
	assert.Equal(t, 1, c.memory.Len())
}

func TestWriteMarkdown(t *testing.T) {
	var out bytes.Buffer
	at := time.Date(2025, 7, 15, 10, 0, 0, 0, time.UTC)
	writeMarkdown(&out, []model.MemoryEntry{
		{SessionID: "a", Seq: 1, Query: "rent in may", Operation: "sum_category_expenses",
			Arguments: model.Arguments{"category": "Rent"}, Answer: "₹1000.00", CreatedAt: at},
		{SessionID: "a", Seq: 2, Query: "top 3", Operation: "top_n_expenses", Answer: "Top 3", CreatedAt: at},
		{SessionID: "b", Seq: 1, Query: "june", Operation: "list_month_expenses", Answer: "Expenses", CreatedAt: at},
	})

	md := out.String()
	assert.Equal(t, 1, strings.Count(md, "## Session a"))
	assert.Contains(t, md, "## Session b")
	assert.Contains(t, md, "### 2. top 3")
	assert.Contains(t, md, "`sum_category_expenses` · {\"category\":\"Rent\"}")
}

func TestRenderChart(t *testing.T) {
	var out bytes.Buffer
	renderChart(&out, &model.Chart{
		Title:  "Rent vs Groceries",
		Kind:   "bar",
		Labels: []string{"2025-05", "2025-06"},
		Series: []model.Series{
			{Name: "Rent", Values: []float64{1000, 1000}},
			{Name: "Groceries", Values: []float64{40.5}},
		},
	})

	assert.Contains(t, out.String(), "Rent vs Groceries")
	assert.Contains(t, out.String(), "40.50")
	assert.Contains(t, out.String(), "2025-06")
}
