package cli

import (
	"context"
	"fmt"

	"github.com/rcliao/expense-assistant/internal/ledger"
	"github.com/rcliao/expense-assistant/internal/pipeline"
	"github.com/rcliao/expense-assistant/internal/session"
	"github.com/rcliao/expense-assistant/internal/store"
)

// conversation binds a pipeline to one persisted session. Memory is loaded
// once and every answered query appends its new entries to the store.
type conversation struct {
	store    store.Store
	pipeline *pipeline.Pipeline
	table    *ledger.Table
	memory   session.Memory
}

func (c *conversation) open(ctx context.Context, sessionID string) error {
	sess, err := c.store.OpenSession(ctx, store.SessionParams{ID: sessionID})
	if err != nil {
		return err
	}
	entries, err := c.store.History(ctx, store.HistoryParams{SessionID: sess.ID})
	if err != nil {
		return fmt.Errorf("load memory: %w", err)
	}
	c.memory = session.New(sess.ID, entries...)
	return nil
}

func (c *conversation) sessionID() string {
	return c.memory.ID()
}

// ask answers query and persists what it added to memory. The answer is
// returned even when saving fails.
func (c *conversation) ask(ctx context.Context, query string) (pipeline.Result, error) {
	before := c.memory.Len()
	res := c.pipeline.Run(ctx, query, c.table, c.memory)
	added := res.Memory.Since(before)
	if _, err := c.store.Append(ctx, c.memory.ID(), added); err != nil {
		return res, fmt.Errorf("save memory: %w", err)
	}
	c.memory = res.Memory
	return res, nil
}
