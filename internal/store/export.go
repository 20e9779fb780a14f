package store

import (
	"context"
	"strings"
	"time"

	"github.com/rcliao/expense-assistant/internal/model"
)

// ExportAll returns all live entries, optionally filtered by session,
// ordered by session and sequence.
func (s *SQLiteStore) ExportAll(ctx context.Context, sessionID string) ([]model.MemoryEntry, error) {
	where := []string{"deleted_at IS NULL"}
	args := []interface{}{}

	if sessionID != "" {
		where = append(where, "session_id = ?")
		args = append(args, sessionID)
	}

	query := `SELECT ` + entryColumns + `
	          FROM memory_entries WHERE ` + strings.Join(where, " AND ") + ` ORDER BY session_id, seq`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.MemoryEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Import stores entries from an export, creating their sessions as needed.
// Skips duplicates (same session+seq). Entries without a session go to
// defaultSession.
func (s *SQLiteStore) Import(ctx context.Context, entries []model.MemoryEntry, defaultSession string) (int, error) {
	opened := map[string]bool{}
	imported := 0
	for _, e := range entries {
		if e.SessionID == "" {
			e.SessionID = defaultSession
		}
		if !opened[e.SessionID] {
			sess, err := s.OpenSession(ctx, SessionParams{ID: e.SessionID})
			if err != nil {
				return imported, err
			}
			e.SessionID = sess.ID
			opened[sess.ID] = true
			if defaultSession == "" {
				defaultSession = sess.ID
			}
		}
		e.ID = s.newID()
		if e.CreatedAt.IsZero() {
			e.CreatedAt = time.Now().UTC()
		}
		ok, err := insertEntry(ctx, s.db, e, true)
		if err != nil {
			return imported, err
		}
		if ok {
			imported++
		}
	}
	return imported, nil
}
