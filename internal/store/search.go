package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/rcliao/expense-assistant/internal/model"
)

// SearchParams holds parameters for searching memory entries.
type SearchParams struct {
	SessionID string
	Query     string
	Operation string
	Limit     int
}

// Search finds live entries whose query or answer contain the query substring.
func (s *SQLiteStore) Search(ctx context.Context, p SearchParams) ([]model.MemoryEntry, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}

	query := "%" + p.Query + "%"

	where := []string{"e.deleted_at IS NULL", "s.deleted_at IS NULL"}
	args := []interface{}{}

	if p.SessionID != "" {
		where = append(where, "e.session_id = ?")
		args = append(args, p.SessionID)
	}
	if p.Operation != "" {
		where = append(where, "e.operation = ?")
		args = append(args, p.Operation)
	}

	sql := fmt.Sprintf(`
		SELECT e.id, e.session_id, e.seq, e.query, e.operation, e.arguments, e.answer, e.route, e.created_at
		FROM memory_entries e
		INNER JOIN sessions s ON s.id = e.session_id
		WHERE %s AND (e.query LIKE ? OR e.answer LIKE ?)
		ORDER BY e.created_at DESC, e.seq DESC
		LIMIT ?`, strings.Join(where, " AND "))

	args = append(args, query, query, limit)

	rows, err := s.db.QueryContext(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.MemoryEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, e)
	}
	return results, rows.Err()
}
