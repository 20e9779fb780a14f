package store

import (
	"context"
	"os"
)

// Stats holds database statistics.
type Stats struct {
	DBPath         string           `json:"db_path"`
	DBSizeBytes    int64            `json:"db_size_bytes"`
	TotalSessions  int              `json:"total_sessions"`
	ActiveSessions int              `json:"active_sessions"`
	TotalEntries   int              `json:"total_entries"`
	ActiveEntries  int              `json:"active_entries"`
	Routes         []RouteStats     `json:"routes"`
	Operations     []OperationStats `json:"operations"`
}

// RouteStats counts live entries per answering route.
type RouteStats struct {
	Route string `json:"route"`
	Count int    `json:"count"`
}

// OperationStats counts live entries per operation.
type OperationStats struct {
	Operation string `json:"operation"`
	Count     int    `json:"count"`
	Sessions  int    `json:"sessions"`
}

// Stats returns database statistics.
func (s *SQLiteStore) Stats(ctx context.Context, dbPath string) (*Stats, error) {
	st := &Stats{DBPath: dbPath}

	if info, err := os.Stat(dbPath); err == nil {
		st.DBSizeBytes = info.Size()
	}

	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&st.TotalSessions)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions WHERE deleted_at IS NULL`).Scan(&st.ActiveSessions)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memory_entries`).Scan(&st.TotalEntries)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memory_entries WHERE deleted_at IS NULL`).Scan(&st.ActiveEntries)

	rows, err := s.db.QueryContext(ctx, `
		SELECT route, COUNT(*) AS cnt
		FROM memory_entries WHERE deleted_at IS NULL
		GROUP BY route ORDER BY cnt DESC, route`)
	if err != nil {
		return st, err
	}
	for rows.Next() {
		var r RouteStats
		rows.Scan(&r.Route, &r.Count)
		st.Routes = append(st.Routes, r)
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx, `
		SELECT operation, COUNT(*) AS cnt, COUNT(DISTINCT session_id) AS sessions
		FROM memory_entries WHERE deleted_at IS NULL
		GROUP BY operation ORDER BY cnt DESC, operation`)
	if err != nil {
		return st, err
	}
	defer rows.Close()

	for rows.Next() {
		var op OperationStats
		rows.Scan(&op.Operation, &op.Count, &op.Sessions)
		st.Operations = append(st.Operations, op)
	}

	return st, nil
}
