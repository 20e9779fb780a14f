package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/rcliao/expense-assistant/internal/model"
)

// ErrNotFound is returned when a session does not exist or was deleted.
var ErrNotFound = errors.New("not found")

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db      *sql.DB
	entropy *rand.Rand
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{
		db:      db,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL DEFAULT '',
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL,
		deleted_at  TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at DESC);

	CREATE TABLE IF NOT EXISTS memory_entries (
		id          TEXT PRIMARY KEY,
		session_id  TEXT NOT NULL REFERENCES sessions(id),
		seq         INTEGER NOT NULL,
		query       TEXT NOT NULL,
		operation   TEXT NOT NULL,
		arguments   TEXT NOT NULL DEFAULT '{}',
		answer      TEXT NOT NULL,
		route       TEXT NOT NULL DEFAULT '',
		created_at  TEXT NOT NULL,
		deleted_at  TEXT
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_entries_session_seq
		ON memory_entries(session_id, seq) WHERE deleted_at IS NULL;
	CREATE INDEX IF NOT EXISTS idx_entries_operation ON memory_entries(operation);
	CREATE INDEX IF NOT EXISTS idx_entries_created ON memory_entries(created_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) OpenSession(ctx context.Context, p SessionParams) (*model.Session, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	id := p.ID
	if id == "" {
		id = s.newID()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET deleted_at = NULL,
			name = CASE WHEN excluded.name != '' THEN excluded.name ELSE sessions.name END`,
		id, p.Name, now, now)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	return s.GetSession(ctx, id)
}

func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*model.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions s WHERE s.id = ? AND s.deleted_at IS NULL`, id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *SQLiteStore) ListSessions(ctx context.Context, p ListSessionsParams) ([]model.Session, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 50
	}
	where := "s.deleted_at IS NULL"
	if p.IncludeDeleted {
		where = "1=1"
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions s WHERE `+where+`
		ORDER BY s.updated_at DESC, s.id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

func (s *SQLiteStore) Append(ctx context.Context, sessionID string, entries []model.MemoryEntry) ([]model.MemoryEntry, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	out := make([]model.MemoryEntry, 0, len(entries))
	for _, e := range entries {
		e.ID = s.newID()
		e.SessionID = sessionID
		if e.CreatedAt.IsZero() {
			e.CreatedAt = now
		}
		if _, err := insertEntry(ctx, tx, e, false); err != nil {
			return nil, fmt.Errorf("append entry %d: %w", e.Seq, err)
		}
		out = append(out, e)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE sessions SET updated_at = ? WHERE id = ?`,
		now.Format(time.RFC3339), sessionID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLiteStore) History(ctx context.Context, p HistoryParams) ([]model.MemoryEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM memory_entries
		WHERE session_id = ? AND deleted_at IS NULL ORDER BY seq`
	args := []interface{}{p.SessionID}
	if p.Limit > 0 {
		// Most recent Limit entries, still returned oldest first.
		query = `SELECT * FROM (SELECT ` + entryColumns + ` FROM memory_entries
			WHERE session_id = ? AND deleted_at IS NULL ORDER BY seq DESC LIMIT ?) ORDER BY seq`
		args = append(args, p.Limit)
	}

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

func (s *SQLiteStore) Clear(ctx context.Context, p ClearParams) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var res sql.Result
	if p.Hard {
		res, err = tx.ExecContext(ctx, `DELETE FROM memory_entries WHERE session_id = ?`, p.SessionID)
		if err == nil {
			_, err = tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, p.SessionID)
		}
	} else {
		now := time.Now().UTC().Format(time.RFC3339)
		res, err = tx.ExecContext(ctx, `UPDATE memory_entries SET deleted_at = ?
			WHERE session_id = ? AND deleted_at IS NULL`, now, p.SessionID)
		if err == nil {
			_, err = tx.ExecContext(ctx, `UPDATE sessions SET deleted_at = ?
				WHERE id = ? AND deleted_at IS NULL`, now, p.SessionID)
		}
	}
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), tx.Commit()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// insertEntry writes e. With ignoreDuplicates, an existing live entry at
// the same session and sequence is left untouched and false is returned.
func insertEntry(ctx context.Context, db execer, e model.MemoryEntry, ignoreDuplicates bool) (bool, error) {
	verb := "INSERT"
	if ignoreDuplicates {
		verb = "INSERT OR IGNORE"
	}
	res, err := db.ExecContext(ctx, verb+` INTO memory_entries
		(id, session_id, seq, query, operation, arguments, answer, route, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.SessionID, e.Seq, e.Query, e.Operation, e.ArgumentsJSON(),
		e.Answer, e.Route, e.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

const sessionColumns = `s.id, s.name, s.created_at, s.updated_at, s.deleted_at,
	(SELECT COUNT(*) FROM memory_entries e WHERE e.session_id = s.id AND e.deleted_at IS NULL)`

const entryColumns = `id, session_id, seq, query, operation, arguments, answer, route, created_at`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row scanner) (model.Session, error) {
	var sess model.Session
	var createdAt, updatedAt string
	var deletedAt sql.NullString

	if err := row.Scan(&sess.ID, &sess.Name, &createdAt, &updatedAt, &deletedAt, &sess.Entries); err != nil {
		return sess, err
	}
	sess.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	sess.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	if deletedAt.Valid {
		t, _ := time.Parse(time.RFC3339, deletedAt.String)
		sess.DeletedAt = &t
	}
	return sess, nil
}

func scanEntry(row scanner) (model.MemoryEntry, error) {
	var e model.MemoryEntry
	var argsJSON, createdAt string

	err := row.Scan(&e.ID, &e.SessionID, &e.Seq, &e.Query, &e.Operation,
		&argsJSON, &e.Answer, &e.Route, &createdAt)
	if err != nil {
		return e, err
	}
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	e.Arguments = model.Arguments{}
	json.Unmarshal([]byte(argsJSON), &e.Arguments)
	return e, nil
}
