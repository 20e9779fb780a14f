// Package store persists conversation sessions and their memory entries.
package store

import (
	"context"

	"github.com/rcliao/expense-assistant/internal/model"
)

// SessionParams holds parameters for opening a session.
type SessionParams struct {
	ID   string // empty creates a new session
	Name string
}

// HistoryParams holds parameters for reading a session's entries.
type HistoryParams struct {
	SessionID string
	Limit     int // 0 means all; otherwise the most recent Limit entries
}

// ListSessionsParams holds parameters for listing sessions.
type ListSessionsParams struct {
	Limit          int
	IncludeDeleted bool
}

// ClearParams holds parameters for deleting a session's memory.
type ClearParams struct {
	SessionID string
	Hard      bool
}

// Store defines the session storage interface.
type Store interface {
	// OpenSession returns the session with the given ID, creating it if
	// needed. A soft-deleted session is restored.
	OpenSession(ctx context.Context, p SessionParams) (*model.Session, error)

	// GetSession retrieves a live session by ID.
	GetSession(ctx context.Context, id string) (*model.Session, error)

	// ListSessions lists sessions, most recently updated first.
	ListSessions(ctx context.Context, p ListSessionsParams) ([]model.Session, error)

	// Append persists entries produced by a query. Entries keep their
	// sequence numbers; the store assigns IDs.
	Append(ctx context.Context, sessionID string, entries []model.MemoryEntry) ([]model.MemoryEntry, error)

	// History returns a session's live entries, oldest first.
	History(ctx context.Context, p HistoryParams) ([]model.MemoryEntry, error)

	// Clear soft-deletes (or hard-deletes) a session and its entries.
	// Returns the number of entries removed.
	Clear(ctx context.Context, p ClearParams) (int, error)

	// Close closes the store.
	Close() error
}
