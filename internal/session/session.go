// Package session holds the conversation memory owned by one chat.
package session

import "github.com/rcliao/expense-assistant/internal/model"

// Memory is an append-only history of answered queries, oldest first.
// Values are immutable: Append returns a new Memory and never writes into
// storage shared with the receiver.
type Memory struct {
	id      string
	entries []model.MemoryEntry
}

// New returns a Memory for session id seeded with entries.
func New(id string, entries ...model.MemoryEntry) Memory {
	return Memory{id: id, entries: append([]model.MemoryEntry(nil), entries...)}
}

// ID returns the session id.
func (m Memory) ID() string { return m.id }

// Len returns the number of entries.
func (m Memory) Len() int { return len(m.entries) }

// Entries returns a copy of all entries, oldest first.
func (m Memory) Entries() []model.MemoryEntry {
	return append([]model.MemoryEntry(nil), m.entries...)
}

// Append returns a Memory with entries added after the existing ones.
// Sequence numbers continue from the receiver's last entry.
func (m Memory) Append(entries ...model.MemoryEntry) Memory {
	out := make([]model.MemoryEntry, len(m.entries), len(m.entries)+len(entries))
	copy(out, m.entries)
	next := 1
	if n := len(m.entries); n > 0 {
		next = m.entries[n-1].Seq + 1
	}
	for _, e := range entries {
		e.SessionID = m.id
		e.Seq = next
		e.Arguments = e.Arguments.Clone()
		next++
		out = append(out, e)
	}
	return Memory{id: m.id, entries: out}
}

// Since returns the entries after the first n, oldest first. It is how
// callers find what a query added.
func (m Memory) Since(n int) []model.MemoryEntry {
	if n < 0 {
		n = 0
	}
	if n >= len(m.entries) {
		return nil
	}
	return append([]model.MemoryEntry(nil), m.entries[n:]...)
}

// Recent returns up to n entries, most recent first. n <= 0 returns all.
func (m Memory) Recent(n int) []model.MemoryEntry {
	if n <= 0 || n > len(m.entries) {
		n = len(m.entries)
	}
	out := make([]model.MemoryEntry, 0, n)
	for i := len(m.entries) - 1; i >= len(m.entries)-n; i-- {
		out = append(out, m.entries[i])
	}
	return out
}
