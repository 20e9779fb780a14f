package model

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one row of the ledger.
type Transaction struct {
	Date     time.Time       `json:"date"`
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
	Note     string          `json:"note"`
}

// Month returns the transaction's year-month token (YYYY-MM).
func (t Transaction) Month() string {
	return t.Date.Format("2006-01")
}

// Arguments maps parameter names to raw or normalized values.
type Arguments map[string]any

// Clone returns a shallow copy. Slice values are copied so callers can
// rewrite them without touching the original.
func (a Arguments) Clone() Arguments {
	if a == nil {
		return Arguments{}
	}
	out := make(Arguments, len(a))
	for k, v := range a {
		switch vv := v.(type) {
		case []any:
			out[k] = append([]any(nil), vv...)
		case []string:
			out[k] = append([]string(nil), vv...)
		default:
			out[k] = v
		}
	}
	return out
}

// Has reports whether key is present with a non-empty value.
func (a Arguments) Has(key string) bool {
	v, ok := a[key]
	if !ok || v == nil {
		return false
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) != ""
	}
	return true
}

// String returns the value of key if it is a string.
func (a Arguments) String(key string) (string, bool) {
	v, ok := a[key].(string)
	return v, ok
}

// Intent is a single operation invocation extracted from a query.
// An empty Operation means no intent was found.
type Intent struct {
	Operation string    `json:"operation,omitempty"`
	Arguments Arguments `json:"arguments,omitempty"`
}

// Step is one planned operation in an execution plan.
type Step struct {
	Number      int       `json:"step_number"`
	Description string    `json:"description"`
	Operation   string    `json:"operation"`
	Arguments   Arguments `json:"arguments"`
	Required    bool      `json:"required,omitempty"`
}

// IsRequired reports whether a failure of this step abandons the plan.
// Plans that predate the required field mark steps in the description.
func (s Step) IsRequired() bool {
	return s.Required || strings.Contains(strings.ToLower(s.Description), "required")
}

// Plan is the planner's decomposition of a query.
type Plan struct {
	MultiStep            bool   `json:"is_multi_step"`
	Steps                []Step `json:"steps"`
	SynthesisInstruction string `json:"synthesis_instruction"`
}

// MemoryEntry records one successfully answered query (or plan step).
type MemoryEntry struct {
	ID        string    `json:"id,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	Seq       int       `json:"seq"`
	Query     string    `json:"query"`
	Operation string    `json:"operation"`
	Arguments Arguments `json:"arguments"`
	Answer    string    `json:"answer"`
	Route     string    `json:"route,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ArgumentsJSON encodes the entry's arguments for storage.
func (e MemoryEntry) ArgumentsJSON() string {
	if len(e.Arguments) == 0 {
		return "{}"
	}
	b, err := json.Marshal(e.Arguments)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// Session is a persisted conversation.
type Session struct {
	ID        string     `json:"id"`
	Name      string     `json:"name,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	Entries   int        `json:"entries"`
}

// Routes recorded on answers and memory entries.
const (
	RouteSingle   = "single"
	RouteMulti    = "multi"
	RouteFallback = "fallback"
)
