// Package timeexpr resolves natural time phrases into absolute year-month tokens.
package timeexpr

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
)

// Kind classifies a resolution.
type Kind int

const (
	Unresolved Kind = iota
	Single
	List
)

// Resolution is the result of resolving one expression. For Unresolved,
// Raw holds the input unchanged and Months is empty.
type Resolution struct {
	Kind   Kind
	Months []string
	Raw    string
}

// Value returns the resolution in argument form: a string for Single and
// Unresolved, a []string for List.
func (r Resolution) Value() any {
	switch r.Kind {
	case Single:
		return r.Months[0]
	case List:
		return append([]string(nil), r.Months...)
	default:
		return r.Raw
	}
}

var (
	monthTokenRe = regexp.MustCompile(`^(\d{4})-(\d{2})$`)
	lastNRe      = regexp.MustCompile(`^last\s+(\d+)\s+months?$`)
)

// Resolver resolves expressions relative to its clock.
type Resolver struct {
	clock clockwork.Clock
}

// New returns a Resolver. A nil clock uses the wall clock.
func New(clock clockwork.Clock) *Resolver {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Resolver{clock: clock}
}

// IsMonthToken reports whether s is a valid YYYY-MM token.
func IsMonthToken(s string) bool {
	m := monthTokenRe.FindStringSubmatch(s)
	if m == nil {
		return false
	}
	mm, _ := strconv.Atoi(m[2])
	return mm >= 1 && mm <= 12
}

// MaxLastMonths bounds "last N months"; larger N is Unresolved.
const MaxLastMonths = 1200

// Resolve never fails: unrecognized input comes back as Unresolved.
func (r *Resolver) Resolve(expr string) Resolution {
	raw := expr
	if IsMonthToken(strings.TrimSpace(expr)) {
		return Resolution{Kind: Single, Months: []string{strings.TrimSpace(expr)}, Raw: raw}
	}

	now := r.clock.Now()
	e := strings.Join(strings.Fields(strings.ToLower(expr)), " ")
	switch e {
	case "this month":
		return single(raw, monthOffset(now, 0))
	case "last month":
		return single(raw, monthOffset(now, -1))
	case "last quarter":
		return list(raw, lastN(now, 3))
	case "this year":
		months := make([]string, 0, int(now.Month()))
		for m := time.January; m <= now.Month(); m++ {
			months = append(months, time.Date(now.Year(), m, 1, 0, 0, 0, 0, time.UTC).Format("2006-01"))
		}
		return list(raw, months)
	}

	if m := lastNRe.FindStringSubmatch(e); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil || n <= 0 || n > MaxLastMonths {
			return Resolution{Kind: Unresolved, Raw: raw}
		}
		return list(raw, lastN(now, n))
	}

	return Resolution{Kind: Unresolved, Raw: raw}
}

func single(raw, month string) Resolution {
	return Resolution{Kind: Single, Months: []string{month}, Raw: raw}
}

func list(raw string, months []string) Resolution {
	return Resolution{Kind: List, Months: months, Raw: raw}
}

func monthOffset(now time.Time, delta int) string {
	return time.Date(now.Year(), now.Month()+time.Month(delta), 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
}

// lastN returns the n months before now's month, oldest first.
func lastN(now time.Time, n int) []string {
	out := make([]string, n)
	for i := 1; i <= n; i++ {
		out[n-i] = monthOffset(now, -i)
	}
	return out
}
