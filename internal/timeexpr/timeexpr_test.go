package timeexpr

import (
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolverAt(y int, m time.Month, d int) *Resolver {
	return New(clockwork.NewFakeClockAt(time.Date(y, m, d, 10, 0, 0, 0, time.UTC)))
}

func TestResolve(t *testing.T) {
	r := resolverAt(2025, time.July, 15)

	tests := []struct {
		expr   string
		kind   Kind
		months []string
	}{
		{"this month", Single, []string{"2025-07"}},
		{"last month", Single, []string{"2025-06"}},
		{"Last  Month", Single, []string{"2025-06"}},
		{"last 3 months", List, []string{"2025-04", "2025-05", "2025-06"}},
		{"last 1 month", List, []string{"2025-06"}},
		{"last quarter", List, []string{"2025-04", "2025-05", "2025-06"}},
		{"this year", List, []string{"2025-01", "2025-02", "2025-03", "2025-04", "2025-05", "2025-06", "2025-07"}},
		{"2024-11", Single, []string{"2024-11"}},
		{"last 0 months", Unresolved, nil},
		{"2025-13", Unresolved, nil},
		{"someday", Unresolved, nil},
		{"", Unresolved, nil},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got := r.Resolve(tt.expr)
			assert.Equal(t, tt.kind, got.Kind)
			if tt.kind == Unresolved {
				assert.Empty(t, got.Months)
				assert.Equal(t, tt.expr, got.Raw)
				return
			}
			assert.Equal(t, tt.months, got.Months)
		})
	}
}

func TestResolveYearBoundary(t *testing.T) {
	r := resolverAt(2025, time.January, 3)

	assert.Equal(t, []string{"2024-12"}, r.Resolve("last month").Months)
	assert.Equal(t, []string{"2024-10", "2024-11", "2024-12"}, r.Resolve("last 3 months").Months)
	assert.Equal(t, []string{"2025-01"}, r.Resolve("this year").Months)
}

func TestResolveHugeLastNIsUnresolved(t *testing.T) {
	r := resolverAt(2025, time.July, 15)

	for _, expr := range []string{
		"last 1201 months",
		"last 99999999999999999 months",
		"last 9223372036854775807 months",
		"last 99999999999999999999999 months",
	} {
		got := r.Resolve(expr)
		assert.Equal(t, Unresolved, got.Kind, expr)
		assert.Empty(t, got.Months, expr)
	}
	assert.Len(t, r.Resolve("last 1200 months").Months, MaxLastMonths)
}

func TestResolveLastNMonthsIsAscending(t *testing.T) {
	r := resolverAt(2025, time.March, 31)
	for n := 1; n <= 30; n++ {
		got := r.Resolve(fmt.Sprintf("last %d months", n))
		require.Equal(t, List, got.Kind)
		require.Len(t, got.Months, n)
		for i := 1; i < len(got.Months); i++ {
			assert.Less(t, got.Months[i-1], got.Months[i])
		}
		assert.Equal(t, "2025-02", got.Months[n-1])
	}
}

func TestResolveIdempotent(t *testing.T) {
	r := resolverAt(2025, time.July, 15)
	for _, expr := range []string{"this month", "last month", "last 5 months", "last quarter", "this year", "2023-09"} {
		for _, m := range r.Resolve(expr).Months {
			again := r.Resolve(m)
			assert.Equal(t, Single, again.Kind)
			assert.Equal(t, []string{m}, again.Months)
		}
	}
}

func TestResolutionValue(t *testing.T) {
	r := resolverAt(2025, time.July, 15)
	assert.Equal(t, "2025-06", r.Resolve("last month").Value())
	assert.Equal(t, []string{"2025-05", "2025-06"}, r.Resolve("last 2 months").Value())
	assert.Equal(t, "whenever", r.Resolve("whenever").Value())
}

func TestParseMonth(t *testing.T) {
	tests := map[string]string{
		"June 2025": "2025-06",
		"jun 2025":  "2025-06",
		"jun-25":    "2025-06",
		"Sept 2024": "2024-09",
		"06/25":     "2025-06",
		"6/2025":    "2025-06",
		"2025-06":   "2025-06",
	}
	for in, want := range tests {
		got, ok := ParseMonth(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"13/25", "soon", "2025", ""} {
		_, ok := ParseMonth(in)
		assert.False(t, ok, in)
	}
}

