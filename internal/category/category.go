// Package category resolves user-supplied category names against the
// categories present in a ledger.
package category

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/rcliao/expense-assistant/internal/textsim"
)

// DefaultThreshold is the minimum similarity for a match.
const DefaultThreshold = 0.6

const defaultCacheSize = 256

type result struct {
	category string
	ok       bool
}

// Matcher fuzzy-matches categories. Lookups are memoized per
// (input, known set) pair. Safe for concurrent use.
type Matcher struct {
	threshold float64
	cache     *lru.Cache[string, result]
}

// NewMatcher returns a Matcher. A threshold <= 0 uses DefaultThreshold and
// a cacheSize <= 0 uses a small default.
func NewMatcher(threshold float64, cacheSize int) *Matcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	c, err := lru.New[string, result](cacheSize)
	if err != nil {
		// Only returned for a non-positive size.
		panic(err)
	}
	return &Matcher{threshold: threshold, cache: c}
}

// Threshold returns the configured similarity cutoff.
func (m *Matcher) Threshold() float64 { return m.threshold }

// Match returns the known category most similar to input, compared
// case-insensitively. Ties go to the earliest candidate. It returns
// false when known is empty or no candidate reaches the threshold.
func (m *Matcher) Match(input string, known []string) (string, bool) {
	in := strings.ToLower(strings.TrimSpace(input))
	if in == "" || len(known) == 0 {
		return "", false
	}

	key := in + "\x00" + strings.Join(known, "\x1f")
	if r, ok := m.cache.Get(key); ok {
		return r.category, r.ok
	}

	best, bestScore := "", -1.0
	for _, c := range known {
		score := textsim.Ratio(strings.ToLower(c), in)
		if score > bestScore {
			best, bestScore = c, score
		}
	}
	r := result{}
	if bestScore >= m.threshold {
		r = result{category: best, ok: true}
	}
	m.cache.Add(key, r)
	return r.category, r.ok
}
