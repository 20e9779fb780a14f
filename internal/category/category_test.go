package category

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatch(t *testing.T) {
	m := NewMatcher(DefaultThreshold, 0)
	known := []string{"Groceries", "Rent", "Shopping"}

	got, ok := m.Match("grocery", known)
	assert.True(t, ok)
	assert.Equal(t, "Groceries", got)

	got, ok = m.Match("RENT", known)
	assert.True(t, ok)
	assert.Equal(t, "Rent", got)

	got, ok = m.Match("  shoping ", known)
	assert.True(t, ok)
	assert.Equal(t, "Shopping", got)
}

func TestMatchNone(t *testing.T) {
	m := NewMatcher(DefaultThreshold, 0)

	_, ok := m.Match("travel", []string{"Groceries", "Rent"})
	assert.False(t, ok)

	_, ok = m.Match("rent", nil)
	assert.False(t, ok)

	_, ok = m.Match("", []string{"Rent"})
	assert.False(t, ok)
}

func TestMatchTieGoesToFirst(t *testing.T) {
	m := NewMatcher(DefaultThreshold, 0)

	got, ok := m.Match("ab", []string{"abx", "aby"})
	assert.True(t, ok)
	assert.Equal(t, "abx", got)

	got, ok = m.Match("ab", []string{"aby", "abx"})
	assert.True(t, ok)
	assert.Equal(t, "aby", got)
}

func TestMatchThreshold(t *testing.T) {
	// "abcd" vs "abxy" scores 0.5.
	assert.False(t, second(NewMatcher(0.6, 0).Match("abcd", []string{"abxy"})))
	assert.True(t, second(NewMatcher(0.5, 0).Match("abcd", []string{"abxy"})))
}

func TestMatchCachedPerCategorySet(t *testing.T) {
	m := NewMatcher(DefaultThreshold, 4)

	got, ok := m.Match("food", []string{"Food", "Fuel"})
	assert.True(t, ok)
	assert.Equal(t, "Food", got)

	_, ok = m.Match("food", []string{"Rent"})
	assert.False(t, ok)

	got, ok = m.Match("food", []string{"Food", "Fuel"})
	assert.True(t, ok)
	assert.Equal(t, "Food", got)
}

func second(_ string, ok bool) bool { return ok }
