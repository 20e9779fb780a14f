package textsim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRatio(t *testing.T) {
	assert.Equal(t, 1.0, Ratio("rent", "rent"))
	assert.Equal(t, 1.0, Ratio("", ""))
	assert.Equal(t, 0.0, Ratio("abc", "xyz"))
	assert.Equal(t, 0.0, Ratio("abc", ""))
	assert.InDelta(t, 0.75, Ratio("groceries", "grocery"), 1e-9)
	assert.InDelta(t, 0.5, Ratio("abcd", "abxy"), 1e-9)
}

func TestRatioRunes(t *testing.T) {
	assert.Equal(t, 1.0, Ratio("₹500", "₹500"))
	assert.InDelta(t, 0.75, Ratio("₹500", "₹600"), 1e-9)
}
