// Package textsim scores string similarity with a sequence-matcher ratio.
package textsim

import "github.com/pmezard/go-difflib/difflib"

// Ratio returns 2*M/T where M is the number of matched characters between
// a and b and T is their combined length. Identical strings score 1 and
// two empty strings score 1.
func Ratio(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	return difflib.NewMatcher(split(a), split(b)).Ratio()
}

func split(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
