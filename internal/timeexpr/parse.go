package timeexpr

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	namedMonthRe = regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?[\s,-]+(\d{4}|\d{2})\b`)
	slashMonthRe = regexp.MustCompile(`^(\d{1,2})/(\d{2}|\d{4})$`)
)

var monthAbbrev = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// ParseMonth parses free-form month strings ("June 2025", "jun-25",
// "06/25", "6/2025", "2025-06") into a YYYY-MM token.
func ParseMonth(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if IsMonthToken(s) {
		return s, true
	}
	if m := slashMonthRe.FindStringSubmatch(s); m != nil {
		mm := atoi(m[1])
		if mm < 1 || mm > 12 {
			return "", false
		}
		return format(year(m[2]), time.Month(mm)), true
	}
	if m := namedMonthRe.FindStringSubmatch(s); m != nil {
		return format(year(m[2]), monthAbbrev[strings.ToLower(m[1])]), true
	}
	return "", false
}

func format(y int, m time.Month) string {
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
}

// year expands two-digit years into 2000-2099.
func year(s string) int {
	y := atoi(s)
	if len(s) == 2 {
		y += 2000
	}
	return y
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
