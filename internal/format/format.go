// Package format renders indicator values, differences, and timestamps for display.
// Every function is total: unusable input yields Placeholder rather than an error.
package format

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
)

// Placeholder is shown for missing or unusable values.
const Placeholder = "N/A"

// Formatter kinds referenced by the metric catalog.
const (
	KindAbbrev   = "abbrev"
	KindCurrency = "currency"
	KindPercent  = "percent"
	KindNumber   = "number"
	KindDecimal  = "decimal"
	KindYears    = "years"
)

var magnitudes = []struct {
	div    float64
	suffix string
}{
	{1e12, "T"},
	{1e9, "B"},
	{1e6, "M"},
	{1e3, "K"},
}

func usable(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clampDigits(digits int) int {
	if digits < 0 {
		return 0
	}
	if digits > 6 {
		return 6
	}
	return digits
}

// Abbreviate shortens v using K/M/B/T suffixes, e.g. 21_000_000_000 -> "21.0B".
// Values below one thousand are comma-grouped.
func Abbreviate(v float64, digits int) string {
	if !usable(v) {
		return Placeholder
	}
	digits = clampDigits(digits)

	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}

	for i, m := range magnitudes {
		if v < m.div {
			continue
		}
		scaled := v / m.div
		s := strconv.FormatFloat(scaled, 'f', digits, 64)
		// 999.96K rounds up to "1000.0K"; promote to the next suffix.
		if r, _ := strconv.ParseFloat(s, 64); r >= 1000 && i > 0 {
			up := magnitudes[i-1]
			return sign + strconv.FormatFloat(v/up.div, 'f', digits, 64) + up.suffix
		}
		return sign + s + m.suffix
	}

	s := strconv.FormatFloat(v, 'f', digits, 64)
	if r, _ := strconv.ParseFloat(s, 64); r >= 1000 {
		return sign + strconv.FormatFloat(v/1e3, 'f', digits, 64) + "K"
	}
	return sign + humanize.CommafWithDigits(v, digits)
}

// Currency formats v as abbreviated US dollars.
func Currency(v float64, digits int) string {
	if !usable(v) {
		return Placeholder
	}
	if v < 0 {
		return "-$" + Abbreviate(-v, digits)
	}
	return "$" + Abbreviate(v, digits)
}

// Percent formats a value that is already expressed in percent units.
func Percent(v float64, digits int) string {
	if !usable(v) {
		return Placeholder
	}
	return strconv.FormatFloat(v, 'f', clampDigits(digits), 64) + "%"
}

// Number formats v with thousands separators.
func Number(v float64, digits int) string {
	if !usable(v) {
		return Placeholder
	}
	return humanize.CommafWithDigits(v, clampDigits(digits))
}

// Truncate cuts s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	runes := []rune(s)
	return strings.TrimRight(string(runes[:n-1]), " ") + "…"
}

// Timestamp formats epoch milliseconds as a UTC minute-resolution time.
func Timestamp(ms int64) string {
	if ms <= 0 {
		return "never"
	}
	return time.UnixMilli(ms).UTC().Format("2006-01-02 15:04 UTC")
}

// Relative describes t relative to now, e.g. "3 hours ago".
func Relative(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// Value formats v with the formatter named by kind. Unknown kinds fall back to Number.
func Value(kind string, v *float64) string {
	if v == nil {
		return Placeholder
	}
	switch kind {
	case KindAbbrev:
		return Abbreviate(*v, 1)
	case KindCurrency:
		return Currency(*v, 1)
	case KindPercent:
		return Percent(*v, 1)
	case KindDecimal:
		if !usable(*v) {
			return Placeholder
		}
		return strconv.FormatFloat(*v, 'f', 2, 64)
	case KindYears:
		if !usable(*v) {
			return Placeholder
		}
		return strconv.FormatFloat(*v, 'f', 1, 64) + " yrs"
	default:
		return Number(*v, 1)
	}
}

// Difference formats a-b with the kind's formatter and an optional unit suffix.
// Positive differences carry an explicit "+".
func Difference(kind string, a, b *float64, unit string) string {
	if a == nil || b == nil {
		return Placeholder
	}
	d := *a - *b
	if !usable(d) {
		return Placeholder
	}

	var body string
	switch kind {
	case KindPercent:
		// Differences of percentages are percentage points.
		body = strconv.FormatFloat(math.Abs(d), 'f', 1, 64)
		if unit == "" {
			unit = " pp"
		}
	case KindYears:
		body = strconv.FormatFloat(math.Abs(d), 'f', 1, 64)
		if unit == "" {
			unit = " yrs"
		}
	default:
		abs := math.Abs(d)
		body = Value(kind, &abs)
	}

	switch {
	case d > 0:
		return "+" + body + unit
	case d < 0:
		return "-" + body + unit
	default:
		return body + unit
	}
}
