package format

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ptr(v float64) *float64 { return &v }

func TestAbbreviate(t *testing.T) {
	tests := []struct {
		name   string
		v      float64
		digits int
		want   string
	}{
		{"trillions", 21.43e12, 1, "21.4T"},
		{"billions", 21e9, 1, "21.0B"},
		{"millions", 331_000_000, 1, "331.0M"},
		{"thousands", 1500, 1, "1.5K"},
		{"small", 512, 1, "512"},
		{"zero", 0, 1, "0"},
		{"negative", -1500, 1, "-1.5K"},
		{"rounds up to next suffix", 999_960, 1, "1.0M"},
		{"rounds up to thousands", 999.96, 1, "1.0K"},
		{"nan", math.NaN(), 1, Placeholder},
		{"inf", math.Inf(1), 1, Placeholder},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Abbreviate(tt.v, tt.digits))
		})
	}
}

func TestCurrency(t *testing.T) {
	assert.Equal(t, "$21.0B", Currency(21e9, 1))
	assert.Equal(t, "-$2.5M", Currency(-2.5e6, 1))
	assert.Equal(t, Placeholder, Currency(math.NaN(), 1))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "12.3%", Percent(12.345, 1))
	assert.Equal(t, "0%", Percent(0, 0))
	assert.Equal(t, Placeholder, Percent(math.Inf(-1), 1))
}

func TestNumber(t *testing.T) {
	assert.Equal(t, "1,234,567.8", Number(1234567.891, 1))
	assert.Equal(t, "42", Number(42, 2))
	assert.Equal(t, Placeholder, Number(math.NaN(), 1))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "France", Truncate("France", 10))
	assert.Equal(t, "United…", Truncate("United States of America", 7))
	assert.Equal(t, "Côte…", Truncate("Côte d'Ivoire", 5))
	assert.Equal(t, "…", Truncate("abc", 1))
	assert.Equal(t, "", Truncate("abc", 0))
	assert.Equal(t, "", Truncate("abc", -3))
}

func TestTimestamp(t *testing.T) {
	ms := time.Date(2024, 3, 5, 14, 7, 0, 0, time.UTC).UnixMilli()
	assert.Equal(t, "2024-03-05 14:07 UTC", Timestamp(ms))
	assert.Equal(t, "never", Timestamp(0))
	assert.Equal(t, "never", Timestamp(-5))
}

func TestRelative(t *testing.T) {
	now := time.Date(2024, 3, 5, 14, 0, 0, 0, time.UTC)
	assert.Equal(t, "3 hours ago", Relative(now.Add(-3*time.Hour), now))
	assert.Equal(t, "never", Relative(time.Time{}, now))
}

func TestValue(t *testing.T) {
	assert.Equal(t, Placeholder, Value(KindAbbrev, nil))
	assert.Equal(t, "331.0M", Value(KindAbbrev, ptr(331e6)))
	assert.Equal(t, "$65.1K", Value(KindCurrency, ptr(65_100)))
	assert.Equal(t, "3.7%", Value(KindPercent, ptr(3.7)))
	assert.Equal(t, "0.93", Value(KindDecimal, ptr(0.9261)))
	assert.Equal(t, "78.5 yrs", Value(KindYears, ptr(78.5)))
	assert.Equal(t, "1,234.5", Value("unknown", ptr(1234.5)))
	assert.Equal(t, Placeholder, Value(KindDecimal, ptr(math.NaN())))
}

func TestDifference(t *testing.T) {
	assert.Equal(t, "+2.0B", Difference(KindAbbrev, ptr(5e9), ptr(3e9), ""))
	assert.Equal(t, "-2.0B", Difference(KindAbbrev, ptr(3e9), ptr(5e9), ""))
	assert.Equal(t, "+2.5 pp", Difference(KindPercent, ptr(12.5), ptr(10), ""))
	assert.Equal(t, "-1.5 yrs", Difference(KindYears, ptr(70), ptr(71.5), ""))
	assert.Equal(t, "+$1.0B", Difference(KindCurrency, ptr(2e9), ptr(1e9), ""))
	assert.Equal(t, "+4 t", Difference(KindNumber, ptr(10), ptr(6), " t"))
	assert.Equal(t, "0", Difference(KindAbbrev, ptr(7), ptr(7), ""))
	assert.Equal(t, Placeholder, Difference(KindAbbrev, nil, ptr(1), ""))
	assert.Equal(t, Placeholder, Difference(KindAbbrev, ptr(1), nil, ""))
}
