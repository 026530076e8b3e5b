// Package colorscale derives choropleth color scales from indicator values.
package colorscale

import (
	"math"
	"sort"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/rotisserie/eris"
)

// ErrInsufficientData is returned when the values cannot support a legend:
// fewer than two distinct values.
var ErrInsufficientData = eris.New("colorscale: insufficient data")

// Mode selects how values map to colors.
type Mode string

const (
	Quantile Mode = "quantile"
	Linear   Mode = "linear"
)

// ParseMode parses a scale mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case Quantile, "":
		return Quantile, nil
	case Linear:
		return Linear, nil
	}
	return "", eris.Errorf("colorscale: unknown mode %q", s)
}

// Buckets is the number of quantile classes.
const Buckets = 5

// Default colors.
const (
	DefaultLow    = "#f7fbff"
	DefaultHigh   = "#08306b"
	DefaultNoData = "#d9d9d9"
)

// Options configures the gradient endpoints and the no-data color.
type Options struct {
	Low    string
	High   string
	NoData string
}

func (o Options) withDefaults() Options {
	if o.Low == "" {
		o.Low = DefaultLow
	}
	if o.High == "" {
		o.High = DefaultHigh
	}
	if o.NoData == "" {
		o.NoData = DefaultNoData
	}
	return o
}

type gradient struct {
	low, high colorful.Color
}

func newGradient(low, high string) (gradient, error) {
	l, err := colorful.Hex(low)
	if err != nil {
		return gradient{}, eris.Wrapf(err, "colorscale: parse color %q", low)
	}
	h, err := colorful.Hex(high)
	if err != nil {
		return gradient{}, eris.Wrapf(err, "colorscale: parse color %q", high)
	}
	return gradient{low: l, high: h}, nil
}

// at returns the color at position t in [0,1].
func (g gradient) at(t float64) string {
	t = math.Max(0, math.Min(1, t))
	return g.low.BlendLab(g.high, t).Clamped().Hex()
}

// Palette returns n colors evenly spaced from low to high.
func Palette(low, high string, n int) ([]string, error) {
	g, err := newGradient(low, high)
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, nil
	}
	if n == 1 {
		return []string{g.at(1)}, nil
	}
	out := make([]string, n)
	for i := range n {
		out[i] = g.at(float64(i) / float64(n-1))
	}
	return out, nil
}

// finite returns the finite values sorted ascending.
func finite(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	sort.Float64s(out)
	return out
}

// Thresholds returns the 20th, 40th, 60th and 80th percentiles of values,
// interpolating linearly between the bracketing order statistics.
func Thresholds(values []float64) ([]float64, error) {
	sorted := finite(values)
	if len(sorted) < 2 || sorted[0] == sorted[len(sorted)-1] {
		return nil, ErrInsufficientData
	}

	out := make([]float64, Buckets-1)
	for i := range out {
		p := float64(i+1) / Buckets
		out[i] = percentile(sorted, p)
	}
	return out, nil
}

func percentile(sorted []float64, p float64) float64 {
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	t := pos - float64(lo)
	return sorted[lo]*(1-t) + sorted[hi]*t
}

// Bucket returns how many thresholds v strictly exceeds.
func Bucket(v float64, thresholds []float64) int {
	n := 0
	for _, th := range thresholds {
		if v > th {
			n++
		}
	}
	return n
}

// Range returns the minimum and maximum finite values.
func Range(values []float64) (float64, float64, error) {
	sorted := finite(values)
	if len(sorted) == 0 {
		return 0, 0, ErrInsufficientData
	}
	lo, hi := sorted[0], sorted[len(sorted)-1]
	if lo == hi {
		return lo, hi, ErrInsufficientData
	}
	return lo, hi, nil
}
