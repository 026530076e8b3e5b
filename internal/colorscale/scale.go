package colorscale

import (
	"math"
)

// LegendEntry is one swatch of a legend. Quantile entries cover
// (From, To]; the first entry's From is the minimum value. Linear legends
// have two entries, the gradient endpoints at min and max.
type LegendEntry struct {
	Color string  `json:"color"`
	From  float64 `json:"from"`
	To    float64 `json:"to"`
}

// Scale maps indicator values to colors.
type Scale struct {
	Mode       Mode      `json:"mode"`
	Thresholds []float64 `json:"thresholds,omitempty"`
	Colors     []string  `json:"colors,omitempty"`
	Min        float64   `json:"min"`
	Max        float64   `json:"max"`
	NoData     string    `json:"no_data"`

	grad gradient
}

// New builds a scale over values. It returns ErrInsufficientData when the
// values cannot produce a meaningful legend.
func New(mode Mode, values []float64, opts Options) (*Scale, error) {
	opts = opts.withDefaults()
	g, err := newGradient(opts.Low, opts.High)
	if err != nil {
		return nil, err
	}

	lo, hi, err := Range(values)
	if err != nil {
		return nil, err
	}

	s := &Scale{Mode: mode, Min: lo, Max: hi, NoData: opts.NoData, grad: g}
	switch mode {
	case Linear:
	default:
		s.Mode = Quantile
		th, err := Thresholds(values)
		if err != nil {
			return nil, err
		}
		s.Thresholds = th
		s.Colors, err = Palette(opts.Low, opts.High, Buckets)
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Color returns the color for v, or the no-data color when v is nil or not finite.
func (s *Scale) Color(v *float64) string {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return s.NoData
	}
	if s.Mode == Linear {
		return s.grad.at(s.Position(*v))
	}
	return s.Colors[s.bucket(*v)]
}

// bucket is Bucket with the maximum pinned to the top color, so top-heavy
// data whose thresholds all equal the maximum still separates min from max.
func (s *Scale) bucket(v float64) int {
	if s.Max > s.Min && v >= s.Max {
		return len(s.Colors) - 1
	}
	return Bucket(v, s.Thresholds)
}

// Position returns v's clamped position along a linear gradient.
func (s *Scale) Position(v float64) float64 {
	if s.Max == s.Min {
		return 0
	}
	return math.Max(0, math.Min(1, (v-s.Min)/(s.Max-s.Min)))
}

// Legend describes the scale's swatches.
func (s *Scale) Legend() []LegendEntry {
	if s.Mode == Linear {
		return []LegendEntry{
			{Color: s.grad.at(0), From: s.Min, To: s.Min},
			{Color: s.grad.at(1), From: s.Max, To: s.Max},
		}
	}
	bounds := make([]float64, 0, len(s.Thresholds)+2)
	bounds = append(bounds, s.Min)
	bounds = append(bounds, s.Thresholds...)
	bounds = append(bounds, s.Max)

	out := make([]LegendEntry, len(s.Colors))
	for i, c := range s.Colors {
		out[i] = LegendEntry{Color: c, From: bounds[i], To: bounds[i+1]}
	}
	return out
}
