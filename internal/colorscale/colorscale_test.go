package colorscale

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"quantile", Quantile, false},
		{"", Quantile, false},
		{" Linear ", Linear, false},
		{"log", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestThresholds_Interpolates(t *testing.T) {
	// positions 0.8, 1.6, 2.4, 3.2 over [10 20 30 40 50]
	th, err := Thresholds([]float64{50, 10, 40, 20, 30})
	require.NoError(t, err)
	require.Len(t, th, 4)
	assert.InDelta(t, 18, th[0], 1e-9)
	assert.InDelta(t, 26, th[1], 1e-9)
	assert.InDelta(t, 34, th[2], 1e-9)
	assert.InDelta(t, 42, th[3], 1e-9)
}

func TestThresholds_NonDecreasing(t *testing.T) {
	inputs := [][]float64{
		{1, 2},
		{1, 1, 1, 1, 2},
		{5, 3, 3, 3, 9, 100, -4, 0.5},
		{1e12, 2, 3e6, 7, 7, 7, 42, 1e3, 0},
	}
	for _, in := range inputs {
		th, err := Thresholds(in)
		require.NoError(t, err)
		for i := 1; i < len(th); i++ {
			assert.LessOrEqual(t, th[i-1], th[i])
		}
	}
}

func TestThresholds_InsufficientData(t *testing.T) {
	for _, in := range [][]float64{nil, {3}, {4, 4, 4}, {math.NaN(), 1}} {
		_, err := Thresholds(in)
		assert.ErrorIs(t, err, ErrInsufficientData)
	}
}

func TestBucket(t *testing.T) {
	th := []float64{10, 20, 30, 40}
	assert.Equal(t, 0, Bucket(5, th))
	assert.Equal(t, 0, Bucket(10, th))
	assert.Equal(t, 1, Bucket(10.5, th))
	assert.Equal(t, 3, Bucket(40, th))
	assert.Equal(t, 4, Bucket(41, th))
}

func TestRange(t *testing.T) {
	lo, hi, err := Range([]float64{3, math.Inf(1), -2, 8})
	require.NoError(t, err)
	assert.Equal(t, -2.0, lo)
	assert.Equal(t, 8.0, hi)

	_, _, err = Range([]float64{2, 2})
	assert.ErrorIs(t, err, ErrInsufficientData)
	_, _, err = Range(nil)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestPalette(t *testing.T) {
	p, err := Palette(DefaultLow, DefaultHigh, Buckets)
	require.NoError(t, err)
	require.Len(t, p, Buckets)
	seen := map[string]bool{}
	for _, c := range p {
		assert.Len(t, c, 7)
		seen[c] = true
	}
	assert.Len(t, seen, Buckets)

	_, err = Palette("not-a-color", DefaultHigh, 3)
	assert.Error(t, err)
}

func TestQuantileScale_MinAndMaxDiffer(t *testing.T) {
	s, err := New(Quantile, []float64{1, 2}, Options{})
	require.NoError(t, err)
	assert.NotEqual(t, s.Color(ptr(1)), s.Color(ptr(2)))

	s, err = New(Quantile, []float64{7, 7, 7, 7, 7, 7, 9}, Options{})
	require.NoError(t, err)
	assert.NotEqual(t, s.Color(ptr(7)), s.Color(ptr(9)))
}

func TestQuantileScale_TopHeavy(t *testing.T) {
	s, err := New(Quantile, []float64{1, 2, 2, 2, 2, 2, 2}, Options{})
	require.NoError(t, err)
	for _, th := range s.Thresholds {
		assert.InDelta(t, 2.0, th, 1e-9)
	}

	assert.Equal(t, s.Colors[0], s.Color(ptr(1)))
	assert.Equal(t, s.Colors[Buckets-1], s.Color(ptr(2)))
	assert.NotEqual(t, s.Color(ptr(1)), s.Color(ptr(2)))

	legend := s.Legend()
	assert.Equal(t, legend[len(legend)-1].Color, s.Color(ptr(s.Max)))
}

func TestQuantileScale_Legend(t *testing.T) {
	s, err := New(Quantile, []float64{10, 20, 30, 40, 50}, Options{})
	require.NoError(t, err)

	legend := s.Legend()
	require.Len(t, legend, Buckets)
	assert.Equal(t, 10.0, legend[0].From)
	assert.InDelta(t, 18, legend[0].To, 1e-9)
	assert.Equal(t, 50.0, legend[4].To)
	assert.Equal(t, legend[0].Color, s.Color(ptr(10)))
	assert.Equal(t, legend[4].Color, s.Color(ptr(50)))
}

func TestLinearScale_Endpoints(t *testing.T) {
	s, err := New(Linear, []float64{0, 25, 100}, Options{})
	require.NoError(t, err)

	legend := s.Legend()
	require.Len(t, legend, 2)
	low, high := s.Color(ptr(0)), s.Color(ptr(100))
	assert.Equal(t, legend[0].Color, low)
	assert.Equal(t, legend[1].Color, high)
	assert.NotEqual(t, low, high)

	mid := s.Color(ptr(50))
	assert.NotEqual(t, low, mid)
	assert.NotEqual(t, high, mid)

	// out of range clamps to the endpoints
	assert.Equal(t, low, s.Color(ptr(-10)))
	assert.Equal(t, high, s.Color(ptr(1000)))
	assert.InDelta(t, 0.5, s.Position(50), 1e-9)
}

func TestLinearScale_Insufficient(t *testing.T) {
	_, err := New(Linear, []float64{4}, Options{})
	assert.ErrorIs(t, err, ErrInsufficientData)
	_, err = New(Linear, []float64{4, 4}, Options{})
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestNoDataColor(t *testing.T) {
	for _, mode := range []Mode{Quantile, Linear} {
		s, err := New(mode, []float64{1, 2, 3, 4, 5}, Options{})
		require.NoError(t, err)

		assert.Equal(t, DefaultNoData, s.Color(nil))
		assert.Equal(t, DefaultNoData, s.Color(ptr(math.NaN())))
		for _, v := range []float64{1, 2, 3, 4, 5} {
			assert.NotEqual(t, DefaultNoData, s.Color(ptr(v)))
		}
	}
}

func TestNew_CustomColors(t *testing.T) {
	s, err := New(Linear, []float64{0, 1}, Options{Low: "#000000", High: "#ffffff", NoData: "#ff0000"})
	require.NoError(t, err)
	assert.Equal(t, "#000000", s.Color(ptr(0)))
	assert.Equal(t, "#ffffff", s.Color(ptr(1)))
	assert.Equal(t, "#ff0000", s.Color(nil))

	_, err = New(Linear, []float64{0, 1}, Options{Low: "bad"})
	assert.Error(t, err)
}
