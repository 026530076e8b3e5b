// Package dataset joins country identities from the metadata API and the
// boundary file with fetched indicator values.
package dataset

import (
	"github.com/rotisserie/eris"

	"github.com/jacobfeldgoise/country-comparison/internal/metric"
)

// ErrUnknownCountry is returned when an ISO-3 code is not in the dataset.
var ErrUnknownCountry = eris.New("dataset: unknown country")

// CountryRecord is one recognized country with its indicator values.
type CountryRecord struct {
	ISO3 string `json:"iso3"`
	ISO2 string `json:"iso2,omitempty"`
	Name string `json:"name"`
	// Latest maps metric field to the most recent value.
	Latest map[string]float64 `json:"latest,omitempty"`
	// Year maps metric field to the year of the Latest value.
	Year map[string]int `json:"year,omitempty"`
	// Series maps metric field to per-year values.
	Series map[string]map[int]float64 `json:"series,omitempty"`

	InMetadata bool `json:"in_metadata"`
	InBoundary bool `json:"in_boundary"`
}

// Value returns the latest value for field.
func (r CountryRecord) Value(field string) (float64, bool) {
	v, ok := r.Latest[field]
	return v, ok
}

// ValuePtr returns the latest value for field, or nil when missing.
func (r CountryRecord) ValuePtr(field string) *float64 {
	v, ok := r.Latest[field]
	if !ok {
		return nil
	}
	return &v
}

// Coverage returns the fraction of records with a value for field.
func Coverage(records []CountryRecord, field string) float64 {
	if len(records) == 0 {
		return 0
	}
	n := 0
	for _, r := range records {
		if _, ok := r.Latest[field]; ok {
			n++
		}
	}
	return float64(n) / float64(len(records))
}

// VisibleMetrics returns the catalog metrics whose coverage across records
// passes their MinCoverage gate, in catalog order.
func VisibleMetrics(cat *metric.Catalog, records []CountryRecord) []metric.Definition {
	vis := cat.Visible(func(field string) float64 { return Coverage(records, field) })
	out := make([]metric.Definition, 0, len(vis))
	for _, v := range vis {
		if v.Visible {
			out = append(out, v.Definition)
		}
	}
	return out
}

// Values collects the latest value of field across records.
func Values(records []CountryRecord, field string) []float64 {
	out := make([]float64, 0, len(records))
	for _, r := range records {
		if v, ok := r.Latest[field]; ok {
			out = append(out, v)
		}
	}
	return out
}

// Flag returns the regional-indicator emoji for an ISO-2 code, or "".
func Flag(iso2 string) string {
	if len(iso2) != 2 {
		return ""
	}
	var out []rune
	for i := 0; i < 2; i++ {
		c := iso2[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		if c < 'A' || c > 'Z' {
			return ""
		}
		out = append(out, rune(0x1F1E6+int(c-'A')))
	}
	return string(out)
}
