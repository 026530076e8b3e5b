package dataset

import (
	"github.com/jacobfeldgoise/country-comparison/internal/format"
	"github.com/jacobfeldgoise/country-comparison/internal/metric"
)

// Row is one line of a side-by-side comparison.
type Row struct {
	Field    string   `json:"field"`
	Label    string   `json:"label"`
	Category string   `json:"category,omitempty"`
	A        *float64 `json:"a"`
	B        *float64 `json:"b"`
	YearA    int      `json:"year_a,omitempty"`
	YearB    int      `json:"year_b,omitempty"`
	AText    string   `json:"a_text"`
	BText    string   `json:"b_text"`
	DiffText string   `json:"diff_text"`
}

// Compare builds comparison rows for a and b in definition order.
func Compare(a, b CountryRecord, defs []metric.Definition) []Row {
	rows := make([]Row, 0, len(defs))
	for _, d := range defs {
		av, bv := a.ValuePtr(d.Field), b.ValuePtr(d.Field)
		rows = append(rows, Row{
			Field:    d.Field,
			Label:    d.Label,
			Category: d.Category,
			A:        av,
			B:        bv,
			YearA:    a.Year[d.Field],
			YearB:    b.Year[d.Field],
			AText:    format.Value(d.Format, av),
			BText:    format.Value(d.Format, bv),
			DiffText: format.Difference(d.Format, av, bv, d.DiffUnit),
		})
	}
	return rows
}
