package refresh

import (
	"github.com/jacobfeldgoise/country-comparison/internal/boundary"
	"github.com/jacobfeldgoise/country-comparison/internal/dataset"
	"github.com/jacobfeldgoise/country-comparison/pkg/worldbank"
)

// MetadataNames converts the country endpoint listing into a name source.
// Aggregate regions and entries without a valid ISO-3 code are skipped.
func MetadataNames(countries []worldbank.Country) dataset.NameSource {
	out := make(dataset.NameSource, len(countries))
	for _, c := range countries {
		if c.Aggregate {
			continue
		}
		code, ok := boundary.NormalizeCode(c.ISO3, 3)
		if !ok {
			continue
		}
		iso2, _ := boundary.NormalizeCode(c.ISO2, 2)
		out[code] = dataset.NameEntry{Name: c.Name, ISO2: iso2}
	}
	return out
}

// BoundaryNames converts boundary features into a name source.
func BoundaryNames(features []boundary.Feature) dataset.NameSource {
	ids := boundary.Identities(features)
	out := make(dataset.NameSource, len(ids))
	for code, id := range ids {
		out[code] = dataset.NameEntry{Name: id.Name, ISO2: id.ISO2}
	}
	return out
}

// Bundle converts fetched indicator data into a metric bundle for field.
func Bundle(field string, data *worldbank.IndicatorData) dataset.MetricBundle {
	b := dataset.MetricBundle{
		Field:  field,
		Latest: make(map[string]dataset.Observation),
		Series: make(map[string]map[int]float64),
	}
	if data == nil {
		return b
	}
	for code, obs := range data.Latest {
		b.Latest[code] = dataset.Observation{Value: obs.Value, Year: obs.Year}
	}
	for code, series := range data.Series {
		b.Series[code] = series
	}
	return b
}
