package dataset

import (
	"sort"

	"github.com/jacobfeldgoise/country-comparison/internal/boundary"
)

// NameEntry is a country name (and optional ISO-2) from one identity source.
type NameEntry struct {
	Name string `json:"name"`
	ISO2 string `json:"iso2,omitempty"`
}

// NameSource maps ISO-3 codes to names from one source.
type NameSource map[string]NameEntry

// Observation is a value recorded for a year.
type Observation struct {
	Value float64 `json:"value"`
	Year  int     `json:"year"`
}

// MetricBundle is one metric's fetched values.
type MetricBundle struct {
	Field  string                     `json:"field"`
	Latest map[string]Observation     `json:"latest"`
	Series map[string]map[int]float64 `json:"series"`
}

// Merge joins the metadata and boundary name sources with every metric
// bundle. A record exists for each ISO-3 code named by either source;
// codes that only appear in indicator data are dropped. The display name
// prefers the metadata source. Merge does not modify its inputs, and the
// result is sorted by ISO-3 code so that bundle order never matters.
// Bundle fields are expected to be unique.
func Merge(meta, geo NameSource, bundles []MetricBundle) []CountryRecord {
	keys := make(map[string]bool, len(meta)+len(geo))
	for k := range meta {
		keys[k] = true
	}
	for k := range geo {
		keys[k] = true
	}

	codes := make([]string, 0, len(keys))
	for k := range keys {
		if code, ok := boundary.NormalizeCode(k, 3); ok && code == k {
			codes = append(codes, k)
		}
	}
	sort.Strings(codes)

	ordered := make([]MetricBundle, len(bundles))
	copy(ordered, bundles)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Field < ordered[j].Field })

	records := make([]CountryRecord, 0, len(codes))
	for _, code := range codes {
		m, inMeta := meta[code]
		g, inGeo := geo[code]

		rec := CountryRecord{
			ISO3:       code,
			InMetadata: inMeta,
			InBoundary: inGeo,
		}
		switch {
		case inMeta && m.Name != "":
			rec.Name = m.Name
		case inGeo:
			rec.Name = g.Name
		}
		if rec.Name == "" {
			rec.Name = code
		}
		switch {
		case inMeta && m.ISO2 != "":
			rec.ISO2 = m.ISO2
		case inGeo:
			rec.ISO2 = g.ISO2
		}

		for _, b := range ordered {
			attachMetric(&rec, b, code)
		}
		records = append(records, rec)
	}
	return records
}

func attachMetric(rec *CountryRecord, b MetricBundle, code string) {
	obs, hasLatest := b.Latest[code]
	series, hasSeries := b.Series[code]
	if !hasLatest && !hasSeries {
		return
	}

	copied := make(map[int]float64, len(series)+1)
	for y, v := range series {
		copied[y] = v
	}
	if hasLatest {
		// Keep latest consistent with the series entry for its year.
		copied[obs.Year] = obs.Value
	}
	if rec.Series == nil {
		rec.Series = make(map[string]map[int]float64)
	}
	rec.Series[b.Field] = copied

	if hasLatest {
		if rec.Latest == nil {
			rec.Latest = make(map[string]float64)
			rec.Year = make(map[string]int)
		}
		rec.Latest[b.Field] = obs.Value
		rec.Year[b.Field] = obs.Year
	}
}
