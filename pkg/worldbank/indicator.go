package worldbank

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Record is one raw indicator observation as returned by the API.
type Record struct {
	CountryISO3 string          `json:"countryiso3code"`
	Date        string          `json:"date"`
	Value       json.RawMessage `json:"value"`
}

// Observation is a numeric value recorded for a year.
type Observation struct {
	Value float64 `json:"value"`
	Year  int     `json:"year"`
}

// IndicatorData holds one indicator reduced per country.
type IndicatorData struct {
	Code string `json:"code"`
	// Latest holds the highest-year observation per ISO-3 code.
	Latest map[string]Observation `json:"latest"`
	// Series holds every usable observation per ISO-3 code, keyed by year.
	Series map[string]map[int]float64 `json:"series"`
}

// Reduce folds raw records into latest and per-year maps. Records with a
// missing or non-numeric value, an unusable country code, or an unparseable
// year are skipped. The first value seen for a year wins, and only a strictly
// greater year replaces the latest observation.
func Reduce(code string, records []Record) *IndicatorData {
	data := &IndicatorData{
		Code:   code,
		Latest: make(map[string]Observation),
		Series: make(map[string]map[int]float64),
	}

	for _, r := range records {
		iso3 := strings.ToUpper(strings.TrimSpace(r.CountryISO3))
		if len(iso3) != 3 {
			continue
		}
		value, ok := parseValue(r.Value)
		if !ok {
			continue
		}
		year, err := strconv.Atoi(strings.TrimSpace(r.Date))
		if err != nil {
			continue
		}

		series, ok := data.Series[iso3]
		if !ok {
			series = make(map[int]float64)
			data.Series[iso3] = series
		}
		if _, seen := series[year]; !seen {
			series[year] = value
		}

		if cur, ok := data.Latest[iso3]; !ok || year > cur.Year {
			data.Latest[iso3] = Observation{Value: value, Year: year}
		}
	}
	return data
}

// parseValue coerces a JSON number or numeric string to a finite float.
func parseValue(raw json.RawMessage) (float64, bool) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 0, false
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return 0, false
		}
		s = strings.TrimSpace(str)
		if s == "" {
			return 0, false
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
