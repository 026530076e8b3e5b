package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"

	"github.com/jacobfeldgoise/country-comparison/internal/dataset"
	"github.com/jacobfeldgoise/country-comparison/internal/format"
	"github.com/jacobfeldgoise/country-comparison/internal/metric"
	"github.com/jacobfeldgoise/country-comparison/internal/refresh"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 300
)

type statusResponse struct {
	refresh.Status
	Updated string `json:"updated"`
}

func (h *Handler) handleStatus(w http.ResponseWriter, _ *http.Request) {
	st := h.src.Status()
	h.writeJSON(w, http.StatusOK, statusResponse{
		Status:  st,
		Updated: format.Relative(st.LastRefresh, h.now()),
	})
}

type metricsResponse struct {
	Categories []string            `json:"categories"`
	Metrics    []metric.Visibility `json:"metrics"`
}

func (h *Handler) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	cat := h.src.Catalog()
	var records []dataset.CountryRecord
	if d, err := h.src.Data(); err == nil {
		records = d.Records()
	}
	h.writeJSON(w, http.StatusOK, metricsResponse{
		Categories: cat.Categories(),
		Metrics: cat.Visible(func(field string) float64 {
			return dataset.Coverage(records, field)
		}),
	})
}

type countrySummary struct {
	ISO3 string `json:"iso3"`
	ISO2 string `json:"iso2,omitempty"`
	Name string `json:"name"`
	Flag string `json:"flag,omitempty"`
}

func summarize(r dataset.CountryRecord) countrySummary {
	return countrySummary{ISO3: r.ISO3, ISO2: r.ISO2, Name: r.Name, Flag: dataset.Flag(r.ISO2)}
}

type searchResponse struct {
	Query     string           `json:"query"`
	Total     int              `json:"total"`
	Countries []countrySummary `json:"countries"`
}

func (h *Handler) handleSearchCountries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := parseLimit(q.Get("limit"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid limit", map[string]any{"limit": q.Get("limit")})
		return
	}
	d, ok := h.data(w)
	if !ok {
		return
	}

	query := strings.TrimSpace(q.Get("q"))
	matches := d.Index.Search(query, limit)
	out := make([]countrySummary, len(matches))
	for i, m := range matches {
		out[i] = summarize(m)
	}
	h.writeJSON(w, http.StatusOK, searchResponse{Query: query, Total: len(out), Countries: out})
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return defaultSearchLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, eris.New("api: limit must be a positive integer")
	}
	return min(n, maxSearchLimit), nil
}

type countryValue struct {
	Field string   `json:"field"`
	Label string   `json:"label"`
	Value *float64 `json:"value"`
	Year  int      `json:"year,omitempty"`
	Text  string   `json:"text"`
}

type countryResponse struct {
	countrySummary
	Values []countryValue             `json:"values"`
	Series map[string]map[int]float64 `json:"series,omitempty"`
}

func (h *Handler) lookup(w http.ResponseWriter, d *refresh.Data, code string) (dataset.CountryRecord, bool) {
	rec, ok := d.Index.Get(strings.TrimSpace(code))
	if !ok {
		h.writeError(w, http.StatusNotFound, "not_found", dataset.ErrUnknownCountry.Error(), map[string]any{"iso3": code})
	}
	return rec, ok
}

func (h *Handler) handleGetCountry(w http.ResponseWriter, r *http.Request) {
	d, ok := h.data(w)
	if !ok {
		return
	}
	rec, ok := h.lookup(w, d, chi.URLParam(r, "iso3"))
	if !ok {
		return
	}

	defs := h.src.Catalog().Metrics
	values := make([]countryValue, len(defs))
	for i, def := range defs {
		v := rec.ValuePtr(def.Field)
		values[i] = countryValue{
			Field: def.Field,
			Label: def.Label,
			Value: v,
			Year:  rec.Year[def.Field],
			Text:  format.Value(def.Format, v),
		}
	}
	h.writeJSON(w, http.StatusOK, countryResponse{
		countrySummary: summarize(rec),
		Values:         values,
		Series:         rec.Series,
	})
}

type compareResponse struct {
	A    countrySummary `json:"a"`
	B    countrySummary `json:"b"`
	Rows []dataset.Row  `json:"rows"`
}

func (h *Handler) handleCompare(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	codeA, codeB := q.Get("a"), q.Get("b")
	if codeA == "" || codeB == "" {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "a and b are required", map[string]any{"a": codeA, "b": codeB})
		return
	}
	d, ok := h.data(w)
	if !ok {
		return
	}
	a, ok := h.lookup(w, d, codeA)
	if !ok {
		return
	}
	b, ok := h.lookup(w, d, codeB)
	if !ok {
		return
	}

	defs := h.src.Catalog().Metrics
	if q.Get("all") != "true" {
		defs = dataset.VisibleMetrics(h.src.Catalog(), d.Records())
	}
	h.writeJSON(w, http.StatusOK, compareResponse{
		A:    summarize(a),
		B:    summarize(b),
		Rows: dataset.Compare(a, b, defs),
	})
}
