package api

import (
	"errors"
	"net/http"

	"github.com/jacobfeldgoise/country-comparison/internal/colorscale"
	"github.com/jacobfeldgoise/country-comparison/internal/dataset"
	"github.com/jacobfeldgoise/country-comparison/internal/format"
)

type legendEntry struct {
	colorscale.LegendEntry
	FromText string `json:"from_text"`
	ToText   string `json:"to_text"`
}

type choroplethResponse struct {
	Metric           string            `json:"metric"`
	Label            string            `json:"label"`
	Mode             colorscale.Mode   `json:"mode"`
	InsufficientData bool              `json:"insufficient_data"`
	NoData           string            `json:"no_data"`
	Legend           []legendEntry     `json:"legend,omitempty"`
	Colors           map[string]string `json:"colors"`
}

func (h *Handler) handleChoropleth(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	field := q.Get("metric")
	def, ok := h.src.Catalog().Lookup(field)
	if !ok {
		h.writeError(w, http.StatusNotFound, "not_found", "unknown metric", map[string]any{"metric": field})
		return
	}
	mode := h.mode
	if raw := q.Get("mode"); raw != "" {
		m, err := colorscale.ParseMode(raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid mode", map[string]any{"mode": raw})
			return
		}
		mode = m
	}
	d, ok := h.data(w)
	if !ok {
		return
	}

	records := d.Records()
	noData := h.colors.NoData
	if noData == "" {
		noData = colorscale.DefaultNoData
	}
	resp := choroplethResponse{
		Metric: def.Field,
		Label:  def.Label,
		Mode:   mode,
		NoData: noData,
		Colors: make(map[string]string, len(records)),
	}

	scale, err := colorscale.New(mode, dataset.Values(records, def.Field), h.colors)
	switch {
	case errors.Is(err, colorscale.ErrInsufficientData):
		resp.InsufficientData = true
		for _, rec := range records {
			resp.Colors[rec.ISO3] = noData
		}
		h.writeJSON(w, http.StatusOK, resp)
		return
	case err != nil:
		h.writeError(w, http.StatusInternalServerError, "scale_failed", err.Error(), nil)
		return
	}

	for _, e := range scale.Legend() {
		from, to := e.From, e.To
		resp.Legend = append(resp.Legend, legendEntry{
			LegendEntry: e,
			FromText:    format.Value(def.Format, &from),
			ToText:      format.Value(def.Format, &to),
		})
	}
	for _, rec := range records {
		resp.Colors[rec.ISO3] = scale.Color(rec.ValuePtr(def.Field))
	}
	h.writeJSON(w, http.StatusOK, resp)
}
