package api

import (
	"encoding/json"
	"net/http"

	"github.com/paulmach/orb"

	"github.com/jacobfeldgoise/country-comparison/internal/selection"
	"github.com/jacobfeldgoise/country-comparison/internal/viewport"
)

type selectionRequest struct {
	State  selection.State `json:"state"`
	Action string          `json:"action"`
	ISO3   string          `json:"iso3"`
}

type selectionResponse struct {
	State selection.State `json:"state"`
}

func (h *Handler) handleSelection(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body", nil)
		return
	}

	var next selection.State
	switch req.Action {
	case "select":
		if req.ISO3 != "" {
			if d, err := h.src.Data(); err == nil {
				if _, ok := h.lookup(w, d, req.ISO3); !ok {
					return
				}
			}
		}
		next = selection.Select(req.State, req.ISO3, h.now())
	case "swap":
		next = selection.Swap(req.State)
	case "clear":
		next = selection.Clear()
	default:
		h.writeError(w, http.StatusBadRequest, "validation_failed", "action must be select, swap or clear", map[string]any{"action": req.Action})
		return
	}
	h.writeJSON(w, http.StatusOK, selectionResponse{State: next})
}

type viewRequest struct {
	View   viewport.View `json:"view"`
	Action string        `json:"action"`
	DX     float64       `json:"dx"`
	DY     float64       `json:"dy"`
	Factor float64       `json:"factor"`
}

type viewResponse struct {
	View      viewport.View `json:"view"`
	Translate orb.Point     `json:"translate"`
}

func (h *Handler) handleView(w http.ResponseWriter, r *http.Request) {
	var req viewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body", nil)
		return
	}

	var next viewport.View
	switch req.Action {
	case "set", "":
		next = h.frame.Clamp(req.View)
	case "pan":
		next = h.frame.Pan(req.View, req.DX, req.DY)
	case "zoom":
		next = h.frame.ZoomBy(req.View, req.Factor)
	case "reset":
		next = h.frame.Reset()
	default:
		h.writeError(w, http.StatusBadRequest, "validation_failed", "action must be set, pan, zoom or reset", map[string]any{"action": req.Action})
		return
	}
	h.writeJSON(w, http.StatusOK, viewResponse{
		View:      next,
		Translate: viewport.Translate(next, h.frame.Proj, h.frame.Width, h.frame.Height),
	})
}
