// Package api serves the country dataset, choropleth scales and view state
// transitions over JSON HTTP.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/jacobfeldgoise/country-comparison/internal/colorscale"
	"github.com/jacobfeldgoise/country-comparison/internal/metric"
	"github.com/jacobfeldgoise/country-comparison/internal/refresh"
	"github.com/jacobfeldgoise/country-comparison/internal/viewport"
)

// Source provides the committed dataset and refresh status.
type Source interface {
	Data() (*refresh.Data, error)
	Status() refresh.Status
	Catalog() *metric.Catalog
}

// Options configures a Handler.
type Options struct {
	Frame     viewport.Frame
	ScaleMode colorscale.Mode
	Colors    colorscale.Options
	Now       func() time.Time
}

// Handler serves the API.
type Handler struct {
	src    Source
	frame  viewport.Frame
	mode   colorscale.Mode
	colors colorscale.Options
	now    func() time.Time
}

// New creates a Handler.
func New(src Source, opts Options) *Handler {
	h := &Handler{
		src:    src,
		frame:  opts.Frame,
		mode:   opts.ScaleMode,
		colors: opts.Colors,
		now:    opts.Now,
	}
	if h.mode == "" {
		h.mode = colorscale.Quantile
	}
	if h.now == nil {
		h.now = time.Now
	}
	return h
}

// Routes returns the router with middleware and every endpoint mounted.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/status", h.handleStatus)
		r.Get("/metrics", h.handleMetrics)
		r.Get("/countries", h.handleSearchCountries)
		r.Get("/countries/{iso3}", h.handleGetCountry)
		r.Get("/compare", h.handleCompare)
		r.Get("/choropleth", h.handleChoropleth)
		r.Post("/selection", h.handleSelection)
		r.Post("/view", h.handleView)
	})
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("api: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, msg string, details map[string]any) {
	h.writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: msg, Details: details}})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// data loads the committed dataset or writes a 503 carrying the refresh error.
func (h *Handler) data(w http.ResponseWriter) (*refresh.Data, bool) {
	d, err := h.src.Data()
	if err != nil {
		st := h.src.Status()
		details := map[string]any{"loading": st.Loading}
		if st.LastError != "" {
			details["last_error"] = st.LastError
		}
		h.writeError(w, http.StatusServiceUnavailable, "no_data", "country data is not loaded yet", details)
		return nil, false
	}
	return d, true
}
