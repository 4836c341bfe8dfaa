// Package server exposes the tracker's published snapshots over HTTP for
// the map client.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/buswatch-live/tracker/internal/geojson"
	"github.com/buswatch-live/tracker/internal/metrics"
	"github.com/buswatch-live/tracker/internal/tracker"
)

// SnapshotSource defines the interface for snapshot reads
type SnapshotSource interface {
	GetBuses(group string) geojson.FeatureCollection
	GetRoutes(group string) geojson.FeatureCollection
	Status() (tracker.Status, bool)
}

// Options configures the HTTP surface
type Options struct {
	Source         SnapshotSource
	Metrics        *metrics.Collector
	AllowedOrigins []string
	StaticDir      string
	PollInterval   time.Duration
}

// HealthResponse is the JSON response structure for GET /api/health
type HealthResponse struct {
	Status      string         `json:"status"`
	SnapshotID  string         `json:"snapshotId,omitempty"`
	PolledAt    *time.Time     `json:"polledAt,omitempty"`
	Vehicles    map[string]int `json:"vehicles,omitempty"`
	CachedTrips int            `json:"cachedTrips"`
	Timestamp   time.Time      `json:"timestamp"`
}

type handler struct {
	source       SnapshotSource
	cacheControl string
}

// New builds the router: the snapshot endpoints, health, Prometheus
// metrics, and optional static-file serving for the map client.
func New(opts Options) http.Handler {
	maxAge := int(opts.PollInterval.Seconds())
	if maxAge < 1 {
		maxAge = 1
	}

	h := &handler{
		source:       opts.Source,
		cacheControl: fmt.Sprintf("public, max-age=%d, stale-while-revalidate=%d", maxAge, (maxAge+1)/2),
	}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/api/buses/{group}", h.getBuses)
	r.Get("/api/routes/{group}", h.getRoutes)
	r.Get("/api/health", h.health)

	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics.Handler())
	}

	if opts.StaticDir != "" {
		fs := http.FileServer(http.Dir(opts.StaticDir))
		r.Handle("/*", fs)
	}

	return r
}

// getBuses handles GET /api/buses/{group}. Unknown groups get an empty
// collection, never an error.
func (h *handler) getBuses(w http.ResponseWriter, r *http.Request) {
	group := chi.URLParam(r, "group")
	h.writeCollection(w, h.source.GetBuses(group))
}

// getRoutes handles GET /api/routes/{group}
func (h *handler) getRoutes(w http.ResponseWriter, r *http.Request) {
	group := chi.URLParam(r, "group")
	h.writeCollection(w, h.source.GetRoutes(group))
}

// health handles GET /api/health. Reports 503 until the first snapshot has
// been published.
func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	status, ok := h.source.Status()
	if !ok {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(HealthResponse{
			Status:    "starting",
			Timestamp: time.Now().UTC(),
		})
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(HealthResponse{
		Status:      "ok",
		SnapshotID:  status.SnapshotID,
		PolledAt:    &status.PolledAt,
		Vehicles:    status.Vehicles,
		CachedTrips: status.CachedTrips,
		Timestamp:   time.Now().UTC(),
	})
}

func (h *handler) writeCollection(w http.ResponseWriter, fc geojson.FeatureCollection) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", h.cacheControl)
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(fc)
}
