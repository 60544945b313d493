// Package admin implements Routify's HTTP admin surface: /healthz and
// /metrics. This is separate from the TCP planner protocol (internal/tcpserver).
package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/routify-transit/routify/internal/graph"
	"github.com/routify-transit/routify/internal/middleware"
)

// cachedMetricsTTL bounds how often the /metrics exposition is
// recomputed; scrapes between refreshes get the cached text.
const cachedMetricsTTL = 10 * time.Second

// Server holds the dependencies for the admin HTTP surface.
type Server struct {
	graph   *graph.Graph
	version string
}

// New builds an admin Server reporting readiness from g's loaded station
// count.
func New(g *graph.Graph, version string) *Server {
	return &Server{graph: g, version: version}
}

// healthStatus is the JSON body served at /healthz.
type healthStatus struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Stations int    `json:"stations"`
	Ready    bool   `json:"ready"`
}

// healthzHandler reports whether the graph has finished loading. A graph
// with zero stations means ingestion hasn't completed (or failed), so the
// server isn't ready to plan routes yet.
func (s *Server) healthzHandler(w http.ResponseWriter, r *http.Request) {
	stations := s.graph.StationCount()
	ready := stations > 0

	status := healthStatus{
		Status:   "available",
		Version:  s.version,
		Stations: stations,
		Ready:    ready,
	}

	w.Header().Set("Content-Type", "application/json")
	if !ready {
		w.WriteHeader(http.StatusInternalServerError)
	}
	json.NewEncoder(w).Encode(status)
}

// Routes builds the admin HTTP handler: httprouter with /healthz and
// /metrics, wrapped in Sentry error tracking and security headers.
func (s *Server) Routes(ctx context.Context) http.Handler {
	router := httprouter.New()

	router.HandlerFunc(http.MethodGet, "/healthz", s.healthzHandler)
	router.Handler(http.MethodGet, "/metrics", middleware.NewCachedPromHandler(ctx, prometheus.DefaultGatherer, cachedMetricsTTL))

	handler := middleware.SentryMiddleware(router)
	return middleware.SecurityHeaders(handler)
}
