// Package http exposes health, metrics and the latest benchmark results.
package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"validator-bench/internal/service/bench"
)

// Results provides the current benchmark state.
type Results interface {
	Snapshot() bench.Snapshot
}

// Deps are the router's collaborators.
type Deps struct {
	Results Results
	// Ready reports whether the benchmark has been configured and can run.
	Ready   func() bool
	Metrics http.Handler
}

// NewRouter constructs the HTTP router.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	// Basic middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Health endpoints
	r.Get("/v1/liveness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/v1/readiness", func(w http.ResponseWriter, _ *http.Request) {
		if d.Ready != nil && !d.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	// API routes
	r.Route("/v1", func(r chi.Router) {
		r.Get("/results", func(w http.ResponseWriter, _ *http.Request) {
			if d.Results == nil {
				http.Error(w, "results unavailable", http.StatusNotFound)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_ = json.NewEncoder(w).Encode(d.Results.Snapshot())
		})
		r.Get("/results/{library}", func(w http.ResponseWriter, req *http.Request) {
			if d.Results == nil {
				http.Error(w, "results unavailable", http.StatusNotFound)
				return
			}
			library := chi.URLParam(req, "library")
			for _, res := range d.Results.Snapshot().Results {
				if res.RunID == library || res.Library == library {
					w.Header().Set("Content-Type", "application/json")
					_ = json.NewEncoder(w).Encode(res)
					return
				}
			}
			http.Error(w, "no result for "+library, http.StatusNotFound)
		})
	})

	return r
}
