// Package httpapi wires the public HTTP surface: the research endpoint,
// health, and metrics.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tailtrace/internal/research/handler"
)

// NewRouter assembles the router. Handlers stay thin; research logic lives in
// internal/research.
func NewRouter(research *handler.Handler, health *handler.Health) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(90 * time.Second))

	research.Register(r)
	r.Method(http.MethodGet, "/healthz", health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}
