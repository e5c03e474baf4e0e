package handler

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"tailtrace/internal/research/providers"
)

const healthTimeout = 5 * time.Second

// Health reports whether the configured providers are reachable. The checks
// fan out concurrently; any unreachable provider degrades the report without
// failing the endpoint.
type Health struct {
	providers []providers.Provider
}

func NewHealth(ps ...providers.Provider) *Health {
	return &Health{providers: ps}
}

type healthResponse struct {
	Status    string            `json:"status"`
	Providers map[string]string `json:"providers"`
}

func (h *Health) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	results := make([]string, len(h.providers))
	g, ctx := errgroup.WithContext(ctx)
	for i, p := range h.providers {
		g.Go(func() error {
			if err := p.Health(ctx); err != nil {
				results[i] = err.Error()
			} else {
				results[i] = "ok"
			}
			return nil
		})
	}
	_ = g.Wait()

	resp := healthResponse{Status: "ok", Providers: make(map[string]string, len(h.providers))}
	for i, p := range h.providers {
		resp.Providers[p.ID()] = results[i]
		if results[i] != "ok" {
			resp.Status = "degraded"
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
