package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server with timeouts sized for research runs, which can
// legitimately take tens of seconds while providers respond.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
