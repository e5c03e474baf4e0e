// Package handler is the thin HTTP layer over the research machine. It
// delegates to the core without embedding research logic so transport
// concerns stay isolated.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"tailtrace/internal/research/models"
)

// Runner executes one research run. Satisfied by *research.Machine.
type Runner interface {
	Run(ctx context.Context, raw string) (*models.Result, error)
}

// Handler serves the research endpoints.
type Handler struct {
	logger     *slog.Logger
	runner     Runner
	runTimeout time.Duration
}

func New(runner Runner, logger *slog.Logger, runTimeout time.Duration) *Handler {
	if runTimeout <= 0 {
		runTimeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, runner: runner, runTimeout: runTimeout}
}

// Register mounts the research routes on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/research/{tail}", h.handleResearch)
}

func (h *Handler) handleResearch(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.runTimeout)
	defer cancel()

	tail := chi.URLParam(r, "tail")
	result, err := h.runner.Run(ctx, tail)

	switch {
	case errors.Is(err, models.ErrInputRejected):
		writeJSON(w, http.StatusBadRequest, failureResponse{
			Status: string(models.OutcomeFailed),
			Reason: err.Error(),
		})
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		h.logger.WarnContext(ctx, "research run cancelled", "tail", tail, "error", err)
		writeJSON(w, http.StatusGatewayTimeout, failureResponse{
			Status: string(models.OutcomeFailed),
			Reason: "research run cancelled before completion",
		})
	case err != nil:
		h.logger.ErrorContext(ctx, "research run error", "tail", tail, "error", err)
		writeJSON(w, http.StatusInternalServerError, failureResponse{
			Status: string(models.OutcomeFailed),
			Reason: "internal error",
		})
	default:
		writeJSON(w, http.StatusOK, result)
	}
}
