// Package escalate delivers escalation requests to human reviewers. Delivery
// is fire-and-forget: the research run terminates as Escalated whether or not
// the sink keeps up.
package escalate

import (
	"context"
	"log/slog"

	"tailtrace/internal/research/models"
)

// Sink accepts escalation requests. Implementations must not block the
// research run on downstream consumers.
type Sink interface {
	Publish(ctx context.Context, req models.EscalationRequest) error
}

// ChannelSink buffers requests on a channel for an in-process worker. A full
// buffer drops the request rather than stalling the run; the drop is logged
// so operators can size the buffer.
type ChannelSink struct {
	inbox  chan models.EscalationRequest
	logger *slog.Logger
}

func NewChannelSink(buffer int, logger *slog.Logger) *ChannelSink {
	if buffer <= 0 {
		buffer = 64
	}
	return &ChannelSink{
		inbox:  make(chan models.EscalationRequest, buffer),
		logger: logger,
	}
}

// Inbox exposes the channel for a consuming worker.
func (s *ChannelSink) Inbox() <-chan models.EscalationRequest {
	return s.inbox
}

func (s *ChannelSink) Publish(ctx context.Context, req models.EscalationRequest) error {
	select {
	case s.inbox <- req:
		return nil
	default:
		if s.logger != nil {
			s.logger.WarnContext(ctx, "escalation buffer full, request dropped",
				"run_id", req.RunID,
				"tail", req.Tail,
			)
		}
		return nil
	}
}

// Handler processes one escalation request.
type Handler func(ctx context.Context, req models.EscalationRequest) error

// LogHandler records each escalation request in the process log. It is the
// default consumer when no review queue is configured.
func LogHandler(logger *slog.Logger) Handler {
	return func(ctx context.Context, req models.EscalationRequest) error {
		logger.InfoContext(ctx, "escalation requires human review",
			"run_id", req.RunID,
			"tail", req.Tail,
			"score", req.Score,
			"reason", req.Reason,
		)
		return nil
	}
}

// Worker drains a sink's inbox into a handler. It keeps background processing
// testable without wiring a queue implementation.
type Worker struct {
	inbox   <-chan models.EscalationRequest
	handler Handler
	logger  *slog.Logger
}

func NewWorker(inbox <-chan models.EscalationRequest, handler Handler, logger *slog.Logger) *Worker {
	return &Worker{inbox: inbox, handler: handler, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-w.inbox:
			if err := w.handler(ctx, req); err != nil {
				if w.logger != nil {
					w.logger.ErrorContext(ctx, "escalation handler failed",
						"run_id", req.RunID,
						"error", err,
					)
				}
			}
		}
	}
}
