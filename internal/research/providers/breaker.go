package providers

import (
	"context"
	"log/slog"

	"tailtrace/internal/research/models"
	"tailtrace/pkg/platform/circuit"
)

// BreakerProvider wraps a Provider with a circuit breaker so a source that is
// down across runs fails fast instead of burning its timeout budget every
// time. NotFound and MalformedResponse are real answers from a live endpoint
// and do not count against the breaker.
type BreakerProvider struct {
	inner   Provider
	breaker *circuit.Breaker
	logger  *slog.Logger
}

// WithBreaker wraps a provider with the given breaker.
func WithBreaker(inner Provider, breaker *circuit.Breaker, logger *slog.Logger) *BreakerProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &BreakerProvider{inner: inner, breaker: breaker, logger: logger}
}

func (b *BreakerProvider) ID() string                      { return b.inner.ID() }
func (b *BreakerProvider) Category() models.SourceCategory { return b.inner.Category() }
func (b *BreakerProvider) LatencyClass() LatencyClass      { return b.inner.LatencyClass() }
func (b *BreakerProvider) RetryEligible() bool             { return b.inner.RetryEligible() }

// Lookup short-circuits to an Unavailable failure while the breaker is open.
func (b *BreakerProvider) Lookup(ctx context.Context, query models.RegistrationQuery) ([]models.EvidenceRecord, error) {
	if b.breaker.IsOpen() {
		return nil, NewFailure(FailureUnavailable, b.inner.ID(), "circuit open", nil)
	}

	records, err := b.inner.Lookup(ctx, query)
	if err != nil {
		switch CategoryOf(err) {
		case FailureUnavailable, FailureTimeout, FailureRateLimited:
			if _, change := b.breaker.RecordFailure(); change.Opened {
				b.logger.Warn("provider circuit opened", "provider", b.inner.ID())
			}
		}
		return nil, err
	}

	if _, change := b.breaker.RecordSuccess(); change.Closed {
		b.logger.Info("provider circuit closed", "provider", b.inner.ID())
	}
	return records, nil
}

func (b *BreakerProvider) Health(ctx context.Context) error {
	return b.inner.Health(ctx)
}
