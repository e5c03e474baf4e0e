// Package providers defines the uniform contract every external data source
// adapter satisfies, plus the thin HTTP adapters for the three primary
// sources. Adapters return structured evidence or a typed failure; how a
// source fetches its data is its own business.
package providers

import (
	"context"

	"tailtrace/internal/research/models"
)

// LatencyClass advertises how long a provider usually takes so the caller can
// budget its per-call timeout.
type LatencyClass string

const (
	LatencyFast LatencyClass = "fast"
	LatencySlow LatencyClass = "slow"
)

// Provider is the universal interface all evidence sources implement.
// Lookup never panics through to the caller: every failure mode is a
// *Failure return value.
type Provider interface {
	// ID returns a unique identifier for this provider instance.
	ID() string

	// Category returns which of the three primary source categories this
	// provider covers.
	Category() models.SourceCategory

	// LatencyClass returns the expected latency class for a lookup.
	LatencyClass() LatencyClass

	// RetryEligible reports whether a transient failure may be retried
	// within the same run.
	RetryEligible() bool

	// Lookup fetches evidence for a normalized registration query. The
	// returned slice may be empty; errors are always *Failure values.
	Lookup(ctx context.Context, query models.RegistrationQuery) ([]models.EvidenceRecord, error)

	// Health checks whether the provider endpoint is reachable.
	Health(ctx context.Context) error
}
