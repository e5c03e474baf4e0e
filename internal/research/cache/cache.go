// Package cache memoizes provider results and final research outcomes keyed
// by registration identifier plus a source-or-"final" tag. Writes are atomic
// per key; two concurrent runs for the same tail race benignly and the last
// writer wins.
package cache

import (
	"context"
	"time"

	"tailtrace/internal/research/models"
)

// TagFinal marks the cache entry holding a run's assembled result. Provider
// entries use the source category as their tag.
const TagFinal = "final"

// Key builds the cache key for a tail number and tag.
func Key(tail, tag string) string {
	return "research:" + tail + ":" + tag
}

// Cache is the layer wrapped around provider calls and final results.
// Implementations must make Put atomic per key; Get is always safe.
type Cache interface {
	// GetEvidence returns cached provider records, with ok=false on miss or
	// expiry.
	GetEvidence(ctx context.Context, key string) ([]models.EvidenceRecord, bool, error)

	// PutEvidence stores provider records under the key for the TTL.
	PutEvidence(ctx context.Context, key string, records []models.EvidenceRecord, ttl time.Duration) error

	// GetResult returns a cached final result, with ok=false on miss or
	// expiry.
	GetResult(ctx context.Context, key string) (*models.Result, bool, error)

	// PutResult stores a final result under the key for the TTL.
	PutResult(ctx context.Context, key string, result *models.Result, ttl time.Duration) error
}
