package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"tailtrace/internal/research/models"
)

// Redis is the shared cache for multi-instance deployments. Redis SET with
// expiry is atomic per key, so concurrent runs for the same tail converge on
// one value without coordination.
type Redis struct {
	client *redis.Client
}

// NewRedis wraps an existing client; lifecycle stays with the caller.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get %s: %w", key, err)
	}
	return data, true, nil
}

func (r *Redis) put(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("cache put %s: %w", key, err)
	}
	return nil
}

func (r *Redis) GetEvidence(ctx context.Context, key string) ([]models.EvidenceRecord, bool, error) {
	data, ok, err := r.get(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	var records []models.EvidenceRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, false, fmt.Errorf("decode cached evidence: %w", err)
	}
	return records, true, nil
}

func (r *Redis) PutEvidence(ctx context.Context, key string, records []models.EvidenceRecord, ttl time.Duration) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode evidence: %w", err)
	}
	return r.put(ctx, key, data, ttl)
}

func (r *Redis) GetResult(ctx context.Context, key string) (*models.Result, bool, error) {
	data, ok, err := r.get(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	var result models.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, false, fmt.Errorf("decode cached result: %w", err)
	}
	return &result, true, nil
}

func (r *Redis) PutResult(ctx context.Context, key string, result *models.Result, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return r.put(ctx, key, data, ttl)
}
