package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"tailtrace/internal/research/models"
)

const defaultMemorySize = 1024

// entry is a serialized value with its own expiry; the LRU bounds memory
// while expiry is enforced lazily on read.
type entry struct {
	data      []byte
	expiresAt time.Time
}

// Memory is an in-process cache for tests and single-instance deployments.
// The underlying LRU is safe for concurrent use, which gives per-key atomic
// writes for free.
type Memory struct {
	entries *lru.Cache[string, entry]
	now     func() time.Time
}

// NewMemory builds a bounded in-memory cache. size <= 0 selects the default.
func NewMemory(size int) (*Memory, error) {
	if size <= 0 {
		size = defaultMemorySize
	}
	entries, err := lru.New[string, entry](size)
	if err != nil {
		return nil, fmt.Errorf("build lru: %w", err)
	}
	return &Memory{entries: entries, now: time.Now}, nil
}

func (m *Memory) get(key string) ([]byte, bool) {
	e, ok := m.entries.Get(key)
	if !ok {
		return nil, false
	}
	if m.now().After(e.expiresAt) {
		m.entries.Remove(key)
		return nil, false
	}
	return e.data, true
}

func (m *Memory) put(key string, data []byte, ttl time.Duration) {
	m.entries.Add(key, entry{data: data, expiresAt: m.now().Add(ttl)})
}

func (m *Memory) GetEvidence(_ context.Context, key string) ([]models.EvidenceRecord, bool, error) {
	data, ok := m.get(key)
	if !ok {
		return nil, false, nil
	}
	var records []models.EvidenceRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, false, fmt.Errorf("decode cached evidence: %w", err)
	}
	return records, true, nil
}

func (m *Memory) PutEvidence(_ context.Context, key string, records []models.EvidenceRecord, ttl time.Duration) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode evidence: %w", err)
	}
	m.put(key, data, ttl)
	return nil
}

func (m *Memory) GetResult(_ context.Context, key string) (*models.Result, bool, error) {
	data, ok := m.get(key)
	if !ok {
		return nil, false, nil
	}
	var result models.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, false, fmt.Errorf("decode cached result: %w", err)
	}
	return &result, true, nil
}

func (m *Memory) PutResult(_ context.Context, key string, result *models.Result, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	m.put(key, data, ttl)
	return nil
}
