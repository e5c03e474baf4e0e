package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tailtrace/internal/research/models"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "research:N12345:registry", Key("N12345", "registry"))
	assert.Equal(t, "research:N12345:final", Key("N12345", TagFinal))
}

func TestMemory_EvidenceRoundTrip(t *testing.T) {
	m, err := NewMemory(16)
	require.NoError(t, err)
	ctx := context.Background()

	records := []models.EvidenceRecord{
		{
			Source:        models.SourceRegistry,
			ProviderID:    "faa-registry",
			Fact:          models.FactOwnerName,
			Value:         "TVPX ARS INC TRUSTEE",
			Confidence:    0.95,
			ProvenanceURL: "https://registry.example/N12345",
			Relation:      &models.Relation{Kind: models.RelationTrusteeOf, Target: "WING AVIATION LLC"},
		},
	}

	key := Key("N12345", string(models.SourceRegistry))
	require.NoError(t, m.PutEvidence(ctx, key, records, time.Minute))

	got, ok, err := m.GetEvidence(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, records, got)
}

func TestMemory_MissOnAbsentKey(t *testing.T) {
	m, err := NewMemory(16)
	require.NoError(t, err)

	_, ok, err := m.GetEvidence(context.Background(), Key("N1", "registry"))
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = m.GetResult(context.Background(), Key("N1", TagFinal))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemory_ExpiryEnforcedOnRead(t *testing.T) {
	m, err := NewMemory(16)
	require.NoError(t, err)
	ctx := context.Background()

	base := time.Now()
	m.now = func() time.Time { return base }

	result := &models.Result{RunID: "run-1", Outcome: models.OutcomeCompleted}
	key := Key("N12345", TagFinal)
	require.NoError(t, m.PutResult(ctx, key, result, time.Hour))

	got, ok, err := m.GetResult(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "run-1", got.RunID)

	// Advance past the TTL: the entry is gone on the next read.
	m.now = func() time.Time { return base.Add(2 * time.Hour) }
	_, ok, err = m.GetResult(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemory_BoundedByLRU(t *testing.T) {
	m, err := NewMemory(2)
	require.NoError(t, err)
	ctx := context.Background()

	for _, tail := range []string{"N1", "N2", "N3"} {
		require.NoError(t, m.PutResult(ctx, Key(tail, TagFinal), &models.Result{RunID: tail}, time.Hour))
	}

	// Oldest entry was evicted by the size bound.
	_, ok, err := m.GetResult(ctx, Key("N1", TagFinal))
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = m.GetResult(ctx, Key("N3", TagFinal))
	require.NoError(t, err)
	assert.True(t, ok)
}
