//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tailtrace/internal/research/models"
	"tailtrace/pkg/testutil/containers"
)

func TestRedis_EvidenceRoundTrip(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	store := NewRedis(rc.Client)
	ctx := context.Background()

	records := []models.EvidenceRecord{
		{
			Source:        models.SourceRegistry,
			ProviderID:    "faa-registry",
			Fact:          models.FactOwnerName,
			Value:         "TVPX ARS INC TRUSTEE",
			Confidence:    0.95,
			ProvenanceURL: "https://registry.example/N12345",
		},
	}

	key := Key("N12345", string(models.SourceRegistry))
	require.NoError(t, store.PutEvidence(ctx, key, records, time.Minute))

	got, ok, err := store.GetEvidence(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, records, got)
}

func TestRedis_ResultRoundTripAndMiss(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	store := NewRedis(rc.Client)
	ctx := context.Background()

	_, ok, err := store.GetResult(ctx, Key("N404", TagFinal))
	require.NoError(t, err)
	assert.False(t, ok)

	result := &models.Result{
		RunID:      "run-1",
		Outcome:    models.OutcomeCompleted,
		Aircraft:   models.Aircraft{Tail: "N12345"},
		Confidence: 0.92,
	}
	key := Key("N12345", TagFinal)
	require.NoError(t, store.PutResult(ctx, key, result, time.Minute))

	got, ok, err := store.GetResult(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, result.RunID, got.RunID)
	assert.Equal(t, result.Confidence, got.Confidence)
}

func TestRedis_TTLExpires(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	store := NewRedis(rc.Client)
	ctx := context.Background()

	key := Key("N1", TagFinal)
	require.NoError(t, store.PutResult(ctx, key, &models.Result{RunID: "run-1"}, 100*time.Millisecond))

	time.Sleep(300 * time.Millisecond)

	_, ok, err := store.GetResult(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}
