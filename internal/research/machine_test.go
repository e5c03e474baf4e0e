package research

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tailtrace/internal/research/cache"
	"tailtrace/internal/research/models"
	"tailtrace/internal/research/providers"
)

type fakeCall struct {
	records []models.EvidenceRecord
	err     error
}

// fakeProvider replays scripted responses in order; the last response repeats.
type fakeProvider struct {
	id       string
	category models.SourceCategory
	calls    int
	script   []fakeCall
}

func (p *fakeProvider) ID() string                           { return p.id }
func (p *fakeProvider) Category() models.SourceCategory      { return p.category }
func (p *fakeProvider) LatencyClass() providers.LatencyClass { return providers.LatencyFast }
func (p *fakeProvider) RetryEligible() bool                  { return true }
func (p *fakeProvider) Health(context.Context) error         { return nil }

func (p *fakeProvider) Lookup(_ context.Context, _ models.RegistrationQuery) ([]models.EvidenceRecord, error) {
	idx := p.calls
	if idx >= len(p.script) {
		idx = len(p.script) - 1
	}
	p.calls++
	call := p.script[idx]
	return call.records, call.err
}

type fakeSink struct {
	requests []models.EscalationRequest
}

func (s *fakeSink) Publish(_ context.Context, req models.EscalationRequest) error {
	s.requests = append(s.requests, req)
	return nil
}

func failing(id string, category models.SourceCategory, failure providers.FailureCategory) *fakeProvider {
	return &fakeProvider{
		id:       id,
		category: category,
		script:   []fakeCall{{err: providers.NewFailure(failure, id, "scripted failure", nil)}},
	}
}

func succeeding(id string, category models.SourceCategory, records ...models.EvidenceRecord) *fakeProvider {
	return &fakeProvider{id: id, category: category, script: []fakeCall{{records: records}}}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.RetryBackoff = time.Millisecond
	return cfg
}

func newTestCache(t *testing.T) *cache.Memory {
	t.Helper()
	store, err := cache.NewMemory(64)
	require.NoError(t, err)
	return store
}

func TestMachine_RejectsMalformedInput(t *testing.T) {
	registry := failing("faa-registry", models.SourceRegistry, providers.FailureUnavailable)
	tracker := failing("flight-tracker", models.SourceFlightTrack, providers.FailureUnavailable)
	web := failing("web-search", models.SourceWebSearch, providers.FailureUnavailable)
	m := NewMachine(registry, tracker, web, nil, nil, nil, nil, testConfig())

	result, err := m.Run(context.Background(), "ABC123")

	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInputRejected)
	require.NotNil(t, result)
	assert.Equal(t, models.OutcomeFailed, result.Outcome)
	assert.NotEmpty(t, result.FailureReason)

	// Rejection happens before any source is contacted.
	assert.Zero(t, registry.calls)
	assert.Zero(t, tracker.calls)
	assert.Zero(t, web.calls)
}

func TestMachine_CompletesWithCorroboratedOwner(t *testing.T) {
	registry := succeeding("faa-registry", models.SourceRegistry,
		ownerRecord(models.SourceRegistry, "TVPX ARS INC TRUSTEE", "https://registry.example/N12345"),
		contactRecord(models.SourceRegistry, models.FactManufacturer, "GULFSTREAM", "https://registry.example/N12345"),
		contactRecord(models.SourceRegistry, models.FactModel, "G550", "https://registry.example/N12345"),
		contactRecord(models.SourceRegistry, models.FactYear, "2015", "https://registry.example/N12345"),
	)
	tracker := succeeding("flight-tracker", models.SourceFlightTrack,
		ownerRecord(models.SourceFlightTrack, "TVPX Aircraft Solutions Inc", "https://tracker.example/N12345"),
	)
	person := ownerRecord(models.SourceWebSearch, "Mr. John Smith", "https://web.example/tvpx")
	person.Relation = &models.Relation{Kind: models.RelationOfficerOf, Target: "TVPX Aircraft Solutions Inc"}
	web := succeeding("web-search", models.SourceWebSearch,
		ownerRecord(models.SourceWebSearch, "TVPX Aircraft Solutions Inc", "https://web.example/tvpx"),
		person,
		contactRecord(models.SourceWebSearch, models.FactContactEmail, "john@tvpx.example", "https://web.example/tvpx"),
	)

	sink := &fakeSink{}
	m := NewMachine(registry, tracker, web, newTestCache(t), sink, nil, nil, testConfig())

	result, err := m.Run(context.Background(), "n-12345")
	require.NoError(t, err)

	assert.Equal(t, models.OutcomeCompleted, result.Outcome)
	assert.False(t, result.Escalated)
	assert.Empty(t, sink.requests)
	assert.GreaterOrEqual(t, result.Confidence, 0.7)
	assert.False(t, result.LowConfidence)

	require.NotNil(t, result.Owner)
	assert.Equal(t, "TVPX ARS", result.Owner.Name)
	require.NotNil(t, result.DecisionMaker)
	assert.Equal(t, "JOHN SMITH", result.DecisionMaker.Name)

	assert.Equal(t, "N12345", result.Aircraft.Tail)
	assert.Equal(t, "GULFSTREAM", result.Aircraft.Manufacturer)
	assert.Equal(t, "G550", result.Aircraft.Model)
	assert.Equal(t, "2015", result.Aircraft.Year)

	require.Len(t, result.Attempts, 3)
	for _, attempt := range result.Attempts {
		assert.Equal(t, models.AttemptSucceeded, attempt.Outcome)
	}
	assert.NotEmpty(t, result.Provenance)
}

func TestMachine_PartialSourcesCompleteLowConfidence(t *testing.T) {
	registry := succeeding("faa-registry", models.SourceRegistry,
		ownerRecord(models.SourceRegistry, "TVPX ARS INC TRUSTEE", "https://registry.example/N12345"),
	)
	tracker := &fakeProvider{
		id:       "flight-tracker",
		category: models.SourceFlightTrack,
		script: []fakeCall{
			{err: providers.NewFailure(providers.FailureTimeout, "flight-tracker", "deadline", nil)},
		},
	}
	web := succeeding("web-search", models.SourceWebSearch,
		ownerRecord(models.SourceWebSearch, "TVPX Aircraft Solutions Inc", "https://web.example/tvpx"),
		contactRecord(models.SourceWebSearch, models.FactContactEmail, "info@tvpx.example", "https://web.example/tvpx"),
	)

	sink := &fakeSink{}
	m := NewMachine(registry, tracker, web, nil, sink, nil, nil, testConfig())

	result, err := m.Run(context.Background(), "N12345")
	require.NoError(t, err)

	// The tracker timed out on both tries; its single retry is consumed.
	assert.Equal(t, 2, tracker.calls)
	trackerAttempt := result.Attempts[1]
	assert.Equal(t, models.AttemptFailed, trackerAttempt.Outcome)
	assert.Equal(t, string(providers.FailureTimeout), trackerAttempt.Failure)
	assert.True(t, trackerAttempt.Retried)

	// Two of three categories agree on one merged entity with no named
	// individual: enough to complete, flagged low-confidence.
	assert.Equal(t, models.OutcomeCompleted, result.Outcome)
	assert.True(t, result.LowConfidence)
	assert.InDelta(t, 0.6667, result.Confidence, 0.001)
	assert.Empty(t, sink.requests)

	require.NotNil(t, result.Owner)
	assert.Equal(t, "TVPX ARS", result.Owner.Name)
	assert.Nil(t, result.DecisionMaker)
}

func TestMachine_AllSourcesFailEscalates(t *testing.T) {
	registry := failing("faa-registry", models.SourceRegistry, providers.FailureUnavailable)
	tracker := failing("flight-tracker", models.SourceFlightTrack, providers.FailureNotFound)
	web := failing("web-search", models.SourceWebSearch, providers.FailureUnavailable)

	sink := &fakeSink{}
	m := NewMachine(registry, tracker, web, nil, sink, nil, nil, testConfig())

	result, err := m.Run(context.Background(), "N12345")
	require.NoError(t, err, "source failures degrade, they do not error the run")

	assert.Equal(t, models.OutcomeEscalated, result.Outcome)
	assert.True(t, result.Escalated)
	assert.Zero(t, result.Confidence)
	assert.Contains(t, result.Justification, "no evidence")
	assert.Nil(t, result.Owner)

	require.Len(t, result.Attempts, 3)
	for _, attempt := range result.Attempts {
		assert.Equal(t, models.AttemptFailed, attempt.Outcome)
		assert.NotEmpty(t, attempt.Failure)
	}

	require.Len(t, sink.requests, 1)
	req := sink.requests[0]
	assert.Equal(t, "N12345", req.Tail)
	assert.Contains(t, req.Reason, "below escalation floor")
	assert.Len(t, req.Attempts, 3)
}

func TestMachine_RetriesTransientFailureOnce(t *testing.T) {
	registry := &fakeProvider{
		id:       "faa-registry",
		category: models.SourceRegistry,
		script: []fakeCall{
			{err: providers.NewFailure(providers.FailureTimeout, "faa-registry", "deadline", nil)},
			{records: []models.EvidenceRecord{ownerRecord(models.SourceRegistry, "WING HOLDINGS LLC", "https://registry.example/N1")}},
		},
	}
	tracker := failing("flight-tracker", models.SourceFlightTrack, providers.FailureUnavailable)
	web := failing("web-search", models.SourceWebSearch, providers.FailureUnavailable)

	m := NewMachine(registry, tracker, web, nil, &fakeSink{}, nil, nil, testConfig())

	result, err := m.Run(context.Background(), "N1")
	require.NoError(t, err)

	assert.Equal(t, 2, registry.calls)
	require.NotEmpty(t, result.Attempts)
	registryAttempt := result.Attempts[0]
	assert.Equal(t, models.SourceRegistry, registryAttempt.Source)
	assert.Equal(t, models.AttemptSucceeded, registryAttempt.Outcome)
	assert.True(t, registryAttempt.Retried)
}

func TestMachine_DoesNotRetryNotFound(t *testing.T) {
	registry := failing("faa-registry", models.SourceRegistry, providers.FailureNotFound)
	tracker := failing("flight-tracker", models.SourceFlightTrack, providers.FailureUnavailable)
	web := failing("web-search", models.SourceWebSearch, providers.FailureUnavailable)

	m := NewMachine(registry, tracker, web, nil, &fakeSink{}, nil, nil, testConfig())

	result, err := m.Run(context.Background(), "N1")
	require.NoError(t, err)

	assert.Equal(t, 1, registry.calls)
	registryAttempt := result.Attempts[0]
	assert.Equal(t, models.AttemptFailed, registryAttempt.Outcome)
	assert.Equal(t, string(providers.FailureNotFound), registryAttempt.Failure)
	assert.False(t, registryAttempt.Retried)
}

func TestMachine_FinalResultServedFromCache(t *testing.T) {
	registry := succeeding("faa-registry", models.SourceRegistry,
		ownerRecord(models.SourceRegistry, "WING HOLDINGS LLC", "https://registry.example/N1"),
	)
	tracker := succeeding("flight-tracker", models.SourceFlightTrack,
		ownerRecord(models.SourceFlightTrack, "WING HOLDINGS LLC", "https://tracker.example/N1"),
	)
	web := succeeding("web-search", models.SourceWebSearch,
		ownerRecord(models.SourceWebSearch, "Wing Holdings LLC", "https://web.example/wing"),
	)

	m := NewMachine(registry, tracker, web, newTestCache(t), &fakeSink{}, nil, nil, testConfig())

	first, err := m.Run(context.Background(), "N1")
	require.NoError(t, err)
	second, err := m.Run(context.Background(), "N1")
	require.NoError(t, err)

	assert.Equal(t, first.RunID, second.RunID, "second run must be the memoized result")
	assert.Equal(t, 1, registry.calls)
	assert.Equal(t, 1, tracker.calls)
	assert.Equal(t, 1, web.calls)
}

func TestMachine_EvidenceCacheSkipsProvider(t *testing.T) {
	store := newTestCache(t)
	cached := []models.EvidenceRecord{
		ownerRecord(models.SourceRegistry, "WING HOLDINGS LLC", "https://registry.example/N1"),
	}
	require.NoError(t, store.PutEvidence(context.Background(), cache.Key("N1", string(models.SourceRegistry)), cached, time.Minute))

	registry := failing("faa-registry", models.SourceRegistry, providers.FailureUnavailable)
	tracker := failing("flight-tracker", models.SourceFlightTrack, providers.FailureUnavailable)
	web := failing("web-search", models.SourceWebSearch, providers.FailureUnavailable)

	m := NewMachine(registry, tracker, web, store, &fakeSink{}, nil, nil, testConfig())

	result, err := m.Run(context.Background(), "N1")
	require.NoError(t, err)

	assert.Zero(t, registry.calls, "cached evidence must not hit the provider")
	registryAttempt := result.Attempts[0]
	assert.Equal(t, models.AttemptCached, registryAttempt.Outcome)
	assert.Equal(t, 1, registryAttempt.Records)
	require.NotNil(t, result.Owner)
	assert.Equal(t, "WING HOLDINGS", result.Owner.Name)
}

func TestMachine_CancelledContextStopsBetweenStages(t *testing.T) {
	registry := succeeding("faa-registry", models.SourceRegistry,
		ownerRecord(models.SourceRegistry, "WING HOLDINGS LLC", "https://registry.example/N1"),
	)
	tracker := failing("flight-tracker", models.SourceFlightTrack, providers.FailureUnavailable)
	web := failing("web-search", models.SourceWebSearch, providers.FailureUnavailable)

	m := NewMachine(registry, tracker, web, nil, &fakeSink{}, nil, nil, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := m.Run(ctx, "N1")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, result)
	assert.Zero(t, registry.calls)
}
