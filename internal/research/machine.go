package research

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"

	"tailtrace/internal/research/cache"
	"tailtrace/internal/research/escalate"
	"tailtrace/internal/research/metrics"
	"tailtrace/internal/research/models"
	"tailtrace/internal/research/providers"
)

// Config tunes a research machine. Zero values select the documented
// defaults.
type Config struct {
	MergeThreshold float64
	Scorer         ScorerConfig

	// RetryBackoff is the fixed delay before the single retry granted to
	// retry-eligible providers on a transient failure.
	RetryBackoff time.Duration

	// Per-call timeouts by the provider's declared latency class.
	FastTimeout time.Duration
	SlowTimeout time.Duration

	// Cache TTLs for provider evidence and final results.
	EvidenceTTL time.Duration
	ResultTTL   time.Duration
}

// DefaultConfig returns the default research policy.
func DefaultConfig() Config {
	return Config{
		MergeThreshold: DefaultMergeThreshold,
		Scorer:         DefaultScorerConfig(),
		RetryBackoff:   500 * time.Millisecond,
		FastTimeout:    5 * time.Second,
		SlowTimeout:    20 * time.Second,
		EvidenceTTL:    6 * time.Hour,
		ResultTTL:      24 * time.Hour,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.MergeThreshold == 0 {
		c.MergeThreshold = def.MergeThreshold
	}
	if c.RetryBackoff == 0 {
		c.RetryBackoff = def.RetryBackoff
	}
	if c.FastTimeout == 0 {
		c.FastTimeout = def.FastTimeout
	}
	if c.SlowTimeout == 0 {
		c.SlowTimeout = def.SlowTimeout
	}
	if c.EvidenceTTL == 0 {
		c.EvidenceTTL = def.EvidenceTTL
	}
	if c.ResultTTL == 0 {
		c.ResultTTL = def.ResultTTL
	}
	return c
}

// Machine drives one research run through its fixed stage order, absorbing
// provider failures along the way. Each Run owns its state exclusively;
// machines are safe for concurrent Runs because the cache is the only shared
// resource.
type Machine struct {
	registry    providers.Provider
	flightTrack providers.Provider
	webSearch   providers.Provider
	cache       cache.Cache
	sink        escalate.Sink
	resolver    *Resolver
	scorer      *Scorer
	logger      *slog.Logger
	metrics     *metrics.Metrics
	cfg         Config
}

// NewMachine wires a research machine. Cache and sink may be nil: a nil cache
// disables memoization, a nil sink records escalations in the result only.
func NewMachine(
	registry, flightTrack, webSearch providers.Provider,
	store cache.Cache,
	sink escalate.Sink,
	logger *slog.Logger,
	m *metrics.Metrics,
	cfg Config,
) *Machine {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Machine{
		registry:    registry,
		flightTrack: flightTrack,
		webSearch:   webSearch,
		cache:       store,
		sink:        sink,
		resolver:    NewResolver(cfg.MergeThreshold),
		scorer:      NewScorer(cfg.Scorer),
		logger:      logger,
		metrics:     m,
		cfg:         cfg,
	}
}

// runState is the mutable context threaded through one orchestration run.
type runState struct {
	id       string
	query    models.RegistrationQuery
	stage    models.Stage
	attempts []models.SourceAttempt
	evidence []models.EvidenceRecord
	graph    *Graph
}

// Run executes a full research run for a raw registration identifier and
// returns the terminal result. A malformed identifier returns a fully-formed
// Failed result together with an error wrapping models.ErrInputRejected; no
// provider is contacted in that case. Provider failures never produce an
// error: they degrade into missing evidence and a lower score.
func (m *Machine) Run(ctx context.Context, raw string) (*models.Result, error) {
	start := time.Now()

	query, err := models.NewRegistrationQuery(raw)
	if err != nil {
		m.metrics.IncrementOutcome(string(models.OutcomeFailed))
		return &models.Result{
			RunID:         uuid.NewString(),
			Outcome:       models.OutcomeFailed,
			Aircraft:      models.Aircraft{Tail: raw},
			Justification: "registration identifier rejected before lookup",
			FailureReason: err.Error(),
			CompletedAt:   time.Now().UTC(),
		}, err
	}

	finalKey := cache.Key(query.Tail, cache.TagFinal)
	if m.cache != nil {
		cached, ok, cerr := m.cache.GetResult(ctx, finalKey)
		if cerr != nil {
			m.logger.WarnContext(ctx, "final result cache read failed", "tail", query.Tail, "error", cerr)
		}
		m.metrics.IncrementCacheLookup(cache.TagFinal, ok)
		if ok {
			return cached, nil
		}
	}

	st := &runState{
		id:    uuid.NewString(),
		query: query,
		stage: models.StageInitiated,
		graph: NewGraph(),
	}

	stages := []struct {
		stage    models.Stage
		provider providers.Provider
	}{
		{models.StageRegistryLookup, m.registry},
		{models.StageSecondaryLookup, m.flightTrack},
		{models.StageWebSearch, m.webSearch},
	}
	for _, s := range stages {
		// Cancellation between stages: an in-flight call completes, but no
		// new stage launches once the context is done.
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run cancelled before %s: %w", s.stage, err)
		}
		st.stage = s.stage
		m.runSource(ctx, st, s.provider)

		interim := m.scorer.Score(st.graph)
		m.logger.DebugContext(ctx, "stage complete",
			"run_id", st.id,
			"tail", query.Tail,
			"stage", s.stage,
			"score", interim.Score,
		)
	}

	st.stage = models.StageAnalysis
	result := m.analyze(ctx, st)

	if m.cache != nil {
		if cerr := m.cache.PutResult(ctx, finalKey, result, m.cfg.ResultTTL); cerr != nil {
			m.logger.WarnContext(ctx, "final result cache write failed", "tail", query.Tail, "error", cerr)
		}
	}

	m.metrics.IncrementOutcome(string(result.Outcome))
	m.metrics.ObserveRunLatency(time.Since(start))
	return result, nil
}

// runSource executes one lookup stage: cache first, then the provider with
// its retry budget. A failed source is recorded and contributes no evidence;
// it never halts the run.
func (m *Machine) runSource(ctx context.Context, st *runState, p providers.Provider) {
	category := p.Category()
	key := cache.Key(st.query.Tail, string(category))

	if m.cache != nil {
		records, ok, err := m.cache.GetEvidence(ctx, key)
		if err != nil {
			m.logger.WarnContext(ctx, "evidence cache read failed", "tail", st.query.Tail, "source", category, "error", err)
		}
		m.metrics.IncrementCacheLookup(string(category), ok)
		if ok {
			m.ingest(st, records)
			st.attempts = append(st.attempts, models.SourceAttempt{
				Source:     category,
				ProviderID: p.ID(),
				Outcome:    models.AttemptCached,
				Records:    len(records),
			})
			return
		}
	}

	start := time.Now()
	records, retried, err := m.lookup(ctx, p, st.query)
	m.metrics.ObserveSourceLatency(string(category), time.Since(start))

	if err != nil {
		failure := providers.CategoryOf(err)
		m.metrics.IncrementProviderFailure(string(category), string(failure))
		m.logger.WarnContext(ctx, "source lookup failed",
			"run_id", st.id,
			"tail", st.query.Tail,
			"source", category,
			"failure", failure,
			"retried", retried,
			"error", err,
		)
		st.attempts = append(st.attempts, models.SourceAttempt{
			Source:     category,
			ProviderID: p.ID(),
			Outcome:    models.AttemptFailed,
			Failure:    string(failure),
			Retried:    retried,
		})
		return
	}

	if m.cache != nil {
		if cerr := m.cache.PutEvidence(ctx, key, records, m.cfg.EvidenceTTL); cerr != nil {
			m.logger.WarnContext(ctx, "evidence cache write failed", "tail", st.query.Tail, "source", category, "error", cerr)
		}
	}

	m.ingest(st, records)
	st.attempts = append(st.attempts, models.SourceAttempt{
		Source:     category,
		ProviderID: p.ID(),
		Outcome:    models.AttemptSucceeded,
		Retried:    retried,
		Records:    len(records),
	})
}

// lookup calls the provider with its class timeout. Retry-eligible providers
// get exactly one retry after a fixed backoff, and only for transient
// failures; this is the only retry in the system.
func (m *Machine) lookup(ctx context.Context, p providers.Provider, query models.RegistrationQuery) ([]models.EvidenceRecord, bool, error) {
	timeout := m.cfg.FastTimeout
	if p.LatencyClass() == providers.LatencySlow {
		timeout = m.cfg.SlowTimeout
	}

	attempts := uint(1)
	if p.RetryEligible() {
		attempts = 2
	}

	var records []models.EvidenceRecord
	retried := false
	err := retry.Do(
		func() error {
			callCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			out, err := p.Lookup(callCtx, query)
			if err != nil {
				return err
			}
			records = out
			return nil
		},
		retry.Attempts(attempts),
		retry.Delay(m.cfg.RetryBackoff),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(providers.Transient),
		retry.OnRetry(func(_ uint, err error) {
			retried = true
			m.logger.InfoContext(ctx, "retrying source after transient failure",
				"source", p.Category(),
				"error", err,
			)
		}),
		retry.Context(ctx),
	)
	if err != nil {
		return nil, retried, err
	}
	return records, retried, nil
}

// ingest feeds a batch of records from one source into the graph: owner
// names resolve to entities first, then detail facts attach to the entities
// the batch named. Contacts found alongside a named person belong to the
// person, not the organization.
func (m *Machine) ingest(st *runState, records []models.EvidenceRecord) {
	st.evidence = append(st.evidence, records...)

	var primary, person *models.Entity
	for _, rec := range records {
		if rec.Fact != models.FactOwnerName {
			continue
		}
		e := m.resolver.Resolve(st.graph, rec)
		if e.Kind == models.KindIndividual {
			person = e
		} else if primary == nil {
			primary = e
		}
	}

	for _, rec := range records {
		switch rec.Fact {
		case models.FactOwnerName:
			// already resolved
		case models.FactManufacturer, models.FactModel, models.FactYear, models.FactSerial:
			// airframe detail, carried on the run rather than an entity
		case models.FactContactEmail, models.FactContactPhone, models.FactContactProfile, models.FactRole:
			target := person
			if target == nil {
				target = primary
			}
			if target == nil {
				target = st.graph.Leading()
			}
			m.resolver.Attach(st.graph, target, rec)
		default:
			target := primary
			if target == nil {
				target = st.graph.Leading()
			}
			m.resolver.Attach(st.graph, target, rec)
		}
	}
}

// analyze runs the terminal Analysis stage: score the graph, assemble the
// result, and hand low-confidence runs to the escalation sink.
func (m *Machine) analyze(ctx context.Context, st *runState) *models.Result {
	assessment := m.scorer.Score(st.graph)

	result := &models.Result{
		RunID:         st.id,
		Aircraft:      m.aircraft(st),
		Confidence:    assessment.Score,
		Justification: assessment.Justification,
		LowConfidence: assessment.Score < m.scorer.cfg.SufficientThreshold,
		Provenance:    st.graph.ProvenanceURLs(),
		Attempts:      st.attempts,
		CompletedAt:   time.Now().UTC(),
	}
	if assessment.Leading != nil {
		owner := assessment.Leading.Summarize()
		result.Owner = &owner
	}
	if assessment.DecisionMaker != nil {
		dm := assessment.DecisionMaker.Summarize()
		result.DecisionMaker = &dm
	}

	if assessment.NeedsEscalation(m.scorer.cfg) {
		st.stage = models.StageEscalated
		result.Outcome = models.OutcomeEscalated
		result.Escalated = true
		m.escalateRun(ctx, st, assessment)
		return result
	}

	st.stage = models.StageCompleted
	result.Outcome = models.OutcomeCompleted
	return result
}

func (m *Machine) escalateRun(ctx context.Context, st *runState, assessment Assessment) {
	req := models.EscalationRequest{
		RunID:           st.id,
		Tail:            st.query.Tail,
		Score:           assessment.Score,
		Reason:          fmt.Sprintf("confidence %.2f below escalation floor %.2f after all sources", assessment.Score, m.scorer.cfg.EscalationFloor),
		EvidenceSummary: summarizeEvidence(st.evidence),
		Entities:        st.graph.Summaries(),
		Attempts:        st.attempts,
		RequestedAt:     time.Now().UTC(),
	}

	if m.sink == nil {
		return
	}
	if err := m.sink.Publish(ctx, req); err != nil {
		// Fire-and-forget: a sink failure does not change the outcome.
		m.logger.ErrorContext(ctx, "escalation publish failed", "run_id", st.id, "error", err)
	}
}

// aircraft assembles the airframe summary, preferring the registry's answer
// for each field over secondary sources.
func (m *Machine) aircraft(st *runState) models.Aircraft {
	aircraft := models.Aircraft{Tail: st.query.Tail}
	pick := func(current string, rec models.EvidenceRecord) string {
		if current == "" || rec.Source == models.SourceRegistry {
			return rec.Value
		}
		return current
	}
	for _, rec := range st.evidence {
		switch rec.Fact {
		case models.FactManufacturer:
			aircraft.Manufacturer = pick(aircraft.Manufacturer, rec)
		case models.FactModel:
			aircraft.Model = pick(aircraft.Model, rec)
		case models.FactYear:
			aircraft.Year = pick(aircraft.Year, rec)
		case models.FactSerial:
			aircraft.Serial = pick(aircraft.Serial, rec)
		}
	}
	return aircraft
}

func summarizeEvidence(records []models.EvidenceRecord) []string {
	out := make([]string, 0, len(records))
	for _, rec := range records {
		out = append(out, fmt.Sprintf("%s: %s=%q (%s)", rec.Source, rec.Fact, rec.Value, rec.ProvenanceURL))
	}
	return out
}
