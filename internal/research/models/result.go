package models

import "time"

// Stage names a state of the research run.
type Stage string

const (
	StageInitiated       Stage = "initiated"
	StageRegistryLookup  Stage = "registry_lookup"
	StageSecondaryLookup Stage = "secondary_lookup"
	StageWebSearch       Stage = "web_search"
	StageAnalysis        Stage = "analysis"
	StageCompleted       Stage = "completed"
	StageEscalated       Stage = "escalated"
	StageFailed          Stage = "failed"
)

// Outcome is the terminal disposition of a run. Every run ends in exactly one.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeEscalated Outcome = "escalated"
	OutcomeFailed    Outcome = "failed"
)

// AttemptOutcome records how a single source attempt ended.
type AttemptOutcome string

const (
	AttemptSucceeded AttemptOutcome = "succeeded"
	AttemptFailed    AttemptOutcome = "failed"
	AttemptCached    AttemptOutcome = "cached"
)

// SourceAttempt is one completed provider call within a run, success or not.
// A failed attempt contributes zero evidence but stays on the record so the
// result can account for every category.
type SourceAttempt struct {
	Source     SourceCategory `json:"source"`
	ProviderID string         `json:"provider_id"`
	Outcome    AttemptOutcome `json:"outcome"`
	Failure    string         `json:"failure,omitempty"`
	Retried    bool           `json:"retried,omitempty"`
	Records    int            `json:"records"`
}

// Aircraft carries the registry-sourced airframe details for the result.
type Aircraft struct {
	Tail         string `json:"tail"`
	Manufacturer string `json:"manufacturer,omitempty"`
	Model        string `json:"model,omitempty"`
	Year         string `json:"year,omitempty"`
	Serial       string `json:"serial,omitempty"`
}

// Result is the final output of a run. Read-only after creation; every field
// that names a fact traces back to at least one evidence record with a
// provenance URL.
type Result struct {
	RunID         string          `json:"run_id"`
	Outcome       Outcome         `json:"outcome"`
	Aircraft      Aircraft        `json:"aircraft"`
	Owner         *EntitySummary  `json:"owner,omitempty"`
	DecisionMaker *EntitySummary  `json:"decision_maker,omitempty"`
	Confidence    float64         `json:"confidence"`
	Justification string          `json:"justification"`
	LowConfidence bool            `json:"low_confidence"`
	Provenance    []string        `json:"provenance"`
	Attempts      []SourceAttempt `json:"attempts"`
	Escalated     bool            `json:"escalated"`
	FailureReason string          `json:"failure_reason,omitempty"`
	CompletedAt   time.Time       `json:"completed_at"`
}

// EscalationRequest summarizes an inconclusive run for a human reviewer.
// Publishing it is fire-and-forget; the run terminates as Escalated without
// waiting for a response.
type EscalationRequest struct {
	RunID           string          `json:"run_id"`
	Tail            string          `json:"tail"`
	Score           float64         `json:"score"`
	Reason          string          `json:"reason"`
	EvidenceSummary []string        `json:"evidence_summary"`
	Entities        []EntitySummary `json:"entities"`
	Attempts        []SourceAttempt `json:"attempts"`
	RequestedAt     time.Time       `json:"requested_at"`
}
