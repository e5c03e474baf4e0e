package models

import "time"

// SourceCategory identifies one of the three primary evidence categories.
type SourceCategory string

const (
	SourceRegistry    SourceCategory = "registry"
	SourceFlightTrack SourceCategory = "flighttrack"
	SourceWebSearch   SourceCategory = "websearch"
)

// SourceCategories lists all primary categories in lookup order.
var SourceCategories = []SourceCategory{SourceRegistry, SourceFlightTrack, SourceWebSearch}

// FactType classifies what an evidence record asserts.
type FactType string

const (
	FactOwnerName      FactType = "owner-name"
	FactManufacturer   FactType = "manufacturer"
	FactModel          FactType = "model"
	FactYear           FactType = "year"
	FactSerial         FactType = "serial-number"
	FactRole           FactType = "role"
	FactContactEmail   FactType = "contact-email"
	FactContactPhone   FactType = "contact-phone"
	FactContactProfile FactType = "contact-profile-link"
	FactEntityType     FactType = "entity-type"
)

// RelationKind labels an explicit relationship a source asserts between the
// named entity and another entity. Relations are only ever carried when the
// source encodes them; they are never inferred from co-occurrence.
type RelationKind string

const (
	RelationTrusteeOf       RelationKind = "trustee-of"
	RelationRegisteredAgent RelationKind = "registered-agent-of"
	RelationOfficerOf       RelationKind = "officer-of"
)

// Relation attaches an explicit source-asserted relationship to an evidence
// record. Target is the raw name of the related entity as the source wrote it.
type Relation struct {
	Kind   RelationKind `json:"kind"`
	Target string       `json:"target"`
}

// EvidenceRecord is one fact asserted by one source. Records are immutable
// once created; the entity graph owns them after ingestion.
type EvidenceRecord struct {
	Source        SourceCategory `json:"source"`
	ProviderID    string         `json:"provider_id"`
	Fact          FactType       `json:"fact"`
	Value         string         `json:"value"`
	Confidence    float64        `json:"confidence"`
	RetrievedAt   time.Time      `json:"retrieved_at"`
	ProvenanceURL string         `json:"provenance_url"`
	Relation      *Relation      `json:"relation,omitempty"`
}

// Fingerprint identifies a record for deduplication. Two records asserting the
// same fact from the same source are one observation, not two.
func (e EvidenceRecord) Fingerprint() string {
	return string(e.Source) + "|" + string(e.Fact) + "|" + e.Value + "|" + e.ProvenanceURL
}
