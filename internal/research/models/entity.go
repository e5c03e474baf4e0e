package models

// EntityKind classifies a resolved entity. Widening only ever moves away from
// KindUnknown; the resolver never overwrites a specific kind with a vaguer one.
type EntityKind string

const (
	KindIndividual  EntityKind = "individual"
	KindLLC         EntityKind = "llc"
	KindTrust       EntityKind = "trust"
	KindCorporation EntityKind = "corporation"
	KindUnknown     EntityKind = "unknown"
)

// Specific reports whether the kind carries more information than unknown.
func (k EntityKind) Specific() bool {
	return k != KindUnknown && k != ""
}

// Edge is a directed relationship from the owning entity to another entity in
// the same graph.
type Edge struct {
	Kind     RelationKind `json:"kind"`
	TargetID string       `json:"target_id"`
}

// Entity is a resolved real-world organization or person. Entities live for
// one research session; they are mutated by the resolver (aliases and evidence
// accrete) but never deleted.
type Entity struct {
	ID            string           `json:"id"`
	Seq           int              `json:"seq"`
	CanonicalName string           `json:"canonical_name"`
	Aliases       []string         `json:"aliases"`
	Kind          EntityKind       `json:"kind"`
	Evidence      []EvidenceRecord `json:"evidence"`
	Edges         []Edge           `json:"edges,omitempty"`
}

// SourceCount returns the number of distinct source categories backing this
// entity. Independent sources agreeing is the corroboration signal.
func (e *Entity) SourceCount() int {
	seen := make(map[SourceCategory]struct{}, len(e.Evidence))
	for _, ev := range e.Evidence {
		seen[ev.Source] = struct{}{}
	}
	return len(seen)
}

// HasAlias reports whether the raw name already resolved to this entity.
func (e *Entity) HasAlias(raw string) bool {
	for _, a := range e.Aliases {
		if a == raw {
			return true
		}
	}
	return false
}

// EntitySummary is the read-only projection of an entity surfaced in results
// and escalation requests.
type EntitySummary struct {
	Name     string     `json:"name"`
	Kind     EntityKind `json:"kind"`
	Aliases  []string   `json:"aliases,omitempty"`
	Evidence int        `json:"evidence_count"`
}

// Summarize projects the entity into its result form.
func (e *Entity) Summarize() EntitySummary {
	return EntitySummary{
		Name:     e.CanonicalName,
		Kind:     e.Kind,
		Aliases:  append([]string(nil), e.Aliases...),
		Evidence: len(e.Evidence),
	}
}
