// Package research implements the ownership research core: the entity
// resolver, the confidence scorer, and the state machine that sequences
// provider calls and assembles the final result.
package research

import (
	"sort"

	"github.com/google/uuid"

	"tailtrace/internal/research/models"
)

// Graph is the per-run entity graph. Entities accrete aliases and evidence
// during a session and are never deleted; creation order is preserved so
// tie-breaks stay deterministic.
type Graph struct {
	entities []*models.Entity
	byID     map[string]*models.Entity
	// seen maps evidence fingerprints to the entity that absorbed them, so
	// re-ingesting the same record is a no-op rather than double-counted
	// corroboration.
	seen map[string]string
}

func NewGraph() *Graph {
	return &Graph{
		byID: make(map[string]*models.Entity),
		seen: make(map[string]string),
	}
}

// Entities returns all entities in creation order.
func (g *Graph) Entities() []*models.Entity {
	return g.entities
}

// Get returns the entity with the given ID, or nil.
func (g *Graph) Get(id string) *models.Entity {
	return g.byID[id]
}

// Leading returns the entity with the most supporting evidence. Ties go to
// the earliest-created entity. Returns nil for an empty graph.
func (g *Graph) Leading() *models.Entity {
	if len(g.entities) == 0 {
		return nil
	}
	candidates := append([]*models.Entity(nil), g.entities...)
	sort.SliceStable(candidates, func(i, j int) bool {
		if len(candidates[i].Evidence) != len(candidates[j].Evidence) {
			return len(candidates[i].Evidence) > len(candidates[j].Evidence)
		}
		return candidates[i].Seq < candidates[j].Seq
	})
	return candidates[0]
}

// Summaries projects every entity for escalation payloads.
func (g *Graph) Summaries() []models.EntitySummary {
	out := make([]models.EntitySummary, 0, len(g.entities))
	for _, e := range g.entities {
		out = append(out, e.Summarize())
	}
	return out
}

// ProvenanceURLs returns the deduplicated provenance links behind every fact
// in the graph, in first-seen order.
func (g *Graph) ProvenanceURLs() []string {
	var urls []string
	seen := make(map[string]struct{})
	for _, e := range g.entities {
		for _, ev := range e.Evidence {
			if ev.ProvenanceURL == "" {
				continue
			}
			if _, ok := seen[ev.ProvenanceURL]; ok {
				continue
			}
			seen[ev.ProvenanceURL] = struct{}{}
			urls = append(urls, ev.ProvenanceURL)
		}
	}
	return urls
}

func (g *Graph) newEntity(canonical string, kind models.EntityKind) *models.Entity {
	if kind == "" {
		kind = models.KindUnknown
	}
	e := &models.Entity{
		ID:            uuid.NewString(),
		Seq:           len(g.entities),
		CanonicalName: canonical,
		Kind:          kind,
	}
	g.entities = append(g.entities, e)
	g.byID[e.ID] = e
	return e
}

// absorb attaches evidence to an entity unless the same observation was
// already ingested.
func (g *Graph) absorb(e *models.Entity, rec models.EvidenceRecord) bool {
	fp := rec.Fingerprint()
	if _, ok := g.seen[fp]; ok {
		return false
	}
	g.seen[fp] = e.ID
	e.Evidence = append(e.Evidence, rec)
	return true
}

// owner returns the entity that already absorbed the record, if any.
func (g *Graph) owner(rec models.EvidenceRecord) *models.Entity {
	if id, ok := g.seen[rec.Fingerprint()]; ok {
		return g.byID[id]
	}
	return nil
}

// link adds a directed edge, deduplicated.
func (g *Graph) link(from *models.Entity, kind models.RelationKind, to *models.Entity) {
	if from == nil || to == nil || from.ID == to.ID {
		return
	}
	for _, edge := range from.Edges {
		if edge.Kind == kind && edge.TargetID == to.ID {
			return
		}
	}
	from.Edges = append(from.Edges, models.Edge{Kind: kind, TargetID: to.ID})
}
