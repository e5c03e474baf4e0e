package research

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tailtrace/internal/research/models"
)

func TestResolver_MergesTrusteeVariants(t *testing.T) {
	g := NewGraph()
	r := NewResolver(DefaultMergeThreshold)

	registry := r.Resolve(g, ownerRecord(models.SourceRegistry, "TVPX ARS INC TRUSTEE", "https://registry.example/N12345"))
	tracker := r.Resolve(g, ownerRecord(models.SourceFlightTrack, "TVPX Aircraft Solutions Inc", "https://tracker.example/N12345"))

	require.Same(t, registry, tracker, "name variants of the same trustee must merge")
	assert.Len(t, g.Entities(), 1)
	assert.Equal(t, 2, registry.SourceCount())
	assert.Contains(t, registry.Aliases, "TVPX ARS INC TRUSTEE")
	assert.Contains(t, registry.Aliases, "TVPX Aircraft Solutions Inc")
}

func TestResolver_KeepsDistinctOwnersApart(t *testing.T) {
	g := NewGraph()
	r := NewResolver(DefaultMergeThreshold)

	a := r.Resolve(g, ownerRecord(models.SourceRegistry, "SOUTHWEST AIRLINES CO", "https://registry.example/N8700Q"))
	b := r.Resolve(g, ownerRecord(models.SourceFlightTrack, "TVPX ARS INC", "https://tracker.example/N8700Q"))

	assert.NotSame(t, a, b)
	assert.Len(t, g.Entities(), 2)
}

func TestResolver_ReingestIsIdempotent(t *testing.T) {
	g := NewGraph()
	r := NewResolver(DefaultMergeThreshold)

	rec := ownerRecord(models.SourceRegistry, "TVPX ARS INC TRUSTEE", "https://registry.example/N12345")
	first := r.Resolve(g, rec)
	second := r.Resolve(g, rec)

	require.Same(t, first, second)
	assert.Len(t, first.Evidence, 1, "a cached batch replayed into the graph must not double-count")
	assert.Equal(t, 1, first.SourceCount())
}

func TestResolver_LegalSuffixSetsKind(t *testing.T) {
	cases := []struct {
		name string
		kind models.EntityKind
	}{
		{"WING HOLDINGS LLC", models.KindLLC},
		{"ACME AVIATION INC", models.KindCorporation},
		{"BLUE SKY TRUST", models.KindTrust},
		{"TVPX ARS INC TRUSTEE", models.KindTrust}, // trust marker outranks corporate
		{"JANE DOE", models.KindUnknown},
	}
	for _, tc := range cases {
		g := NewGraph()
		r := NewResolver(DefaultMergeThreshold)
		e := r.Resolve(g, ownerRecord(models.SourceRegistry, tc.name, "https://registry.example"))
		assert.Equal(t, tc.kind, e.Kind, "name %q", tc.name)
	}
}

func TestResolver_HonorificMarksIndividual(t *testing.T) {
	g := NewGraph()
	r := NewResolver(DefaultMergeThreshold)
	e := r.Resolve(g, ownerRecord(models.SourceWebSearch, "Mr. John Smith", "https://web.example"))
	assert.Equal(t, models.KindIndividual, e.Kind)
	assert.Equal(t, "JOHN SMITH", e.CanonicalName)
}

func TestResolver_UnparseableNameStillResolves(t *testing.T) {
	g := NewGraph()
	r := NewResolver(DefaultMergeThreshold)

	e := r.Resolve(g, ownerRecord(models.SourceRegistry, "LLC", "https://registry.example"))
	require.NotNil(t, e)
	assert.Equal(t, "UNKNOWN REGISTRANT", e.CanonicalName)
	assert.Len(t, e.Evidence, 1)
}

func TestResolver_RelationTargetLinked(t *testing.T) {
	g := NewGraph()
	r := NewResolver(DefaultMergeThreshold)

	rec := ownerRecord(models.SourceRegistry, "TVPX ARS INC TRUSTEE", "https://registry.example/N12345")
	rec.Relation = &models.Relation{Kind: models.RelationTrusteeOf, Target: "WING AVIATION LLC"}
	trustee := r.Resolve(g, rec)

	require.Len(t, trustee.Edges, 1)
	target := g.Get(trustee.Edges[0].TargetID)
	require.NotNil(t, target)
	assert.Equal(t, models.RelationTrusteeOf, trustee.Edges[0].Kind)
	assert.Equal(t, "WING AVIATION", target.CanonicalName)
	assert.Equal(t, models.KindLLC, target.Kind)
}

func TestResolver_AttachWidensKindOnce(t *testing.T) {
	g := NewGraph()
	r := NewResolver(DefaultMergeThreshold)

	e := r.Resolve(g, ownerRecord(models.SourceRegistry, "WING AVIATION", "https://registry.example"))
	require.Equal(t, models.KindUnknown, e.Kind)

	typed := models.EvidenceRecord{
		Source:        models.SourceRegistry,
		Fact:          models.FactEntityType,
		Value:         "LLC",
		ProvenanceURL: "https://registry.example",
	}
	r.Attach(g, e, typed)
	assert.Equal(t, models.KindLLC, e.Kind)

	// A later vaguer assertion must not downgrade the kind.
	vague := typed
	vague.Value = "Company"
	vague.ProvenanceURL = "https://web.example"
	r.Attach(g, e, vague)
	assert.Equal(t, models.KindLLC, e.Kind)
}

func TestResolver_MergeScoreTieBreaksDeterministically(t *testing.T) {
	// Two separate graphs fed the same records in the same order must resolve
	// to identical entity layouts.
	records := []models.EvidenceRecord{
		ownerRecord(models.SourceRegistry, "TVPX ARS INC TRUSTEE", "https://registry.example/N12345"),
		ownerRecord(models.SourceFlightTrack, "TVPX Aircraft Solutions Inc", "https://tracker.example/N12345"),
		ownerRecord(models.SourceWebSearch, "TVPX Aircraft Solutions", "https://web.example/tvpx"),
	}

	shape := func() []string {
		g := NewGraph()
		r := NewResolver(DefaultMergeThreshold)
		for _, rec := range records {
			r.Resolve(g, rec)
		}
		var names []string
		for _, e := range g.Entities() {
			names = append(names, e.CanonicalName)
		}
		return names
	}

	assert.Equal(t, shape(), shape())
}
