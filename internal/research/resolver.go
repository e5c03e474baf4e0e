package research

import (
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"tailtrace/internal/research/models"
)

// DefaultMergeThreshold is the calibrated similarity cutoff above which an
// incoming name is merged into an existing entity.
const DefaultMergeThreshold = 0.82

// legalSuffixKinds maps legal-form tokens stripped from names to the entity
// kind they imply. Trust markers outrank corporate ones when both appear in a
// single name ("... INC TRUSTEE" is a trust arrangement).
var legalSuffixKinds = map[string]models.EntityKind{
	"LLC":         models.KindLLC,
	"L.L.C":       models.KindLLC,
	"INC":         models.KindCorporation,
	"CORP":        models.KindCorporation,
	"CORPORATION": models.KindCorporation,
	"CO":          models.KindCorporation,
	"LTD":         models.KindCorporation,
	"LIMITED":     models.KindCorporation,
	"LP":          models.KindCorporation,
	"LLP":         models.KindCorporation,
	"TRUST":       models.KindTrust,
	"TRUSTEE":     models.KindTrust,
}

// individualMarkers are honorifics that flag a person rather than a company.
var individualMarkers = map[string]struct{}{
	"MR": {}, "MRS": {}, "MS": {}, "DR": {},
}

// Resolver merges evidence about organizations and people into the entity
// graph. Resolution never fails: an unparseable name still yields a
// low-specificity entity so partial information flows downstream.
type Resolver struct {
	threshold float64
	lev       *metrics.Levenshtein
}

func NewResolver(threshold float64) *Resolver {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultMergeThreshold
	}
	return &Resolver{threshold: threshold, lev: metrics.NewLevenshtein()}
}

// parsedName is a name after normalization and legal-suffix stripping.
type parsedName struct {
	canonical string
	tokens    []string
	kind      models.EntityKind
}

// parseName case-folds, strips punctuation, and pulls legal-form tokens out of
// the name into the entity kind.
func parseName(raw string) parsedName {
	cleaned := strings.ToUpper(strings.TrimSpace(raw))
	cleaned = strings.NewReplacer(",", " ", ".", " ", "(", " ", ")", " ").Replace(cleaned)

	kind := models.KindUnknown
	var tokens []string
	for _, tok := range strings.Fields(cleaned) {
		if _, ok := individualMarkers[tok]; ok {
			if kind == models.KindUnknown {
				kind = models.KindIndividual
			}
			continue
		}
		if k, ok := legalSuffixKinds[tok]; ok {
			if kind == models.KindUnknown || k == models.KindTrust {
				kind = k
			}
			continue
		}
		tokens = append(tokens, tok)
	}
	return parsedName{canonical: strings.Join(tokens, " "), tokens: tokens, kind: kind}
}

// Resolve folds an owner-name evidence record into the graph: merge into the
// best-matching entity above the threshold, otherwise create a new one.
// Returns the entity that absorbed the record; relation targets asserted by
// the record are resolved and linked as a side effect.
func (r *Resolver) Resolve(g *Graph, rec models.EvidenceRecord) *models.Entity {
	// Same observation twice is one observation.
	if e := g.owner(rec); e != nil {
		return e
	}

	entity := r.resolveName(g, rec.Value)
	g.absorb(entity, rec)
	if !entity.HasAlias(rec.Value) {
		entity.Aliases = append(entity.Aliases, rec.Value)
	}

	if rec.Relation != nil && rec.Relation.Target != "" {
		target := r.resolveName(g, rec.Relation.Target)
		if !target.HasAlias(rec.Relation.Target) {
			target.Aliases = append(target.Aliases, rec.Relation.Target)
		}
		g.link(entity, rec.Relation.Kind, target)
	}
	return entity
}

// Attach appends a non-name evidence record (entity type, contact channel) to
// an already-resolved entity. Entity-type facts widen the kind only when the
// current kind is unknown.
func (r *Resolver) Attach(g *Graph, entity *models.Entity, rec models.EvidenceRecord) {
	if entity == nil {
		return
	}
	if !g.absorb(entity, rec) {
		return
	}
	if rec.Fact == models.FactEntityType {
		if kind := kindFromLabel(rec.Value); kind.Specific() && !entity.Kind.Specific() {
			entity.Kind = kind
		}
	}
}

func (r *Resolver) resolveName(g *Graph, raw string) *models.Entity {
	parsed := parseName(raw)
	if parsed.canonical == "" {
		// Unparseable names still become entities; the scorer sees them as
		// low specificity, not the caller as an error.
		return r.findOrCreate(g, parsedName{canonical: "UNKNOWN REGISTRANT", kind: models.KindUnknown})
	}
	return r.findOrCreate(g, parsed)
}

func (r *Resolver) findOrCreate(g *Graph, parsed parsedName) *models.Entity {
	var best *models.Entity
	bestScore := 0.0
	for _, candidate := range g.Entities() {
		score := r.entitySimilarity(parsed, candidate)
		// Strictly-greater keeps the tie-break with earlier entities: equal
		// scores prefer more corroboration, then earliest creation, and the
		// scan already visits entities in creation order.
		switch {
		case score > bestScore:
			best, bestScore = candidate, score
		case score == bestScore && best != nil && len(candidate.Evidence) > len(best.Evidence):
			best = candidate
		}
	}
	if best != nil && bestScore >= r.threshold {
		if parsed.kind.Specific() && !best.Kind.Specific() {
			best.Kind = parsed.kind
		}
		return best
	}
	return g.newEntity(parsed.canonical, parsed.kind)
}

// entitySimilarity scores the parsed name against an entity's canonical name
// and every known alias, keeping the best.
func (r *Resolver) entitySimilarity(parsed parsedName, entity *models.Entity) float64 {
	names := append([]string{entity.CanonicalName}, entity.Aliases...)
	best := 0.0
	for _, name := range names {
		if s := r.nameSimilarity(parsed, parseName(name)); s > best {
			best = s
		}
	}
	return best
}

// nameSimilarity is the token-overlap + edit-distance composite. The dominant
// term is the best edit similarity between any token pair, which is what
// actually identifies company families ("TVPX ARS" vs "TVPX Aircraft
// Solutions" share the distinctive TVPX stem); whole-set token overlap
// moderates it.
func (r *Resolver) nameSimilarity(a, b parsedName) float64 {
	if a.canonical == "" || b.canonical == "" {
		return 0
	}
	if a.canonical == b.canonical {
		return 1
	}

	bestToken := 0.0
	for _, ta := range a.tokens {
		for _, tb := range b.tokens {
			if s := strutil.Similarity(ta, tb, r.lev); s > bestToken {
				bestToken = s
			}
		}
	}

	matched := 0
	shorter, longer := a.tokens, b.tokens
	if len(longer) < len(shorter) {
		shorter, longer = longer, shorter
	}
	for _, ts := range shorter {
		for _, tl := range longer {
			if strutil.Similarity(ts, tl, r.lev) >= 0.85 {
				matched++
				break
			}
		}
	}
	overlap := 0.0
	if len(shorter) > 0 {
		overlap = float64(matched) / float64(len(shorter))
	}

	return 0.65*bestToken + 0.35*overlap
}

// kindFromLabel maps a source-asserted entity-type label to an EntityKind.
func kindFromLabel(label string) models.EntityKind {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "LLC", "LIMITED LIABILITY COMPANY":
		return models.KindLLC
	case "CORPORATION", "CORP", "INC", "COMPANY":
		return models.KindCorporation
	case "TRUST", "TRUSTEE", "TRUST/FOUNDATION":
		return models.KindTrust
	case "INDIVIDUAL", "PERSON":
		return models.KindIndividual
	default:
		return models.KindUnknown
	}
}
