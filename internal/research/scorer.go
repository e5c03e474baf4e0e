package research

import (
	"fmt"

	"tailtrace/internal/research/models"
)

// ScorerConfig holds the confidence policy. The values are a fixed policy,
// not calibrated constants, so they are injectable configuration with the
// documented defaults.
type ScorerConfig struct {
	CoverageWeight      float64
	CorroborationWeight float64
	SpecificityWeight   float64

	// SufficientThreshold and EscalationFloor partition scores into
	// confident, low-confidence, and escalate.
	SufficientThreshold float64
	EscalationFloor     float64
}

// DefaultScorerConfig returns the documented default policy.
func DefaultScorerConfig() ScorerConfig {
	return ScorerConfig{
		CoverageWeight:      0.4,
		CorroborationWeight: 0.4,
		SpecificityWeight:   0.2,
		SufficientThreshold: 0.7,
		EscalationFloor:     0.4,
	}
}

// Scorer computes a calibrated confidence score and a justification for the
// current entity graph.
type Scorer struct {
	cfg ScorerConfig
}

func NewScorer(cfg ScorerConfig) *Scorer {
	def := DefaultScorerConfig()
	if cfg.CoverageWeight+cfg.CorroborationWeight+cfg.SpecificityWeight == 0 {
		cfg.CoverageWeight = def.CoverageWeight
		cfg.CorroborationWeight = def.CorroborationWeight
		cfg.SpecificityWeight = def.SpecificityWeight
	}
	if cfg.SufficientThreshold == 0 {
		cfg.SufficientThreshold = def.SufficientThreshold
	}
	if cfg.EscalationFloor == 0 {
		cfg.EscalationFloor = def.EscalationFloor
	}
	return &Scorer{cfg: cfg}
}

// Assessment is the scorer's verdict on the current graph.
type Assessment struct {
	Score         float64
	Justification string
	// Leading is the entity judged most likely to be the true owner.
	Leading *models.Entity
	// DecisionMaker is a named individual tied to the leading entity, if the
	// evidence identifies one.
	DecisionMaker *models.Entity
}

// Sufficient reports whether the score clears the no-escalation threshold.
func (a Assessment) Sufficient(cfg ScorerConfig) bool {
	return a.Score >= cfg.SufficientThreshold
}

// NeedsEscalation reports whether the score is below the human-review floor.
func (a Assessment) NeedsEscalation(cfg ScorerConfig) bool {
	return a.Score < cfg.EscalationFloor
}

// Score evaluates the graph. The score is a weighted average of source
// coverage, corroboration, and specificity; the justification is a
// deterministic sentence citing the signals that drove it.
func (s *Scorer) Score(g *Graph) Assessment {
	leading := g.Leading()
	if leading == nil {
		return Assessment{
			Score:         0,
			Justification: "no evidence: no source returned a usable fact about the owner",
		}
	}

	// Coverage counts categories contributing any usable fact about the
	// leading candidate; corroboration only counts categories agreeing on
	// its identity.
	coverage := float64(leading.SourceCount()) / float64(len(models.SourceCategories))
	corroboration := corroborationSignal(identitySources(leading))
	decisionMaker := findDecisionMaker(g, leading)
	specificity := specificitySignal(leading, decisionMaker)

	score := s.cfg.CoverageWeight*coverage +
		s.cfg.CorroborationWeight*corroboration +
		s.cfg.SpecificityWeight*specificity

	return Assessment{
		Score:         score,
		Justification: justification(leading, decisionMaker),
		Leading:       leading,
		DecisionMaker: decisionMaker,
	}
}

// corroborationSignal is a step function, not linear: agreement across
// independent sources is disproportionately informative versus a single
// source repeating itself.
func corroborationSignal(sources int) float64 {
	switch {
	case sources >= 3:
		return 1.0
	case sources == 2:
		return 0.7
	case sources == 1:
		return 0.3
	default:
		return 0
	}
}

// identitySources counts distinct source categories that asserted the
// entity's name, as opposed to merely attaching detail to it.
func identitySources(e *models.Entity) int {
	seen := make(map[models.SourceCategory]struct{})
	for _, ev := range e.Evidence {
		if ev.Fact == models.FactOwnerName {
			seen[ev.Source] = struct{}{}
		}
	}
	return len(seen)
}

func specificitySignal(leading, decisionMaker *models.Entity) float64 {
	if decisionMaker != nil {
		return 1.0
	}
	if leading.Kind.Specific() && leading.Kind != models.KindIndividual {
		return 0.6
	}
	if leading.Kind == models.KindIndividual {
		// A named individual owner without a confirmed contact channel is
		// still better resolved than a bare registry string.
		return 0.6
	}
	return 0.2
}

// findDecisionMaker looks for a named individual with a contact channel:
// either the leading entity itself or a person the sources explicitly tie to
// it. Among tied candidates, one with an asserted executive role wins.
func findDecisionMaker(g *Graph, leading *models.Entity) *models.Entity {
	if leading.Kind == models.KindIndividual && hasContactChannel(leading) {
		return leading
	}
	var fallback *models.Entity
	for _, e := range g.Entities() {
		if e.Kind != models.KindIndividual || !hasContactChannel(e) {
			continue
		}
		for _, edge := range e.Edges {
			if edge.TargetID != leading.ID {
				continue
			}
			if hasRoleEvidence(e) {
				return e
			}
			if fallback == nil {
				fallback = e
			}
			break
		}
	}
	return fallback
}

func hasRoleEvidence(e *models.Entity) bool {
	for _, ev := range e.Evidence {
		if ev.Fact == models.FactRole {
			return true
		}
	}
	return false
}

func hasContactChannel(e *models.Entity) bool {
	for _, ev := range e.Evidence {
		switch ev.Fact {
		case models.FactContactEmail, models.FactContactPhone, models.FactContactProfile:
			return true
		}
	}
	return false
}

func justification(leading, decisionMaker *models.Entity) string {
	covering := leading.SourceCount()
	agreeing := identitySources(leading)
	plural := "source agrees"
	if agreeing != 1 {
		plural = "sources agree"
	}

	var specificity string
	switch {
	case decisionMaker != nil:
		specificity = fmt.Sprintf("named individual %q with a direct contact channel", decisionMaker.CanonicalName)
	case leading.Kind.Specific():
		specificity = fmt.Sprintf("%s identified with no named individual", leading.Kind)
	default:
		specificity = "registry name string only, no corporate resolution"
	}

	return fmt.Sprintf("%d of %d source categories cover %q and %d independent %s on its identity; %s",
		covering, len(models.SourceCategories), leading.CanonicalName, agreeing, plural, specificity)
}
