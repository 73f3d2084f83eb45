package matcher

import (
	"fmt"
	"strings"

	"github.com/opensource-finance/deviza/internal/domain"
)

// NoMatchReasoning is the reasoning attached to a clause without precedents.
const NoMatchReasoning = "No relevant precedents found for this clause type."

func matchReasoning(clause domain.ExtractedClause, matches []domain.CaseMatch) string {
	if len(matches) == 0 {
		return NoMatchReasoning
	}
	top := matches[0]
	return fmt.Sprintf(
		"This %s clause is most similar to the precedent in %s (similarity: %.1f%%), which established that %s. %d additional related cases were found.",
		clause.ClauseType.Description(),
		top.Case.CaseName,
		top.SimilarityScore*100,
		strings.ToLower(top.Case.KeyRuling),
		len(matches)-1,
	)
}

func relevanceExplanation(c *domain.LegalCase, types []domain.Category) string {
	var clauses string
	if len(types) == 1 {
		clauses = fmt.Sprintf("the %s clause", types[0])
	} else {
		clauses = fmt.Sprintf("%d clause types", len(types))
	}
	return fmt.Sprintf("This %s case from %d is relevant to %s in your document. The court ruled: %s",
		c.Jurisdiction(), c.Year(), clauses, c.KeyRuling)
}

// ApplicablePrecedents turns case-level matches into citation-ready records.
func (m *Matcher) ApplicablePrecedents(matches []domain.CaseMatch) []domain.ApplicablePrecedent {
	out := make([]domain.ApplicablePrecedent, 0, len(matches))
	for _, cm := range matches {
		c := cm.Case
		out = append(out, domain.ApplicablePrecedent{
			CaseID:           c.ID,
			CaseNumber:       c.CaseNumber,
			CaseName:         c.CaseName,
			Jurisdiction:     c.Jurisdiction(),
			RelevanceScore:   cm.SimilarityScore,
			Strength:         m.sim.PrecedentStrength(c.Year(), c.Jurisdiction(), c.CitationCount),
			TopicalFit:       m.topicalFit(cm.MatchingClauses, c),
			KeyPrinciples:    KeyPrinciples(c),
			CitationText:     Citation(c),
			ApplicationNotes: m.applicationNotes(c),
		})
	}
	return out
}

// topicalFit is the best keyword density of the ruling over the matched
// categories.
func (m *Matcher) topicalFit(cats []domain.Category, c *domain.LegalCase) float64 {
	best := 0.0
	for _, cat := range cats {
		best = max(best, m.sim.SemanticSimilarity(cat, c.KeyRuling))
	}
	return best
}

// Citation formats a case reference. CJEU dockets use the ECLI form.
func Citation(c *domain.LegalCase) string {
	if c.IsSupranational() {
		return fmt.Sprintf("Case %s, %s, ECLI:EU:C:%s", c.CaseNumber, c.CaseName, c.Date.Format("2006:01:02"))
	}
	court := c.Court
	if court == "" {
		court = "Court"
	}
	return fmt.Sprintf("%s, %s (%s %d)", c.CaseName, court, c.Country, c.Year())
}

var principleTriggers = []struct {
	matches   func(ruling string) bool
	principle string
}{
	{
		func(r string) bool {
			return strings.Contains(r, "adequate information") || strings.Contains(r, "sufficient information")
		},
		"Banks must provide adequate information about currency risks",
	},
	{
		func(r string) bool { return strings.Contains(r, "unfair") && strings.Contains(r, "currency") },
		"Currency clauses placing disproportionate risk on consumers are unfair",
	},
	{
		func(r string) bool { return strings.Contains(r, "restitution") || strings.Contains(r, "compensation") },
		"Full restitution required when contracts are invalidated for unfair terms",
	},
	{
		func(r string) bool { return strings.Contains(r, "transparent") },
		"Contract terms must be transparent and intelligible",
	},
	{
		func(r string) bool { return strings.Contains(r, "invalid") || strings.Contains(r, "void") },
		"Contracts with unfair terms can be declared invalid in their entirety",
	},
}

// KeyPrinciples scans the ruling for trigger phrases. Without any trigger
// the ruling itself is the principle.
func KeyPrinciples(c *domain.LegalCase) []string {
	ruling := strings.ToLower(c.KeyRuling)
	var out []string
	for _, t := range principleTriggers {
		if t.matches(ruling) {
			out = append(out, t.principle)
		}
	}
	if len(out) == 0 {
		out = append(out, c.KeyRuling)
	}
	return out
}

func (m *Matcher) applicationNotes(c *domain.LegalCase) string {
	if o, ok := m.overrides[c.CaseNumber]; ok && o.ApplicationNote != "" {
		return o.ApplicationNote
	}
	return fmt.Sprintf("Relevant precedent from %s addressing foreign currency mortgage issues.", c.Country)
}
