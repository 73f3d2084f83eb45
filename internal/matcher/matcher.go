// Package matcher scores extracted clauses against the precedent corpus and
// aggregates the scores into case-level relevance.
package matcher

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/opensource-finance/deviza/internal/domain"
	"github.com/opensource-finance/deviza/internal/similarity"
)

// ErrCorpusUnavailable wraps any failure of the case provider.
var ErrCorpusUnavailable = errors.New("precedent corpus unavailable")

// matchingClauseMin is the clause-case score needed to list a clause type
// on a case-level match.
const matchingClauseMin = 0.3

// Matcher scores clauses against precedents. It holds only immutable state
// and is safe for concurrent use.
type Matcher struct {
	sim       *similarity.Engine
	cfg       domain.MatchingConfig
	overrides map[string]Override
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithOverrides replaces the per-case override table.
func WithOverrides(o map[string]Override) Option {
	return func(m *Matcher) {
		m.overrides = o
	}
}

// New creates a matcher. Zero config values fall back to the defaults.
func New(sim *similarity.Engine, cfg domain.MatchingConfig, opts ...Option) *Matcher {
	def := domain.DefaultMatchingConfig()
	if cfg.TopN <= 0 {
		cfg.TopN = def.TopN
	}
	if cfg.MinCaseScore <= 0 {
		cfg.MinCaseScore = def.MinCaseScore
	}
	if cfg.MinAggregateScore <= 0 {
		cfg.MinAggregateScore = def.MinAggregateScore
	}
	if sim == nil {
		sim = similarity.NewEngine()
	}

	m := &Matcher{
		sim:       sim,
		cfg:       cfg,
		overrides: DefaultOverrides(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// MatchFrom fetches the corpus from provider and runs Match. A provider
// failure is returned wrapped in ErrCorpusUnavailable; no substitute corpus
// is used.
func (m *Matcher) MatchFrom(ctx context.Context, clauses []domain.ExtractedClause, provider domain.CaseProvider) (*domain.MatchingResult, error) {
	corpus, err := provider.GetCurrencyRelatedCases(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorpusUnavailable, err)
	}
	return m.Match(clauses, corpus), nil
}

// Match scores every clause against every case. Each clause keeps its top
// matches above the per-pair threshold; cases are then aggregated over the
// whole clause set. Ties keep corpus order.
func (m *Matcher) Match(clauses []domain.ExtractedClause, corpus []*domain.LegalCase) *domain.MatchingResult {
	result := &domain.MatchingResult{
		ClauseMatches:      []domain.ClauseMatch{},
		OverallCaseMatches: []domain.CaseMatch{},
	}
	if len(clauses) == 0 {
		return result
	}

	totals := make([]float64, len(corpus))
	contributions := make([][]domain.ClauseContribution, len(corpus))
	index := make(map[*domain.LegalCase]int, len(corpus))
	for i, c := range corpus {
		index[c] = i
	}

	for _, clause := range clauses {
		matches := m.matchClause(clause, corpus)
		for _, cm := range matches {
			i := index[cm.Case]
			totals[i] += cm.SimilarityScore
			contributions[i] = append(contributions[i], domain.ClauseContribution{
				ClauseID:   clause.ID,
				ClauseType: clause.ClauseType,
				Score:      cm.SimilarityScore,
			})
		}
		result.ClauseMatches = append(result.ClauseMatches, domain.ClauseMatch{
			ClauseID:       clause.ID,
			ClauseType:     clause.ClauseType,
			MatchedCases:   matches,
			MatchReasoning: matchReasoning(clause, matches),
		})
	}

	n := float64(len(clauses))
	for i, c := range corpus {
		if contributions[i] == nil {
			continue
		}
		normalized := totals[i] / n
		if normalized <= m.cfg.MinAggregateScore {
			continue
		}
		types := m.matchingClauseTypes(clauses, c)
		result.OverallCaseMatches = append(result.OverallCaseMatches, domain.CaseMatch{
			Case:                 c,
			SimilarityScore:      normalized,
			MatchingClauses:      types,
			RelevanceExplanation: relevanceExplanation(c, types),
			Contributions:        contributions[i],
		})
	}
	sortByScore(result.OverallCaseMatches)

	if len(result.OverallCaseMatches) > 0 {
		sum := 0.0
		for _, cm := range result.OverallCaseMatches {
			sum += cm.SimilarityScore
		}
		result.ConfidenceScore = sum / float64(len(result.OverallCaseMatches))
	}
	return result
}

// matchClause returns the top-N cases scoring above the per-pair threshold.
func (m *Matcher) matchClause(clause domain.ExtractedClause, corpus []*domain.LegalCase) []domain.CaseMatch {
	matches := []domain.CaseMatch{}
	for _, c := range corpus {
		score := m.Score(clause, c)
		if score <= m.cfg.MinCaseScore {
			continue
		}
		matches = append(matches, domain.CaseMatch{
			Case:            c,
			SimilarityScore: score,
			MatchingClauses: []domain.Category{clause.ClauseType},
			RelevanceExplanation: fmt.Sprintf("Relevant to %s clause (%d%% similarity): %s",
				clause.ClauseType, int(score*100), c.KeyRuling),
		})
	}
	sortByScore(matches)
	if len(matches) > m.cfg.TopN {
		matches = matches[:m.cfg.TopN]
	}
	return matches
}

// Score rates one clause against one case, clamped to [0,1].
func (m *Matcher) Score(clause domain.ExtractedClause, c *domain.LegalCase) float64 {
	score := m.categoryScore(clause.ClauseType, c)

	year := c.Year()
	if year >= 2020 {
		score += 0.1
	}
	if year >= 2023 {
		score += 0.1
	}
	if c.IsSupranational() {
		score += 0.2
	}

	score += m.sim.TextSimilarity(clause.ClauseText, c.KeyRuling) * 0.3
	return clamp(score)
}

func (m *Matcher) categoryScore(cat domain.Category, c *domain.LegalCase) float64 {
	ruling := strings.ToLower(c.KeyRuling)
	override := m.overrides[c.CaseNumber]

	switch cat {
	case domain.CategoryFXRisk:
		score := override.FXBonus
		if c.IsCurrencyRelated() {
			score += 0.8
		}
		return score
	case domain.CategoryTransparency:
		if strings.Contains(ruling, "information") || strings.Contains(ruling, "disclosure") || override.TransparencyOnPoint {
			return 0.9
		}
	case domain.CategoryInterestRate:
		if strings.Contains(ruling, "interest") {
			return 0.7
		}
	case domain.CategoryPenalty:
		if strings.Contains(ruling, "compensation") || strings.Contains(ruling, "restitution") {
			return 0.6
		}
	case domain.CategoryUnfairTerm:
		return 0.1
	}
	return 0
}

// matchingClauseTypes lists the sorted, distinct categories of clauses that
// score above matchingClauseMin against c.
func (m *Matcher) matchingClauseTypes(clauses []domain.ExtractedClause, c *domain.LegalCase) []domain.Category {
	var types []domain.Category
	for _, clause := range clauses {
		if m.Score(clause, c) > matchingClauseMin {
			types = append(types, clause.ClauseType)
		}
	}
	slices.Sort(types)
	return slices.Compact(types)
}

// sortByScore orders matches by descending score, keeping input order on ties.
func sortByScore(matches []domain.CaseMatch) {
	slices.SortStableFunc(matches, func(a, b domain.CaseMatch) int {
		return cmp.Compare(b.SimilarityScore, a.SimilarityScore)
	})
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
