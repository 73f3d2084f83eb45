// Package similarity provides the stateless scoring primitives used to
// compare clauses with precedent rulings.
package similarity

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/opensource-finance/deviza/internal/domain"
)

// Keyword bonus increments for TextSimilarity.
const (
	fxKeywordBonus           = 0.1
	legalKeywordBonus        = 0.05
	transparencyKeywordBonus = 0.08
	maxKeywordBonus          = 0.5
)

var (
	fxKeywords = []string{
		"foreign currency", "deviza", "árfolyam", "exchange rate", "currency risk",
		"chf", "swiss franc", "svájci frank", "waluta", "kurs wymiany", "měnové riziko",
	}
	legalKeywords = []string{
		"unfair", "invalid", "void", "restitution", "compensation", "directive",
		"consumer protection", "méltánytalan", "érvénytelen", "megtérítés", "fogyasztóvédelem",
	}
	transparencyKeywords = []string{
		"information", "disclosure", "warning", "transparent", "tájékoztatás",
		"figyelmeztetés", "felvilágosítás", "átlátható", "informacja", "ostrzeżenie",
	}
	warningTerms = []string{"warning", "risk", "figyelmeztetés", "kockázat", "ostrzeżenie"}
)

// nationalCourts are the jurisdictions whose rulings earn the national bonus.
var nationalCourts = map[string]bool{
	"Hungary": true,
	"Poland":  true,
	"Romania": true,
	"Croatia": true,
}

var keyPhrasePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(deviza.*hitel|foreign\s+currency\s+loan)`),
	regexp.MustCompile(`(?i)(árfolyam.*kockázat|exchange\s+rate\s+risk)`),
	regexp.MustCompile(`(?i)(svájci\s+frank|Swiss\s+franc)`),
	regexp.MustCompile(`(?i)(deviza.*szerződés|foreign\s+currency\s+contract)`),
	regexp.MustCompile(`(?i)(tisztességtelen\s+szerződési\s+feltétel|unfair\s+contract\s+term)`),
	regexp.MustCompile(`(?i)(fogyasztóvédelem|consumer\s+protection)`),
	regexp.MustCompile(`(?i)(tájékoztatási\s+kötelezettség|duty\s+to\s+inform)`),
	regexp.MustCompile(`(?i)(megtérítés|restitution)`),
}

// Engine holds immutable keyword tables and the reference year used for
// precedent recency. It is safe for concurrent use.
type Engine struct {
	referenceYear int
}

// NewEngine creates an engine that measures recency against the current year.
func NewEngine() *Engine {
	return &Engine{referenceYear: time.Now().Year()}
}

// NewEngineAt creates an engine with a fixed reference year.
func NewEngineAt(year int) *Engine {
	return &Engine{referenceYear: year}
}

// ReferenceYear returns the year recency is measured against.
func (e *Engine) ReferenceYear() int {
	return e.referenceYear
}

// TextSimilarity is the Jaccard index of the two token sets plus a capped
// bonus for domain keywords present in both texts, clamped to [0,1].
func (e *Engine) TextSimilarity(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)

	union := len(setA)
	intersection := 0
	for tok := range setB {
		if _, ok := setA[tok]; ok {
			intersection++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}

	jaccard := float64(intersection) / float64(union)
	return clamp(jaccard + keywordBonus(a, b))
}

// SemanticSimilarity scores category keyword density in a ruling.
func (e *Engine) SemanticSimilarity(category domain.Category, ruling string) float64 {
	lower := strings.ToLower(ruling)

	keywords, step := legalKeywords, 0.1
	switch category {
	case domain.CategoryFXRisk:
		keywords, step = fxKeywords, 0.15
	case domain.CategoryTransparency:
		keywords, step = transparencyKeywords, 0.2
	case domain.CategoryInterestRate, domain.CategoryPenalty, domain.CategoryUnfairTerm:
	}

	score := 0.0
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			score += step
		}
	}
	return clamp(score)
}

// PrecedentStrength rates a precedent by age, court and citation count.
// A nil citation count adds nothing.
func (e *Engine) PrecedentStrength(year int, jurisdiction string, citations *int) float64 {
	strength := 0.5

	switch age := e.referenceYear - year; {
	case age <= 2:
		strength += 0.3
	case age <= 5:
		strength += 0.2
	case age <= 10:
		strength += 0.1
	}

	switch {
	case jurisdiction == domain.JurisdictionCJEU:
		strength += 0.4
	case nationalCourts[jurisdiction]:
		strength += 0.2
	}

	if citations != nil {
		switch n := *citations; {
		case n > 100:
			strength += 0.2
		case n > 50:
			strength += 0.1
		case n > 10:
			strength += 0.05
		}
	}

	return clamp(strength)
}

// ClauseCriticality rates how dangerous a clause is to the consumer.
func (e *Engine) ClauseCriticality(text string, category domain.Category) float64 {
	lower := strings.ToLower(text)
	criticality := 0.3

	switch category {
	case domain.CategoryFXRisk:
		criticality = 0.8
		if !containsAny(lower, warningTerms) {
			criticality += 0.2
		}
	case domain.CategoryTransparency:
		if strings.Contains(lower, "nem") && strings.Contains(lower, "tájékoztat") {
			criticality = 0.9
		}
	case domain.CategoryInterestRate, domain.CategoryPenalty, domain.CategoryUnfairTerm:
	}

	if strings.Contains(lower, "egyoldalú") || strings.Contains(lower, "unilateral") {
		criticality += 0.3
	}
	if strings.Contains(lower, "bank dönt") || strings.Contains(lower, "bank discretion") {
		criticality += 0.2
	}

	return clamp(criticality)
}

// KeyPhrases returns the sorted, deduplicated FX and legal phrases found in text.
func (e *Engine) KeyPhrases(text string) []string {
	var phrases []string
	for _, re := range keyPhrasePatterns {
		phrases = append(phrases, re.FindAllString(text, -1)...)
	}
	slices.Sort(phrases)
	return slices.Compact(phrases)
}

// SharedTerms returns the sorted tokens present in both texts.
func (e *Engine) SharedTerms(a, b string) []string {
	setA := tokenSet(a)
	var shared []string
	for tok := range tokenSet(b) {
		if _, ok := setA[tok]; ok {
			shared = append(shared, tok)
		}
	}
	slices.Sort(shared)
	return shared
}

// Quality buckets a similarity score.
func Quality(score float64) string {
	switch {
	case score > 0.8:
		return "very high"
	case score > 0.6:
		return "high"
	case score > 0.4:
		return "moderate"
	case score > 0.2:
		return "low"
	default:
		return "very low"
	}
}

// Explain renders a score and its shared terms for a reviewer.
func Explain(score float64, shared []string) string {
	s := fmt.Sprintf("Similarity: %s (%.1f%%)", Quality(score), score*100)
	if len(shared) > 0 {
		s += " - shared terms: " + strings.Join(shared, ", ")
	}
	return s
}

// tokenSet lower-cases text, splits on whitespace, strips non-letters and
// keeps tokens longer than two characters.
func tokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, word := range strings.Fields(strings.ToLower(text)) {
		tok := strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) {
				return r
			}
			return -1
		}, word)
		if len([]rune(tok)) > 2 {
			set[tok] = struct{}{}
		}
	}
	return set
}

func keywordBonus(a, b string) float64 {
	lowerA := strings.ToLower(a)
	lowerB := strings.ToLower(b)

	bonus := 0.0
	for _, group := range []struct {
		keywords []string
		step     float64
	}{
		{fxKeywords, fxKeywordBonus},
		{legalKeywords, legalKeywordBonus},
		{transparencyKeywords, transparencyKeywordBonus},
	} {
		for _, kw := range group.keywords {
			if strings.Contains(lowerA, kw) && strings.Contains(lowerB, kw) {
				bonus += group.step
			}
		}
	}
	return math.Min(bonus, maxKeywordBonus)
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

// clamp bounds v to [0,1] and maps NaN to 0.
func clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
