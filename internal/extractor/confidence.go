package extractor

import (
	"strings"
	"unicode"

	"github.com/opensource-finance/deviza/internal/domain"
)

// Acceptance thresholds (exclusive) and fixed confidences per category.
const (
	fxBase            = 0.5
	fxThreshold       = 0.3
	transparencyBase  = 0.4
	transparencyMin   = 0.4
	interestRateScore = 0.7
	penaltyScore      = 0.8
	unfairTermScore   = 0.6
)

var (
	currencyCodes      = map[string]bool{"chf": true}
	currencyIndicators = []string{
		"svájci frank", "swiss franc", "frank szwajcarski", "švýcarský frank",
		"deviza", "árfolyam", "foreign currency", "exchange rate", "waluta",
	}
	riskWords    = []string{"kockázat", "risk"}
	warningWords = []string{"tájékoztatás", "figyelmeztetés", "warning", "disclosure"}

	transparencyIndicators = []string{
		"tájékoztatás", "information", "disclosure", "warning", "figyelmeztetés", "risk", "kockázat",
	}
	negationWords = map[string]bool{
		"nem": true, "not": true, "nie": true, "ne": true, "never": true, "soha": true,
	}
	informPrefixes = []string{"tájékoztat", "poinformowa", "informová"}
	informWords    = map[string]bool{"inform": true, "informed": true, "informing": true}
)

// score returns the confidence for a match of cat with the given context and
// whether the match is kept.
func score(cat domain.Category, context string) (float64, bool) {
	switch cat {
	case domain.CategoryFXRisk:
		c := fxConfidence(context)
		return c, c > fxThreshold
	case domain.CategoryTransparency:
		c := transparencyConfidence(context)
		return c, c > transparencyMin
	case domain.CategoryInterestRate:
		return interestRateScore, true
	case domain.CategoryPenalty:
		return penaltyScore, true
	case domain.CategoryUnfairTerm:
		return unfairTermScore, true
	}
	return 0, false
}

// fxConfidence rewards a named currency and a risk word, and penalizes the
// absence of any warning near the FX mention. Currency codes count only as
// whole tokens.
func fxConfidence(context string) float64 {
	lower := strings.ToLower(context)
	c := fxBase
	if domain.HasToken(lower, currencyCodes) || containsAny(lower, currencyIndicators) {
		c += 0.3
	}
	if containsAny(lower, riskWords) {
		c += 0.2
	}
	if containsAny(lower, warningWords) {
		c += 0.1
	} else {
		c -= 0.1
	}
	return clamp(c)
}

// transparencyConfidence adds 0.1 per indicator present and 0.3 when the
// context says the consumer was not informed.
func transparencyConfidence(context string) float64 {
	lower := strings.ToLower(context)
	c := transparencyBase
	for _, term := range transparencyIndicators {
		if strings.Contains(lower, term) {
			c += 0.1
		}
	}
	if negatedInform(lower) {
		c += 0.3
	}
	return clamp(c)
}

// negatedInform reports whether a negation word and an inform word both
// appear in the lower-cased text.
func negatedInform(lower string) bool {
	var negated, informed bool
	for _, w := range strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\'' && r != '’'
	}) {
		if negationWords[w] || strings.HasSuffix(w, "n't") || strings.HasSuffix(w, "n’t") {
			negated = true
		}
		if informWords[w] || hasAnyPrefix(w, informPrefixes) {
			informed = true
		}
	}
	return negated && informed
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
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
