package domain

import (
	"strings"
	"time"
	"unicode"
)

// Category is the legal category an extracted clause belongs to.
type Category string

const (
	CategoryFXRisk       Category = "fx_risk"
	CategoryTransparency Category = "transparency"
	CategoryInterestRate Category = "interest_rate"
	CategoryPenalty      Category = "penalty"
	CategoryUnfairTerm   Category = "unfair_term"
)

// AllCategories is the fixed extraction and output order.
var AllCategories = []Category{
	CategoryFXRisk,
	CategoryTransparency,
	CategoryInterestRate,
	CategoryPenalty,
	CategoryUnfairTerm,
}

// Valid reports whether c is one of the five known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryFXRisk, CategoryTransparency, CategoryInterestRate, CategoryPenalty, CategoryUnfairTerm:
		return true
	}
	return false
}

// Description is the human wording used in match reasoning.
func (c Category) Description() string {
	switch c {
	case CategoryFXRisk:
		return "foreign currency risk allocation"
	case CategoryTransparency:
		return "information disclosure requirements"
	case CategoryInterestRate:
		return "interest rate modification terms"
	case CategoryPenalty:
		return "penalty and fee provisions"
	case CategoryUnfairTerm:
		return "contractual terms"
	}
	return "contractual terms"
}

// RiskLevel is the four-tier severity of an extracted clause.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Rank orders risk levels: low < medium < high < critical.
func (r RiskLevel) Rank() int {
	switch r {
	case RiskLow:
		return 1
	case RiskMedium:
		return 2
	case RiskHigh:
		return 3
	case RiskCritical:
		return 4
	}
	return 0
}

// PatternType is how a ClausePattern's text is interpreted.
type PatternType string

const (
	PatternRegex      PatternType = "regex"
	PatternKeyword    PatternType = "keyword"
	PatternContextual PatternType = "contextual"
)

// Severity levels carried by patterns.
const (
	SeverityInformational = "informational"
	SeverityWarning       = "warning"
	SeverityMedium        = "medium"
	SeverityCritical      = "critical"
)

// LangMultilingual marks a pattern that applies to every language.
const LangMultilingual Language = "multilingual"

// ClausePattern is a named, versioned extraction rule.
type ClausePattern struct {
	ID          string      `json:"id" yaml:"id"`
	Name        string      `json:"name" yaml:"name"`
	Version     string      `json:"version" yaml:"version"`
	Type        PatternType `json:"patternType" yaml:"pattern_type"`
	Text        string      `json:"patternText" yaml:"pattern_text"`
	Language    Language    `json:"language" yaml:"language"`
	Category    Category    `json:"clauseCategory" yaml:"clause_category"`
	Severity    string      `json:"severity" yaml:"severity"`
	Description string      `json:"description" yaml:"description"`
	LegalBasis  string      `json:"legalBasis,omitempty" yaml:"legal_basis,omitempty"`
	Active      bool        `json:"isActive" yaml:"is_active"`
	CreatedAt   time.Time   `json:"createdAt,omitempty" yaml:"-"`
	UpdatedAt   time.Time   `json:"updatedAt,omitempty" yaml:"-"`
}

// ExtractedClause is one matched occurrence of a category in a document.
type ExtractedClause struct {
	ID               string    `json:"id"`
	DocumentID       string    `json:"documentId"`
	ClauseType       Category  `json:"clauseType"`
	ClauseText       string    `json:"clauseText"`
	OriginalLanguage Language  `json:"originalLanguage"`
	TranslatedText   string    `json:"translatedText,omitempty"`
	StartPosition    *int      `json:"startPosition,omitempty"`
	EndPosition      *int      `json:"endPosition,omitempty"`
	ConfidenceScore  float64   `json:"confidenceScore"`
	RiskLevel        RiskLevel `json:"riskLevel"`
	PatternName      string    `json:"patternName,omitempty"`
}

// RecomputeRisk derives RiskLevel from the clause text and confidence.
// It must be called whenever either changes.
func (c *ExtractedClause) RecomputeRisk() {
	c.RiskLevel = DeriveRiskLevel(c.ClauseText, c.ConfidenceScore)
}

// IsFXRiskClause reports whether the clause text mentions FX vocabulary,
// regardless of its category.
func (c *ExtractedClause) IsFXRiskClause() bool {
	return ContainsFXIndicator(c.ClauseText)
}

// ExtractionResult is the outcome of one extraction run.
type ExtractionResult struct {
	DocumentID       string            `json:"documentId"`
	Clauses          []ExtractedClause `json:"clauses"`
	Confidence       float64           `json:"confidence"`
	LanguageDetected Language          `json:"languageDetected"`
}

var fxPhrases = []string{
	"foreign currency",
	"deviza",
	"árfolyam",
	"exchange rate",
	"currency risk",
	"waluta",
	"kurs",
}

var fxCodes = map[string]bool{
	"chf": true,
	"eur": true,
	"usd": true,
}

// ContainsFXIndicator reports whether text contains FX vocabulary.
// Currency codes must appear as whole tokens; phrases match anywhere.
func ContainsFXIndicator(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range fxPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return HasToken(lower, fxCodes)
}

// HasToken reports whether lower-cased text contains one of tokens as a
// whole run of letters and digits.
func HasToken(lower string, tokens map[string]bool) bool {
	for _, tok := range strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if tokens[tok] {
			return true
		}
	}
	return false
}

// DeriveRiskLevel maps clause text and confidence to a risk level.
func DeriveRiskLevel(text string, confidence float64) RiskLevel {
	fx := ContainsFXIndicator(text)
	switch {
	case fx && confidence > 0.8:
		return RiskCritical
	case fx && confidence > 0.6:
		return RiskHigh
	case confidence > 0.7:
		return RiskMedium
	default:
		return RiskLow
	}
}
