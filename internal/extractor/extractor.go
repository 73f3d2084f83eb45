// Package extractor finds typed, confidence-scored clauses in legal text.
package extractor

import (
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/opensource-finance/deviza/internal/domain"
	"github.com/opensource-finance/deviza/internal/language"
	"github.com/opensource-finance/deviza/internal/patterns"
)

// clauseNamespace seeds deterministic clause IDs.
var clauseNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://opensource.finance/deviza/clause"))

// Extractor applies a compiled pattern table to text. It holds only
// immutable state and is safe for concurrent use.
type Extractor struct {
	table      *patterns.CompiledTable
	detector   *language.Detector
	radius     domain.ContextRadius
	maxWorkers int
}

// New creates an extractor. A zero radius falls back to the defaults.
func New(table *patterns.CompiledTable, detector *language.Detector, cfg domain.ExtractionConfig) *Extractor {
	radius := cfg.ContextRadius
	if radius == (domain.ContextRadius{}) {
		radius = domain.DefaultContextRadius()
	}
	maxWorkers := cfg.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = len(domain.AllCategories)
	}
	if detector == nil {
		detector = language.NewDetector()
	}
	return &Extractor{
		table:      table,
		detector:   detector,
		radius:     radius,
		maxWorkers: maxWorkers,
	}
}

// Table returns the compiled table the extractor runs.
func (e *Extractor) Table() *patterns.CompiledTable {
	return e.table
}

// Extract returns every clause found in text. An unknown or empty language
// is detected first. Categories run concurrently and are concatenated in
// domain.AllCategories order, so output is reproducible.
func (e *Extractor) Extract(documentID, text string, lang domain.Language) domain.ExtractionResult {
	lang, _ = e.detector.Resolve(text, lang)

	result := domain.ExtractionResult{
		DocumentID:       documentID,
		Clauses:          []domain.ExtractedClause{},
		LanguageDetected: lang,
	}
	if strings.TrimSpace(text) == "" {
		return result
	}

	perCategory := make([][]domain.ExtractedClause, len(domain.AllCategories))
	var wg sync.WaitGroup
	sem := make(chan struct{}, e.maxWorkers)

	for i, cat := range domain.AllCategories {
		wg.Add(1)
		go func(idx int, c domain.Category) {
			defer wg.Done()

			sem <- struct{}{}        // Acquire
			defer func() { <-sem }() // Release

			perCategory[idx] = e.extractCategory(documentID, text, lang, c)
		}(i, cat)
	}
	wg.Wait()

	total := 0.0
	for _, clauses := range perCategory {
		for _, c := range clauses {
			total += c.ConfidenceScore
		}
		result.Clauses = append(result.Clauses, clauses...)
	}
	if n := len(result.Clauses); n > 0 {
		result.Confidence = total / float64(n)
	}
	return result
}

func (e *Extractor) extractCategory(documentID, text string, lang domain.Language, cat domain.Category) []domain.ExtractedClause {
	var clauses []domain.ExtractedClause
	radius := e.radius.For(cat)

	for _, m := range e.table.Lookup(lang, cat) {
		for _, span := range m.FindAll(text, lang) {
			context := window(text, span.Start, span.End, radius)

			confidence, ok := score(cat, context)
			if !ok {
				continue
			}

			start := utf8.RuneCountInString(text[:span.Start])
			end := start + utf8.RuneCountInString(text[span.Start:span.End])

			clause := domain.ExtractedClause{
				ID:               clauseID(documentID, cat, m.Pattern.ID, start, end),
				DocumentID:       documentID,
				ClauseType:       cat,
				ClauseText:       context,
				OriginalLanguage: lang,
				StartPosition:    &start,
				EndPosition:      &end,
				ConfidenceScore:  confidence,
				PatternName:      m.Pattern.Name,
			}
			clause.RecomputeRisk()
			clauses = append(clauses, clause)
		}
	}
	return clauses
}

// window returns text[start:end] widened by radius characters on each
// side, clamped to the string bounds. Offsets are byte offsets on rune
// boundaries; the radius counts runes.
func window(text string, start, end, radius int) string {
	from := start
	for i := 0; i < radius && from > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(text[:from])
		from -= size
	}
	to := end
	for i := 0; i < radius && to < len(text); i++ {
		_, size := utf8.DecodeRuneInString(text[to:])
		to += size
	}
	return text[from:to]
}

func clauseID(documentID string, cat domain.Category, patternID string, start, end int) string {
	key := strings.Join([]string{
		documentID,
		string(cat),
		patternID,
		strconv.Itoa(start),
		strconv.Itoa(end),
	}, "|")
	return uuid.NewSHA1(clauseNamespace, []byte(key)).String()
}
