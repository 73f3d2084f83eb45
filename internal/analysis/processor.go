// Package analysis turns extracted clauses and precedent matches into a
// document-level report.
package analysis

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/opensource-finance/deviza/internal/domain"
	"github.com/opensource-finance/deviza/internal/similarity"
	"github.com/opensource-finance/deviza/internal/textproc"
)

// EngineVersion is stamped on every analysis.
const EngineVersion = "deviza-1.0"

// findingTextLimit bounds the clause excerpt quoted in a finding, in runes.
const findingTextLimit = 80

// Processor builds the final analysis from stage outputs.
type Processor struct {
	sim *similarity.Engine
}

// NewProcessor creates a processor. A nil engine uses the current year.
func NewProcessor(sim *similarity.Engine) *Processor {
	if sim == nil {
		sim = similarity.NewEngine()
	}
	return &Processor{sim: sim}
}

// DecisionInput contains all stage outputs needed for a report.
type DecisionInput struct {
	TenantID        string
	DocumentID      string
	TraceID         string
	Text            string
	Extraction      domain.ExtractionResult
	Matching        *domain.MatchingResult
	Precedents      []domain.ApplicablePrecedent
	CasesConsidered int
	ExtractMs       int64
	MatchMs         int64
	StartTime       time.Time
}

// Process assembles the analysis. The status is REVIEW as soon as one
// clause is rated high or critical.
func (p *Processor) Process(input *DecisionInput) *domain.Analysis {
	clauses := input.Extraction.Clauses

	a := &domain.Analysis{
		ID:         uuid.New().String(),
		TenantID:   input.TenantID,
		DocumentID: input.DocumentID,
		Language:   input.Extraction.LanguageDetected,
		Timestamp:  time.Now().UTC(),
		Extraction: input.Extraction,
		Matching:   input.Matching,
		Precedents: input.Precedents,
		Summary:    Summarize(clauses),
		KeyPhrases: p.sim.KeyPhrases(input.Text),
		Outline:    Outline(input.Text),
		Status:     domain.StatusClear,
	}
	if a.KeyPhrases == nil {
		a.KeyPhrases = []string{}
	}
	if a.Precedents == nil {
		a.Precedents = []domain.ApplicablePrecedent{}
	}

	for _, c := range clauses {
		if c.IsFXRiskClause() {
			a.Assessments = append(a.Assessments, p.Assess(c))
		}
	}
	if ShouldReview(clauses) {
		a.Status = domain.StatusReview
	}

	a.Metadata = domain.AnalysisMetadata{
		TraceID:          input.TraceID,
		ExtractMs:        input.ExtractMs,
		MatchMs:          input.MatchMs,
		TotalMs:          time.Since(input.StartTime).Milliseconds(),
		ClausesExtracted: len(clauses),
		CasesConsidered:  input.CasesConsidered,
		EngineVersion:    EngineVersion,
	}
	return a
}

// Outline summarizes the layout of text: sentence and paragraph counts,
// header lines and lines that read like contract clauses.
func Outline(text string) domain.DocumentOutline {
	structure := textproc.DetectStructure(text)
	out := domain.DocumentOutline{
		Sentences:   len(textproc.Sentences(text)),
		Paragraphs:  len(textproc.Paragraphs(text)),
		Headers:     make([]string, 0, len(structure.Headers)),
		ClauseLines: len(structure.Clauses),
	}
	for _, h := range structure.Headers {
		out.Headers = append(out.Headers, h.Text)
	}
	return out
}

// ShouldReview reports whether any clause is rated high or critical.
func ShouldReview(clauses []domain.ExtractedClause) bool {
	for _, c := range clauses {
		if c.RiskLevel.Rank() >= domain.RiskHigh.Rank() {
			return true
		}
	}
	return false
}

// Summarize counts clauses per category and risk level. The overall risk is
// the highest clause risk, low for an empty document.
func Summarize(clauses []domain.ExtractedClause) domain.RiskSummary {
	s := domain.RiskSummary{
		OverallRisk: domain.RiskLow,
		ByCategory:  make(map[domain.Category]int, len(domain.AllCategories)),
		ByRisk:      make(map[domain.RiskLevel]int, 4),
	}
	for _, cat := range domain.AllCategories {
		s.ByCategory[cat] = 0
	}
	for _, r := range []domain.RiskLevel{domain.RiskLow, domain.RiskMedium, domain.RiskHigh, domain.RiskCritical} {
		s.ByRisk[r] = 0
	}

	for _, c := range clauses {
		s.ByCategory[c.ClauseType]++
		s.ByRisk[c.RiskLevel]++
		if c.RiskLevel.Rank() > s.OverallRisk.Rank() {
			s.OverallRisk = c.RiskLevel
		}
		if c.IsFXRiskClause() {
			s.FXExposure = true
		}
		if c.RiskLevel.Rank() >= domain.RiskHigh.Rank() {
			s.Findings = append(s.Findings, fmt.Sprintf("%s clause rated %s: %q",
				c.ClauseType, c.RiskLevel, excerpt(c.ClauseText)))
		}
	}

	if s.FXExposure && s.ByCategory[domain.CategoryTransparency] == 0 {
		s.Findings = append(s.Findings, "Foreign currency exposure without any risk disclosure clause")
	}
	return s
}

var warningIndicators = []string{"warning", "risk", "tájékoztatás", "figyelmeztetés"}

// Assess scores a clause that carries FX vocabulary. Clauses without any
// risk warning get the transparency issues and suggested challenges.
func (p *Processor) Assess(c domain.ExtractedClause) domain.ClauseAssessment {
	a := domain.ClauseAssessment{
		ClauseID:    c.ID,
		Criticality: p.sim.ClauseCriticality(c.ClauseText, c.ClauseType),
	}
	if !c.IsFXRiskClause() {
		return a
	}

	a.UnfairnessScore = 0.9
	a.ConsumerDetrimentScore = 0.95

	lower := strings.ToLower(c.ClauseText)
	warned := false
	for _, ind := range warningIndicators {
		if strings.Contains(lower, ind) {
			warned = true
			break
		}
	}

	if warned {
		a.TransparencyScore = 0.6
		return a
	}
	a.TransparencyScore = 0.1
	a.EUComplianceIssues = []string{
		"Insufficient warning about currency risk (Andriciuc v. Banca Românească)",
	}
	a.NationalLawIssues = []string{
		"Violation of transparency requirements under Hungarian consumer protection law",
	}
	a.SuggestedChallenges = []string{
		"Challenge under EU Directive 93/13/EEC for lack of transparency",
		"Cite CJEU precedents on FX risk disclosure requirements",
	}
	return a
}

func excerpt(text string) string {
	r := []rune(text)
	if len(r) <= findingTextLimit {
		return text
	}
	return string(r[:findingTextLimit]) + "..."
}
