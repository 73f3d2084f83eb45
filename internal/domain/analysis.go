package domain

import "time"

// Analysis is the complete report for one document.
type Analysis struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenantId"`
	DocumentID string    `json:"documentId"`
	Status     string    `json:"status"` // "REVIEW" or "CLEAR"
	Language   Language  `json:"language"`
	Timestamp  time.Time `json:"timestamp"`

	Extraction  ExtractionResult      `json:"extraction"`
	Matching    *MatchingResult       `json:"matching"`
	Precedents  []ApplicablePrecedent `json:"precedents"`
	Assessments []ClauseAssessment    `json:"assessments,omitempty"`
	Summary     RiskSummary           `json:"summary"`
	KeyPhrases  []string              `json:"keyPhrases"`
	Outline     DocumentOutline       `json:"outline"`

	Metadata AnalysisMetadata `json:"metadata"`
}

// DocumentOutline is the coarse layout of the analyzed text.
type DocumentOutline struct {
	Sentences   int      `json:"sentences"`
	Paragraphs  int      `json:"paragraphs"`
	Headers     []string `json:"headers"`
	ClauseLines int      `json:"clauseLines"`
}

// ClauseAssessment is the legal reading of a single FX clause.
type ClauseAssessment struct {
	ClauseID               string   `json:"clauseId"`
	UnfairnessScore        float64  `json:"unfairnessScore"`
	TransparencyScore      float64  `json:"transparencyScore"`
	ConsumerDetrimentScore float64  `json:"consumerDetrimentScore"`
	Criticality            float64  `json:"criticality"`
	EUComplianceIssues     []string `json:"euComplianceIssues,omitempty"`
	NationalLawIssues      []string `json:"nationalLawIssues,omitempty"`
	SuggestedChallenges    []string `json:"suggestedChallenges,omitempty"`
}

// RiskSummary aggregates clause risk across a document.
type RiskSummary struct {
	OverallRisk RiskLevel         `json:"overallRisk"`
	ByCategory  map[Category]int  `json:"byCategory"`
	ByRisk      map[RiskLevel]int `json:"byRisk"`
	FXExposure  bool              `json:"fxExposure"`
	Findings    []string          `json:"findings,omitempty"`
}

// AnalysisMetadata contains processing information.
type AnalysisMetadata struct {
	TraceID          string `json:"traceId"`
	ExtractMs        int64  `json:"extractMs"`
	MatchMs          int64  `json:"matchMs"`
	TotalMs          int64  `json:"totalMs"`
	ClausesExtracted int    `json:"clausesExtracted"`
	CasesConsidered  int    `json:"casesConsidered"`
	EngineVersion    string `json:"engineVersion"`
}

// Analysis status constants
const (
	StatusReview = "REVIEW" // at least one high or critical clause
	StatusClear  = "CLEAR"
)
