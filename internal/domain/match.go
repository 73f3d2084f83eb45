package domain

// CaseMatch scores one precedent against one clause, or against the whole
// clause set when aggregated.
type CaseMatch struct {
	Case                 *LegalCase           `json:"case"`
	SimilarityScore      float64              `json:"similarityScore"`
	MatchingClauses      []Category           `json:"matchingClauses"`
	RelevanceExplanation string               `json:"relevanceExplanation"`
	Contributions        []ClauseContribution `json:"contributions,omitempty"`
}

// ClauseContribution shows how one clause contributed to a case-level score.
type ClauseContribution struct {
	ClauseID   string   `json:"clauseId"`
	ClauseType Category `json:"clauseType"`
	Score      float64  `json:"score"`
}

// ClauseMatch bundles the top precedents for one clause.
type ClauseMatch struct {
	ClauseID       string      `json:"clauseId"`
	ClauseType     Category    `json:"clauseType"`
	MatchedCases   []CaseMatch `json:"matchedCases"`
	MatchReasoning string      `json:"matchReasoning"`
}

// MatchingResult is the report returned by a matching run.
type MatchingResult struct {
	ClauseMatches      []ClauseMatch `json:"clauseMatches"`
	OverallCaseMatches []CaseMatch   `json:"overallCaseMatches"`
	ConfidenceScore    float64       `json:"confidenceScore"`
}

// ApplicablePrecedent is a citation-ready view of a case-level match.
type ApplicablePrecedent struct {
	CaseID           string   `json:"caseId"`
	CaseNumber       string   `json:"caseNumber"`
	CaseName         string   `json:"caseName"`
	Jurisdiction     string   `json:"jurisdiction"`
	RelevanceScore   float64  `json:"relevanceScore"`
	Strength         float64  `json:"strength"`   // age, court and citations
	TopicalFit       float64  `json:"topicalFit"` // ruling keyword density for the matched categories
	KeyPrinciples    []string `json:"keyPrinciples"`
	CitationText     string   `json:"citationText"`
	ApplicationNotes string   `json:"applicationNotes"`
}
