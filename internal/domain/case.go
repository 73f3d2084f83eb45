package domain

import (
	"strings"
	"time"
)

// Case types.
const (
	CaseTypeCJEU     = "CJEU"
	CaseTypeNational = "national"
)

// JurisdictionCJEU is the jurisdiction reported for Court of Justice rulings.
const JurisdictionCJEU = "CJEU"

// LegalCase is a judicial ruling used as a precedent. Cases are shared
// reference data and are not tenant scoped.
type LegalCase struct {
	ID                string    `json:"id"`
	CaseNumber        string    `json:"caseNumber"`
	CaseName          string    `json:"caseName"`
	Country           string    `json:"country"`
	Date              time.Time `json:"date"`
	Currency          string    `json:"currency"`
	KeyRuling         string    `json:"keyRuling"`
	FullText          string    `json:"fullText,omitempty"`
	Court             string    `json:"court,omitempty"`
	CaseType          string    `json:"caseType"`
	SignificanceScore *float64  `json:"significanceScore,omitempty"`
	CitationCount     *int      `json:"citationCount,omitempty"`
	CreatedAt         time.Time `json:"createdAt,omitempty"`
}

var currencyCaseIndicators = []string{"CHF", "EUR", "USD", "foreign currency", "deviza", "waluta"}

// IsCurrencyRelated reports whether the case concerns a foreign-currency loan.
func (c *LegalCase) IsCurrencyRelated() bool {
	ruling := strings.ToLower(c.KeyRuling)
	name := strings.ToLower(c.CaseName)
	for _, ind := range currencyCaseIndicators {
		lower := strings.ToLower(ind)
		if strings.Contains(c.Currency, ind) || strings.Contains(ruling, lower) || strings.Contains(name, lower) {
			return true
		}
	}
	return false
}

// IsSupranational reports whether the case number is a CJEU docket ("C-").
func (c *LegalCase) IsSupranational() bool {
	return strings.HasPrefix(c.CaseNumber, "C-")
}

// Jurisdiction is "CJEU" for Court of Justice rulings, else the country.
func (c *LegalCase) Jurisdiction() string {
	if c.IsSupranational() {
		return JurisdictionCJEU
	}
	return c.Country
}

// Year returns the ruling year.
func (c *LegalCase) Year() int {
	return c.Date.Year()
}

// CaseFilter narrows a case search. Zero values do not filter.
type CaseFilter struct {
	Country  string
	Currency string
	Query    string
	FromYear int
	ToYear   int
	Limit    int
}
