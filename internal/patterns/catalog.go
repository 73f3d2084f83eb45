package patterns

import "github.com/opensource-finance/deviza/internal/domain"

// Catalog returns the default category catalog: one multilingual pattern
// per category with its severity and legal basis. The catalog documents
// what each category means to a reviewer; extraction runs on the language
// table returned by Builtin.
func Catalog() []domain.ClausePattern {
	return []domain.ClausePattern{
		{
			ID:          "catalog.fx_risk",
			Name:        "Foreign Currency Risk Clause",
			Version:     BuiltinVersion,
			Type:        domain.PatternRegex,
			Text:        `(?i)(deviza|foreign\s+currency|árfolyam|exchange\s+rate|currency\s+risk|CHF|švýcarský\s+frank)`,
			Language:    domain.LangMultilingual,
			Category:    domain.CategoryFXRisk,
			Severity:    domain.SeverityCritical,
			Description: "Clauses relating to foreign currency exchange rate risk",
			LegalBasis:  "EU Directive 93/13/EEC on unfair terms",
			Active:      true,
		},
		{
			ID:          "catalog.transparency",
			Name:        "Information Disclosure Requirements",
			Version:     BuiltinVersion,
			Type:        domain.PatternKeyword,
			Text:        "tájékoztatás|information|disclosure|warning|risk|figyelmeztetés",
			Language:    domain.LangMultilingual,
			Category:    domain.CategoryTransparency,
			Severity:    domain.SeverityWarning,
			Description: "Clauses related to information disclosure and transparency requirements",
			LegalBasis:  "CJEU Andriciuc v. Banca Românească",
			Active:      true,
		},
		{
			ID:          "catalog.interest_rate",
			Name:        "Interest Rate Variation Clause",
			Version:     BuiltinVersion,
			Type:        domain.PatternRegex,
			Text:        `(?i)(kamat|interest\s+rate|úrok|změna\s+úroku|rate\s+change)`,
			Language:    domain.LangMultilingual,
			Category:    domain.CategoryInterestRate,
			Severity:    domain.SeverityWarning,
			Description: "Clauses allowing unilateral interest rate changes",
			LegalBasis:  "EU consumer protection directives",
			Active:      true,
		},
		{
			ID:          "catalog.penalty",
			Name:        "Penalty and Fee Clauses",
			Version:     BuiltinVersion,
			Type:        domain.PatternKeyword,
			Text:        "penalty|fee|költség|díj|sankce|poplatek|fine",
			Language:    domain.LangMultilingual,
			Category:    domain.CategoryPenalty,
			Severity:    domain.SeverityMedium,
			Description: "Clauses imposing penalties or additional fees",
			LegalBasis:  "Unfair Terms Directive",
			Active:      true,
		},
		{
			ID:      "catalog.unfair_term",
			Name:    "Unilateral Modification Clause",
			Version: BuiltinVersion,
			Type:    domain.PatternContextual,
			Text: `(text.contains("bank") || text.contains("hitelező")) && ` +
				`(text.contains("unilateral") || text.contains("egyoldalú") || text.contains("discretion") || text.contains("kizárólag"))`,
			Language:    domain.LangMultilingual,
			Category:    domain.CategoryUnfairTerm,
			Severity:    domain.SeverityWarning,
			Description: "Clauses letting the lender change terms at its sole discretion",
			LegalBasis:  "EU Directive 93/13/EEC, Annex point 1(j)",
			Active:      true,
		},
	}
}
