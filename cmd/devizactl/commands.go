package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/opensource-finance/deviza/internal/corpus"
	"github.com/opensource-finance/deviza/internal/domain"
	"github.com/opensource-finance/deviza/internal/matcher"
)

// localTenant scopes offline analyses.
const localTenant = "local"

func newDetectCmd(opts *rootOptions) *cobra.Command {
	var mixed bool

	cmd := &cobra.Command{
		Use:   "detect FILE",
		Short: "Detect the language of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(args[0], opts)
			if err != nil {
				return err
			}
			svc, err := newService(cmd.Context(), opts)
			if err != nil {
				return err
			}

			out := newPrinter(cmd.OutOrStdout(), opts.JSON)
			if mixed {
				sentences := svc.Detector().DetectMixed(doc.Text)
				if opts.JSON {
					return out.json(sentences)
				}
				for _, s := range sentences {
					out.line("%s\t%.2f\t%s", s.Language, s.Confidence, truncate(s.Sentence, 60))
				}
				return out.flush()
			}

			det := svc.Detector().Detect(doc.Text)
			if opts.JSON {
				return out.json(det)
			}
			out.line("language\t%s (%s)", det.Language, det.Language.Name())
			out.line("confidence\t%.2f", det.Confidence)
			return out.flush()
		},
	}
	cmd.Flags().BoolVar(&mixed, "mixed", false, "detect per sentence")
	return cmd
}

func newExtractCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "extract FILE",
		Short: "Extract typed clauses from a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(args[0], opts)
			if err != nil {
				return err
			}
			svc, err := newService(cmd.Context(), opts)
			if err != nil {
				return err
			}

			result := svc.Extract(cmd.Context(), doc.Title, doc.Text, doc.Language)
			out := newPrinter(cmd.OutOrStdout(), opts.JSON)
			if opts.JSON {
				return out.json(result)
			}
			out.line("language\t%s", result.LanguageDetected)
			out.line("clauses\t%d", len(result.Clauses))
			out.line("")
			printClauses(out, result.Clauses)
			return out.flush()
		},
	}
}

func newAnalyzeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze FILE",
		Short: "Extract clauses, match precedents and summarize risk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(args[0], opts)
			if err != nil {
				return err
			}
			svc, err := newService(cmd.Context(), opts)
			if err != nil {
				return err
			}

			a, err := svc.Analyze(cmd.Context(), localTenant, doc)
			if err != nil {
				return err
			}

			out := newPrinter(cmd.OutOrStdout(), opts.JSON)
			if opts.JSON {
				return out.json(a)
			}
			out.line("status\t%s", a.Status)
			out.line("overall risk\t%s", a.Summary.OverallRisk)
			out.line("language\t%s", a.Language)
			out.line("fx exposure\t%t", a.Summary.FXExposure)
			out.line("")
			printClauses(out, a.Extraction.Clauses)
			if len(a.Summary.Findings) > 0 {
				out.line("")
				out.line("FINDINGS")
				for _, f := range a.Summary.Findings {
					out.line("- %s", f)
				}
			}
			if len(a.Precedents) > 0 {
				out.line("")
				out.line("PRECEDENTS")
				for _, p := range a.Precedents {
					out.line("%.2f\t%s", p.RelevanceScore, p.CitationText)
				}
			}
			return out.flush()
		},
	}
}

func newCasesCmd(opts *rootOptions) *cobra.Command {
	var query, country, currency string

	cmd := &cobra.Command{
		Use:   "cases",
		Short: "List the built-in precedent corpus",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cases, err := corpus.NewStatic(nil).GetCurrencyRelatedCases(cmd.Context())
			if err != nil {
				return err
			}
			cases = filterCases(cases, country, currency, query)

			out := newPrinter(cmd.OutOrStdout(), opts.JSON)
			if opts.JSON {
				if cases == nil {
					cases = []*domain.LegalCase{}
				}
				return out.json(cases)
			}
			for _, c := range cases {
				out.line("%s\t%s\t%s", c.CaseNumber, c.Date.Format("2006-01-02"), c.CaseName)
			}
			out.line("")
			for _, c := range cases {
				out.line("%s", matcher.Citation(c))
			}
			return out.flush()
		},
	}
	f := cmd.Flags()
	f.StringVarP(&query, "query", "q", "", "filter by text in name or ruling")
	f.StringVar(&country, "country", "", "filter by country")
	f.StringVar(&currency, "currency", "", "filter by currency pair, e.g. CHF/HUF")
	return cmd
}

// filterCases keeps cases matching every non-empty filter, case-insensitively.
func filterCases(cases []*domain.LegalCase, country, currency, query string) []*domain.LegalCase {
	country = strings.ToLower(strings.TrimSpace(country))
	currency = strings.ToLower(strings.TrimSpace(currency))
	query = strings.ToLower(strings.TrimSpace(query))

	var out []*domain.LegalCase
	for _, c := range cases {
		if country != "" && strings.ToLower(c.Country) != country {
			continue
		}
		if currency != "" && !strings.Contains(strings.ToLower(c.Currency), currency) {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(c.CaseName+" "+c.KeyRuling), query) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func printClauses(out *printer, clauses []domain.ExtractedClause) {
	out.line("CATEGORY\tRISK\tCONFIDENCE\tTEXT")
	for _, c := range clauses {
		out.line("%s\t%s\t%.2f\t%s", c.ClauseType, c.RiskLevel, c.ConfidenceScore, truncate(c.ClauseText, 70))
	}
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

