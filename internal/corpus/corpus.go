// Package corpus ships the default precedent corpus and an in-memory
// provider over it.
package corpus

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/opensource-finance/deviza/internal/domain"
)

var caseNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://opensource.finance/deviza/case"))

// CaseID returns the stable ID for a case number.
func CaseID(caseNumber string) string {
	return uuid.NewSHA1(caseNamespace, []byte(caseNumber)).String()
}

type seedCase struct {
	number, name, country, date, currency, ruling, fullText string
}

var seedCases = []seedCase{
	{
		"C-186/16", "Andriciuc v Banca Românească SA", "Romania", "2017-09-20", "CHF/RON",
		"Banks must provide adequate information about currency risk",
		"The Court held that when a bank grants a foreign-currency loan, it must provide the borrower with sufficient information to enable him to take a prudent and well-informed decision.",
	},
	{
		"C-520/21", "Arkadiusz Szcześniak v Bank M. SA", "Poland", "2023-06-15", "CHF/PLN",
		"Banks not entitled to interest on invalidated contracts; consumers can claim compensation",
		"When a mortgage contract is annulled for unfair terms, banks cannot demand any additional compensation beyond the return of the principal loan amount.",
	},
	{
		"C-705/21", "MJ v AxFina Hungary Zrt.", "Hungary", "2023-04-27", "CHF/HUF",
		"Full restitution required when contract invalid due to unfair currency terms",
		"If a contract includes a contractual term placing the exchange rate risk on the consumer which is unfair, and if without that term the contract can't survive, then the contract should be declared invalid in its entirety.",
	},
	{
		"C-609/19", "BNP Paribas Personal Finance SA v VE", "France", "2021-06-10", "CHF/EUR",
		"Currency terms placing disproportionate FX risk on consumers are unfair",
		"Currency terms that place disproportionate exchange rate risk on consumers without adequate safeguards are contrary to the requirement of good faith.",
	},
	{
		"C-26/13", "Kásler v OTP Jelzálogbank Zrt", "Hungary", "2014-04-30", "CHF/HUF",
		"Unfair currency clauses can be replaced by national law if contract cannot exist without them",
		"A clause requiring use of different exchange rates for loan disbursement vs. repayment could be unfair if not transparent. National courts may replace unfair terms with supplementary provisions of national law in exceptional circumstances.",
	},
	{
		"C-51/17", "OTP Bank Nyrt v Teréz Ilyés and Emil Kiss", "Hungary", "2018-09-20", "CHF/HUF",
		"Currency risk clauses subject to unfairness assessment; must be transparent",
		"Currency risk clauses are subject to unfairness assessment under Directive 93/13/EEC and must meet transparency requirements.",
	},
	{
		"C-118/17", "Zsuzsanna Dunai v ERSTE Bank Hungary Zrt", "Hungary", "2019-03-14", "CHF/HUF",
		"National legislation excluding retroactive cancellation is contrary to EU law",
		"National legislation that prevents courts from retroactively cancelling unfair contract terms is contrary to EU consumer protection law.",
	},
	{
		"C-630/23", "ZH, KN v AxFina Hungary Zrt.", "Hungary", "2025-04-30", "CHF/HUF",
		"Leasing agreements with unfair currency terms must be fully invalidated",
		"Recent CJEU ruling requiring full invalidation and restitution for foreign currency leasing agreements with unfair exchange rate risk allocation.",
	},
}

// Seed returns a fresh copy of the default corpus, in shipping order.
func Seed() []*domain.LegalCase {
	out := make([]*domain.LegalCase, 0, len(seedCases))
	for _, s := range seedCases {
		date, err := time.Parse(time.DateOnly, s.date)
		if err != nil {
			panic(fmt.Sprintf("corpus: bad seed date %q: %v", s.date, err))
		}
		out = append(out, &domain.LegalCase{
			ID:         CaseID(s.number),
			CaseNumber: s.number,
			CaseName:   s.name,
			Country:    s.country,
			Date:       date,
			Currency:   s.currency,
			KeyRuling:  s.ruling,
			FullText:   s.fullText,
			Court:      domain.CaseTypeCJEU,
			CaseType:   domain.CaseTypeCJEU,
		})
	}
	return out
}

// InCurrencyCorpus reports whether a case belongs to the currency-related
// corpus: a major currency in its currency field, a foreign-currency name,
// or a ruling about currency or exchange rates.
func InCurrencyCorpus(c *domain.LegalCase) bool {
	for _, code := range []string{"CHF", "EUR", "USD", "GBP"} {
		if strings.Contains(c.Currency, code) {
			return true
		}
	}
	name := strings.ToLower(c.CaseName)
	if containsInOrder(name, "foreign", "currency") || strings.Contains(name, "deviza") {
		return true
	}
	ruling := strings.ToLower(c.KeyRuling)
	return strings.Contains(ruling, "currency") || containsInOrder(ruling, "exchange", "rate")
}

// containsInOrder reports whether a is followed somewhere by b.
func containsInOrder(s, a, b string) bool {
	i := strings.Index(s, a)
	return i >= 0 && strings.Contains(s[i+len(a):], b)
}

// Static serves a fixed corpus from memory.
type Static struct {
	cases []*domain.LegalCase
}

// NewStatic creates a provider over cases. A nil slice serves the seed corpus.
func NewStatic(cases []*domain.LegalCase) *Static {
	if cases == nil {
		cases = Seed()
	}
	return &Static{cases: cases}
}

// GetCurrencyRelatedCases returns the currency-related cases, newest first.
func (s *Static) GetCurrencyRelatedCases(_ context.Context) ([]*domain.LegalCase, error) {
	var out []*domain.LegalCase
	for _, c := range s.cases {
		if InCurrencyCorpus(c) {
			out = append(out, c)
		}
	}
	slices.SortStableFunc(out, func(a, b *domain.LegalCase) int {
		return cmp.Compare(b.Date.UnixNano(), a.Date.UnixNano())
	})
	return out, nil
}

// All returns every case in the provider, in insertion order.
func (s *Static) All() []*domain.LegalCase {
	return s.cases
}

// CaseStore is the write side needed to seed a repository.
type CaseStore interface {
	SaveCase(ctx context.Context, c *domain.LegalCase) error
}

// SeedStore writes the default corpus to store. Saving is an upsert keyed
// by the stable case ID, so seeding twice is harmless.
func SeedStore(ctx context.Context, store CaseStore) (int, error) {
	cases := Seed()
	for _, c := range cases {
		if err := store.SaveCase(ctx, c); err != nil {
			return 0, fmt.Errorf("failed to seed case %s: %w", c.CaseNumber, err)
		}
	}
	return len(cases), nil
}
