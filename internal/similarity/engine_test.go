package similarity

import (
	"math"
	"reflect"
	"testing"

	"github.com/opensource-finance/deviza/internal/domain"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestTextSimilarity(t *testing.T) {
	e := NewEngineAt(2025)

	t.Run("identical", func(t *testing.T) {
		got := e.TextSimilarity("mortgage contract terms", "mortgage contract terms")
		if !approx(got, 1.0) {
			t.Errorf("expected 1.0, got %f", got)
		}
	})

	t.Run("disjoint", func(t *testing.T) {
		got := e.TextSimilarity("mortgage contract", "weather report")
		if got != 0 {
			t.Errorf("expected 0, got %f", got)
		}
	})

	t.Run("jaccard ignores short and punctuation", func(t *testing.T) {
		// {the, bank, loan, terms} vs {bank, loan, rules}: 2/5
		got := e.TextSimilarity("The bank, loan terms.", "a bank loan rules!")
		if !approx(got, 0.4) {
			t.Errorf("expected 0.4, got %f", got)
		}
	})

	t.Run("keyword bonus", func(t *testing.T) {
		// {swiss, franc} vs {swiss, franc, debt}: 2/3 plus swiss franc bonus 0.1
		got := e.TextSimilarity("Swiss franc", "swiss franc debt")
		if !approx(got, 2.0/3.0+0.1) {
			t.Errorf("expected %f, got %f", 2.0/3.0+0.1, got)
		}
	})

	t.Run("empty", func(t *testing.T) {
		if got := e.TextSimilarity("", ""); got != 0 {
			t.Errorf("expected 0, got %f", got)
		}
		if got := e.TextSimilarity("a b", "c d"); got != 0 {
			t.Errorf("expected 0 for short tokens, got %f", got)
		}
	})

	t.Run("bounded", func(t *testing.T) {
		text := "foreign currency deviza árfolyam exchange rate currency risk CHF unfair invalid information"
		got := e.TextSimilarity(text, text)
		if got < 0 || got > 1 {
			t.Errorf("out of range: %f", got)
		}
	})
}

func TestKeywordBonusCap(t *testing.T) {
	text := "foreign currency deviza árfolyam exchange rate currency risk chf swiss franc"
	if got := keywordBonus(text, text); !approx(got, maxKeywordBonus) {
		t.Errorf("expected bonus capped at %f, got %f", maxKeywordBonus, got)
	}
}

func TestSemanticSimilarity(t *testing.T) {
	e := NewEngineAt(2025)

	tests := []struct {
		name     string
		category domain.Category
		ruling   string
		want     float64
	}{
		{"fx two keywords", domain.CategoryFXRisk, "Foreign currency loans carry exchange rate risk", 0.3},
		{"transparency", domain.CategoryTransparency, "Sufficient information and a warning are required", 0.4},
		{"legal fallback", domain.CategoryPenalty, "Unfair terms are void", 0.2},
		{"none", domain.CategoryInterestRate, "Nothing relevant here", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.SemanticSimilarity(tt.category, tt.ruling); !approx(got, tt.want) {
				t.Errorf("expected %f, got %f", tt.want, got)
			}
		})
	}
}

func TestPrecedentStrength(t *testing.T) {
	e := NewEngineAt(2025)
	ptr := func(n int) *int { return &n }

	tests := []struct {
		name         string
		year         int
		jurisdiction string
		citations    *int
		want         float64
	}{
		{"recent cjeu clamps", 2024, "CJEU", nil, 1.0},
		{"old national", 2012, "Hungary", nil, 0.7},
		{"mid unlisted", 2021, "France", nil, 0.7},
		{"ten years with citations", 2015, "Germany", ptr(60), 0.7},
		{"few citations", 2000, "Spain", ptr(11), 0.55},
		{"no citations bonus", 2000, "Spain", ptr(10), 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.PrecedentStrength(tt.year, tt.jurisdiction, tt.citations); !approx(got, tt.want) {
				t.Errorf("expected %f, got %f", tt.want, got)
			}
		})
	}
}

func TestClauseCriticality(t *testing.T) {
	e := NewEngineAt(2025)

	tests := []struct {
		name     string
		text     string
		category domain.Category
		want     float64
	}{
		{"fx without warning", "A kölcsön svájci frankban denominált", domain.CategoryFXRisk, 1.0},
		{"fx with warning", "Az árfolyam kockázat az adóst terheli", domain.CategoryFXRisk, 0.8},
		{"transparency negated", "A bank nem tájékoztatta az adóst", domain.CategoryTransparency, 0.9},
		{"transparency plain", "Information was provided", domain.CategoryTransparency, 0.3},
		{"unilateral", "The bank may make a unilateral change", domain.CategoryInterestRate, 0.6},
		{"discretion", "Fees at the bank discretion", domain.CategoryPenalty, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.ClauseCriticality(tt.text, tt.category); !approx(got, tt.want) {
				t.Errorf("expected %f, got %f", tt.want, got)
			}
		})
	}
}

func TestKeyPhrases(t *testing.T) {
	e := NewEngineAt(2025)

	got := e.KeyPhrases("The Swiss franc loan. The Swiss franc loan again. Restitution follows.")
	want := []string{"Restitution", "Swiss franc"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	if got := e.KeyPhrases("nothing"); len(got) != 0 {
		t.Errorf("expected no phrases, got %v", got)
	}
}

func TestSharedTermsAndExplain(t *testing.T) {
	e := NewEngineAt(2025)

	shared := e.SharedTerms("The bank loan", "bank loan terms")
	if !reflect.DeepEqual(shared, []string{"bank", "loan"}) {
		t.Errorf("unexpected shared terms: %v", shared)
	}

	if got := Explain(0.72, shared); got != "Similarity: high (72.0%) - shared terms: bank, loan" {
		t.Errorf("unexpected explanation: %q", got)
	}
	if got := Explain(0.1, nil); got != "Similarity: very low (10.0%)" {
		t.Errorf("unexpected explanation: %q", got)
	}
}

func TestQuality(t *testing.T) {
	cases := map[float64]string{
		0.9:  "very high",
		0.8:  "high",
		0.5:  "moderate",
		0.3:  "low",
		0.2:  "very low",
		0.0:  "very low",
		0.61: "high",
	}
	for score, want := range cases {
		if got := Quality(score); got != want {
			t.Errorf("Quality(%f) = %q, want %q", score, got, want)
		}
	}
}
