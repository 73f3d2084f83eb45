package domain

import "testing"

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		in   string
		want Language
	}{
		{"", LangUnknown},
		{"  ", LangUnknown},
		{"hu", LangHungarian},
		{" EN ", LangEnglish},
		{"Polish", LangPolish},
		{"czech", LangCzech},
		{"sk", "sk"},
	}
	for _, tt := range tests {
		if got := ParseLanguage(tt.in); got != tt.want {
			t.Errorf("ParseLanguage(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLanguageNames(t *testing.T) {
	if LangHungarian.Name() != "Hungarian" {
		t.Errorf("unexpected name %s", LangHungarian.Name())
	}
	if Language("xx").Name() != "Unknown" {
		t.Error("expected Unknown for an unsupported code")
	}
	if LangUnknown.IsKnown() || Language("").IsKnown() {
		t.Error("unknown and empty must not be known")
	}
	if !Language("ro").IsCentralEuropean() || LangEnglish.IsCentralEuropean() {
		t.Error("unexpected central european classification")
	}
}

func TestContainsFXIndicator(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"The loan is in CHF.", true},
		{"A deviza alapú kölcsön", true},
		{"subject to the Exchange Rate on the day", true},
		{"kurs waluty", true},
		{"the chef signed", false},
		{"euro-denominated (eur)", true},
		{"plain interest clause", false},
	}
	for _, tt := range tests {
		if got := ContainsFXIndicator(tt.text); got != tt.want {
			t.Errorf("ContainsFXIndicator(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestDeriveRiskLevel(t *testing.T) {
	tests := []struct {
		text       string
		confidence float64
		want       RiskLevel
	}{
		{"CHF exchange rate", 0.9, RiskCritical},
		{"CHF exchange rate", 0.8, RiskHigh},
		{"CHF exchange rate", 0.6, RiskLow},
		{"late payment fee", 0.8, RiskMedium},
		{"late payment fee", 0.7, RiskLow},
	}
	for _, tt := range tests {
		if got := DeriveRiskLevel(tt.text, tt.confidence); got != tt.want {
			t.Errorf("DeriveRiskLevel(%q, %.1f) = %s, want %s", tt.text, tt.confidence, got, tt.want)
		}
	}
}

func TestDeriveRiskLevelMonotonic(t *testing.T) {
	for _, text := range []string{"CHF loan", "fee schedule"} {
		prev := 0
		for c := 0.0; c <= 1.0; c += 0.05 {
			rank := DeriveRiskLevel(text, c).Rank()
			if rank < prev {
				t.Fatalf("risk decreased for %q at confidence %.2f", text, c)
			}
			prev = rank
		}
	}
}

func TestCategory(t *testing.T) {
	for _, c := range AllCategories {
		if !c.Valid() {
			t.Errorf("%s should be valid", c)
		}
	}
	if Category("other").Valid() {
		t.Error("unexpected valid category")
	}
	if CategoryFXRisk.Description() != "foreign currency risk allocation" {
		t.Errorf("unexpected description %q", CategoryFXRisk.Description())
	}
}

func TestContextRadius(t *testing.T) {
	r := DefaultContextRadius()
	if r.For(CategoryFXRisk) != 100 || r.For(CategoryUnfairTerm) != 90 {
		t.Errorf("unexpected radii %+v", r)
	}
	if r.For("other") != 0 {
		t.Error("expected 0 for unknown category")
	}
}

func TestHasToken(t *testing.T) {
	codes := map[string]bool{"chf": true}
	if !HasToken("a (chf) loan", codes) || !HasToken("chf-alapú", codes) {
		t.Error("expected whole-token match")
	}
	if HasToken("kirchfeld", codes) || HasToken("", codes) {
		t.Error("unexpected match inside a word")
	}
}
