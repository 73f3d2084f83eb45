package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/opensource-finance/deviza/internal/domain"
)

// value sums every sample of the named metric family.
func value(t *testing.T, m *Metrics, name string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	total := 0.0
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, s := range f.GetMetric() {
			switch {
			case s.GetCounter() != nil:
				total += s.GetCounter().GetValue()
			case s.GetGauge() != nil:
				total += s.GetGauge().GetValue()
			case s.GetHistogram() != nil:
				total += float64(s.GetHistogram().GetSampleCount())
			}
		}
	}
	return total
}

func TestObserve(t *testing.T) {
	m := New()

	m.ObserveExtraction([]domain.ExtractedClause{
		{ClauseType: domain.CategoryFXRisk, RiskLevel: domain.RiskCritical},
		{ClauseType: domain.CategoryFXRisk, RiskLevel: domain.RiskCritical},
		{ClauseType: domain.CategoryPenalty, RiskLevel: domain.RiskLow},
	})
	m.ObserveAnalysis(&domain.Analysis{Language: domain.LangHungarian, Status: domain.StatusReview})
	m.ObserveStage("extract", 3*time.Millisecond)
	m.ObserveStage("match", time.Millisecond)
	m.CorpusFailure()
	m.SetPatternsSkipped(2)

	checks := map[string]float64{
		"deviza_clauses_extracted_total":         3,
		"deviza_documents_analyzed_total":        1,
		"deviza_analysis_stage_duration_seconds": 2,
		"deviza_corpus_failures_total":           1,
		"deviza_patterns_skipped":                2,
	}
	for name, want := range checks {
		if got := value(t, m, name); got != want {
			t.Errorf("%s: expected %v, got %v", name, want, got)
		}
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveExtraction([]domain.ExtractedClause{{ClauseType: domain.CategoryFXRisk}})
	m.ObserveAnalysis(&domain.Analysis{})
	m.ObserveStage("total", time.Second)
	m.CorpusFailure()
	m.SetPatternsSkipped(1)
}

func TestHandler(t *testing.T) {
	m := New()
	m.CorpusFailure()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "deviza_corpus_failures_total 1") {
		t.Errorf("metric missing from exposition:\n%s", body)
	}
}
