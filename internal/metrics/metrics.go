// Package metrics exposes Prometheus instruments for the analysis pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/opensource-finance/deviza/internal/domain"
)

const namespace = "deviza"

// DefaultDurationBuckets covers sub-millisecond extraction up to slow,
// database-bound analyses.
var DefaultDurationBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5}

// Metrics holds the registry and every instrument. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	documentsAnalyzed *prometheus.CounterVec
	clausesExtracted  *prometheus.CounterVec
	analysisDuration  *prometheus.HistogramVec
	corpusFailures    prometheus.Counter
	patternsSkipped   prometheus.Gauge
}

// New creates a dedicated registry with process and Go runtime collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{Namespace: namespace}),
		prometheus.NewGoCollector(),
	)

	m := &Metrics{
		registry: reg,
		documentsAnalyzed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_analyzed_total",
			Help:      "Documents analyzed, by detected language and status.",
		}, []string{"language", "status"}),
		clausesExtracted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clauses_extracted_total",
			Help:      "Clauses extracted, by category and risk level.",
		}, []string{"category", "risk"}),
		analysisDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_stage_duration_seconds",
			Help:      "Duration of analysis stages.",
			Buckets:   DefaultDurationBuckets,
		}, []string{"stage"}),
		corpusFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "corpus_failures_total",
			Help:      "Failed precedent corpus lookups.",
		}),
		patternsSkipped: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "patterns_skipped",
			Help:      "Patterns skipped at the last table compilation.",
		}),
	}
	reg.MustRegister(m.documentsAnalyzed, m.clausesExtracted, m.analysisDuration, m.corpusFailures, m.patternsSkipped)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveExtraction counts clauses by category and risk level.
func (m *Metrics) ObserveExtraction(clauses []domain.ExtractedClause) {
	if m == nil {
		return
	}
	for _, c := range clauses {
		m.clausesExtracted.WithLabelValues(string(c.ClauseType), string(c.RiskLevel)).Inc()
	}
}

// ObserveAnalysis counts a finished analysis.
func (m *Metrics) ObserveAnalysis(a *domain.Analysis) {
	if m == nil || a == nil {
		return
	}
	m.documentsAnalyzed.WithLabelValues(string(a.Language), a.Status).Inc()
}

// ObserveStage records the duration of one pipeline stage
// ("extract", "match", "total").
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.analysisDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// CorpusFailure counts a failed precedent lookup.
func (m *Metrics) CorpusFailure() {
	if m == nil {
		return
	}
	m.corpusFailures.Inc()
}

// SetPatternsSkipped records how many patterns the last compile dropped.
func (m *Metrics) SetPatternsSkipped(n int) {
	if m == nil {
		return
	}
	m.patternsSkipped.Set(float64(n))
}
