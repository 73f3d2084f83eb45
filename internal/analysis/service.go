package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/opensource-finance/deviza/internal/bus"
	"github.com/opensource-finance/deviza/internal/domain"
	"github.com/opensource-finance/deviza/internal/extractor"
	"github.com/opensource-finance/deviza/internal/language"
	"github.com/opensource-finance/deviza/internal/matcher"
	"github.com/opensource-finance/deviza/internal/metrics"
	"github.com/opensource-finance/deviza/internal/patterns"
	"github.com/opensource-finance/deviza/internal/similarity"
	"github.com/opensource-finance/deviza/internal/textproc"
)

// ErrEmptyDocument is returned when a document has no text after
// normalization.
var ErrEmptyDocument = errors.New("document text is empty")

var tracer = otel.Tracer("deviza-analysis")

// Deps are the collaborators of a Service. Provider is required; every
// other field may be nil, which disables that concern.
type Deps struct {
	Repo     domain.Repository
	Provider domain.CaseProvider
	Cache    domain.Cache
	Bus      domain.EventBus
	Metrics  *metrics.Metrics
}

// Service runs the full analysis pipeline. The extractor is swapped
// atomically on pattern reload, so in-flight analyses finish on the table
// they started with.
type Service struct {
	cfg       domain.Config
	deps      Deps
	extractor atomic.Pointer[extractor.Extractor]
	compiler  *patterns.Compiler
	detector  *language.Detector
	sim       *similarity.Engine
	matcher   *matcher.Matcher
	processor *Processor
}

// NewService builds a service and loads the initial pattern table.
func NewService(ctx context.Context, cfg domain.Config, deps Deps) (*Service, error) {
	if deps.Provider == nil {
		return nil, errors.New("analysis: case provider is required")
	}

	compiler, err := patterns.NewCompiler()
	if err != nil {
		return nil, fmt.Errorf("failed to create pattern compiler: %w", err)
	}

	sim := similarity.NewEngine()
	s := &Service{
		cfg:       cfg,
		deps:      deps,
		compiler:  compiler,
		detector:  language.NewDetector(),
		sim:       sim,
		matcher:   matcher.New(sim, cfg.Matching),
		processor: NewProcessor(sim),
	}

	if _, err := s.ReloadPatterns(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Extractor returns the extractor currently in use.
func (s *Service) Extractor() *extractor.Extractor {
	return s.extractor.Load()
}

// Detector returns the language detector.
func (s *Service) Detector() *language.Detector {
	return s.detector
}

// Similarity returns the similarity engine.
func (s *Service) Similarity() *similarity.Engine {
	return s.sim
}

// Matcher returns the precedent matcher.
func (s *Service) Matcher() *matcher.Matcher {
	return s.matcher
}

// Compiler returns the pattern compiler, for validating patterns.
func (s *Service) Compiler() *patterns.Compiler {
	return s.compiler
}

// ReloadStats describes the table installed by ReloadPatterns.
type ReloadStats struct {
	Compiled int                       `json:"compiled"`
	Skipped  []patterns.SkippedPattern `json:"skipped"`
}

// ReloadPatterns rebuilds the extractor from the built-in table, the
// configured YAML pack and the repository's administrative patterns, then
// swaps it in. On error the current extractor stays in place.
func (s *Service) ReloadPatterns(ctx context.Context) (ReloadStats, error) {
	var extra []*domain.ClausePattern

	if path := s.cfg.Extraction.PatternsFile; path != "" {
		pack, err := patterns.LoadFile(path)
		if err != nil {
			return ReloadStats{}, fmt.Errorf("failed to load pattern pack: %w", err)
		}
		extra = append(extra, pack...)
	}

	if s.deps.Repo != nil {
		stored, err := s.deps.Repo.ListPatterns(ctx)
		if err != nil {
			return ReloadStats{}, fmt.Errorf("failed to list patterns: %w", err)
		}
		extra = append(extra, stored...)
	}

	fallback := s.cfg.Extraction.DefaultLanguage
	if !fallback.IsKnown() {
		fallback = domain.DefaultLanguage
	}
	table := patterns.BuiltinWithFallback(fallback).Merge(extra)
	compiled := patterns.CompileTable(s.compiler, table)

	s.extractor.Store(extractor.New(compiled, s.detector, s.cfg.Extraction))
	s.deps.Metrics.SetPatternsSkipped(len(compiled.Skipped()))

	stats := ReloadStats{Compiled: compiled.Count(), Skipped: compiled.Skipped()}
	if stats.Skipped == nil {
		stats.Skipped = []patterns.SkippedPattern{}
	}

	slog.Info("pattern table loaded",
		"compiled", stats.Compiled,
		"skipped", len(stats.Skipped),
		"extra", len(extra),
	)
	return stats, nil
}

// Extract runs the current extractor on text as given. Clause positions are
// rune offsets into text; Analyze normalizes before calling it, so stored
// positions index the stored text.
func (s *Service) Extract(ctx context.Context, documentID, text string, lang domain.Language) domain.ExtractionResult {
	_, span := tracer.Start(ctx, "analysis.extract")
	defer span.End()

	start := time.Now()
	result := s.Extractor().Extract(documentID, text, lang)
	s.deps.Metrics.ObserveStage("extract", time.Since(start))
	s.deps.Metrics.ObserveExtraction(result.Clauses)

	span.SetAttributes(
		attribute.String("document.language", string(result.LanguageDetected)),
		attribute.Int("clauses.count", len(result.Clauses)),
	)
	return result
}

// Match scores clauses against the corpus and builds citation records.
// A corpus failure is returned; no fallback corpus is used.
func (s *Service) Match(ctx context.Context, clauses []domain.ExtractedClause) (*domain.MatchingResult, []domain.ApplicablePrecedent, error) {
	ctx, span := tracer.Start(ctx, "analysis.match")
	defer span.End()

	start := time.Now()
	result, err := s.matcher.MatchFrom(ctx, clauses, s.deps.Provider)
	s.deps.Metrics.ObserveStage("match", time.Since(start))
	if err != nil {
		s.deps.Metrics.CorpusFailure()
		span.RecordError(err)
		span.SetStatus(codes.Error, "corpus unavailable")
		return nil, nil, err
	}

	span.SetAttributes(attribute.Int("cases.matched", len(result.OverallCaseMatches)))
	return result, s.matcher.ApplicablePrecedents(result.OverallCaseMatches), nil
}

// Analyze runs the full pipeline on doc: normalize, extract, persist,
// match, summarize, persist the report and publish events.
func (s *Service) Analyze(ctx context.Context, tenantID string, doc *domain.Document) (*domain.Analysis, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "analysis.Analyze", trace.WithAttributes(
		attribute.String("tenant.id", tenantID),
	))
	defer span.End()

	doc.Text = textproc.Normalize(doc.Text)
	if doc.Text == "" {
		return nil, ErrEmptyDocument
	}
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	doc.TenantID = tenantID
	span.SetAttributes(attribute.String("document.id", doc.ID))

	// 1. Extract
	extractStart := time.Now()
	extraction := s.Extract(ctx, doc.ID, doc.Text, doc.Language)
	extractMs := time.Since(extractStart).Milliseconds()
	doc.Language = extraction.LanguageDetected

	// 2. Persist document and clauses
	if s.deps.Repo != nil {
		if err := s.deps.Repo.SaveDocument(ctx, tenantID, doc); err != nil {
			return nil, fmt.Errorf("failed to save document: %w", err)
		}
		if err := s.deps.Repo.SaveClauses(ctx, tenantID, doc.ID, extraction.Clauses); err != nil {
			return nil, fmt.Errorf("failed to save clauses: %w", err)
		}
	}
	s.publish(ctx, tenantID, domain.TopicClausesExtracted, domain.ClausesExtractedEvent{
		DocumentID: doc.ID,
		TenantID:   tenantID,
		Language:   extraction.LanguageDetected,
		Clauses:    extraction.Clauses,
	})

	// 3. Match against the corpus
	matchStart := time.Now()
	matching, precedents, err := s.Match(ctx, extraction.Clauses)
	if err != nil {
		slog.Error("precedent matching failed",
			"tenant_id", tenantID,
			"document_id", doc.ID,
			"error", err,
		)
		return nil, err
	}
	matchMs := time.Since(matchStart).Milliseconds()

	// 4. Build the report
	analysis := s.processor.Process(&DecisionInput{
		TenantID:        tenantID,
		DocumentID:      doc.ID,
		TraceID:         span.SpanContext().TraceID().String(),
		Text:            doc.Text,
		Extraction:      extraction,
		Matching:        matching,
		Precedents:      precedents,
		CasesConsidered: casesConsidered(matching),
		ExtractMs:       extractMs,
		MatchMs:         matchMs,
		StartTime:       start,
	})

	// 5. Persist, cache and publish
	if s.deps.Repo != nil {
		if err := s.deps.Repo.SaveAnalysis(ctx, tenantID, analysis); err != nil {
			return nil, fmt.Errorf("failed to save analysis: %w", err)
		}
	}
	if s.deps.Cache != nil {
		if err := s.deps.Cache.SetAnalysis(ctx, tenantID, analysis, s.resultTTL()); err != nil {
			slog.Warn("failed to cache analysis", "document_id", doc.ID, "error", err)
		}
	}

	s.publish(ctx, tenantID, domain.TopicAnalysisCompleted, analysis)
	if analysis.Status == domain.StatusReview {
		s.publish(ctx, tenantID, domain.TopicHighRisk, analysis)
	}

	s.deps.Metrics.ObserveAnalysis(analysis)
	s.deps.Metrics.ObserveStage("total", time.Since(start))
	span.SetAttributes(attribute.String("analysis.status", analysis.Status))

	slog.Info("document analyzed",
		"tenant_id", tenantID,
		"document_id", doc.ID,
		"language", analysis.Language,
		"status", analysis.Status,
		"clauses", len(extraction.Clauses),
		"precedents", len(precedents),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return analysis, nil
}

// AnalyzeStored loads a persisted document and analyzes it.
func (s *Service) AnalyzeStored(ctx context.Context, tenantID, documentID string) (*domain.Analysis, error) {
	if s.deps.Repo == nil {
		return nil, errors.New("analysis: no repository configured")
	}
	doc, err := s.deps.Repo.GetDocument(ctx, tenantID, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load document %s: %w", documentID, err)
	}
	return s.Analyze(ctx, tenantID, doc)
}

// GetAnalysis returns the latest analysis of a document, from the cache
// when possible.
func (s *Service) GetAnalysis(ctx context.Context, tenantID, documentID string) (*domain.Analysis, error) {
	if s.deps.Cache != nil {
		a, err := s.deps.Cache.GetAnalysis(ctx, tenantID, documentID)
		if err != nil {
			slog.Warn("analysis cache read failed", "document_id", documentID, "error", err)
		}
		if a != nil {
			return a, nil
		}
	}
	if s.deps.Repo == nil {
		return nil, nil
	}
	a, err := s.deps.Repo.GetAnalysis(ctx, tenantID, documentID)
	if err != nil {
		return nil, err
	}
	if s.deps.Cache != nil {
		_ = s.deps.Cache.SetAnalysis(ctx, tenantID, a, s.resultTTL())
	}
	return a, nil
}

func (s *Service) resultTTL() time.Duration {
	if s.cfg.Matching.ResultTTL > 0 {
		return s.cfg.Matching.ResultTTL
	}
	return domain.DefaultMatchingConfig().ResultTTL
}

func (s *Service) publish(ctx context.Context, tenantID, topic string, v any) {
	if s.deps.Bus == nil {
		return
	}
	if err := bus.PublishJSON(ctx, s.deps.Bus, tenantID, topic, v); err != nil {
		slog.Error("failed to publish event",
			"tenant_id", tenantID,
			"topic", topic,
			"error", err,
		)
	}
}

func casesConsidered(m *domain.MatchingResult) int {
	seen := make(map[string]struct{})
	for _, cm := range m.ClauseMatches {
		for _, c := range cm.MatchedCases {
			seen[c.Case.CaseNumber] = struct{}{}
		}
	}
	return len(seen)
}
