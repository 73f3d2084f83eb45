package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/opensource-finance/deviza/internal/analysis"
	"github.com/opensource-finance/deviza/internal/bus"
	"github.com/opensource-finance/deviza/internal/cache"
	"github.com/opensource-finance/deviza/internal/corpus"
	"github.com/opensource-finance/deviza/internal/domain"
	"github.com/opensource-finance/deviza/internal/language"
	"github.com/opensource-finance/deviza/internal/metrics"
	"github.com/opensource-finance/deviza/internal/repository"
)

const fxText = "The loan is denominated in Swiss franc and the borrower bears the exchange rate risk."

type testServer struct {
	*Server
	repo domain.Repository
	bus  *bus.ChannelBus
}

// createTestServer wires a server on a temp SQLite repository seeded with
// the default corpus.
func createTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()

	repo, err := repository.New(domain.RepositoryConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "api-test.db"),
	})
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	if _, err := corpus.SeedStore(ctx, repo); err != nil {
		t.Fatalf("SeedStore failed: %v", err)
	}

	lru := cache.NewLRUCache(100)
	provider := cache.NewCachedProvider(repo, lru, time.Minute)
	eventBus := bus.NewChannelBus(100)
	t.Cleanup(func() { eventBus.Close() })
	m := metrics.New()

	svc, err := analysis.NewService(ctx, *domain.DefaultConfig(), analysis.Deps{
		Repo:     repo,
		Provider: provider,
		Cache:    lru,
		Bus:      eventBus,
		Metrics:  m,
	})
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	cfg := domain.ServerConfig{Host: "localhost", Port: 8080, ReadTimeout: 30, WriteTimeout: 30}
	s := NewServer(cfg, Deps{
		Service: svc,
		Repo:    repo,
		Cache:   lru,
		Bus:     eventBus,
		Metrics: m,
		Corpus:  provider,
	}, "test-v1")
	return &testServer{Server: s, repo: repo, bus: eventBus}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(TenantIDHeader, "tenant-001")

	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to parse response %q: %v", rr.Body.String(), err)
	}
	return v
}

func TestOperationalEndpoints(t *testing.T) {
	server := createTestServer(t)

	for _, path := range []string{"/health", "/ready", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Errorf("%s: expected 200 without tenant, got %d", path, rr.Code)
		}
	}

	rr := server.do(t, http.MethodGet, "/health", nil)
	health := decode[map[string]any](t, rr)
	if health["status"] != "healthy" || health["version"] != "test-v1" {
		t.Errorf("unexpected health %v", health)
	}
}

func TestTenantRequired(t *testing.T) {
	server := createTestServer(t)

	for _, tenant := range []string{"", "_shared"} {
		req := httptest.NewRequest(http.MethodPost, "/extract", strings.NewReader(`{"text":"x"}`))
		if tenant != "" {
			req.Header.Set(TenantIDHeader, tenant)
		}
		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("tenant %q: expected 400, got %d", tenant, rr.Code)
		}
	}
}

func TestStageEndpoints(t *testing.T) {
	server := createTestServer(t)

	t.Run("Language", func(t *testing.T) {
		rr := server.do(t, http.MethodPost, "/language", LanguageRequest{Text: "A szerződés szerint a bank és az adós a kölcsön"})
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
		}
		if det := decode[language.Detection](t, rr); det.Language != domain.LangHungarian {
			t.Errorf("expected hu, got %s", det.Language)
		}

		rr = server.do(t, http.MethodPost, "/language", LanguageRequest{Text: "", Mixed: true})
		got := decode[map[string][]language.SentenceDetection](t, rr)
		if got["sentences"] == nil || len(got["sentences"]) != 0 {
			t.Errorf("expected empty sentence list, got %v", got)
		}
	})

	t.Run("Extract", func(t *testing.T) {
		rr := server.do(t, http.MethodPost, "/extract", ExtractRequest{DocumentID: "doc-x", Text: fxText, Language: "en"})
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
		}
		res := decode[domain.ExtractionResult](t, rr)
		if res.DocumentID != "doc-x" || res.LanguageDetected != domain.LangEnglish || len(res.Clauses) == 0 {
			t.Errorf("unexpected extraction %+v", res)
		}

		if rr := server.do(t, http.MethodPost, "/extract", ExtractRequest{}); rr.Code != http.StatusBadRequest {
			t.Errorf("expected 400 for empty text, got %d", rr.Code)
		}
		if rr := server.do(t, http.MethodPost, "/extract", "not-json"); rr.Code != http.StatusBadRequest {
			t.Errorf("expected 400 for invalid JSON, got %d", rr.Code)
		}
	})

	t.Run("ExtractPositionsIndexRequestText", func(t *testing.T) {
		text := "  Clause 4.\n\n\n\nThe loan  is denominated in   Swiss franc and the borrower bears the exchange rate risk."
		res := decode[domain.ExtractionResult](t, server.do(t, http.MethodPost, "/extract", ExtractRequest{Text: text, Language: "en"}))

		runes := []rune(text)
		found := false
		for _, c := range res.Clauses {
			if c.StartPosition == nil || c.EndPosition == nil {
				t.Fatalf("clause %s has no position", c.ID)
			}
			if *c.StartPosition < 0 || *c.EndPosition > len(runes) || *c.StartPosition >= *c.EndPosition {
				t.Fatalf("span [%d,%d) out of range", *c.StartPosition, *c.EndPosition)
			}
			if c.PatternName == "en.fx_risk.04" {
				found = true
				if got := string(runes[*c.StartPosition:*c.EndPosition]); got != "Swiss franc" {
					t.Errorf("expected span to cover %q, got %q", "Swiss franc", got)
				}
			}
		}
		if !found {
			t.Fatalf("expected a Swiss franc clause, got %+v", res.Clauses)
		}
	})

	t.Run("MatchRejectsOutOfRangeConfidence", func(t *testing.T) {
		for _, score := range []float64{5.0, -0.1} {
			req := MatchRequest{Clauses: []domain.ExtractedClause{{
				ID: "c1", ClauseType: domain.CategoryFXRisk, ClauseText: fxText, ConfidenceScore: score,
			}}}
			if rr := server.do(t, http.MethodPost, "/match", req); rr.Code != http.StatusBadRequest {
				t.Errorf("confidence %.1f: expected 400, got %d", score, rr.Code)
			}
		}
	})

	t.Run("Match", func(t *testing.T) {
		req := MatchRequest{Clauses: []domain.ExtractedClause{{
			ID: "c1", ClauseType: domain.CategoryFXRisk, ClauseText: fxText, ConfidenceScore: 0.9,
		}}}
		rr := server.do(t, http.MethodPost, "/match", req)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
		}
		resp := decode[MatchResponse](t, rr)
		if len(resp.Matching.OverallCaseMatches) == 0 || len(resp.Precedents) == 0 {
			t.Errorf("expected matches against the seed corpus, got %+v", resp)
		}

		bad := MatchRequest{Clauses: []domain.ExtractedClause{{ClauseType: "bogus"}}}
		if rr := server.do(t, http.MethodPost, "/match", bad); rr.Code != http.StatusBadRequest {
			t.Errorf("expected 400 for unknown clause type, got %d", rr.Code)
		}
	})

	t.Run("Similarity", func(t *testing.T) {
		rr := server.do(t, http.MethodPost, "/similarity", SimilarityRequest{A: "exchange rate risk", B: "exchange rate risk"})
		resp := decode[SimilarityResponse](t, rr)
		if resp.Score <= 0.8 || resp.Quality != "very high" {
			t.Errorf("unexpected similarity %+v", resp)
		}
	})
}

func TestDocumentEndpoints(t *testing.T) {
	server := createTestServer(t)

	rr := server.do(t, http.MethodPost, "/documents", domain.DocumentRequest{Title: "CHF loan", Text: fxText, Language: "en"})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	a := decode[domain.Analysis](t, rr)
	if a.Status != domain.StatusReview || a.DocumentID == "" {
		t.Fatalf("unexpected analysis %+v", a)
	}

	t.Run("GetDocument", func(t *testing.T) {
		rr := server.do(t, http.MethodGet, "/documents/"+a.DocumentID, nil)
		if doc := decode[domain.Document](t, rr); doc.Title != "CHF loan" {
			t.Errorf("unexpected document %+v", doc)
		}
		if rr := server.do(t, http.MethodGet, "/documents/missing", nil); rr.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rr.Code)
		}
	})

	t.Run("GetClauses", func(t *testing.T) {
		rr := server.do(t, http.MethodGet, "/documents/"+a.DocumentID+"/clauses", nil)
		got := decode[map[string]any](t, rr)
		if int(got["count"].(float64)) != len(a.Extraction.Clauses) {
			t.Errorf("expected %d clauses, got %v", len(a.Extraction.Clauses), got["count"])
		}
	})

	t.Run("GetAnalysis", func(t *testing.T) {
		rr := server.do(t, http.MethodGet, "/documents/"+a.DocumentID+"/analysis", nil)
		if got := decode[domain.Analysis](t, rr); got.ID != a.ID {
			t.Errorf("expected analysis %s, got %s", a.ID, got.ID)
		}
		if rr := server.do(t, http.MethodGet, "/documents/missing/analysis", nil); rr.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rr.Code)
		}
	})

	t.Run("EmptyText", func(t *testing.T) {
		rr := server.do(t, http.MethodPost, "/documents", domain.DocumentRequest{Text: "   "})
		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rr.Code)
		}
	})

	t.Run("Async", func(t *testing.T) {
		queued := make(chan domain.DocumentMessage, 1)
		server.bus.Subscribe(context.Background(), "tenant-001", domain.TopicDocumentIngested, func(ctx context.Context, msg *domain.Message) error {
			var m domain.DocumentMessage
			if err := bus.DecodeJSON(msg, &m); err != nil {
				return err
			}
			queued <- m
			return nil
		})

		rr := server.do(t, http.MethodPost, "/documents", domain.DocumentRequest{Text: fxText, Async: true})
		if rr.Code != http.StatusAccepted {
			t.Fatalf("expected 202, got %d: %s", rr.Code, rr.Body.String())
		}
		resp := decode[AcceptedResponse](t, rr)

		select {
		case m := <-queued:
			if m.DocumentID != resp.DocumentID || m.TenantID != "tenant-001" {
				t.Errorf("unexpected message %+v", m)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("timeout waiting for ingest message")
		}

		if _, err := server.repo.GetDocument(context.Background(), "tenant-001", resp.DocumentID); err != nil {
			t.Errorf("queued document not stored: %v", err)
		}
	})
}

func TestCaseEndpoints(t *testing.T) {
	server := createTestServer(t)

	t.Run("Search", func(t *testing.T) {
		rr := server.do(t, http.MethodGet, "/cases?q=andriciuc", nil)
		got := decode[map[string]any](t, rr)
		if int(got["count"].(float64)) != 1 {
			t.Errorf("expected 1 case, got %v", got["count"])
		}
		if rr := server.do(t, http.MethodGet, "/cases?limit=abc", nil); rr.Code != http.StatusBadRequest {
			t.Errorf("expected 400 for bad limit, got %d", rr.Code)
		}
	})

	t.Run("GetByNumber", func(t *testing.T) {
		rr := server.do(t, http.MethodGet, "/cases/C-186%2F16", nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
		}
		if c := decode[domain.LegalCase](t, rr); c.ID != corpus.CaseID("C-186/16") {
			t.Errorf("unexpected case %+v", c)
		}
		if rr := server.do(t, http.MethodGet, "/cases/nope", nil); rr.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rr.Code)
		}
	})

	t.Run("CreateInvalidatesCorpus", func(t *testing.T) {
		match := MatchRequest{Clauses: []domain.ExtractedClause{{
			ID: "c1", ClauseType: domain.CategoryFXRisk, ClauseText: fxText, ConfidenceScore: 0.9,
		}}}
		matched := func(caseNumber string) bool {
			resp := decode[MatchResponse](t, server.do(t, http.MethodPost, "/match", match))
			for _, cm := range resp.Matching.ClauseMatches[0].MatchedCases {
				if cm.Case.CaseNumber == caseNumber {
					return true
				}
			}
			return false
		}

		c := domain.LegalCase{
			CaseNumber: "Pfv.20.999/2024",
			CaseName:   "Consumer v Bank (CHF)",
			Country:    "HU",
			Date:       time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
			Currency:   "CHF/HUF",
			KeyRuling:  "The foreign currency clause was unfair and void.",
		}
		if matched(c.CaseNumber) {
			t.Fatal("case must not match before it exists")
		}

		rr := server.do(t, http.MethodPost, "/cases", c)
		if rr.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
		}
		created := decode[domain.LegalCase](t, rr)
		if created.ID != corpus.CaseID(c.CaseNumber) || created.CaseType != domain.CaseTypeNational {
			t.Errorf("unexpected case %+v", created)
		}

		if !matched(c.CaseNumber) {
			t.Error("expected the new case to match once the snapshot is invalidated")
		}

		if rr := server.do(t, http.MethodPost, "/cases", domain.LegalCase{CaseName: "x"}); rr.Code != http.StatusBadRequest {
			t.Errorf("expected 400 without case number, got %d", rr.Code)
		}
	})
}

func TestPatternEndpoints(t *testing.T) {
	server := createTestServer(t)

	t.Run("Catalog", func(t *testing.T) {
		got := decode[map[string]any](t, server.do(t, http.MethodGet, "/patterns/catalog", nil))
		if int(got["count"].(float64)) != len(domain.AllCategories) {
			t.Errorf("expected one catalog entry per category, got %v", got["count"])
		}
	})

	t.Run("Validate", func(t *testing.T) {
		good := domain.ClausePattern{ID: "p1", Type: domain.PatternRegex, Text: `zebra\s+clause`, Category: domain.CategoryPenalty}
		if v := decode[ValidationResponse](t, server.do(t, http.MethodPost, "/patterns/validate", good)); !v.Valid {
			t.Errorf("expected valid, got %+v", v)
		}
		bad := domain.ClausePattern{ID: "p2", Type: domain.PatternRegex, Text: `(unclosed`, Category: domain.CategoryPenalty}
		if v := decode[ValidationResponse](t, server.do(t, http.MethodPost, "/patterns/validate", bad)); v.Valid || v.Error == "" {
			t.Errorf("expected invalid, got %+v", v)
		}
	})

	t.Run("CreateAndExtract", func(t *testing.T) {
		p := domain.ClausePattern{
			ID: "admin-zebra", Name: "zebra", Type: domain.PatternKeyword, Text: "zebra clause",
			Language: domain.LangEnglish, Category: domain.CategoryPenalty, Severity: domain.SeverityMedium, Active: true,
		}
		rr := server.do(t, http.MethodPost, "/patterns", p)
		if rr.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
		}

		res := decode[domain.ExtractionResult](t, server.do(t, http.MethodPost, "/extract",
			ExtractRequest{Text: "Any zebra clause applies to repayments.", Language: "en"}))
		found := false
		for _, c := range res.Clauses {
			if c.PatternName == "zebra" {
				found = true
			}
		}
		if !found {
			t.Error("expected the new pattern to be active after create")
		}

		list := decode[map[string]any](t, server.do(t, http.MethodGet, "/patterns", nil))
		if int(list["count"].(float64)) != 1 {
			t.Errorf("expected 1 administrative pattern, got %v", list["count"])
		}
	})

	t.Run("CreateInvalid", func(t *testing.T) {
		p := domain.ClausePattern{ID: "bad", Name: "bad", Type: domain.PatternRegex, Text: "(", Category: domain.CategoryPenalty}
		if rr := server.do(t, http.MethodPost, "/patterns", p); rr.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rr.Code)
		}
	})

	t.Run("CreateBuiltinIDConflict", func(t *testing.T) {
		p := domain.ClausePattern{
			ID: "en.fx_risk.04", Name: "shadow", Type: domain.PatternKeyword, Text: "Swiss franc",
			Language: domain.LangEnglish, Category: domain.CategoryFXRisk, Active: true,
		}
		if rr := server.do(t, http.MethodPost, "/patterns", p); rr.Code != http.StatusConflict {
			t.Errorf("expected 409, got %d", rr.Code)
		}
	})

	t.Run("Reload", func(t *testing.T) {
		rr := server.do(t, http.MethodPost, "/patterns/reload", nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		if stats := decode[analysis.ReloadStats](t, rr); stats.Compiled == 0 {
			t.Errorf("expected compiled patterns, got %+v", stats)
		}
	})
}
