package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/opensource-finance/deviza/internal/corpus"
	"github.com/opensource-finance/deviza/internal/domain"
)

func newTestRepo(t *testing.T) domain.Repository {
	t.Helper()
	repo, err := New(domain.RepositoryConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "deviza-test.db"),
	})
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func intp(v int) *int { return &v }

func TestSQLiteRepository(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	tenantID := "tenant-001"

	t.Run("Ping", func(t *testing.T) {
		if err := repo.Ping(ctx); err != nil {
			t.Errorf("Ping failed: %v", err)
		}
	})

	t.Run("SaveAndGetDocument", func(t *testing.T) {
		doc := &domain.Document{
			ID:        "doc-001",
			Title:     "Kölcsönszerződés",
			Text:      "A kölcsön svájci frankban (CHF) kerül nyilvántartásra.",
			Language:  domain.LangHungarian,
			CreatedAt: time.Now().UTC(),
		}
		if err := repo.SaveDocument(ctx, tenantID, doc); err != nil {
			t.Fatalf("SaveDocument failed: %v", err)
		}

		got, err := repo.GetDocument(ctx, tenantID, doc.ID)
		if err != nil {
			t.Fatalf("GetDocument failed: %v", err)
		}
		if got.Text != doc.Text || got.Language != domain.LangHungarian {
			t.Errorf("unexpected document %+v", got)
		}
		if got.TenantID != tenantID {
			t.Errorf("expected TenantID %s, got %s", tenantID, got.TenantID)
		}
	})

	t.Run("TenantIsolation", func(t *testing.T) {
		_, err := repo.GetDocument(ctx, "tenant-002", "doc-001")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound for different tenant, got: %v", err)
		}
	})

	t.Run("RequiresTenantID", func(t *testing.T) {
		if err := repo.SaveDocument(ctx, "", &domain.Document{ID: "x"}); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if _, err := repo.GetDocument(ctx, "", "doc-001"); err == nil {
			t.Error("expected error for empty tenantID")
		}
		if err := repo.SaveClauses(ctx, "", "doc-001", nil); err == nil {
			t.Error("expected error for empty tenantID")
		}
	})

	t.Run("SaveAndListClauses", func(t *testing.T) {
		clauses := []domain.ExtractedClause{
			{
				ID: "c-1", DocumentID: "doc-001", ClauseType: domain.CategoryFXRisk,
				ClauseText: "svájci frankban (CHF)", OriginalLanguage: domain.LangHungarian,
				StartPosition: intp(10), EndPosition: intp(31),
				ConfidenceScore: 0.9, RiskLevel: domain.RiskCritical, PatternName: "hu.fx_risk.01",
			},
			{
				ID: "c-2", DocumentID: "doc-001", ClauseType: domain.CategoryPenalty,
				ClauseText: "késedelmi kamat", OriginalLanguage: domain.LangHungarian,
				ConfidenceScore: 0.5, RiskLevel: domain.RiskLow,
			},
		}
		if err := repo.SaveClauses(ctx, tenantID, "doc-001", clauses); err != nil {
			t.Fatalf("SaveClauses failed: %v", err)
		}
		// Saving again replaces rather than duplicates.
		if err := repo.SaveClauses(ctx, tenantID, "doc-001", clauses); err != nil {
			t.Fatalf("SaveClauses (replace) failed: %v", err)
		}

		got, err := repo.ListClauses(ctx, tenantID, "doc-001")
		if err != nil {
			t.Fatalf("ListClauses failed: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 clauses, got %d", len(got))
		}
		if got[0].ID != "c-1" || got[1].ID != "c-2" {
			t.Errorf("clause order not preserved: %s, %s", got[0].ID, got[1].ID)
		}
		if got[0].StartPosition == nil || *got[0].StartPosition != 10 || *got[0].EndPosition != 31 {
			t.Errorf("positions not preserved: %+v", got[0])
		}
		if got[1].StartPosition != nil {
			t.Errorf("expected nil position, got %d", *got[1].StartPosition)
		}
		if got[0].RiskLevel != domain.RiskCritical || got[0].PatternName != "hu.fx_risk.01" {
			t.Errorf("unexpected clause %+v", got[0])
		}

		other, err := repo.ListClauses(ctx, "tenant-002", "doc-001")
		if err != nil || len(other) != 0 {
			t.Errorf("expected no clauses for other tenant, got %d (%v)", len(other), err)
		}
	})

	t.Run("SaveAndGetAnalysis", func(t *testing.T) {
		older := &domain.Analysis{
			ID: "an-1", DocumentID: "doc-001", Status: domain.StatusClear,
			Timestamp: time.Now().Add(-time.Hour).UTC(),
			Summary:   domain.RiskSummary{OverallRisk: domain.RiskLow},
		}
		newer := &domain.Analysis{
			ID: "an-2", DocumentID: "doc-001", Status: domain.StatusReview,
			Timestamp: time.Now().UTC(),
			Summary:   domain.RiskSummary{OverallRisk: domain.RiskCritical, FXExposure: true},
		}
		for _, a := range []*domain.Analysis{older, newer} {
			if err := repo.SaveAnalysis(ctx, tenantID, a); err != nil {
				t.Fatalf("SaveAnalysis failed: %v", err)
			}
		}

		got, err := repo.GetAnalysis(ctx, tenantID, "doc-001")
		if err != nil {
			t.Fatalf("GetAnalysis failed: %v", err)
		}
		if got.ID != "an-2" || got.Status != domain.StatusReview || !got.Summary.FXExposure {
			t.Errorf("expected latest analysis, got %+v", got)
		}

		if _, err := repo.GetAnalysis(ctx, tenantID, "missing"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestCaseCorpus(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	n, err := corpus.SeedStore(ctx, repo)
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if _, err := corpus.SeedStore(ctx, repo); err != nil {
		t.Fatalf("reseed failed: %v", err)
	}

	national := &domain.LegalCase{
		ID: "case-hu-1", CaseNumber: "Pfv.20.123/2016", CaseName: "Kovács v OTP",
		Country: "HU", Date: time.Date(2016, 5, 2, 0, 0, 0, 0, time.UTC),
		Currency: "HUF", KeyRuling: "Notice periods for account closure apply.",
		CaseType: domain.CaseTypeNational, CitationCount: intp(3),
	}
	if err := repo.SaveCase(ctx, national); err != nil {
		t.Fatalf("SaveCase failed: %v", err)
	}

	t.Run("CurrencyRelated", func(t *testing.T) {
		cases, err := repo.GetCurrencyRelatedCases(ctx)
		if err != nil {
			t.Fatalf("GetCurrencyRelatedCases failed: %v", err)
		}
		if len(cases) != n {
			t.Fatalf("expected %d currency cases, got %d", n, len(cases))
		}
		if cases[0].CaseNumber != "C-630/23" || cases[len(cases)-1].CaseNumber != "C-26/13" {
			t.Errorf("unexpected order: first %s, last %s", cases[0].CaseNumber, cases[len(cases)-1].CaseNumber)
		}
		for i := 1; i < len(cases); i++ {
			if cases[i].Date.After(cases[i-1].Date) {
				t.Errorf("cases not newest first at %d", i)
			}
		}
	})

	t.Run("GetCase", func(t *testing.T) {
		byNumber, err := repo.GetCase(ctx, "C-186/16")
		if err != nil {
			t.Fatalf("GetCase by number failed: %v", err)
		}
		byID, err := repo.GetCase(ctx, byNumber.ID)
		if err != nil {
			t.Fatalf("GetCase by id failed: %v", err)
		}
		if byID.CaseName != byNumber.CaseName || byID.ID != corpus.CaseID("C-186/16") {
			t.Errorf("lookups disagree: %+v vs %+v", byID, byNumber)
		}

		got, err := repo.GetCase(ctx, "Pfv.20.123/2016")
		if err != nil {
			t.Fatalf("GetCase national failed: %v", err)
		}
		if got.CitationCount == nil || *got.CitationCount != 3 || got.SignificanceScore != nil {
			t.Errorf("nullable columns not preserved: %+v", got)
		}

		if _, err := repo.GetCase(ctx, "C-0/00"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Search", func(t *testing.T) {
		tests := []struct {
			name   string
			filter domain.CaseFilter
			want   int
		}{
			{"all", domain.CaseFilter{}, n + 1},
			{"country", domain.CaseFilter{Country: "HU"}, 1},
			{"currency", domain.CaseFilter{Currency: "ron"}, 1},
			{"limit", domain.CaseFilter{Limit: 3}, 3},
			{"years", domain.CaseFilter{FromYear: 2016, ToYear: 2016}, 1},
			{"query", domain.CaseFilter{Query: "Notice periods"}, 1},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				cases, err := repo.SearchCases(ctx, tt.filter)
				if err != nil {
					t.Fatalf("SearchCases failed: %v", err)
				}
				if len(cases) != tt.want {
					t.Errorf("expected %d cases, got %d", tt.want, len(cases))
				}
			})
		}
	})

	t.Run("RequiresCaseNumber", func(t *testing.T) {
		if err := repo.SaveCase(ctx, &domain.LegalCase{ID: "x"}); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestPatterns(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	p := &domain.ClausePattern{
		ID: "admin.fx.01", Name: "CHF mention", Version: "1.0.0",
		Type: domain.PatternKeyword, Text: "svájci frank|CHF",
		Language: domain.LangHungarian, Category: domain.CategoryFXRisk,
		Severity: domain.SeverityCritical, Active: true,
	}
	if err := repo.SavePattern(ctx, p); err != nil {
		t.Fatalf("SavePattern failed: %v", err)
	}

	p.Active = false
	p.Version = "1.0.1"
	if err := repo.SavePattern(ctx, p); err != nil {
		t.Fatalf("SavePattern (update) failed: %v", err)
	}

	got, err := repo.ListPatterns(ctx)
	if err != nil {
		t.Fatalf("ListPatterns failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 pattern, got %d", len(got))
	}
	if got[0].Active || got[0].Version != "1.0.1" || got[0].Type != domain.PatternKeyword {
		t.Errorf("unexpected pattern %+v", got[0])
	}
}

func TestUnsupportedDriver(t *testing.T) {
	cfg := domain.RepositoryConfig{
		Driver: "mysql",
	}

	_, err := New(cfg)
	if err == nil {
		t.Error("expected error for unsupported driver")
	}
}

func TestRebind(t *testing.T) {
	repo := &SQLRepository{driver: "postgres"}

	tests := []struct {
		input    string
		expected string
	}{
		{"SELECT * FROM t WHERE id = ?", "SELECT * FROM t WHERE id = $1"},
		{"INSERT INTO t (a, b) VALUES (?, ?)", "INSERT INTO t (a, b) VALUES ($1, $2)"},
		{"SELECT * FROM t", "SELECT * FROM t"},
	}

	for _, tt := range tests {
		result := repo.rebind(tt.input)
		if result != tt.expected {
			t.Errorf("rebind(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}
