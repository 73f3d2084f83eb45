package api

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/opensource-finance/deviza/internal/corpus"
	"github.com/opensource-finance/deviza/internal/domain"
)

// SearchCases handles GET /cases?country=&currency=&q=&from=&to=&limit=.
func (h *Handler) SearchCases(w http.ResponseWriter, r *http.Request) {
	if !h.requireRepo(w) {
		return
	}

	q := r.URL.Query()
	filter := domain.CaseFilter{
		Country:  q.Get("country"),
		Currency: q.Get("currency"),
		Query:    q.Get("q"),
	}
	for _, p := range []struct {
		name string
		dst  *int
	}{
		{"from", &filter.FromYear},
		{"to", &filter.ToYear},
		{"limit", &filter.Limit},
	} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, p.name+" must be a non-negative integer")
			return
		}
		*p.dst = n
	}

	cases, err := h.deps.Repo.SearchCases(r.Context(), filter)
	if err != nil {
		slog.Error("case search failed", "error", err)
		writeError(w, http.StatusInternalServerError, "case search failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"cases": cases,
		"count": len(cases),
	})
}

// GetCase handles GET /cases/{id}. The id may be a case ID or an escaped
// case number such as C-186%2F16.
func (h *Handler) GetCase(w http.ResponseWriter, r *http.Request) {
	if !h.requireRepo(w) {
		return
	}
	id, err := url.PathUnescape(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid case id")
		return
	}

	c, err := h.deps.Repo.GetCase(r.Context(), id)
	if err != nil {
		writeLookupError(w, "case", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// CreateCase handles POST /cases. The corpus snapshot is invalidated so
// the next match sees the new precedent.
func (h *Handler) CreateCase(w http.ResponseWriter, r *http.Request) {
	if !h.requireRepo(w) {
		return
	}
	ctx := r.Context()

	var c domain.LegalCase
	if !decodeBody(w, r, &c) {
		return
	}
	c.CaseNumber = strings.TrimSpace(c.CaseNumber)
	switch {
	case c.CaseNumber == "":
		writeError(w, http.StatusBadRequest, "caseNumber is required")
		return
	case c.CaseName == "" || c.KeyRuling == "":
		writeError(w, http.StatusBadRequest, "caseName and keyRuling are required")
		return
	case c.Date.IsZero():
		writeError(w, http.StatusBadRequest, "date is required")
		return
	}
	if c.ID == "" {
		c.ID = corpus.CaseID(c.CaseNumber)
	}
	if c.CaseType == "" {
		c.CaseType = domain.CaseTypeNational
	}

	if err := h.deps.Repo.SaveCase(ctx, &c); err != nil {
		writeLookupError(w, "case", err)
		return
	}
	if h.deps.Corpus != nil {
		if err := h.deps.Corpus.Invalidate(ctx); err != nil {
			slog.Warn("failed to invalidate corpus snapshot", "error", err)
		}
	}

	slog.Info("case saved", "case_number", c.CaseNumber, "id", c.ID)
	writeJSON(w, http.StatusCreated, c)
}
