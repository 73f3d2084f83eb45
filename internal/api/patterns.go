package api

import (
	"log/slog"
	"net/http"

	"github.com/opensource-finance/deviza/internal/domain"
	"github.com/opensource-finance/deviza/internal/patterns"
)

// ListPatterns returns the administrative patterns and the size of the
// table currently compiled into the extractor.
func (h *Handler) ListPatterns(w http.ResponseWriter, r *http.Request) {
	admin := []*domain.ClausePattern{}
	if h.deps.Repo != nil {
		stored, err := h.deps.Repo.ListPatterns(r.Context())
		if err != nil {
			slog.Error("failed to list patterns", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to list patterns")
			return
		}
		admin = stored
	}

	table := h.svc.Extractor().Table()
	writeJSON(w, http.StatusOK, map[string]any{
		"patterns": admin,
		"count":    len(admin),
		"compiled": table.Count(),
		"skipped":  table.Skipped(),
	})
}

// PatternCatalog returns the per-category reference catalog.
func (h *Handler) PatternCatalog(w http.ResponseWriter, r *http.Request) {
	catalog := patterns.Catalog()
	writeJSON(w, http.StatusOK, map[string]any{
		"patterns": catalog,
		"count":    len(catalog),
		"version":  patterns.BuiltinVersion,
	})
}

// ValidationResponse is the response for POST /patterns/validate.
type ValidationResponse struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// ValidatePattern compiles a pattern without storing it.
func (h *Handler) ValidatePattern(w http.ResponseWriter, r *http.Request) {
	var p domain.ClausePattern
	if !decodeBody(w, r, &p) {
		return
	}
	if err := h.validate(&p); err != nil {
		writeJSON(w, http.StatusOK, ValidationResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, ValidationResponse{Valid: true})
}

// CreatePattern stores a pattern and reloads the extractor.
func (h *Handler) CreatePattern(w http.ResponseWriter, r *http.Request) {
	if !h.requireRepo(w) {
		return
	}
	ctx := r.Context()

	var p domain.ClausePattern
	if !decodeBody(w, r, &p) {
		return
	}
	if p.ID == "" || p.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required")
		return
	}
	if patterns.Builtin().Has(p.ID) {
		writeError(w, http.StatusConflict, "pattern id "+p.ID+" is reserved by a built-in pattern")
		return
	}
	if err := h.validate(&p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if p.Version == "" {
		p.Version = "1"
	}

	if err := h.deps.Repo.SavePattern(ctx, &p); err != nil {
		writeLookupError(w, "pattern", err)
		return
	}

	stats, err := h.svc.ReloadPatterns(ctx)
	if err != nil {
		slog.Error("pattern reload after create failed", "pattern_id", p.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "pattern saved but reload failed")
		return
	}

	slog.Info("pattern created", "pattern_id", p.ID, "category", p.Category, "language", p.Language)
	writeJSON(w, http.StatusCreated, map[string]any{
		"pattern": p,
		"reload":  stats,
	})
}

// ReloadPatterns rebuilds the extractor from the built-in table, the
// pattern pack and the repository.
func (h *Handler) ReloadPatterns(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.ReloadPatterns(r.Context())
	if err != nil {
		slog.Error("pattern reload failed", "error", err)
		writeError(w, http.StatusInternalServerError, "pattern reload failed")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) validate(p *domain.ClausePattern) error {
	return h.svc.Compiler().Validate(p)
}
