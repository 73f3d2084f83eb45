package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/opensource-finance/deviza/internal/analysis"
	"github.com/opensource-finance/deviza/internal/domain"
	"github.com/opensource-finance/deviza/internal/language"
	"github.com/opensource-finance/deviza/internal/matcher"
	"github.com/opensource-finance/deviza/internal/metrics"
	"github.com/opensource-finance/deviza/internal/similarity"
)

// maxBodyBytes bounds request bodies; contracts run to a few hundred pages.
const maxBodyBytes = 8 << 20

// CorpusInvalidator drops a cached corpus snapshot after a case write.
type CorpusInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Deps holds the collaborators of the API. Service is required; a nil
// Repo disables document, case and pattern storage endpoints.
type Deps struct {
	Service *analysis.Service
	Repo    domain.Repository
	Cache   domain.Cache
	Bus     domain.EventBus
	Metrics *metrics.Metrics
	Corpus  CorpusInvalidator

	// IngestTenant, when set, is the bus tenant async documents are
	// published under, for a worker subscribed globally.
	IngestTenant string
}

// Handler holds dependencies for API handlers.
type Handler struct {
	deps    Deps
	svc     *analysis.Service
	version string
}

// NewHandler creates a new API handler.
func NewHandler(deps Deps, version string) *Handler {
	return &Handler{
		deps:    deps,
		svc:     deps.Service,
		version: version,
	}
}

// Health returns server health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	checks := map[string]string{}

	if h.deps.Repo != nil {
		checks["repository"] = "ok"
		if err := h.deps.Repo.Ping(r.Context()); err != nil {
			status, checks["repository"] = "degraded", err.Error()
		}
	}
	if h.deps.Cache != nil {
		checks["cache"] = "ok"
		if err := h.deps.Cache.Ping(r.Context()); err != nil {
			status, checks["cache"] = "degraded", err.Error()
		}
	}
	if h.deps.Bus != nil {
		checks["eventBus"] = "ok"
		if err := h.deps.Bus.Ping(r.Context()); err != nil {
			status, checks["eventBus"] = "degraded", err.Error()
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  status,
		"version": h.version,
		"checks":  checks,
	})
}

// Ready reports whether a pattern table is loaded.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.svc == nil || h.svc.Extractor() == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"ready": "false"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"ready": "true"})
}

// LanguageRequest is the request body for POST /language.
type LanguageRequest struct {
	Text  string `json:"text"`
	Mixed bool   `json:"mixed,omitempty"`
}

// DetectLanguage handles POST /language.
func (h *Handler) DetectLanguage(w http.ResponseWriter, r *http.Request) {
	var req LanguageRequest
	if !decodeBody(w, r, &req) {
		return
	}

	d := h.svc.Detector()
	if req.Mixed {
		sentences := d.DetectMixed(req.Text)
		if sentences == nil {
			sentences = []language.SentenceDetection{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"sentences": sentences})
		return
	}
	writeJSON(w, http.StatusOK, d.Detect(req.Text))
}

// ExtractRequest is the request body for POST /extract.
type ExtractRequest struct {
	DocumentID string `json:"documentId,omitempty"`
	Text       string `json:"text"`
	Language   string `json:"language,omitempty"`
}

// Extract handles POST /extract. Nothing is persisted.
func (h *Handler) Extract(w http.ResponseWriter, r *http.Request) {
	var req ExtractRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	if req.DocumentID == "" {
		req.DocumentID = uuid.New().String()
	}

	result := h.svc.Extract(r.Context(), req.DocumentID, req.Text, domain.ParseLanguage(req.Language))
	writeJSON(w, http.StatusOK, result)
}

// MatchRequest is the request body for POST /match.
type MatchRequest struct {
	Clauses []domain.ExtractedClause `json:"clauses"`
}

// MatchResponse is the response for POST /match.
type MatchResponse struct {
	Matching   *domain.MatchingResult       `json:"matching"`
	Precedents []domain.ApplicablePrecedent `json:"precedents"`
}

// Match handles POST /match. Client clauses get their risk level derived
// again so a stale value cannot leak into matching.
func (h *Handler) Match(w http.ResponseWriter, r *http.Request) {
	var req MatchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	for i := range req.Clauses {
		c := &req.Clauses[i]
		if !c.ClauseType.Valid() {
			writeError(w, http.StatusBadRequest, "unknown clauseType "+string(c.ClauseType))
			return
		}
		if c.ConfidenceScore < 0 || c.ConfidenceScore > 1 || math.IsNaN(c.ConfidenceScore) {
			writeError(w, http.StatusBadRequest, "confidenceScore must be between 0 and 1")
			return
		}
		if c.ID == "" {
			c.ID = uuid.New().String()
		}
		c.RecomputeRisk()
	}

	result, precedents, err := h.svc.Match(r.Context(), req.Clauses)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MatchResponse{Matching: result, Precedents: precedents})
}

// SimilarityRequest is the request body for POST /similarity.
type SimilarityRequest struct {
	A string `json:"a"`
	B string `json:"b"`
}

// SimilarityResponse is the response for POST /similarity.
type SimilarityResponse struct {
	Score       float64  `json:"score"`
	Quality     string   `json:"quality"`
	Explanation string   `json:"explanation"`
	SharedTerms []string `json:"sharedTerms"`
}

// Similarity handles POST /similarity.
func (h *Handler) Similarity(w http.ResponseWriter, r *http.Request) {
	var req SimilarityRequest
	if !decodeBody(w, r, &req) {
		return
	}

	sim := h.svc.Similarity()
	score := sim.TextSimilarity(req.A, req.B)
	shared := sim.SharedTerms(req.A, req.B)
	if shared == nil {
		shared = []string{}
	}
	writeJSON(w, http.StatusOK, SimilarityResponse{
		Score:       score,
		Quality:     similarity.Quality(score),
		Explanation: similarity.Explain(score, shared),
		SharedTerms: shared,
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps pipeline errors to status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, analysis.ErrEmptyDocument):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, matcher.ErrCorpusUnavailable):
		writeError(w, http.StatusServiceUnavailable, "precedent corpus unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "analysis timed out")
	default:
		slog.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *Handler) requireRepo(w http.ResponseWriter) bool {
	if h.deps.Repo == nil {
		writeError(w, http.StatusServiceUnavailable, "repository not available")
		return false
	}
	return true
}

func elapsedMs(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
