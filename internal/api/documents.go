package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/opensource-finance/deviza/internal/bus"
	"github.com/opensource-finance/deviza/internal/domain"
	"github.com/opensource-finance/deviza/internal/repository"
	"github.com/opensource-finance/deviza/internal/textproc"
)

// AcceptedResponse is returned for asynchronously queued documents.
type AcceptedResponse struct {
	DocumentID string `json:"documentId"`
	Status     string `json:"status"`
	TraceID    string `json:"traceId"`
}

// SubmitDocument handles POST /documents. Synchronous requests return the
// analysis; async requests store the document, queue it on the bus and
// return 202.
func (h *Handler) SubmitDocument(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	tenantID := GetTenantID(ctx)

	var req domain.DocumentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if textproc.Normalize(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	doc := req.ToDocument(tenantID)

	if !req.Async {
		a, err := h.svc.Analyze(ctx, tenantID, doc)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
		return
	}

	if h.deps.Bus == nil || h.deps.Repo == nil {
		writeError(w, http.StatusServiceUnavailable, "async processing not available")
		return
	}

	doc.ID = uuid.New().String()
	doc.Text = textproc.Normalize(doc.Text)
	if err := h.deps.Repo.SaveDocument(ctx, tenantID, doc); err != nil {
		slog.Error("failed to save document", "tenant_id", tenantID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save document")
		return
	}

	busTenant := tenantID
	if h.deps.IngestTenant != "" {
		busTenant = h.deps.IngestTenant
	}
	traceID := GetTraceID(ctx)
	msg := domain.DocumentMessage{DocumentID: doc.ID, TenantID: tenantID, TraceID: traceID}
	if err := bus.PublishJSON(ctx, h.deps.Bus, busTenant, domain.TopicDocumentIngested, msg); err != nil {
		slog.Error("failed to queue document", "document_id", doc.ID, "error", err)
		writeError(w, http.StatusServiceUnavailable, "failed to queue document")
		return
	}

	slog.Info("document queued",
		"tenant_id", tenantID,
		"document_id", doc.ID,
		"duration_ms", elapsedMs(start),
	)
	writeJSON(w, http.StatusAccepted, AcceptedResponse{
		DocumentID: doc.ID,
		Status:     "accepted",
		TraceID:    traceID,
	})
}

// GetDocument handles GET /documents/{id}.
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	if !h.requireRepo(w) {
		return
	}
	ctx := r.Context()
	doc, err := h.deps.Repo.GetDocument(ctx, GetTenantID(ctx), chi.URLParam(r, "id"))
	if err != nil {
		writeLookupError(w, "document", err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// GetClauses handles GET /documents/{id}/clauses.
func (h *Handler) GetClauses(w http.ResponseWriter, r *http.Request) {
	if !h.requireRepo(w) {
		return
	}
	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	docID := chi.URLParam(r, "id")

	if _, err := h.deps.Repo.GetDocument(ctx, tenantID, docID); err != nil {
		writeLookupError(w, "document", err)
		return
	}
	clauses, err := h.deps.Repo.ListClauses(ctx, tenantID, docID)
	if err != nil {
		writeLookupError(w, "clauses", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"documentId": docID,
		"clauses":    clauses,
		"count":      len(clauses),
	})
}

// GetAnalysis handles GET /documents/{id}/analysis.
func (h *Handler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	a, err := h.svc.GetAnalysis(ctx, GetTenantID(ctx), chi.URLParam(r, "id"))
	if err != nil {
		writeLookupError(w, "analysis", err)
		return
	}
	if a == nil {
		writeError(w, http.StatusNotFound, "analysis not found")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func writeLookupError(w http.ResponseWriter, what string, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, what+" not found")
	case errors.Is(err, repository.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("lookup failed", "entity", what, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load "+what)
	}
}
