// Package worker analyzes ingested documents asynchronously from the EventBus.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/opensource-finance/deviza/internal/bus"
	"github.com/opensource-finance/deviza/internal/domain"
)

// GlobalTenant is the subscription tenant used when no tenants are configured.
const GlobalTenant = "_global"

// Analyzer runs the analysis pipeline on a stored document.
type Analyzer interface {
	AnalyzeStored(ctx context.Context, tenantID, documentID string) (*domain.Analysis, error)
}

// Worker consumes document-ingested events and analyzes each document.
type Worker struct {
	bus      domain.EventBus
	analyzer Analyzer

	mu            sync.Mutex
	subscriptions []domain.Subscription
	ctx           context.Context
	cancel        context.CancelFunc
}

// Config holds worker configuration.
type Config struct {
	// TenantIDs is the list of tenants to process (empty = GlobalTenant)
	TenantIDs []string
}

// NewWorker creates a new async worker.
func NewWorker(b domain.EventBus, analyzer Analyzer) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		bus:      b,
		analyzer: analyzer,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start subscribes to the ingest topic for the given tenants.
func (w *Worker) Start(cfg Config) error {
	if len(cfg.TenantIDs) == 0 {
		return w.subscribe(GlobalTenant)
	}

	started := 0
	for _, tenantID := range cfg.TenantIDs {
		if err := w.subscribe(tenantID); err != nil {
			slog.Error("failed to start worker for tenant",
				"tenant_id", tenantID,
				"error", err,
			)
			continue
		}
		started++
	}
	if started == 0 {
		return errors.New("worker: no tenant subscription could be started")
	}

	slog.Info("workers started", "tenant_count", started)
	return nil
}

func (w *Worker) subscribe(tenantID string) error {
	sub, err := w.bus.Subscribe(w.ctx, tenantID, domain.TopicDocumentIngested, func(ctx context.Context, msg *domain.Message) error {
		return w.processDocument(ctx, tenantID, msg)
	})
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.subscriptions = append(w.subscriptions, sub)
	w.mu.Unlock()

	slog.Info("worker subscribed",
		"tenant_id", tenantID,
		"topic", domain.TopicDocumentIngested,
	)
	return nil
}

// processDocument analyzes the document named by msg. The tenant in the
// payload wins over the subscription tenant, which matters for GlobalTenant.
func (w *Worker) processDocument(ctx context.Context, tenantID string, msg *domain.Message) error {
	start := time.Now()

	var docMsg domain.DocumentMessage
	if err := bus.DecodeJSON(msg, &docMsg); err != nil {
		slog.Error("failed to parse document message",
			"message_id", msg.ID,
			"error", err,
		)
		return err
	}
	if docMsg.TenantID != "" {
		tenantID = docMsg.TenantID
	}
	if docMsg.DocumentID == "" {
		return errors.New("worker: document message without documentId")
	}

	analysis, err := w.analyzer.AnalyzeStored(ctx, tenantID, docMsg.DocumentID)
	if err != nil {
		slog.Error("document analysis failed",
			"tenant_id", tenantID,
			"document_id", docMsg.DocumentID,
			"trace_id", docMsg.TraceID,
			"error", err,
		)
		return err
	}

	slog.Info("document processed",
		"tenant_id", tenantID,
		"document_id", docMsg.DocumentID,
		"status", analysis.Status,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// Stop unsubscribes all handlers.
func (w *Worker) Stop() error {
	w.cancel()

	w.mu.Lock()
	subs := w.subscriptions
	w.subscriptions = nil
	w.mu.Unlock()

	for _, sub := range subs {
		if err := sub.Unsubscribe(); err != nil {
			slog.Error("failed to unsubscribe",
				"topic", sub.Topic(),
				"error", err,
			)
		}
	}

	slog.Info("workers stopped")
	return nil
}

// Stats returns worker statistics.
type Stats struct {
	SubscriptionCount int      `json:"subscriptionCount"`
	Topics            []string `json:"topics"`
}

// GetStats returns current worker statistics.
func (w *Worker) GetStats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()

	topics := make([]string, len(w.subscriptions))
	for i, sub := range w.subscriptions {
		topics[i] = sub.Topic()
	}
	return Stats{
		SubscriptionCount: len(w.subscriptions),
		Topics:            topics,
	}
}
