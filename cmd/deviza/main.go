// Deviza - Foreign currency loan clause analysis.
// Copyright (c) 2025 opensource.finance
// Licensed under the Apache License 2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opensource-finance/deviza/internal/analysis"
	"github.com/opensource-finance/deviza/internal/api"
	"github.com/opensource-finance/deviza/internal/bus"
	"github.com/opensource-finance/deviza/internal/cache"
	"github.com/opensource-finance/deviza/internal/corpus"
	"github.com/opensource-finance/deviza/internal/domain"
	"github.com/opensource-finance/deviza/internal/metrics"
	"github.com/opensource-finance/deviza/internal/repository"
	"github.com/opensource-finance/deviza/internal/worker"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	// Initialize structured logger
	logLevel := slog.LevelInfo
	if os.Getenv("DEVIZA_DEBUG") == "true" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	slog.Info("starting deviza",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)

	cfg, err := loadConfig()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"tier", cfg.Tier,
		"repository", cfg.Repository.Driver,
		"cache", cfg.Cache.Type,
		"eventbus", cfg.EventBus.Type,
		"default_language", cfg.Extraction.DefaultLanguage,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize Repository
	repo, err := repository.New(cfg.Repository)
	if err != nil {
		slog.Error("failed to initialize repository", "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	slog.Info("repository initialized", "driver", cfg.Repository.Driver)

	// Seed the precedent corpus; saving is an upsert, so restarts are safe.
	seeded, err := corpus.SeedStore(ctx, repo)
	if err != nil {
		slog.Error("failed to seed precedent corpus", "error", err)
		os.Exit(1)
	}
	slog.Info("precedent corpus seeded", "cases", seeded)

	// Initialize Cache
	cacheImpl, err := cache.New(cfg.Cache)
	if err != nil {
		slog.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer cacheImpl.Close()
	slog.Info("cache initialized", "type", cfg.Cache.Type)

	provider := cache.NewCachedProvider(repo, cacheImpl, cfg.Matching.CorpusTTL)

	// Initialize EventBus
	busImpl, err := bus.New(cfg.EventBus)
	if err != nil {
		slog.Error("failed to initialize event bus", "error", err)
		os.Exit(1)
	}
	defer busImpl.Close()
	slog.Info("event bus initialized", "type", cfg.EventBus.Type)

	m := metrics.New()

	svc, err := analysis.NewService(ctx, *cfg, analysis.Deps{
		Repo:     repo,
		Provider: provider,
		Cache:    cacheImpl,
		Bus:      busImpl,
		Metrics:  m,
	})
	if err != nil {
		slog.Error("failed to initialize analysis service", "error", err)
		os.Exit(1)
	}
	slog.Info("analysis service initialized", "patterns", svc.Extractor().Table().Count())

	// Initialize async Worker (Pro tier or on request)
	var asyncWorker *worker.Worker
	ingestTenant := ""
	if cfg.Tier == domain.TierPro || os.Getenv("DEVIZA_ASYNC_WORKER") == "true" {
		asyncWorker = worker.NewWorker(busImpl, svc)

		tenantIDs := splitList(os.Getenv("DEVIZA_TENANTS"))
		if len(tenantIDs) == 0 {
			ingestTenant = worker.GlobalTenant
		}

		if err := asyncWorker.Start(worker.Config{TenantIDs: tenantIDs}); err != nil {
			slog.Error("failed to start async worker", "error", err)
			asyncWorker = nil
			ingestTenant = ""
		} else {
			slog.Info("async worker started", "tenant_count", len(tenantIDs))
		}
	}

	srv := api.NewServer(cfg.Server, api.Deps{
		Service:      svc,
		Repo:         repo,
		Cache:        cacheImpl,
		Bus:          busImpl,
		Metrics:      m,
		Corpus:       provider,
		IngestTenant: ingestTenant,
	}, Version)

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("deviza is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	printBanner(cfg, Version)

	<-ctx.Done()
	slog.Info("shutting down...")

	// Stop async worker first
	if asyncWorker != nil {
		if err := asyncWorker.Stop(); err != nil {
			slog.Error("failed to stop async worker", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("deviza shutdown complete")
}

func printBanner(cfg *domain.Config, version string) {
	fmt.Println()
	fmt.Println("  DEVIZA - foreign currency loan clause analysis")
	fmt.Println()
	fmt.Printf("  Version:  %s\n", version)
	fmt.Printf("  Tier:     %s\n", cfg.Tier)
	fmt.Printf("  Server:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    POST /documents                - Analyze a document (async: true queues it)")
	fmt.Println("    GET  /documents/{id}/analysis  - Latest analysis of a document")
	fmt.Println("    POST /extract                  - Extract clauses")
	fmt.Println("    POST /match                    - Match clauses against precedents")
	fmt.Println("    POST /language                 - Detect language")
	fmt.Println("    POST /similarity               - Compare two texts")
	fmt.Println("    GET  /cases                    - Search precedents")
	fmt.Println("    POST /cases                    - Add a precedent")
	fmt.Println("    GET  /patterns                 - List administrative patterns")
	fmt.Println("    POST /patterns                 - Add a pattern and reload")
	fmt.Println("    POST /patterns/reload          - Hot-reload the pattern table")
	fmt.Println("    GET  /health, /ready, /metrics")
	fmt.Println()
}
