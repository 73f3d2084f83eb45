package main

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/opensource-finance/deviza/internal/domain"
	"github.com/opensource-finance/deviza/internal/patterns"
)

// loadConfig starts from the tier defaults and applies DEVIZA_* overrides.
func loadConfig() (*domain.Config, error) {
	cfg := domain.DefaultConfig()
	if os.Getenv("DEVIZA_TIER") == string(domain.TierPro) {
		cfg = domain.ProConfig()
	}

	if err := envInt("DEVIZA_PORT", &cfg.Server.Port); err != nil {
		return nil, err
	}
	if err := envInt("DEVIZA_MAX_WORKERS", &cfg.Extraction.MaxWorkers); err != nil {
		return nil, err
	}
	if v := os.Getenv("DEVIZA_DB_PATH"); v != "" {
		cfg.Repository.SQLitePath = v
	}
	if v := os.Getenv("DEVIZA_PATTERNS_FILE"); v != "" {
		cfg.Extraction.PatternsFile = v
	}
	if v := os.Getenv("DEVIZA_DEFAULT_LANGUAGE"); v != "" {
		lang := domain.ParseLanguage(v)
		if !slices.Contains(patterns.Builtin().Languages(), lang) {
			return nil, fmt.Errorf("DEVIZA_DEFAULT_LANGUAGE: no built-in patterns for %q", v)
		}
		cfg.Extraction.DefaultLanguage = lang
	}

	// Pro tier endpoints
	if v := os.Getenv("DEVIZA_POSTGRES_HOST"); v != "" {
		cfg.Repository.PostgresHost = v
	}
	if v := os.Getenv("DEVIZA_POSTGRES_USER"); v != "" {
		cfg.Repository.PostgresUser = v
	}
	if v := os.Getenv("DEVIZA_POSTGRES_PASSWORD"); v != "" {
		cfg.Repository.PostgresPassword = v
	}
	if v := os.Getenv("DEVIZA_REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("DEVIZA_NATS_URL"); v != "" {
		cfg.EventBus.NATSUrl = v
	}

	return cfg, nil
}

func envInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fmt.Errorf("%s: expected a positive integer, got %q", key, v)
	}
	*dst = n
	return nil
}

// splitList parses a comma-separated list, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
