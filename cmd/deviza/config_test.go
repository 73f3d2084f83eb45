package main

import (
	"slices"
	"testing"

	"github.com/opensource-finance/deviza/internal/domain"
)

func TestLoadConfig(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		cfg, err := loadConfig()
		if err != nil {
			t.Fatalf("loadConfig failed: %v", err)
		}
		if cfg.Tier != domain.TierCommunity || cfg.Extraction.DefaultLanguage != domain.LangHungarian {
			t.Errorf("unexpected defaults %+v", cfg)
		}
	})

	t.Run("Overrides", func(t *testing.T) {
		t.Setenv("DEVIZA_TIER", "pro")
		t.Setenv("DEVIZA_PORT", "9090")
		t.Setenv("DEVIZA_DEFAULT_LANGUAGE", "en")
		t.Setenv("DEVIZA_PATTERNS_FILE", "/etc/deviza/patterns.yaml")
		t.Setenv("DEVIZA_REDIS_ADDR", "redis:6379")

		cfg, err := loadConfig()
		if err != nil {
			t.Fatalf("loadConfig failed: %v", err)
		}
		if cfg.Tier != domain.TierPro || cfg.Server.Port != 9090 {
			t.Errorf("unexpected tier/port %s/%d", cfg.Tier, cfg.Server.Port)
		}
		if cfg.Extraction.DefaultLanguage != domain.LangEnglish || cfg.Extraction.PatternsFile != "/etc/deviza/patterns.yaml" {
			t.Errorf("unexpected extraction config %+v", cfg.Extraction)
		}
		if cfg.Cache.RedisAddr != "redis:6379" {
			t.Errorf("expected redis override, got %s", cfg.Cache.RedisAddr)
		}
	})

	t.Run("Invalid", func(t *testing.T) {
		for key, val := range map[string]string{
			"DEVIZA_PORT":             "abc",
			"DEVIZA_MAX_WORKERS":      "-1",
			"DEVIZA_DEFAULT_LANGUAGE": "klingon",
		} {
			t.Run(key, func(t *testing.T) {
				t.Setenv(key, val)
				if _, err := loadConfig(); err == nil {
					t.Errorf("expected error for %s=%s", key, val)
				}
			})
		}
	})
}

func TestSplitList(t *testing.T) {
	got := splitList(" tenant-a, ,tenant-b ,")
	if !slices.Equal(got, []string{"tenant-a", "tenant-b"}) {
		t.Errorf("unexpected list %q", got)
	}
	if splitList("") != nil {
		t.Error("expected nil for empty input")
	}
}
