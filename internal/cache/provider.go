package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/opensource-finance/deviza/internal/domain"
)

const corpusKey = "corpus:currency"

// CachedProvider serves the currency corpus from a cache snapshot and
// refreshes it from the wrapped provider once the snapshot expires.
// Provider errors are returned as is; an expired snapshot is never served
// in place of a failed lookup.
type CachedProvider struct {
	provider domain.CaseProvider
	cache    domain.Cache
	ttl      time.Duration
}

// NewCachedProvider wraps provider. A non-positive ttl disables caching.
func NewCachedProvider(provider domain.CaseProvider, cache domain.Cache, ttl time.Duration) *CachedProvider {
	return &CachedProvider{provider: provider, cache: cache, ttl: ttl}
}

// GetCurrencyRelatedCases implements domain.CaseProvider.
func (p *CachedProvider) GetCurrencyRelatedCases(ctx context.Context) ([]*domain.LegalCase, error) {
	if p.cache == nil || p.ttl <= 0 {
		return p.provider.GetCurrencyRelatedCases(ctx)
	}

	data, err := p.cache.Get(ctx, domain.SharedTenant, corpusKey)
	if err != nil {
		slog.Warn("corpus cache read failed", "error", err)
	}
	if data != nil {
		var cases []*domain.LegalCase
		if err := json.Unmarshal(data, &cases); err == nil {
			return cases, nil
		}
	}

	cases, err := p.provider.GetCurrencyRelatedCases(ctx)
	if err != nil {
		return nil, err
	}

	if bytes, err := json.Marshal(cases); err == nil {
		if err := p.cache.Set(ctx, domain.SharedTenant, corpusKey, bytes, p.ttl); err != nil {
			slog.Warn("corpus cache write failed", "error", err)
		}
	}
	return cases, nil
}

// Invalidate drops the snapshot so the next lookup hits the provider.
func (p *CachedProvider) Invalidate(ctx context.Context) error {
	if p.cache == nil {
		return nil
	}
	return p.cache.Delete(ctx, domain.SharedTenant, corpusKey)
}
