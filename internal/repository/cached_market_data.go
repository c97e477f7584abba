package repository

import (
	"context"
	"strings"
	"time"

	"StockDash/internal/domain/models"
	domrepo "StockDash/internal/domain/repository"
	"StockDash/pkg/cache"
)

// TTLs controls how long each kind of fetch stays cached.
type TTLs struct {
	History time.Duration
	Quote   time.Duration
	FX      time.Duration
}

// CachedMarketData decorates a MarketData source with a cache and fetch
// metrics. Errors are never cached.
type CachedMarketData struct {
	src     domrepo.MarketData
	cache   cache.Service
	ttl     TTLs
	metrics domrepo.Metrics
}

var _ domrepo.MarketData = (*CachedMarketData)(nil)

func NewCachedMarketData(src domrepo.MarketData, c cache.Service, ttl TTLs, m domrepo.Metrics) *CachedMarketData {
	return &CachedMarketData{src: src, cache: c, ttl: ttl, metrics: m}
}

func (c *CachedMarketData) Name() string { return c.src.Name() }

func (c *CachedMarketData) History(ctx context.Context, symbol string, lb domrepo.Lookback) (models.Series, error) {
	key := cache.GenerateKeyWithParams("history", strings.ToUpper(symbol), lb)
	return fetch(ctx, c, "history", key, c.ttl.History, func(ctx context.Context) (models.Series, error) {
		return c.src.History(ctx, symbol, lb)
	})
}

func (c *CachedMarketData) Quote(ctx context.Context, symbol string) (models.Quote, error) {
	key := cache.GenerateKeyWithParams("quote", strings.ToUpper(symbol))
	return fetch(ctx, c, "quote", key, c.ttl.Quote, func(ctx context.Context) (models.Quote, error) {
		return c.src.Quote(ctx, symbol)
	})
}

func (c *CachedMarketData) FXRate(ctx context.Context, base, quote string) (float64, error) {
	key := cache.GenerateKeyWithParams("fx", strings.ToUpper(base), strings.ToUpper(quote))
	return fetch(ctx, c, "fx", key, c.ttl.FX, func(ctx context.Context) (float64, error) {
		return c.src.FXRate(ctx, base, quote)
	})
}

func fetch[T any](ctx context.Context, c *CachedMarketData, kind, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	start := time.Now()
	v, hit, err := cache.GetOrLoad(ctx, c.cache, key, ttl, load)
	if c.metrics != nil {
		source := c.src.Name()
		if hit {
			source = "cache"
		}
		c.metrics.RecordFetch(source, kind, err)
		if !hit {
			c.metrics.RecordLatency("fetch_"+kind, time.Since(start).Seconds())
		}
	}
	return v, err
}

// Invalidate drops every cached entry for symbol.
func (c *CachedMarketData) Invalidate(ctx context.Context, symbol string) error {
	sym := strings.ToUpper(symbol)
	keys := []string{cache.GenerateKeyWithParams("quote", sym)}
	for _, lb := range domrepo.Lookbacks() {
		keys = append(keys, cache.GenerateKeyWithParams("history", sym, lb))
	}
	return c.cache.Delete(ctx, keys...)
}
