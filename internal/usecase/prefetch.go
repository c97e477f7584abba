package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"StockDash/internal/domain/models"
	domrepo "StockDash/internal/domain/repository"
	"StockDash/pkg/cache"
	applogger "StockDash/pkg/logger"
)

const prefetchLockKey = "lock:prefetch"

// PrefetchConfig selects what the prefetcher warms.
type PrefetchConfig struct {
	Schedule   string
	Lookback   domrepo.Lookback
	Watchlist  []string
	RunOnStart bool
	Timeout    time.Duration
}

// PrefetchReport summarises one pass over the watchlist.
type PrefetchReport struct {
	Fetched  int
	Archived int
	Failed   []string
	Skipped  bool
}

type invalidator interface {
	Invalidate(ctx context.Context, symbol string) error
}

// Prefetcher refreshes the cached history of every lookback and the quote
// for a watchlist on a cron schedule. The bars of the configured lookback
// are archived when a BarStore is configured.
type Prefetcher struct {
	md    domrepo.MarketData
	store domrepo.BarStore
	lock  cache.Service
	cfg   PrefetchConfig
	l     *applogger.Logger

	cron *cron.Cron
	wg   sync.WaitGroup
}

// NewPrefetcher creates a prefetcher. store and lock may be nil.
func NewPrefetcher(md domrepo.MarketData, store domrepo.BarStore, lock cache.Service, cfg PrefetchConfig, l *applogger.Logger) *Prefetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	if !domrepo.IsValidLookback(cfg.Lookback) {
		cfg.Lookback = domrepo.LB1y
	}
	if l == nil {
		l = applogger.NewNop()
	}
	return &Prefetcher{md: md, store: store, lock: lock, cfg: cfg, l: l, cron: cron.New()}
}

// Start registers the job and starts the scheduler.
func (p *Prefetcher) Start() error {
	if _, err := p.cron.AddFunc(p.cfg.Schedule, p.runScheduled); err != nil {
		return fmt.Errorf("register prefetch job: %w", err)
	}
	p.cron.Start()
	p.l.Info("prefetch scheduler started",
		applogger.String("schedule", p.cfg.Schedule),
		applogger.Strings("watchlist", p.cfg.Watchlist),
	)
	if p.cfg.RunOnStart {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.runScheduled()
		}()
	}
	return nil
}

// Stop waits for a running job to finish.
func (p *Prefetcher) Stop() {
	<-p.cron.Stop().Done()
	p.wg.Wait()
	p.l.Info("prefetch scheduler stopped")
}

func (p *Prefetcher) runScheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.Timeout)
	defer cancel()
	if _, err := p.RunOnce(ctx); err != nil {
		p.l.Error("prefetch failed", applogger.Error(err))
	}
}

// RunOnce refreshes every watchlist symbol. Only one instance runs at a
// time across replicas sharing the lock cache.
func (p *Prefetcher) RunOnce(ctx context.Context) (*PrefetchReport, error) {
	report := &PrefetchReport{}
	if p.lock != nil {
		ok, err := p.lock.TryLock(ctx, prefetchLockKey, p.cfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("prefetch lock: %w", err)
		}
		if !ok {
			report.Skipped = true
			p.l.Debug("prefetch already running elsewhere")
			return report, nil
		}
		defer func() { _ = p.lock.Unlock(context.WithoutCancel(ctx), prefetchLockKey) }()
	}

	start := time.Now()
	for _, raw := range p.cfg.Watchlist {
		symbol := strings.ToUpper(strings.TrimSpace(raw))
		if symbol == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := p.refresh(ctx, symbol, report); err != nil {
			report.Failed = append(report.Failed, symbol)
			p.l.Warn("prefetch symbol failed",
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
		}
	}

	p.l.Info("prefetch done",
		applogger.Int("fetched", report.Fetched),
		applogger.Int("archived", report.Archived),
		applogger.Int("failed", len(report.Failed)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return report, nil
}

func (p *Prefetcher) refresh(ctx context.Context, symbol string, report *PrefetchReport) error {
	if inv, ok := p.md.(invalidator); ok {
		if err := inv.Invalidate(ctx, symbol); err != nil {
			p.l.Debug("cache invalidate failed", applogger.String("symbol", symbol), applogger.Error(err))
		}
	}

	// Invalidate drops every lookback, so all of them are rewarmed.
	var bars models.Series
	for _, lb := range domrepo.Lookbacks() {
		series, err := p.md.History(ctx, symbol, lb)
		if err != nil {
			return fmt.Errorf("history %s: %w", lb, err)
		}
		if lb == p.cfg.Lookback {
			bars = series
		}
	}
	if _, err := p.md.Quote(ctx, symbol); err != nil {
		return fmt.Errorf("quote: %w", err)
	}
	report.Fetched++

	if p.store == nil || len(bars) == 0 {
		return nil
	}
	if err := p.store.StoreBars(ctx, symbol, bars); err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	report.Archived++
	return nil
}
