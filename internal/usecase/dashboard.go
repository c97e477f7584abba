package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"StockDash/internal/domain/models"
	domrepo "StockDash/internal/domain/repository"
	"StockDash/internal/render"
	"StockDash/internal/transform"
	"StockDash/pkg/id"
	applogger "StockDash/pkg/logger"
)

var (
	ErrFXUnavailable    = errors.New("fx rate unavailable")
	ErrInsufficientData = errors.New("insufficient data points")
)

// DashboardConfig holds the dashboard defaults.
type DashboardConfig struct {
	BaseCurrency   string
	DefaultSymbol  string
	Currencies     []string
	MinPoints      int
	PublishTimeout time.Duration
}

// DashboardView is everything one dashboard render needs.
type DashboardView struct {
	Request     models.DashboardRequest `json:"request"`
	Mode        models.CurrencyMode     `json:"currency_mode"`
	Rate        float64                 `json:"rate"`
	Points      int                     `json:"points"`
	Summary     models.Summary          `json:"summary"`
	CurrentDate time.Time               `json:"current_date"`
	Figure      render.Figure           `json:"figure"`
	Panel       render.Panel            `json:"panel"`
	Series      models.Series           `json:"-"`
}

// DashboardUseCase fetches, transforms and renders one selection.
type DashboardUseCase struct {
	md        domrepo.MarketData
	publisher domrepo.SnapshotPublisher
	metrics   domrepo.Metrics
	cfg       DashboardConfig
	l         *applogger.Logger
	now       func() time.Time
}

func NewDashboardUseCase(md domrepo.MarketData, pub domrepo.SnapshotPublisher, m domrepo.Metrics, cfg DashboardConfig, l *applogger.Logger) *DashboardUseCase {
	cfg.BaseCurrency = strings.ToUpper(strings.TrimSpace(cfg.BaseCurrency))
	if cfg.BaseCurrency == "" {
		cfg.BaseCurrency = "USD"
	}
	cfg.DefaultSymbol = strings.ToUpper(strings.TrimSpace(cfg.DefaultSymbol))
	if cfg.DefaultSymbol == "" {
		cfg.DefaultSymbol = "AAPL"
	}
	if cfg.MinPoints < 1 {
		cfg.MinPoints = 2
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 5 * time.Second
	}
	if l == nil {
		l = applogger.NewNop()
	}
	return &DashboardUseCase{md: md, publisher: pub, metrics: m, cfg: cfg, l: l, now: time.Now}
}

// Currencies lists the selectable display currencies, base first.
func (uc *DashboardUseCase) Currencies() []string {
	out := []string{uc.cfg.BaseCurrency}
	for _, c := range uc.cfg.Currencies {
		c = strings.ToUpper(c)
		if c != uc.cfg.BaseCurrency {
			out = append(out, c)
		}
	}
	return out
}

// Normalize upper-cases codes and resolves an unknown lookback to the default.
func Normalize(req models.DashboardRequest) models.DashboardRequest {
	req.Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))
	req.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))
	req.Lookback = string(domrepo.NormalizeLookback(req.Lookback))
	if req.ChartStyle != string(render.StyleCandlestick) {
		req.ChartStyle = string(render.StyleLine)
	}
	return req
}

// withDefaults fills an empty symbol and currency from the configuration.
func (uc *DashboardUseCase) withDefaults(req models.DashboardRequest) models.DashboardRequest {
	if req.Symbol == "" {
		req.Symbol = uc.cfg.DefaultSymbol
	}
	if req.Currency == "" {
		req.Currency = uc.cfg.BaseCurrency
	}
	return req
}

// FXRate returns the base to currency rate.
func (uc *DashboardUseCase) FXRate(ctx context.Context, currency string) (float64, error) {
	currency = strings.ToUpper(currency)
	rate, err := uc.md.FXRate(ctx, uc.cfg.BaseCurrency, currency)
	if err != nil {
		return 0, fmt.Errorf("%w: %s%s: %v", ErrFXUnavailable, uc.cfg.BaseCurrency, currency, err)
	}
	return rate, nil
}

// Build runs fetch, transform and render for req.
func (uc *DashboardUseCase) Build(ctx context.Context, req models.DashboardRequest) (*DashboardView, error) {
	start := uc.now()
	req = uc.withDefaults(Normalize(req))
	mode := models.ModeFor(uc.cfg.BaseCurrency, req.Currency)

	rate := 1.0
	if mode == models.Converted {
		var err error
		if rate, err = uc.FXRate(ctx, req.Currency); err != nil {
			uc.recordError("fx")
			return nil, err
		}
	}

	series, err := uc.md.History(ctx, req.Symbol, domrepo.Lookback(req.Lookback))
	if err != nil {
		uc.recordError("history")
		return nil, fmt.Errorf("history %s: %w", req.Symbol, err)
	}
	switch {
	case len(series) == 0:
		uc.recordError("no_data")
		return nil, fmt.Errorf("history %s %s: %w", req.Symbol, req.Lookback, transform.ErrEmptySeries)
	case len(series) < uc.cfg.MinPoints:
		uc.recordError("insufficient_data")
		return nil, fmt.Errorf("%w: %s has %d of %d", ErrInsufficientData, req.Symbol, len(series), uc.cfg.MinPoints)
	}

	quote := uc.currentQuote(ctx, req.Symbol, series)

	current, err := transform.ConvertPrice(quote.Price, mode, rate)
	if err != nil {
		uc.recordError("transform")
		return nil, fmt.Errorf("convert current price: %w", err)
	}
	display, summary, err := transform.Transform(series, current, mode, rate)
	if err != nil {
		uc.recordError("transform")
		return nil, fmt.Errorf("transform %s: %w", req.Symbol, err)
	}

	view := &DashboardView{
		Request:     req,
		Mode:        mode,
		Rate:        rate,
		Points:      len(display),
		Summary:     summary,
		CurrentDate: quote.Time,
		Figure:      render.BuildFigure(req.Symbol, display, summary, render.Style(req.ChartStyle)),
		Panel:       render.BuildPanel(summary, quote.Time, req.Currency, mode, uc.cfg.BaseCurrency, rate),
		Series:      display,
	}

	if uc.metrics != nil {
		uc.metrics.RecordRender(req.ChartStyle, mode.String())
		uc.metrics.RecordLastPrice(req.Symbol, quote.Price)
		uc.metrics.RecordLatency("build", uc.now().Sub(start).Seconds())
	}
	uc.l.Debug("dashboard built",
		applogger.String("symbol", req.Symbol),
		applogger.String("lookback", req.Lookback),
		applogger.Int("points", view.Points),
		applogger.Bool("converted", mode == models.Converted),
		applogger.Float64("rate", rate),
	)
	uc.publish(ctx, view)
	return view, nil
}

// currentQuote falls back to the last bar when the quote fetch fails.
func (uc *DashboardUseCase) currentQuote(ctx context.Context, symbol string, series models.Series) models.Quote {
	q, err := uc.md.Quote(ctx, symbol)
	if err == nil && q.Price > 0 {
		return q
	}
	last := series.Last()
	uc.l.Warn("quote unavailable, using last close",
		applogger.String("symbol", symbol),
		applogger.Error(err),
	)
	return models.Quote{Symbol: symbol, Price: last.Close, Time: last.Time}
}

func (uc *DashboardUseCase) publish(ctx context.Context, v *DashboardView) {
	if uc.publisher == nil {
		return
	}
	now := uc.now().UTC()
	snap := &models.Snapshot{
		ID:          id.New(now),
		Symbol:      v.Request.Symbol,
		Lookback:    v.Request.Lookback,
		Currency:    v.Request.Currency,
		Mode:        v.Mode,
		Rate:        v.Rate,
		Points:      v.Points,
		Summary:     v.Summary,
		GeneratedAt: now,
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.cfg.PublishTimeout)
	defer cancel()
	if err := uc.publisher.Publish(pctx, snap); err != nil {
		uc.recordError("publish")
		uc.l.Warn("snapshot publish failed",
			applogger.String("symbol", snap.Symbol),
			applogger.Error(err),
		)
	}
}

func (uc *DashboardUseCase) recordError(kind string) {
	if uc.metrics != nil {
		uc.metrics.RecordError(kind)
	}
}
