package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockDash/internal/domain/models"
	domrepo "StockDash/internal/domain/repository"
	internalrepo "StockDash/internal/repository"
	"StockDash/internal/transform"
	"StockDash/pkg/cache"
)

func day(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

type fakeMarket struct {
	mu        sync.Mutex
	series    models.Series
	quote     models.Quote
	quoteErr  error
	fx        float64
	fxErr     error
	histErr   error
	histCalls map[string]int
}

func newFakeMarket() *fakeMarket {
	return &fakeMarket{
		series: models.Series{
			{Time: day(1), Open: 100, High: 101, Low: 99, Close: 100, Volume: 1000},
			{Time: day(2), Open: 90, High: 91, Low: 89, Close: 90, Volume: 1500},
			{Time: day(3), Open: 110, High: 111, Low: 109, Close: 110, Volume: 1200},
		},
		quote:     models.Quote{Symbol: "AAPL", Price: 105, Time: day(4)},
		fx:        1300,
		histCalls: map[string]int{},
	}
}

func (f *fakeMarket) Name() string { return "fake" }

func (f *fakeMarket) History(_ context.Context, symbol string, _ domrepo.Lookback) (models.Series, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.histCalls[symbol]++
	if f.histErr != nil {
		return nil, f.histErr
	}
	return f.series, nil
}

func (f *fakeMarket) Quote(context.Context, string) (models.Quote, error) {
	return f.quote, f.quoteErr
}

func (f *fakeMarket) FXRate(context.Context, string, string) (float64, error) {
	return f.fx, f.fxErr
}

type capturePublisher struct {
	snaps []*models.Snapshot
	err   error
}

func (c *capturePublisher) Publish(_ context.Context, s *models.Snapshot) error {
	c.snaps = append(c.snaps, s)
	return c.err
}
func (c *capturePublisher) Close() error { return nil }

type countMetrics struct {
	errors  map[string]int
	renders int
}

func (m *countMetrics) RecordFetch(string, string, error) {}
func (m *countMetrics) RecordError(kind string)           { m.errors[kind]++ }
func (m *countMetrics) RecordLastPrice(string, float64)   {}
func (m *countMetrics) RecordLatency(string, float64)     {}
func (m *countMetrics) RecordRender(string, string)       { m.renders++ }

func newUseCase(md domrepo.MarketData, pub domrepo.SnapshotPublisher) (*DashboardUseCase, *countMetrics) {
	m := &countMetrics{errors: map[string]int{}}
	uc := NewDashboardUseCase(md, pub, m, DashboardConfig{BaseCurrency: "USD", Currencies: []string{"usd", "krw"}, MinPoints: 2}, nil)
	return uc, m
}

func request(currency string) models.DashboardRequest {
	return models.DashboardRequest{Symbol: " aapl ", Lookback: "1mo", ChartStyle: "line", Currency: currency}
}

func TestDashboard_BuildNative(t *testing.T) {
	pub := &capturePublisher{}
	uc, m := newUseCase(newFakeMarket(), pub)

	v, err := uc.Build(context.Background(), request("usd"))
	require.NoError(t, err)

	assert.Equal(t, "AAPL", v.Request.Symbol)
	assert.Equal(t, "USD", v.Request.Currency)
	assert.Equal(t, models.Native, v.Mode)
	assert.Equal(t, 1.0, v.Rate)
	assert.Equal(t, 90.0, v.Summary.MinClose)
	assert.Equal(t, day(2), v.Summary.MinCloseDate)
	assert.Equal(t, 110.0, v.Summary.MaxClose)
	assert.InDelta(t, 16.67, v.Summary.PctChangeFromMin, 0.01)
	assert.InDelta(t, -4.55, v.Summary.PctChangeFromMax, 0.01)
	assert.Equal(t, "$105.00", v.Panel.CurrentPrice)
	assert.Equal(t, "AAPL chart", v.Figure.Layout.Title.Text)
	assert.Equal(t, 1, m.renders)

	require.Len(t, pub.snaps, 1)
	assert.Equal(t, "AAPL", pub.snaps[0].Symbol)
	assert.Equal(t, 3, pub.snaps[0].Points)
	assert.Len(t, pub.snaps[0].ID, 26)
}

func TestDashboard_BuildConverted(t *testing.T) {
	md := newFakeMarket()
	uc, _ := newUseCase(md, nil)

	v, err := uc.Build(context.Background(), request("KRW"))
	require.NoError(t, err)

	assert.Equal(t, models.Converted, v.Mode)
	assert.Equal(t, 1300.0, v.Rate)
	assert.Equal(t, 117000.0, v.Summary.MinClose)
	assert.Equal(t, 143000.0, v.Summary.MaxClose)
	assert.Equal(t, 136500.0, v.Summary.CurrentPrice)
	assert.Equal(t, 1500.0, v.Summary.MinCloseVolume)
	assert.Equal(t, "₩136,500.00", v.Panel.CurrentPrice)
	assert.NotEmpty(t, v.Panel.FXRate)

	// source series untouched
	assert.Equal(t, 90.0, md.series[1].Close)
}

func TestDashboard_BuildErrors(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*fakeMarket)
		currency string
		wantErr  error
		kind     string
	}{
		{"fx failure", func(f *fakeMarket) { f.fxErr = errors.New("down") }, "KRW", ErrFXUnavailable, "fx"},
		{"empty history", func(f *fakeMarket) { f.series = nil }, "USD", transform.ErrEmptySeries, "no_data"},
		{"single point", func(f *fakeMarket) { f.series = f.series[:1] }, "USD", ErrInsufficientData, "insufficient_data"},
		{"zero minimum", func(f *fakeMarket) { f.series[1].Close = 0 }, "USD", transform.ErrZeroExtreme, "transform"},
		{"invalid rate", func(f *fakeMarket) { f.fx = 0 }, "KRW", transform.ErrInvalidRate, "transform"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md := newFakeMarket()
			tt.mutate(md)
			uc, m := newUseCase(md, nil)

			_, err := uc.Build(context.Background(), request(tt.currency))
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 1, m.errors[tt.kind])
		})
	}
}

func TestDashboard_QuoteFallback(t *testing.T) {
	md := newFakeMarket()
	md.quoteErr = errors.New("quote down")
	uc, _ := newUseCase(md, nil)

	v, err := uc.Build(context.Background(), request("USD"))
	require.NoError(t, err)
	assert.Equal(t, 110.0, v.Summary.CurrentPrice)
	assert.Equal(t, day(3), v.CurrentDate)
}

func TestDashboard_PublishFailureIsNotFatal(t *testing.T) {
	pub := &capturePublisher{err: errors.New("broker down")}
	uc, m := newUseCase(newFakeMarket(), pub)

	_, err := uc.Build(context.Background(), request("USD"))
	require.NoError(t, err)
	assert.Equal(t, 1, m.errors["publish"])
}

func TestNormalize(t *testing.T) {
	got := Normalize(models.DashboardRequest{Symbol: " tsla", Lookback: "5y", ChartStyle: "bars", Currency: "krw"})
	assert.Equal(t, models.DashboardRequest{Symbol: "TSLA", Lookback: "1mo", ChartStyle: "line", Currency: "KRW"}, got)
}

func TestDashboard_Currencies(t *testing.T) {
	uc, _ := newUseCase(newFakeMarket(), nil)
	assert.Equal(t, []string{"USD", "KRW"}, uc.Currencies())

	lower := NewDashboardUseCase(newFakeMarket(), nil, nil, DashboardConfig{BaseCurrency: "usd", Currencies: []string{"USD", "krw"}}, nil)
	assert.Equal(t, []string{"USD", "KRW"}, lower.Currencies())
}

func TestDashboard_BuildFillsEmptySelection(t *testing.T) {
	md := newFakeMarket()
	md.fxErr = errors.New("no pair")
	uc := NewDashboardUseCase(md, nil, nil, DashboardConfig{BaseCurrency: "usd", DefaultSymbol: "msft"}, nil)

	view, err := uc.Build(context.Background(), models.DashboardRequest{})
	require.NoError(t, err)
	assert.Equal(t, "MSFT", view.Request.Symbol)
	assert.Equal(t, "USD", view.Request.Currency)
	assert.Equal(t, models.Native, view.Mode)
	assert.Equal(t, 1.0, view.Rate)
	assert.Equal(t, 1, md.histCalls["MSFT"])
}

type recordStore struct {
	mu     sync.Mutex
	stored map[string]int
}

func (r *recordStore) StoreBars(_ context.Context, symbol string, bars models.Series) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stored[symbol] += len(bars)
	return nil
}
func (r *recordStore) Health(context.Context) error { return nil }
func (r *recordStore) Close() error                 { return nil }

func TestPrefetcher_RunOnce(t *testing.T) {
	md := newFakeMarket()
	store := &recordStore{stored: map[string]int{}}
	lock := cache.NewMemoryCache()
	defer lock.Close()

	p := NewPrefetcher(md, store, lock, PrefetchConfig{
		Schedule:  "@every 1h",
		Lookback:  domrepo.LB1y,
		Watchlist: []string{"aapl", " ", "MSFT"},
	}, nil)

	report, err := p.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Fetched)
	assert.Equal(t, 2, report.Archived)
	assert.Empty(t, report.Failed)
	assert.Equal(t, 3, store.stored["AAPL"])
	assert.Equal(t, len(domrepo.Lookbacks()), md.histCalls["MSFT"])

	// lock released after the run
	ok, err := lock.TryLock(context.Background(), prefetchLockKey, time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPrefetcher_KeepsEveryLookbackWarm(t *testing.T) {
	ctx := context.Background()
	md := newFakeMarket()
	mem := cache.NewMemoryCache()
	defer mem.Close()
	cached := internalrepo.NewCachedMarketData(md, mem, internalrepo.TTLs{History: time.Hour, Quote: time.Hour, FX: time.Hour}, nil)

	_, err := cached.History(ctx, "AAPL", domrepo.LB1mo)
	require.NoError(t, err)

	p := NewPrefetcher(cached, nil, mem, PrefetchConfig{Lookback: domrepo.LB1y, Watchlist: []string{"AAPL"}}, nil)
	report, err := p.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Fetched)

	for _, lb := range domrepo.Lookbacks() {
		ok, err := mem.Exists(ctx, cache.GenerateKeyWithParams("history", "AAPL", lb))
		require.NoError(t, err)
		assert.True(t, ok, "history %s not cached after prefetch", lb)
	}

	// dashboard reads after the run are served from the cache
	calls := md.histCalls["AAPL"]
	_, err = cached.History(ctx, "AAPL", domrepo.LB1mo)
	require.NoError(t, err)
	assert.Equal(t, calls, md.histCalls["AAPL"])
}

func TestPrefetcher_SkipsWhenLocked(t *testing.T) {
	lock := cache.NewMemoryCache()
	defer lock.Close()
	ok, err := lock.TryLock(context.Background(), prefetchLockKey, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	md := newFakeMarket()
	p := NewPrefetcher(md, nil, lock, PrefetchConfig{Watchlist: []string{"AAPL"}}, nil)
	report, err := p.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Skipped)
	assert.Zero(t, md.histCalls["AAPL"])
}

func TestPrefetcher_RecordsFailures(t *testing.T) {
	md := newFakeMarket()
	md.histErr = errors.New("upstream")
	p := NewPrefetcher(md, nil, nil, PrefetchConfig{Watchlist: []string{"AAPL"}}, nil)

	report, err := p.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL"}, report.Failed)
}

func TestPrefetcher_StartStop(t *testing.T) {
	p := NewPrefetcher(newFakeMarket(), nil, nil, PrefetchConfig{Schedule: "not a schedule"}, nil)
	require.Error(t, p.Start())

	p = NewPrefetcher(newFakeMarket(), nil, nil, PrefetchConfig{Schedule: "@every 1h", Watchlist: []string{"AAPL"}, RunOnStart: true}, nil)
	require.NoError(t, p.Start())
	p.Stop()
}
