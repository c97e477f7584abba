package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockDash/internal/domain/models"
	domrepo "StockDash/internal/domain/repository"
	"StockDash/pkg/cache"
)

type stubSource struct {
	historyCalls int
	fxCalls      int
	err          error
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) History(_ context.Context, symbol string, _ domrepo.Lookback) (models.Series, error) {
	s.historyCalls++
	if s.err != nil {
		return nil, s.err
	}
	return models.Series{
		{Time: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Close: 100, Volume: 10},
		{Time: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), Close: 101, Volume: 11},
	}, nil
}

func (s *stubSource) Quote(_ context.Context, symbol string) (models.Quote, error) {
	return models.Quote{Symbol: symbol, Price: 101}, nil
}

func (s *stubSource) FXRate(context.Context, string, string) (float64, error) {
	s.fxCalls++
	return 1300, nil
}

type fetchRecord struct {
	source, kind string
	err          error
}

type stubMetrics struct{ fetches []fetchRecord }

func (m *stubMetrics) RecordFetch(source, kind string, err error) {
	m.fetches = append(m.fetches, fetchRecord{source, kind, err})
}
func (m *stubMetrics) RecordError(string)              {}
func (m *stubMetrics) RecordLastPrice(string, float64) {}
func (m *stubMetrics) RecordLatency(string, float64)   {}
func (m *stubMetrics) RecordRender(string, string)     {}

func newCached(src *stubSource, m *stubMetrics) (*CachedMarketData, *cache.MemoryCache) {
	mem := cache.NewMemoryCache()
	return NewCachedMarketData(src, mem, TTLs{History: time.Minute, Quote: time.Minute, FX: time.Minute}, m), mem
}

func TestCachedMarketData_HistoryHitsCache(t *testing.T) {
	src := &stubSource{}
	m := &stubMetrics{}
	c, mem := newCached(src, m)
	defer mem.Close()
	ctx := context.Background()

	first, err := c.History(ctx, "aapl", domrepo.LB1mo)
	require.NoError(t, err)
	second, err := c.History(ctx, "AAPL", domrepo.LB1mo)
	require.NoError(t, err)

	assert.Equal(t, 1, src.historyCalls)
	require.Len(t, second, 2)
	assert.True(t, first[1].Time.Equal(second[1].Time))
	assert.Equal(t, first[1].Close, second[1].Close)

	require.Len(t, m.fetches, 2)
	assert.Equal(t, "stub", m.fetches[0].source)
	assert.Equal(t, "cache", m.fetches[1].source)
}

func TestCachedMarketData_ErrorsNotCached(t *testing.T) {
	src := &stubSource{err: errors.New("upstream")}
	c, mem := newCached(src, &stubMetrics{})
	defer mem.Close()

	_, err := c.History(context.Background(), "AAPL", domrepo.LB1mo)
	require.Error(t, err)
	_, err = c.History(context.Background(), "AAPL", domrepo.LB1mo)
	require.Error(t, err)
	assert.Equal(t, 2, src.historyCalls)
}

func TestCachedMarketData_FXAndInvalidate(t *testing.T) {
	src := &stubSource{}
	c, mem := newCached(src, &stubMetrics{})
	defer mem.Close()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		r, err := c.FXRate(ctx, "USD", "KRW")
		require.NoError(t, err)
		assert.Equal(t, 1300.0, r)
	}
	assert.Equal(t, 1, src.fxCalls)

	_, err := c.History(ctx, "AAPL", domrepo.LB3mo)
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(ctx, "aapl"))
	_, err = c.History(ctx, "AAPL", domrepo.LB3mo)
	require.NoError(t, err)
	assert.Equal(t, 2, src.historyCalls)
}

type recordingExec struct {
	queries   []string
	args      [][]interface{}
	deadlines []bool
}

func (r *recordingExec) ExecContext(ctx context.Context, q string, args ...interface{}) (sql.Result, error) {
	r.queries = append(r.queries, q)
	r.args = append(r.args, args)
	_, ok := ctx.Deadline()
	r.deadlines = append(r.deadlines, ok)
	return nil, nil
}

func TestClickHouseBarStore_StoreBarsChunks(t *testing.T) {
	rec := &recordingExec{}
	s := &ClickHouseBarStore{db: rec, table: "stockdash.daily_bars", source: "yahoo"}

	bars := make(models.Series, insertChunk+3)
	base := time.Date(2023, 1, 1, 14, 30, 0, 0, time.UTC)
	for i := range bars {
		bars[i] = models.Bar{Time: base.AddDate(0, 0, i), Close: float64(i + 1)}
	}

	require.NoError(t, s.StoreBars(context.Background(), "AAPL", bars))
	require.Len(t, rec.queries, 2)
	assert.True(t, strings.HasPrefix(rec.queries[0], "INSERT INTO stockdash.daily_bars (day, symbol,"))
	assert.Len(t, rec.args[0], insertChunk*8)
	assert.Len(t, rec.args[1], 3*8)

	// day is truncated to midnight
	assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), rec.args[0][0])
	assert.Equal(t, "AAPL", rec.args[0][1])
	assert.Equal(t, "yahoo", rec.args[0][7])
}

func TestClickHouseBarStore_WriteTimeout(t *testing.T) {
	bars := models.Series{{Time: time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC), Close: 1}}

	rec := &recordingExec{}
	s := &ClickHouseBarStore{db: rec, table: "stockdash.daily_bars", source: "yahoo", writeTimeout: time.Second}
	require.NoError(t, s.StoreBars(context.Background(), "AAPL", bars))
	assert.Equal(t, []bool{true}, rec.deadlines)

	rec = &recordingExec{}
	s = &ClickHouseBarStore{db: rec, table: "stockdash.daily_bars", source: "yahoo"}
	require.NoError(t, s.StoreBars(context.Background(), "AAPL", bars))
	assert.Equal(t, []bool{false}, rec.deadlines)
}

func TestBarSchema(t *testing.T) {
	stmts := BarSchema("stockdash")
	require.Len(t, stmts, 2)
	assert.Contains(t, stmts[1], "stockdash.daily_bars")
	assert.Contains(t, stmts[1], "ReplacingMergeTree")
}
