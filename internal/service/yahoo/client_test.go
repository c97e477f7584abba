package yahoo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockDash/internal/domain/repository"
	"StockDash/internal/service/ratelimit"
	xhttp "StockDash/pkg/http"
)

const aaplChart = `{"chart":{"result":[{
	"meta":{"currency":"USD","symbol":"AAPL","regularMarketPrice":190.5,"regularMarketTime":1700300000,"gmtoffset":-18000,"timezone":"EST"},
	"timestamp":[1700231400,1700058600,1700145000,1700145000],
	"indicators":{"quote":[{
		"open":[189.0,185.0,null,187.0],
		"high":[191.0,186.0,null,188.5],
		"low":[188.0,184.0,null,186.0],
		"close":[190.0,185.5,null,188.0],
		"volume":[5000,3000,null,4000]
	}]}
}],"error":null}}`

const notFound = `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(xhttp.NewClient(xhttp.WithTimeout(time.Second)), srv.URL, opts...)
}

func TestClient_History(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/AAPL", r.URL.Path)
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		assert.Equal(t, "3mo", r.URL.Query().Get("range"))
		_, _ = w.Write([]byte(aaplChart))
	})

	bars, err := c.History(context.Background(), "AAPL", repository.LB3mo)
	require.NoError(t, err)

	// null close dropped, out-of-order sorted, duplicate timestamp collapsed
	require.Len(t, bars, 3)
	for i := 1; i < len(bars); i++ {
		assert.True(t, bars[i-1].Time.Before(bars[i].Time))
	}
	assert.Equal(t, 185.5, bars[0].Close)
	assert.Equal(t, 188.0, bars[1].Close)
	assert.Equal(t, 4000.0, bars[1].Volume)
	assert.Equal(t, 190.0, bars[2].Close)
	assert.Equal(t, "2023-11-17", bars[2].Time.Format("2006-01-02"))
}

func TestClient_HistoryInvalidLookback(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})
	_, err := c.History(context.Background(), "AAPL", repository.Lookback("5y"))
	require.Error(t, err)
}

func TestClient_SymbolMapping(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/^GSPC", r.URL.Path)
		_, _ = w.Write([]byte(aaplChart))
	})
	_, err := c.History(context.Background(), "spx", repository.LB1mo)
	require.NoError(t, err)
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"unknown symbol 404", http.StatusNotFound, notFound, ErrSymbolNotFound},
		{"empty result", http.StatusOK, `{"chart":{"result":[],"error":null}}`, ErrSymbolNotFound},
		{"server error", http.StatusInternalServerError, `oops`, ErrUpstream},
		{"throttled", http.StatusTooManyRequests, ``, ErrRateLimited},
		{"bad json", http.StatusOK, `{`, ErrUpstream},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := c.History(context.Background(), "NOPE", repository.LB1mo)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestClient_Quote(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1d", r.URL.Query().Get("range"))
		_, _ = w.Write([]byte(aaplChart))
	})
	q, err := c.Quote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 190.0, q.Price)
	assert.Equal(t, "USD", q.Currency)
}

func TestClient_QuoteFallsBackToMeta(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"chart":{"result":[{"meta":{"currency":"USD","regularMarketPrice":12.5,"regularMarketTime":1700300000},"timestamp":[],"indicators":{"quote":[{}]}}]}}`))
	})
	q, err := c.Quote(context.Background(), "X")
	require.NoError(t, err)
	assert.Equal(t, 12.5, q.Price)
}

func TestClient_FXRate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/USDKRW=X"), r.URL.Path)
		_, _ = w.Write([]byte(`{"chart":{"result":[{"meta":{"currency":"KRW"},"timestamp":[1700231400],"indicators":{"quote":[{"close":[1300.0]}]}}]}}`))
	})

	rate, err := c.FXRate(context.Background(), "usd", "krw")
	require.NoError(t, err)
	assert.Equal(t, 1300.0, rate)

	same, err := c.FXRate(context.Background(), "USD", "USD")
	require.NoError(t, err)
	assert.Equal(t, 1.0, same)
}

func TestClient_FXRateRejectsNonPositive(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"chart":{"result":[{"meta":{},"timestamp":[1700231400],"indicators":{"quote":[{"close":[0]}]}}]}}`))
	})
	_, err := c.FXRate(context.Background(), "USD", "KRW")
	assert.ErrorIs(t, err, ErrInvalidQuote)
}

func TestClient_RateLimited(t *testing.T) {
	var calls int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(aaplChart))
	}, WithRateLimit(ratelimit.New(), 1, 0))

	_, err := c.Quote(context.Background(), "AAPL")
	require.NoError(t, err)
	_, err = c.Quote(context.Background(), "AAPL")
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, 1, calls)
}
