// Package yahoo reads daily price history, latest quotes and FX rates from
// the Yahoo Finance chart API.
package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"StockDash/internal/domain/models"
	"StockDash/internal/domain/repository"
	"StockDash/internal/service/ratelimit"
	xhttp "StockDash/pkg/http"
)

var (
	ErrSymbolNotFound = errors.New("yahoo: symbol not found")
	ErrNoData         = errors.New("yahoo: no data returned")
	ErrRateLimited    = errors.New("yahoo: rate limited")
	ErrUpstream       = errors.New("yahoo: upstream error")
	ErrInvalidQuote   = errors.New("yahoo: invalid quote")
)

// Client implements repository.MarketData.
type Client struct {
	http      *xhttp.Client
	baseURL   string
	symbolMap map[string]string

	limiter  *ratelimit.Limiter
	capacity float64
	refill   float64
}

type Option func(*Client)

// WithSymbolMap maps dashboard symbols to Yahoo tickers (e.g. SPX -> ^GSPC).
func WithSymbolMap(m map[string]string) Option {
	return func(c *Client) {
		for k, v := range m {
			c.symbolMap[strings.ToUpper(k)] = v
		}
	}
}

// WithRateLimit caps outgoing requests with a token bucket.
func WithRateLimit(l *ratelimit.Limiter, capacity, refillPerSec float64) Option {
	return func(c *Client) {
		c.limiter = l
		c.capacity = capacity
		c.refill = refillPerSec
	}
}

// New creates a Yahoo chart API client.
func New(httpClient *xhttp.Client, baseURL string, opts ...Option) *Client {
	c := &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		symbolMap: map[string]string{
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
			"SPX500": "^GSPC",
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ repository.MarketData = (*Client)(nil)

func (c *Client) Name() string { return "yahoo" }

func (c *Client) yahooSymbol(symbol string) string {
	if mapped, ok := c.symbolMap[strings.ToUpper(symbol)]; ok {
		return mapped
	}
	return symbol
}

// chartResponse is the response structure from the chart API. Missing
// values (holidays, halted sessions) arrive as null.
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Currency           string  `json:"currency"`
		Symbol             string  `json:"symbol"`
		RegularMarketPrice float64 `json:"regularMarketPrice"`
		RegularMarketTime  int64   `json:"regularMarketTime"`
		GMTOffset          int     `json:"gmtoffset"`
		Timezone           string  `json:"timezone"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

func (r *chartResult) location() *time.Location {
	if r.Meta.Timezone == "" && r.Meta.GMTOffset == 0 {
		return time.UTC
	}
	return time.FixedZone(r.Meta.Timezone, r.Meta.GMTOffset)
}

func (c *Client) fetchChart(ctx context.Context, symbol, rng string) (*chartResult, error) {
	if c.limiter != nil && !c.limiter.Allow("yahoo", c.capacity, c.refill) {
		return nil, ErrRateLimited
	}

	u := fmt.Sprintf("%s/v8/finance/chart/%s", c.baseURL, url.PathEscape(c.yahooSymbol(symbol)))

	var chart chartResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    u,
		QueryParams: map[string][]string{
			"interval": {"1d"},
			"range":    {rng},
		},
	}, &chart)

	var se *xhttp.StatusError
	if errors.As(err, &se) {
		if se.StatusCode == http.StatusTooManyRequests {
			return nil, ErrRateLimited
		}
		// the API reports unknown symbols as 404 with a JSON error body
		if jerr := json.Unmarshal(se.Body, &chart); jerr != nil || chart.Chart.Error == nil {
			return nil, fmt.Errorf("%w: status %d", ErrUpstream, se.StatusCode)
		}
	} else if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	if e := chart.Chart.Error; e != nil {
		if strings.EqualFold(e.Code, "Not Found") {
			return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
		}
		return nil, fmt.Errorf("%w: %s", ErrUpstream, e.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}
	return &chart.Chart.Result[0], nil
}

func value(vs []*float64, i int) float64 {
	if i >= len(vs) || vs[i] == nil {
		return 0
	}
	return *vs[i]
}

// bars converts a chart result to a chronological series with unique
// timestamps. Sessions without a close are dropped.
func (r *chartResult) bars() models.Series {
	if len(r.Indicators.Quote) == 0 {
		return nil
	}
	q := r.Indicators.Quote[0]
	loc := r.location()

	out := make(models.Series, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		if i >= len(q.Close) || q.Close[i] == nil {
			continue
		}
		out = append(out, models.Bar{
			Time:   time.Unix(ts, 0).In(loc),
			Open:   value(q.Open, i),
			High:   value(q.High, i),
			Low:    value(q.Low, i),
			Close:  *q.Close[i],
			Volume: value(q.Volume, i),
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })

	// keep the most recent copy of a repeated timestamp
	uniq := out[:0]
	for _, b := range out {
		if n := len(uniq); n > 0 && uniq[n-1].Time.Equal(b.Time) {
			uniq[n-1] = b
			continue
		}
		uniq = append(uniq, b)
	}
	return uniq
}

// History returns daily bars for the lookback window.
func (c *Client) History(ctx context.Context, symbol string, lb repository.Lookback) (models.Series, error) {
	if !repository.IsValidLookback(lb) {
		return nil, fmt.Errorf("yahoo: unsupported lookback %q", lb)
	}
	res, err := c.fetchChart(ctx, symbol, string(lb))
	if err != nil {
		return nil, err
	}
	return res.bars(), nil
}

// Quote returns the latest daily close, falling back to the meta price.
func (c *Client) Quote(ctx context.Context, symbol string) (models.Quote, error) {
	res, err := c.fetchChart(ctx, symbol, "1d")
	if err != nil {
		return models.Quote{}, err
	}

	q := models.Quote{Symbol: symbol, Currency: res.Meta.Currency}
	if bars := res.bars(); len(bars) > 0 {
		last := bars.Last()
		q.Price, q.Time = last.Close, last.Time
	} else if res.Meta.RegularMarketPrice > 0 {
		q.Price = res.Meta.RegularMarketPrice
		q.Time = time.Unix(res.Meta.RegularMarketTime, 0).In(res.location())
	} else {
		return models.Quote{}, fmt.Errorf("%w: %s", ErrNoData, symbol)
	}
	return q, nil
}

// FXRate returns the price of one unit of base in quote using the
// "{BASE}{QUOTE}=X" pair, e.g. USDKRW=X.
func (c *Client) FXRate(ctx context.Context, base, quote string) (float64, error) {
	base, quote = strings.ToUpper(base), strings.ToUpper(quote)
	if base == quote {
		return 1, nil
	}
	q, err := c.Quote(ctx, base+quote+"=X")
	if err != nil {
		return 0, err
	}
	if q.Price <= 0 || math.IsNaN(q.Price) || math.IsInf(q.Price, 0) {
		return 0, fmt.Errorf("%w: %s%s rate %v", ErrInvalidQuote, base, quote, q.Price)
	}
	return q.Price, nil
}
