package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Symbol   string `query:"symbol" validate:"required,max=5"`
	Style    string `query:"chart" default:"line" validate:"oneof=line candlestick"`
	Currency string `query:"currency" default:"USD" validate:"len=3,alpha"`
}

func bindQuery(t *testing.T, query string, req interface{}) interface{} {
	t.Helper()
	e := echo.New()
	r := httptest.NewRequest(http.MethodGet, "/?"+query, nil)
	c := e.NewContext(r, httptest.NewRecorder())
	return ReadAndValidateRequest(c, req)
}

func TestReadAndValidateRequest_AppliesDefaults(t *testing.T) {
	req := &sampleRequest{}
	require.Nil(t, bindQuery(t, "symbol=AAPL", req))
	assert.Equal(t, "AAPL", req.Symbol)
	assert.Equal(t, "line", req.Style)
	assert.Equal(t, "USD", req.Currency)
}

func TestReadAndValidateRequest_ReportsFields(t *testing.T) {
	req := &sampleRequest{}
	verr := bindQuery(t, "chart=pie&currency=K1W", req)
	require.NotNil(t, verr)

	errs, ok := verr.([]ValidationError)
	require.True(t, ok)

	byField := map[string]ValidationError{}
	for _, e := range errs {
		byField[e.Field] = e
	}
	assert.Equal(t, "ERR_REQUIRED", byField["symbol"].Code)
	assert.Equal(t, "ERR_ONEOF", byField["chart"].Code)
	assert.Equal(t, "chart must be one of: line, candlestick", byField["chart"].Message)
	assert.Equal(t, "ERR_ALPHA", byField["currency"].Code)
}
