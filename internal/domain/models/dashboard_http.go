package models

// Requests for dashboard HTTP endpoints. The same struct carries the
// selection made on the HTML page, the JSON API and the live feed.

type DashboardRequest struct {
	Symbol     string `query:"symbol" json:"symbol" default:"AAPL" validate:"required,max=20,printascii"`
	Lookback   string `query:"lookback" json:"lookback" default:"1mo" validate:"oneof=1mo 3mo 6mo 1y"`
	ChartStyle string `query:"chart" json:"chart_style" default:"line" validate:"oneof=line candlestick"`
	Currency   string `query:"currency" json:"currency" default:"USD" validate:"len=3,alpha"`
}

type FXRequest struct {
	Currency string `query:"currency" json:"currency" validate:"required,len=3,alpha"`
}
