package models

import "time"

// Summary holds the statistics derived from one display series and a
// current price. It is rebuilt on every request.
type Summary struct {
	MinClose         float64   `json:"min_close"`
	MinCloseDate     time.Time `json:"min_close_date"`
	MinCloseVolume   float64   `json:"min_close_volume"`
	MaxClose         float64   `json:"max_close"`
	MaxCloseDate     time.Time `json:"max_close_date"`
	MaxCloseVolume   float64   `json:"max_close_volume"`
	CurrentPrice     float64   `json:"current_price"`
	PctChangeFromMin float64   `json:"pct_change_from_min"`
	PctChangeFromMax float64   `json:"pct_change_from_max"`
}

// Snapshot is the event published after a dashboard is rendered.
type Snapshot struct {
	ID          string       `json:"id"`
	Symbol      string       `json:"symbol"`
	Lookback    string       `json:"lookback"`
	Currency    string       `json:"currency"`
	Mode        CurrencyMode `json:"currency_mode"`
	Rate        float64      `json:"rate"`
	Points      int          `json:"points"`
	Summary     Summary      `json:"summary"`
	GeneratedAt time.Time    `json:"generated_at"`
}
