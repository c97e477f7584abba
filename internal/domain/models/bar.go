package models

import "time"

// Bar is one daily OHLCV record.
type Bar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Series is a chronologically ordered run of bars with unique timestamps.
type Series []Bar

// First returns the oldest bar. The series must be non-empty.
func (s Series) First() Bar { return s[0] }

// Last returns the newest bar. The series must be non-empty.
func (s Series) Last() Bar { return s[len(s)-1] }

// Quote is the latest traded price of a symbol.
type Quote struct {
	Symbol   string    `json:"symbol"`
	Price    float64   `json:"price"`
	Time     time.Time `json:"time"`
	Currency string    `json:"currency,omitempty"`
}
