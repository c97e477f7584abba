package repository

import (
	"context"

	"StockDash/internal/domain/models"
)

// MarketData is the fetch side of the dashboard.
type MarketData interface {
	History(ctx context.Context, symbol string, lb Lookback) (models.Series, error)
	Quote(ctx context.Context, symbol string) (models.Quote, error)
	// FXRate returns how many units of quote one unit of base buys.
	FXRate(ctx context.Context, base, quote string) (float64, error)
	Name() string
}

type SnapshotPublisher interface {
	Publish(ctx context.Context, s *models.Snapshot) error
	Close() error
}

type BarStore interface {
	StoreBars(ctx context.Context, symbol string, bars models.Series) error
	Health(ctx context.Context) error
	Close() error
}

type Metrics interface {
	RecordFetch(source, kind string, err error)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
	RecordRender(style, mode string)
}
