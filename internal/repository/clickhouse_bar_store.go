package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"StockDash/internal/domain/models"
	domrepo "StockDash/internal/domain/repository"
	pkgch "StockDash/pkg/clickhouse"
	applogger "StockDash/pkg/logger"
)

const barsTable = "daily_bars"

// BarSchema returns the DDL for the daily bar archive. ReplacingMergeTree
// collapses re-fetched days to the latest row.
func BarSchema(database string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
            day       Date,
            symbol    LowCardinality(String),
            open      Float64,
            high      Float64,
            low       Float64,
            close     Float64,
            volume    Float64,
            source    LowCardinality(String),
            ingested  DateTime DEFAULT now()
        ) ENGINE = ReplacingMergeTree(ingested)
        ORDER BY (symbol, day)`, database, barsTable),
	}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// ClickHouseBarStore archives fetched daily bars.
type ClickHouseBarStore struct {
	ch           *pkgch.Client
	db           execer
	table        string
	source       string
	writeTimeout time.Duration
	l            *applogger.Logger
}

var _ domrepo.BarStore = (*ClickHouseBarStore)(nil)

// NewClickHouseBarStore creates a store. A positive writeTimeout bounds
// each insert chunk.
func NewClickHouseBarStore(ch *pkgch.Client, database, source string, writeTimeout time.Duration, l *applogger.Logger) *ClickHouseBarStore {
	return &ClickHouseBarStore{
		ch:           ch,
		db:           ch.DB(),
		table:        database + "." + barsTable,
		source:       source,
		writeTimeout: writeTimeout,
		l:            l,
	}
}

const insertChunk = 500

// StoreBars inserts bars in multi-row VALUES chunks.
func (s *ClickHouseBarStore) StoreBars(ctx context.Context, symbol string, bars models.Series) error {
	start := time.Now()
	for lo := 0; lo < len(bars); lo += insertChunk {
		hi := lo + insertChunk
		if hi > len(bars) {
			hi = len(bars)
		}
		q, args := s.insertQuery(symbol, bars[lo:hi])
		if err := s.exec(ctx, q, args); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse store_bars error",
					applogger.String("table", s.table),
					applogger.String("symbol", symbol),
					applogger.Error(err),
				)
			}
			return fmt.Errorf("store bars %s: %w", symbol, err)
		}
	}
	if s.l != nil {
		s.l.Debug("clickhouse store_bars ok",
			applogger.String("symbol", symbol),
			applogger.Int("rows", len(bars)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

func (s *ClickHouseBarStore) exec(ctx context.Context, q string, args []interface{}) error {
	if s.writeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.writeTimeout)
		defer cancel()
	}
	_, err := s.db.ExecContext(ctx, q, args...)
	return err
}

func (s *ClickHouseBarStore) insertQuery(symbol string, bars models.Series) (string, []interface{}) {
	values := make([]string, 0, len(bars))
	args := make([]interface{}, 0, len(bars)*8)
	for _, b := range bars {
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?)")
		day := time.Date(b.Time.Year(), b.Time.Month(), b.Time.Day(), 0, 0, 0, 0, time.UTC)
		args = append(args, day, symbol, b.Open, b.High, b.Low, b.Close, b.Volume, s.source)
	}
	q := fmt.Sprintf("INSERT INTO %s (day, symbol, open, high, low, close, volume, source) VALUES %s",
		s.table, strings.Join(values, ","))
	return q, args
}

func (s *ClickHouseBarStore) Health(ctx context.Context) error {
	return s.ch.Health(ctx)
}

func (s *ClickHouseBarStore) Close() error {
	return s.ch.Close()
}
