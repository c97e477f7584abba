package di

import (
	"context"
	"fmt"
	"time"

	"StockDash/internal/domain/repository"
	"StockDash/internal/handler/api"
	"StockDash/internal/render"
	internalrepo "StockDash/internal/repository"
	"StockDash/internal/service/ratelimit"
	"StockDash/internal/service/yahoo"
	"StockDash/internal/usecase"
	"StockDash/pkg/cache"
	pkgch "StockDash/pkg/clickhouse"
	"StockDash/pkg/config"
	xhttp "StockDash/pkg/http"
	pkgkafka "StockDash/pkg/kafka"
	applogger "StockDash/pkg/logger"
	"StockDash/pkg/metrics"
	"StockDash/pkg/server"

	"github.com/prometheus/client_golang/prometheus"
)

// ProvideLogger creates the application logger from the log section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder on the default registry.
func ProvideMetrics() repository.Metrics {
	return metrics.New(prometheus.DefaultRegisterer)
}

// ProvideCache creates the cache selected by cache.type.
func ProvideCache(cfg *config.Config, l *applogger.Logger) (cache.Service, func(), error) {
	var (
		c   cache.Service
		err error
	)
	switch cfg.Cache.Type {
	case "redis", "layered":
		var rc *cache.RedisCache
		rc, err = cache.NewRedisCache(
			cache.WithRedisHost(cfg.Redis.Host),
			cache.WithRedisPort(cfg.Redis.Port),
			cache.WithRedisPassword(cfg.Redis.Password),
			cache.WithRedisDB(cfg.Redis.DB),
			cache.WithRedisPool(cfg.Redis.PoolSize, 2, 30*time.Second),
			cache.WithRedisPrefix(cfg.Redis.Prefix),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("redis cache: %w", err)
		}
		c = rc
		if cfg.Cache.Type == "layered" {
			c = cache.NewLayeredCache(rc,
				cache.WithLayeredMemorySize(cfg.Cache.MaxSize),
				cache.WithLayeredMemoryTTL(cfg.Cache.QuoteTTL),
			)
		}
	default:
		c = cache.NewMemoryCache(cache.WithMemoryMaxSize(cfg.Cache.MaxSize))
	}

	l.Info("cache ready", applogger.String("type", cfg.Cache.Type))
	cleanup := func() {
		if err := c.Close(); err != nil {
			l.Warn("cache close error", applogger.Error(err))
		}
	}
	return c, cleanup, nil
}

// ProvideHTTPClient creates the outbound client used for market data.
func ProvideHTTPClient(cfg *config.Config) *xhttp.Client {
	return xhttp.NewClient(
		xhttp.WithTimeout(cfg.Yahoo.Timeout),
		xhttp.WithProxy(cfg.Yahoo.Proxy),
		xhttp.WithUserAgent(cfg.Yahoo.UserAgent),
	)
}

// ProvideYahooClient creates the Yahoo chart API client.
func ProvideYahooClient(cfg *config.Config, client *xhttp.Client) *yahoo.Client {
	return yahoo.New(client, cfg.Yahoo.BaseURL,
		yahoo.WithSymbolMap(cfg.Yahoo.SymbolMap),
		yahoo.WithRateLimit(ratelimit.New(), cfg.Yahoo.RateLimit.Capacity, cfg.Yahoo.RateLimit.RefillPerSec),
	)
}

// ProvideMarketData puts the cache in front of the provider.
func ProvideMarketData(src *yahoo.Client, c cache.Service, m repository.Metrics, cfg *config.Config) repository.MarketData {
	return internalrepo.NewCachedMarketData(src, c, internalrepo.TTLs{
		History: cfg.Cache.HistoryTTL,
		Quote:   cfg.Cache.QuoteTTL,
		FX:      cfg.Cache.FXTTL,
	}, m)
}

// ProvideSnapshotPublisher creates the Kafka publisher, or a no-op one
// when kafka is disabled.
func ProvideSnapshotPublisher(cfg *config.Config, l *applogger.Logger) (repository.SnapshotPublisher, func(), error) {
	if !cfg.Kafka.Enabled {
		return internalrepo.NopPublisher{}, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithWriteTimeout(cfg.Kafka.WriteTimeout),
		pkgkafka.WithAsync(cfg.Kafka.Async),
		pkgkafka.WithRegisterer(prometheus.DefaultRegisterer),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	l.Info("kafka publisher ready",
		applogger.Strings("brokers", cfg.Kafka.Brokers),
		applogger.String("topic", cfg.Kafka.Topic),
	)
	pub := internalrepo.NewKafkaSnapshotPublisher(producer, cfg.Kafka.Topic)
	cleanup := func() {
		if err := pub.Close(); err != nil {
			l.Warn("kafka close error", applogger.Error(err))
		}
	}
	return pub, cleanup, nil
}

// ProvideBarStore connects to ClickHouse and ensures the archive schema.
// It returns nil when clickhouse is disabled.
func ProvideBarStore(cfg *config.Config, l *applogger.Logger) (repository.BarStore, func(), error) {
	if !cfg.ClickHouse.Enabled {
		return nil, func() {}, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := pkgch.NewClient(ctx,
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithAsyncInsert(true),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}
	if err := client.InitSchema(ctx, internalrepo.BarSchema(cfg.ClickHouse.Database)); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	l.Info("clickhouse archive ready", applogger.String("database", cfg.ClickHouse.Database))

	store := internalrepo.NewClickHouseBarStore(client, cfg.ClickHouse.Database, "yahoo", cfg.ClickHouse.WriteTimeout, l)
	cleanup := func() {
		if err := store.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	return store, cleanup, nil
}

// ProvideDashboardUseCase creates the dashboard use case.
func ProvideDashboardUseCase(
	md repository.MarketData,
	pub repository.SnapshotPublisher,
	m repository.Metrics,
	cfg *config.Config,
	l *applogger.Logger,
) *usecase.DashboardUseCase {
	return usecase.NewDashboardUseCase(md, pub, m, usecase.DashboardConfig{
		BaseCurrency:  cfg.Dashboard.BaseCurrency,
		DefaultSymbol: cfg.Dashboard.DefaultSymbol,
		Currencies:    cfg.Dashboard.Currencies,
		MinPoints:     cfg.Dashboard.MinPoints,
	}, l)
}

// ProvidePrefetcher creates the watchlist prefetcher, or nil when disabled.
func ProvidePrefetcher(
	md repository.MarketData,
	store repository.BarStore,
	c cache.Service,
	cfg *config.Config,
	l *applogger.Logger,
) *usecase.Prefetcher {
	if !cfg.Prefetch.Enabled {
		return nil
	}
	return usecase.NewPrefetcher(md, store, c, usecase.PrefetchConfig{
		Schedule:   cfg.Prefetch.Schedule,
		Lookback:   repository.Lookback(cfg.Prefetch.Lookback),
		Watchlist:  cfg.Prefetch.Watchlist,
		RunOnStart: cfg.Prefetch.RunOnStart,
	}, l)
}

// ProvideTemplates parses the embedded HTML pages.
func ProvideTemplates() (*render.Templates, error) {
	return render.NewTemplates()
}

// ProvideHTTPHandler groups the dashboard, live feed and health routes.
func ProvideHTTPHandler(
	l *applogger.Logger,
	uc *usecase.DashboardUseCase,
	c cache.Service,
	store repository.BarStore,
	cfg *config.Config,
) xhttp.Handler {
	checks := map[string]api.HealthCheck{
		"cache": func(ctx context.Context) error {
			_, err := c.Exists(ctx, "healthz")
			return err
		},
	}
	if store != nil {
		checks["clickhouse"] = store.Health
	}
	return xhttp.Handlers{
		api.NewDashboardHandler(l, uc, checks),
		api.NewLiveHandler(l, uc, cfg.Live.Interval),
	}
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	tpl *render.Templates,
	prefetcher *usecase.Prefetcher,
) *server.App {
	return server.New(cfg, l, handler, tpl, prefetcher)
}
