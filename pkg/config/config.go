package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"

	"StockDash/pkg/util"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"15s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		SlowThreshold   time.Duration `yaml:"slow_threshold" default:"2s"`
		CORSOrigins     []string      `yaml:"cors_origins" default:"[\"*\"]"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Yahoo struct {
		BaseURL   string            `yaml:"base_url" default:"https://query1.finance.yahoo.com"`
		Timeout   time.Duration     `yaml:"timeout" default:"15s"`
		Proxy     string            `yaml:"proxy"`
		UserAgent string            `yaml:"user_agent" default:"Mozilla/5.0"`
		SymbolMap map[string]string `yaml:"symbol_map"`
		RateLimit struct {
			Capacity     float64 `yaml:"capacity" default:"20"`
			RefillPerSec float64 `yaml:"refill_per_sec" default:"5"`
		} `yaml:"rate_limit"`
	} `yaml:"yahoo"`
	Dashboard struct {
		DefaultSymbol string   `yaml:"default_symbol" default:"AAPL"`
		BaseCurrency  string   `yaml:"base_currency" default:"USD"`
		Currencies    []string `yaml:"currencies" default:"[\"USD\",\"KRW\"]"`
		MinPoints     int      `yaml:"min_points" default:"2"`
	} `yaml:"dashboard"`
	Cache struct {
		Type       string        `yaml:"type" default:"memory"`
		MaxSize    int           `yaml:"max_size" default:"1000"`
		HistoryTTL time.Duration `yaml:"history_ttl" default:"15m"`
		QuoteTTL   time.Duration `yaml:"quote_ttl" default:"30s"`
		FXTTL      time.Duration `yaml:"fx_ttl" default:"5m"`
	} `yaml:"cache"`
	Redis struct {
		Host     string `yaml:"host" default:"localhost"`
		Port     int    `yaml:"port" default:"6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		PoolSize int    `yaml:"pool_size" default:"10"`
		Prefix   string `yaml:"prefix" default:"stockdash"`
	} `yaml:"redis"`
	Prefetch struct {
		Enabled    bool     `yaml:"enabled"`
		Schedule   string   `yaml:"schedule" default:"*/15 * * * *"`
		Lookback   string   `yaml:"lookback" default:"1y"`
		Watchlist  []string `yaml:"watchlist"`
		RunOnStart bool     `yaml:"run_on_start"`
	} `yaml:"prefetch"`
	Live struct {
		Interval time.Duration `yaml:"interval" default:"30s"`
	} `yaml:"live"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic" default:"stockdash.snapshots"`
		RequiredAcks int           `yaml:"required_acks" default:"-1"`
		Compression  string        `yaml:"compression" default:"gzip"`
		MaxAttempts  int           `yaml:"max_attempts" default:"3"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		Async        bool          `yaml:"async"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled      bool          `yaml:"enabled"`
		Host         string        `yaml:"host"`
		Port         int           `yaml:"port" default:"9000"`
		Database     string        `yaml:"database" default:"stockdash"`
		User         string        `yaml:"user" default:"default"`
		Password     string        `yaml:"password"`
		UseHTTP      bool          `yaml:"use_http"`
		DialTimeout  time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
	} `yaml:"clickhouse"`
}

// Default returns a config populated only from struct defaults.
func Default() *Config {
	var c Config
	_ = defaults.Set(&c)
	return &c
}

// Load reads and parses a YAML configuration file on top of the defaults.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	c := Default()

	b, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(b) > 0 {
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("STOCKDASH_ENV"); v != "" {
		c.Environment = v
	}
	c.Server.Port = util.ParseIntDefault(os.Getenv("HTTP_PORT"), c.Server.Port)
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("YAHOO_BASE_URL"); v != "" {
		c.Yahoo.BaseURL = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Yahoo.Proxy = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		host, port, _ := strings.Cut(v, ":")
		c.Redis.Host = host
		c.Redis.Port = util.ParseIntDefault(port, c.Redis.Port)
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = util.SplitList(v)
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("WATCHLIST"); v != "" {
		c.Prefetch.Watchlist = util.SplitList(v)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Yahoo.BaseURL == "" {
		return fmt.Errorf("yahoo.base_url is required")
	}
	if len(c.Dashboard.BaseCurrency) != 3 {
		return fmt.Errorf("dashboard.base_currency must be a 3-letter code, got '%s'", c.Dashboard.BaseCurrency)
	}
	if c.Dashboard.MinPoints < 1 {
		return fmt.Errorf("dashboard.min_points must be at least 1")
	}
	switch c.Cache.Type {
	case "memory", "redis", "layered":
	default:
		return fmt.Errorf("cache.type must be 'memory', 'redis' or 'layered', got '%s'", c.Cache.Type)
	}
	if c.Live.Interval <= 0 {
		return fmt.Errorf("live.interval must be positive")
	}
	if c.Prefetch.Enabled {
		if len(c.Prefetch.Watchlist) == 0 {
			return fmt.Errorf("prefetch.watchlist cannot be empty when prefetch is enabled")
		}
		switch c.Prefetch.Lookback {
		case "1mo", "3mo", "6mo", "1y":
		default:
			return fmt.Errorf("prefetch.lookback must be one of 1mo, 3mo, 6mo, 1y, got '%s'", c.Prefetch.Lookback)
		}
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.ClickHouse.Enabled && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required when clickhouse is enabled")
	}
	return nil
}
