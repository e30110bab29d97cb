package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/lukman83/storefront/internal/pricing"
	"github.com/lukman83/storefront/internal/reorder"
)

// EnvPrefix prefixes every environment variable the storefront reads.
const EnvPrefix = "STOREFRONT_"

// Config holds all application configuration.
type Config struct {
	// Logging
	LogLevel  string `env:"LOG_LEVEL"`
	LogFormat string `env:"LOG_FORMAT"` // "json", "text"

	// Durable store
	Store         string `env:"STORE"` // "leveldb", "redis", "memory"
	StateDir      string `env:"STATE_DIR"`
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB"`

	// Catalog service
	APIBase        string        `env:"API_BASE"`
	PageURL        string        `env:"PAGE_URL"`
	Proxy          string        `env:"PROXY"`
	RatePerSecond  float64       `env:"RATE_PER_SECOND"`
	RateBurst      int           `env:"RATE_BURST"`
	MaxRetries     int           `env:"MAX_RETRIES"`
	MaxConcurrent  int           `env:"MAX_CONCURRENT"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`

	// Catalog loading
	BundledCatalog string        `env:"BUNDLED_CATALOG"`
	CatalogGrace   time.Duration `env:"CATALOG_GRACE"`
	CatalogTTL     time.Duration `env:"CATALOG_TTL"`

	// HTTP server
	HTTPPort string `env:"HTTP_PORT"`
	APIKey   string `env:"API_KEY"`

	// TuningFile is an optional YAML file with pricing and reorder settings.
	TuningFile string `env:"CONFIG"`

	Pricing pricing.Config
	Reorder reorder.Config
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:       "warn",
		LogFormat:      "json",
		Store:          "leveldb",
		StateDir:       defaultStateDir(),
		RedisAddr:      "localhost:6379",
		RatePerSecond:  5,
		RateBurst:      5,
		MaxRetries:     2,
		MaxConcurrent:  4,
		RequestTimeout: 10 * time.Second,
		CatalogGrace:   350 * time.Millisecond,
		CatalogTTL:     10 * time.Minute,
		HTTPPort:       "8080",
		Pricing:        pricing.DefaultConfig(),
		Reorder:        reorder.DefaultConfig(),
	}
}

func defaultStateDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "storefront")
	}
	return ".storefront"
}

// LoadFromEnv loads .env file (if present) then overrides config from
// STOREFRONT_* environment variables. Unset variables keep their value.
func (c *Config) LoadFromEnv() error {
	// Auto-load .env file; silently ignored if missing
	_ = godotenv.Load()

	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	return nil
}

type tuningCurrencies struct {
	Primary   pricing.Currency `mapstructure:"primary"`
	Secondary pricing.Currency `mapstructure:"secondary"`
	Rate      string           `mapstructure:"rate"`
}

type tuningCatalog struct {
	Grace time.Duration `mapstructure:"grace"`
	TTL   time.Duration `mapstructure:"ttl"`
}

type tuning struct {
	Currencies tuningCurrencies          `mapstructure:"currencies"`
	Tiers      map[string][]pricing.Tier `mapstructure:"tiers"`
	Reorder    reorder.Config            `mapstructure:"reorder"`
	Catalog    tuningCatalog             `mapstructure:"catalog"`
}

// LoadTuning overlays the YAML tuning file at path. Keys missing from the
// file keep their current value; a tiers section replaces the whole table.
func (c *Config) LoadTuning(path string) error {
	if path == "" {
		return nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read tuning file: %w", err)
	}

	t := tuning{
		Currencies: tuningCurrencies{
			Primary:   c.Pricing.Primary,
			Secondary: c.Pricing.Secondary,
			Rate:      c.Pricing.DefaultRate,
		},
		Reorder: c.Reorder,
		Catalog: tuningCatalog{Grace: c.CatalogGrace, TTL: c.CatalogTTL},
	}
	if err := v.UnmarshalExact(&t); err != nil {
		return fmt.Errorf("decode tuning file %s: %w", path, err)
	}

	c.Pricing.Primary = t.Currencies.Primary
	c.Pricing.Secondary = t.Currencies.Secondary
	c.Pricing.DefaultRate = t.Currencies.Rate
	if len(t.Tiers) > 0 {
		c.Pricing.Tiers = t.Tiers
	}
	c.Reorder = t.Reorder
	c.CatalogGrace = t.Catalog.Grace
	c.CatalogTTL = t.Catalog.TTL
	return nil
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	var errs []error
	switch c.Store {
	case "leveldb", "redis", "memory":
	default:
		errs = append(errs, fmt.Errorf("unknown store %q", c.Store))
	}
	if c.Store == "leveldb" && c.StateDir == "" {
		errs = append(errs, errors.New("leveldb store needs a state directory"))
	}
	if c.RatePerSecond <= 0 || c.RateBurst < 1 {
		errs = append(errs, fmt.Errorf("invalid rate limit %.2f/s burst %d", c.RatePerSecond, c.RateBurst))
	}
	if c.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("max retries must not be negative: %d", c.MaxRetries))
	}
	if c.MaxConcurrent < 1 {
		errs = append(errs, fmt.Errorf("max concurrent must be at least 1: %d", c.MaxConcurrent))
	}
	if c.CatalogGrace <= 0 || c.CatalogTTL <= 0 {
		errs = append(errs, errors.New("catalog grace and ttl must be positive"))
	}

	p := c.Pricing
	if p.Primary.Code == "" || p.Secondary.Code == "" || p.Primary.Code == p.Secondary.Code {
		errs = append(errs, fmt.Errorf("need two distinct currencies, got %q and %q", p.Primary.Code, p.Secondary.Code))
	}
	if p.DefaultRate != "" {
		if _, err := pricing.ParseRate(p.DefaultRate); err != nil {
			errs = append(errs, fmt.Errorf("invalid exchange rate %q: %w", p.DefaultRate, err))
		}
	}
	for cat, bands := range p.Tiers {
		for _, b := range bands {
			if b.MinQty < 1 || b.UnitCents < 0 {
				errs = append(errs, fmt.Errorf("tier %q: invalid band %+v", cat, b))
			}
		}
	}

	r := c.Reorder
	if r.MinOrders < 2 || r.MaxResults < 1 || r.MinCadenceDays < 0 {
		errs = append(errs, fmt.Errorf("invalid reorder thresholds %+v", r))
	}
	if r.WindowLow <= 0 || r.WindowLow >= r.WindowHigh {
		errs = append(errs, fmt.Errorf("reorder window [%g, %g] is empty", r.WindowLow, r.WindowHigh))
	}
	return errors.Join(errs...)
}
