package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig
	HTTP      HTTPConfig
	StockHold StockHoldConfig
	Pricing   PricingConfig
	Cache     CacheConfig
	Janitor   JanitorConfig
	Tax       TaxConfig
	Telemetry TelemetryConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver          string // postgres or sqlite
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	SQLitePath      string // used when driver is sqlite
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
}

// StockHoldConfig holds reservation hold settings
type StockHoldConfig struct {
	HoldDuration      time.Duration // how long a checkout hold lasts
	TerminalRetention time.Duration // how long terminal reservations are kept for audit
}

// PricingConfig holds dynamic pricing settings
type PricingConfig struct {
	ScarcitySurcharge float64
	DemandSurcharge   float64
	DemandThreshold   float64
	FloorMargin       float64
	MaxMultiplier     float64
}

// CacheConfig holds price/listing cache settings
type CacheConfig struct {
	TTL           time.Duration
	LoaderWindow  time.Duration // batching window for product loads
	LoaderBatch   int           // max keys per batch, 0 = unbounded
	PopularityTTL time.Duration
	WarmProducts  []string // product ids whose quotes are precomputed at startup
}

// JanitorConfig holds the background sweep settings
type JanitorConfig struct {
	Enabled  bool
	Interval time.Duration
}

// TaxConfig holds order tax settings
type TaxConfig struct {
	Rate float64 // e.g. 0.15 for 15% VAT
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string // OTEL Collector endpoint (e.g., "localhost:4317")
	ServiceName       string
	Insecure          bool // use insecure (non-TLS) connection (development only)
	ExportInterval    time.Duration
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with AUTOPARTS_ prefix (e.g., AUTOPARTS_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("AUTOPARTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			SQLitePath:      v.GetString("database.sqlite_path"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
		},
		StockHold: StockHoldConfig{
			HoldDuration:      v.GetDuration("stock_hold.hold_duration"),
			TerminalRetention: v.GetDuration("stock_hold.terminal_retention"),
		},
		Pricing: PricingConfig{
			ScarcitySurcharge: v.GetFloat64("pricing.scarcity_surcharge"),
			DemandSurcharge:   v.GetFloat64("pricing.demand_surcharge"),
			DemandThreshold:   v.GetFloat64("pricing.demand_threshold"),
			FloorMargin:       v.GetFloat64("pricing.floor_margin"),
			MaxMultiplier:     v.GetFloat64("pricing.max_multiplier"),
		},
		Cache: CacheConfig{
			TTL:           v.GetDuration("cache.ttl"),
			LoaderWindow:  v.GetDuration("cache.loader_window"),
			LoaderBatch:   v.GetInt("cache.loader_batch"),
			PopularityTTL: v.GetDuration("cache.popularity_ttl"),
			WarmProducts:  v.GetStringSlice("cache.warm_products"),
		},
		Janitor: JanitorConfig{
			Enabled:  v.GetBool("janitor.enabled"),
			Interval: v.GetDuration("janitor.interval"),
		},
		Tax: TaxConfig{
			Rate: v.GetFloat64("tax.rate"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			ExportInterval:    v.GetDuration("telemetry.export_interval"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "autoparts-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "autoparts"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "autoparts.db"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.StockHold.HoldDuration == 0 {
		cfg.StockHold.HoldDuration = 30 * time.Minute
	}
	if cfg.StockHold.TerminalRetention == 0 {
		cfg.StockHold.TerminalRetention = 30 * 24 * time.Hour
	}
	if cfg.Pricing.ScarcitySurcharge == 0 {
		cfg.Pricing.ScarcitySurcharge = 1.15
	}
	if cfg.Pricing.DemandSurcharge == 0 {
		cfg.Pricing.DemandSurcharge = 1.10
	}
	if cfg.Pricing.DemandThreshold == 0 {
		cfg.Pricing.DemandThreshold = 5
	}
	if cfg.Pricing.FloorMargin == 0 {
		cfg.Pricing.FloorMargin = 1.20
	}
	if cfg.Pricing.MaxMultiplier == 0 {
		cfg.Pricing.MaxMultiplier = 1.50
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 5 * time.Minute
	}
	if cfg.Cache.LoaderWindow == 0 {
		cfg.Cache.LoaderWindow = 2 * time.Millisecond
	}
	if cfg.Cache.LoaderBatch == 0 {
		cfg.Cache.LoaderBatch = 100
	}
	if cfg.Cache.PopularityTTL == 0 {
		cfg.Cache.PopularityTTL = 24 * time.Hour
	}
	if cfg.Janitor.Interval == 0 {
		cfg.Janitor.Interval = time.Minute
	}
	if cfg.Tax.Rate == 0 {
		cfg.Tax.Rate = 0.15 // Saudi VAT
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "autoparts-backend"
	}
	if cfg.Telemetry.ExportInterval == 0 {
		cfg.Telemetry.ExportInterval = 15 * time.Second
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.Driver != "postgres" && c.Database.Driver != "sqlite" {
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Tax.Rate < 0 || c.Tax.Rate >= 1 {
		return fmt.Errorf("tax.rate must be in [0, 1), got %f", c.Tax.Rate)
	}
	if c.Pricing.FloorMargin < 1 {
		return fmt.Errorf("pricing.floor_margin must be at least 1, got %f", c.Pricing.FloorMargin)
	}
	if c.Pricing.MaxMultiplier < 1 {
		return fmt.Errorf("pricing.max_multiplier must be at least 1, got %f", c.Pricing.MaxMultiplier)
	}

	if c.App.Env == "production" {
		if c.Database.Driver == "postgres" {
			if c.Database.Password == "" {
				return fmt.Errorf("database.password is required in production")
			}
			if c.Database.SSLMode == "disable" {
				return fmt.Errorf("database.sslmode cannot be 'disable' in production")
			}
		}
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Addr returns the Redis address in host:port form
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
