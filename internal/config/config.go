// Package config loads the service configuration from a YAML file with
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"time"
)

const (
	defaultServerPort      = 8060
	defaultServerTimeout   = 30
	defaultDatabasePort    = 5432
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 5
	defaultConnMaxLifetime = 5
	defaultRedisAddress    = "localhost:6379"
	defaultCacheTTL        = 300
	defaultMaxRetries      = 3
	defaultRefreshSpec     = "*/5 * * * *"
)

type Config struct {
	Debug     bool            `env:"APP_DEBUG" yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Cache     CacheConfig     `yaml:"cache"`
	Upstream  UpstreamConfig  `yaml:"upstream"`
	Providers ProvidersConfig `yaml:"providers"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

type ServerConfig struct {
	Host         string        `env:"SERVER_HOST"  yaml:"host"`
	Port         int           `env:"SERVER_PORT"  yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	CORSOrigins  []string      `env:"CORS_ORIGINS" yaml:"cors_origins"`
}

type DatabaseConfig struct {
	// Enabled gates the persistence fallback; when false the service runs
	// cache-only and the durable chain degrades to read-through.
	Enabled         bool          `env:"DB_ENABLED"  yaml:"enabled"`
	Host            string        `env:"DB_HOST"     yaml:"host"`
	Port            int           `env:"DB_PORT"     yaml:"port"`
	User            string        `env:"DB_USER"     yaml:"user"`
	Password        string        `env:"DB_PASSWORD" yaml:"password"`
	DBName          string        `env:"DB_NAME"     yaml:"dbname"`
	SSLMode         string        `env:"DB_SSLMODE"  yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// RedisConfig holds Redis connection configuration for event publishing.
type RedisConfig struct {
	Address  string `env:"REDIS_ADDRESS"        yaml:"address"`
	Password string `env:"REDIS_PASSWORD"       yaml:"password"`
	DB       int    `env:"REDIS_DB"             yaml:"db"`
	Enabled  bool   `env:"REDIS_EVENTS_ENABLED" yaml:"enabled"`
}

type CacheConfig struct {
	// TTLSeconds is the default freshness window for cached entries.
	TTLSeconds int `env:"CACHE_TTL_SECONDS" yaml:"ttl_seconds"`
}

// TTL returns the default cache freshness window as a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

type UpstreamConfig struct {
	MaxRetries        int           `env:"UPSTREAM_MAX_RETRIES" yaml:"max_retries"`
	InitialDelay      time.Duration `yaml:"initial_delay"`
	AttemptTimeout    time.Duration `yaml:"attempt_timeout"`
	RateLimitCooldown time.Duration `yaml:"rate_limit_cooldown"`
}

type ProvidersConfig struct {
	FMPAPIKey     string `env:"FMP_API_KEY"      yaml:"fmp_api_key"`
	FMPBaseURL    string `yaml:"fmp_base_url"`
	GeckoBaseURL  string `yaml:"coingecko_base_url"`
	NewsAPIKey    string `env:"NEWSAPI_API_KEY"  yaml:"newsapi_api_key"`
	NewsAPIURL    string `yaml:"newsapi_base_url"`
	GNewsAPIKey   string `env:"GNEWS_API_KEY"    yaml:"gnews_api_key"`
	GNewsBaseURL  string `yaml:"gnews_base_url"`
}

// SchedulerConfig drives the background refresh job for tracked identifiers.
type SchedulerConfig struct {
	Enabled bool `env:"SCHEDULER_ENABLED" yaml:"enabled"`
	// Spec is a standard cron expression.
	Spec string `env:"SCHEDULER_SPEC" yaml:"spec"`
	// Symbols and Coins are refreshed on every tick.
	Symbols []string `env:"SCHEDULER_SYMBOLS" yaml:"symbols"`
	Coins   []string `env:"SCHEDULER_COINS"   yaml:"coins"`
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 {
		return errors.New("server.port must be positive")
	}
	if c.Cache.TTLSeconds <= 0 {
		return errors.New("cache.ttl_seconds must be positive")
	}
	if c.Database.Enabled {
		if c.Database.Host == "" {
			return errors.New("database.host is required when database is enabled")
		}
		if c.Database.Port <= 0 {
			return errors.New("database.port must be positive when database is enabled")
		}
		if c.Database.User == "" {
			return errors.New("database.user is required when database is enabled")
		}
		if c.Database.DBName == "" {
			return errors.New("database.dbname is required when database is enabled")
		}
	}
	if c.Scheduler.Enabled && c.Scheduler.Spec == "" {
		return errors.New("scheduler.spec is required when scheduler is enabled")
	}
	return nil
}

// Load reads, defaults, overrides, and validates the configuration.
func Load(path string) (*Config, error) {
	cfg, err := load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaultServerPort
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultServerTimeout * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultServerTimeout * time.Second
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = defaultDatabasePort
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = defaultMaxOpenConns
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = defaultMaxIdleConns
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = defaultConnMaxLifetime * time.Minute
	}
	if cfg.Redis.Address == "" {
		cfg.Redis.Address = defaultRedisAddress
	}
	if cfg.Cache.TTLSeconds == 0 {
		cfg.Cache.TTLSeconds = defaultCacheTTL
	}
	if cfg.Upstream.MaxRetries == 0 {
		cfg.Upstream.MaxRetries = defaultMaxRetries
	}
	if cfg.Scheduler.Spec == "" {
		cfg.Scheduler.Spec = defaultRefreshSpec
	}
}
