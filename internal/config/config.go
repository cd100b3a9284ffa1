package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	CatalogSourceFixture  = "fixture"
	CatalogSourcePostgres = "postgres"

	PublishModeDirect = "direct"
	PublishModeQueue  = "queue"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Listing  ListingConfig  `mapstructure:"listing"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            int    `mapstructure:"port"`
	Host            string `mapstructure:"host"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CatalogConfig selects where books come from
type CatalogConfig struct {
	Source        string `mapstructure:"source"`
	FixturePath   string `mapstructure:"fixture_path"`
	FeaturedCount int    `mapstructure:"featured_count"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// RedisConfig holds Redis connection details
type RedisConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	Password      string `mapstructure:"password"`
	Database      int    `mapstructure:"database"`
	ConsumerGroup string `mapstructure:"consumer_group"`
	MinIdleTime   int    `mapstructure:"min_idle_time"`
}

// ListingConfig holds the external listing service settings
type ListingConfig struct {
	BaseURL               string   `mapstructure:"base_url"`
	PublishMode           string   `mapstructure:"publish_mode"`
	PublishTimeout        int      `mapstructure:"publish_timeout"`
	RequestTimeout        int      `mapstructure:"request_timeout"`
	MaxRetries            int      `mapstructure:"max_retries"`
	MaxWorkers            int      `mapstructure:"max_workers"`
	MaxRequestsPerSecond  int      `mapstructure:"max_requests_per_second"`
	CircuitBreakerMinutes int      `mapstructure:"circuit_breaker_minutes"`
	Proxies               []string `mapstructure:"proxies"`
	ProxyHealthCheckURL   string   `mapstructure:"proxy_health_check_url"`
	StatusTTLHours        int      `mapstructure:"status_ttl_hours"`
}

func (l ListingConfig) PublishTimeoutDuration() time.Duration {
	return time.Duration(l.PublishTimeout) * time.Second
}

// Load loads configuration from an optional config.yaml with environment
// variable overrides (server.port -> SERVER_PORT).
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) Validate() error {
	switch c.Catalog.Source {
	case CatalogSourceFixture, CatalogSourcePostgres:
	default:
		return fmt.Errorf("unknown catalog.source %q", c.Catalog.Source)
	}

	switch c.Listing.PublishMode {
	case PublishModeDirect, PublishModeQueue:
	default:
		return fmt.Errorf("unknown listing.publish_mode %q", c.Listing.PublishMode)
	}

	if c.Listing.MaxRequestsPerSecond <= 0 {
		return fmt.Errorf("listing.max_requests_per_second must be positive")
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.shutdown_timeout", 10)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("catalog.source", CatalogSourceFixture)
	v.SetDefault("catalog.fixture_path", "")
	v.SetDefault("catalog.featured_count", 5)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "bookmarket")
	v.SetDefault("database.user", "bookmarket_user")
	v.SetDefault("database.password", "bookmarket_pass")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.database", 0)
	v.SetDefault("redis.consumer_group", "bookmarket_publishers")
	v.SetDefault("redis.min_idle_time", 120)

	v.SetDefault("listing.base_url", "http://localhost:9090")
	v.SetDefault("listing.publish_mode", PublishModeDirect)
	v.SetDefault("listing.publish_timeout", 10)
	v.SetDefault("listing.request_timeout", 5)
	v.SetDefault("listing.max_retries", 3)
	v.SetDefault("listing.max_workers", 4)
	v.SetDefault("listing.max_requests_per_second", 10)
	v.SetDefault("listing.circuit_breaker_minutes", 5)
	v.SetDefault("listing.proxies", []string{})
	v.SetDefault("listing.proxy_health_check_url", "")
	v.SetDefault("listing.status_ttl_hours", 24)
}
