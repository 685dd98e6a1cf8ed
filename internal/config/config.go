// Package config loads the newsroom configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers.
const (
	StoreFile     = "file"
	StorePostgres = "postgres"
)

// Configuration validation errors.
var (
	ErrInvalidStoreDriver = errors.New("STORE_DRIVER must be 'file' or 'postgres'")
	ErrMissingPostsFile   = errors.New("POSTS_FILE is required for the file store")
	ErrInvalidTimeout     = errors.New("WORDPRESS_TIMEOUT must be positive")
	ErrInvalidCacheTTL    = errors.New("WORDPRESS_CACHE_TTL must be positive")
	ErrInvalidLogLevel    = errors.New("LOG_LEVEL must be one of: debug, info, warn, error")
	ErrInvalidLogFormat   = errors.New("LOG_FORMAT must be one of: json, console, pretty")
)

// Config is the process-wide configuration, built once at startup.
type Config struct {
	ServerPort string

	WordPress     WordPressConfig
	Store         StoreConfig
	Database      DatabaseConfig
	RedisAddr     string
	Elasticsearch ElasticsearchConfig
	Logging       LoggingConfig
}

// WordPressConfig configures the remote content source.
type WordPressConfig struct {
	BaseURL       string
	Timeout       time.Duration
	CacheTTL      time.Duration
	DefaultAuthor string
}

// StoreConfig selects the local durable store.
type StoreConfig struct {
	Driver    string
	PostsFile string
}

// DatabaseConfig holds Postgres connection settings.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// ElasticsearchConfig configures the search index.
type ElasticsearchConfig struct {
	URL   string
	Index string
}

// LoggingConfig configures the root logger.
type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	// a missing .env file is fine, real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := FromEnv(os.Getenv)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// FromEnv builds a Config using lookup for every setting.
func FromEnv(lookup func(string) string) (*Config, error) {
	getEnv := func(key, fallback string) string {
		if v := strings.TrimSpace(lookup(key)); v != "" {
			return v
		}
		return fallback
	}

	timeout, err := time.ParseDuration(getEnv("WORDPRESS_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse WORDPRESS_TIMEOUT: %w", err)
	}
	ttl, err := time.ParseDuration(getEnv("WORDPRESS_CACHE_TTL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse WORDPRESS_CACHE_TTL: %w", err)
	}

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		WordPress: WordPressConfig{
			BaseURL:       strings.TrimRight(getEnv("WORDPRESS_API_URL", ""), "/"),
			Timeout:       timeout,
			CacheTTL:      ttl,
			DefaultAuthor: getEnv("DEFAULT_AUTHOR", "Lumen Research"),
		},
		Store: StoreConfig{
			Driver:    strings.ToLower(getEnv("STORE_DRIVER", StoreFile)),
			PostsFile: getEnv("POSTS_FILE", "content/posts.json"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "bloguser"),
			Password: getEnv("DB_PASSWORD", "blogpass"),
			Name:     getEnv("DB_NAME", "blogdb"),
		},
		RedisAddr: getEnv("REDIS_ADDR", ""),
		Elasticsearch: ElasticsearchConfig{
			URL:   getEnv("ELASTICSEARCH_URL", ""),
			Index: getEnv("ELASTICSEARCH_INDEX", "posts"),
		},
		Logging: LoggingConfig{
			Level:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "console")),
		},
	}, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreFile:
		if c.Store.PostsFile == "" {
			return ErrMissingPostsFile
		}
	case StorePostgres:
	default:
		return ErrInvalidStoreDriver
	}

	if c.WordPress.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.WordPress.CacheTTL <= 0 {
		return ErrInvalidCacheTTL
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	validFormats := map[string]bool{"json": true, "console": true, "pretty": true}
	if !validFormats[c.Logging.Format] {
		return ErrInvalidLogFormat
	}

	return nil
}

// RemoteEnabled reports whether the WordPress source is configured.
func (c *Config) RemoteEnabled() bool {
	return c.WordPress.BaseURL != ""
}

// SearchEnabled reports whether an Elasticsearch cluster is configured.
func (c *Config) SearchEnabled() bool {
	return c.Elasticsearch.URL != ""
}

// CacheEnabled reports whether a Redis server is configured.
func (c *Config) CacheEnabled() bool {
	return c.RedisAddr != ""
}

// DSN returns the lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Password, d.Name)
}

// String returns a string representation of the config without secrets.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Port: %s, Store: %s, WordPress: %t, Redis: %t, Search: %t}",
		c.ServerPort,
		c.Store.Driver,
		c.RemoteEnabled(),
		c.CacheEnabled(),
		c.SearchEnabled(),
	)
}
