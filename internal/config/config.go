package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Scraper  ScraperConfig
	CORS     CORSConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	PoolMin  int
	PoolMax  int
}

// ScraperConfig holds fetch, cache, and daily-limit configuration for the
// collection pipeline.
type ScraperConfig struct {
	APIKeys         []string
	ProxyEndpoint   string
	MaxConcurrent   int
	RequestsPerHour int
	RetryAttempts   int
	RetryBackoff    time.Duration
	RequestTimeout  time.Duration
	RenderJS        bool
	CachePath       string
	CacheDuration   time.Duration
	DailyLeadLimit  int
	LimitStatePath  string
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	Origins []string
}

// Load reads configuration from environment variables.
// It uses viper to read values and provides sensible defaults for development.
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults for development
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "roofline")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_POOL_MIN", 2)
	v.SetDefault("DB_POOL_MAX", 10)
	v.SetDefault("SCRAPER_PROXY_ENDPOINT", "http://api.scraperapi.com")
	v.SetDefault("SCRAPER_MAX_CONCURRENT", 3)
	v.SetDefault("SCRAPER_REQUESTS_PER_HOUR", 100)
	v.SetDefault("SCRAPER_RETRY_ATTEMPTS", 3)
	v.SetDefault("SCRAPER_RETRY_BACKOFF", "2s")
	v.SetDefault("SCRAPER_REQUEST_TIMEOUT", "30s")
	v.SetDefault("SCRAPER_RENDER_JS", false)
	v.SetDefault("SCRAPER_CACHE_PATH", "scraper_cache.json")
	v.SetDefault("SCRAPER_CACHE_DURATION", "24h")
	v.SetDefault("DAILY_LEAD_LIMIT", 100)
	v.SetDefault("DAILY_LIMIT_STATE_PATH", "daily_limit_state.json")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000,http://localhost:3001")

	// Bind environment variables
	v.AutomaticEnv()

	// Build configuration
	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetString("PORT"),
			Env:  v.GetString("ENV"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			SSLMode:  v.GetString("DB_SSLMODE"),
			PoolMin:  v.GetInt("DB_POOL_MIN"),
			PoolMax:  v.GetInt("DB_POOL_MAX"),
		},
		Scraper: ScraperConfig{
			APIKeys:         parseList(v.GetString("SCRAPER_API_KEYS")),
			ProxyEndpoint:   v.GetString("SCRAPER_PROXY_ENDPOINT"),
			MaxConcurrent:   v.GetInt("SCRAPER_MAX_CONCURRENT"),
			RequestsPerHour: v.GetInt("SCRAPER_REQUESTS_PER_HOUR"),
			RetryAttempts:   v.GetInt("SCRAPER_RETRY_ATTEMPTS"),
			RetryBackoff:    v.GetDuration("SCRAPER_RETRY_BACKOFF"),
			RequestTimeout:  v.GetDuration("SCRAPER_REQUEST_TIMEOUT"),
			RenderJS:        v.GetBool("SCRAPER_RENDER_JS"),
			CachePath:       v.GetString("SCRAPER_CACHE_PATH"),
			CacheDuration:   v.GetDuration("SCRAPER_CACHE_DURATION"),
			DailyLeadLimit:  v.GetInt("DAILY_LEAD_LIMIT"),
			LimitStatePath:  v.GetString("DAILY_LIMIT_STATE_PATH"),
		},
		CORS: CORSConfig{
			Origins: parseList(v.GetString("CORS_ORIGINS")),
		},
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	// Validate database config
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Port == "" {
		return fmt.Errorf("DB_PORT is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("DB_USER is required")
	}
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.Database.PoolMin < 0 {
		return fmt.Errorf("DB_POOL_MIN must be non-negative")
	}
	if c.Database.PoolMax < 1 {
		return fmt.Errorf("DB_POOL_MAX must be at least 1")
	}
	if c.Database.PoolMin > c.Database.PoolMax {
		return fmt.Errorf("DB_POOL_MIN must be less than or equal to DB_POOL_MAX")
	}

	// Validate scraper config
	if c.Scraper.MaxConcurrent < 1 {
		return fmt.Errorf("SCRAPER_MAX_CONCURRENT must be at least 1")
	}
	if c.Scraper.RetryAttempts < 1 {
		return fmt.Errorf("SCRAPER_RETRY_ATTEMPTS must be at least 1")
	}
	if c.Scraper.RetryBackoff <= 0 {
		return fmt.Errorf("SCRAPER_RETRY_BACKOFF must be positive")
	}
	if c.Scraper.RequestTimeout <= 0 {
		return fmt.Errorf("SCRAPER_REQUEST_TIMEOUT must be positive")
	}
	if c.Scraper.CacheDuration <= 0 {
		return fmt.Errorf("SCRAPER_CACHE_DURATION must be positive")
	}
	if c.Scraper.DailyLeadLimit < 1 {
		return fmt.Errorf("DAILY_LEAD_LIMIT must be at least 1")
	}

	// Validate CORS config
	if len(c.CORS.Origins) == 0 {
		return fmt.Errorf("CORS_ORIGINS is required")
	}

	return nil
}

// parseList splits a comma-separated string into a slice, dropping empty
// entries.
func parseList(raw string) []string {
	if raw == "" {
		return []string{}
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
