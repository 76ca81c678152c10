package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	CORS     CORSConfig
	Quote    QuoteConfig
	Cache    CacheConfig
	Mirror   MirrorConfig
	Security SecurityConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// QuoteConfig holds market data provider configuration
type QuoteConfig struct {
	ReportingCurrency string
	BrapiToken        string
	CoinGeckoAPIKey   string
	RateLimit         float64 // requests per second, per provider
	Burst             int
	BatchSize         int
	RefreshSchedule   string // cron spec, empty disables the job
}

// CacheConfig holds the optional Redis quote cache configuration
type CacheConfig struct {
	RedisAddr     string
	RedisPassword string
	TTL           time.Duration
}

// MirrorConfig holds the optional remote Postgres mirror configuration
type MirrorConfig struct {
	DatabaseURL  string
	SyncSchedule string
}

// SecurityConfig holds secrets used to protect stored credentials
type SecurityConfig struct {
	SecretKey string
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "5001"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/bolsamaster.db"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost")),
		},
		Quote: QuoteConfig{
			ReportingCurrency: strings.ToUpper(getEnv("REPORTING_CURRENCY", "BRL")),
			BrapiToken:        os.Getenv("BRAPI_TOKEN"),
			CoinGeckoAPIKey:   os.Getenv("COINGECKO_API_KEY"),
			RefreshSchedule:   getEnv("QUOTE_REFRESH_SCHEDULE", "*/15 10-18 * * 1-5"),
		},
		Cache: CacheConfig{
			RedisAddr:     os.Getenv("REDIS_ADDR"),
			RedisPassword: os.Getenv("REDIS_PASSWORD"),
		},
		Mirror: MirrorConfig{
			DatabaseURL:  os.Getenv("MIRROR_DATABASE_URL"),
			SyncSchedule: getEnv("MIRROR_SYNC_SCHEDULE", "@every 5m"),
		},
		Security: SecurityConfig{
			SecretKey: os.Getenv("SECRET_KEY"),
		},
	}

	var err error
	if config.Quote.RateLimit, err = strconv.ParseFloat(getEnv("QUOTE_RATE_LIMIT", "2"), 64); err != nil {
		return nil, fmt.Errorf("invalid QUOTE_RATE_LIMIT: %w", err)
	}
	if config.Quote.Burst, err = strconv.Atoi(getEnv("QUOTE_BURST", "4")); err != nil {
		return nil, fmt.Errorf("invalid QUOTE_BURST: %w", err)
	}
	if config.Quote.BatchSize, err = strconv.Atoi(getEnv("QUOTE_BATCH_SIZE", "10")); err != nil {
		return nil, fmt.Errorf("invalid QUOTE_BATCH_SIZE: %w", err)
	}
	if config.Quote.BatchSize < 1 {
		return nil, fmt.Errorf("invalid QUOTE_BATCH_SIZE: must be at least 1")
	}
	if config.Cache.TTL, err = time.ParseDuration(getEnv("QUOTE_CACHE_TTL", "60s")); err != nil {
		return nil, fmt.Errorf("invalid QUOTE_CACHE_TTL: %w", err)
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	return config, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
