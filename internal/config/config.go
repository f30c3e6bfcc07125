// ABOUTME: Configuration loader for the bugtracker client
// ABOUTME: Loads an optional .env file, then environment variables with defaults

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultAPIURL   = "http://localhost:8000"
	DefaultEnvFile  = ".env"
	DefaultPageSize = 20
)

type Config struct {
	// Backend
	APIURL         string
	RequestTimeout time.Duration
	AllProxy       string // ssh+socks5://user@host:port?private-key=/path

	// Client-side throttling
	RateLimitRPS   float64
	RateLimitBurst int

	// Session
	ConfigDir       string
	SessionLifetime time.Duration // used when the backend reports none

	// Project list
	PageLimit    int
	PageCacheTTL time.Duration // 0 disables the page cache

	// Logging
	LogLevel  string
	LogFormat string
}

// Load reads the .env file named by BUGTRACKER_ENV_FILE (or ./.env when
// present) and builds a Config from the environment. Variables already set
// in the environment win over the file.
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	cfg := &Config{
		APIURL:         strings.TrimRight(ensureScheme(getEnv("BUGTRACKER_API_URL", DefaultAPIURL)), "/"),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		AllProxy:       os.Getenv("ALL_PROXY"),

		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 10),

		ConfigDir:       os.Getenv("BUGTRACKER_CONFIG_DIR"),
		SessionLifetime: getEnvDuration("SESSION_LIFETIME", time.Hour),

		PageLimit:    getEnvInt("PAGE_LIMIT", DefaultPageSize),
		PageCacheTTL: getEnvDuration("PAGE_CACHE_TTL", 30*time.Second),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	if cfg.PageLimit < 1 {
		return nil, fmt.Errorf("PAGE_LIMIT must be at least 1, got %d", cfg.PageLimit)
	}
	if cfg.RequestTimeout <= 0 {
		return nil, fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", cfg.RequestTimeout)
	}
	if cfg.RateLimitRPS < 0 {
		return nil, fmt.Errorf("RATE_LIMIT_RPS must not be negative, got %g", cfg.RateLimitRPS)
	}
	if cfg.RateLimitBurst < 1 || cfg.RateLimitBurst > 1000 {
		return nil, fmt.Errorf("RATE_LIMIT_BURST must be between 1 and 1000, got %d", cfg.RateLimitBurst)
	}

	return cfg, nil
}

// loadEnvFile loads an explicit env file (which must exist) or the default
// ./.env (which may be missing).
func loadEnvFile() error {
	if path := os.Getenv("BUGTRACKER_ENV_FILE"); path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", path, err)
		}
		return nil
	}

	err := godotenv.Load(DefaultEnvFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load env file %s: %w", DefaultEnvFile, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("90s") or plain seconds ("90")
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

// ensureScheme adds http:// prefix if the URL has no scheme
func ensureScheme(url string) string {
	if url == "" {
		return url
	}
	if !strings.Contains(url, "://") {
		return "http://" + url
	}
	return url
}
