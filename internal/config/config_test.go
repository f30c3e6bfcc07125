package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	withCleanEnv(t, nil)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.APIURL != DefaultAPIURL {
		t.Errorf("Expected default API URL %s, got %s", DefaultAPIURL, cfg.APIURL)
	}
	if cfg.PageLimit != 20 {
		t.Errorf("Expected default page limit 20, got %d", cfg.PageLimit)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("Expected default timeout 30s, got %s", cfg.RequestTimeout)
	}
	if cfg.SessionLifetime != time.Hour {
		t.Errorf("Expected default session lifetime 1h, got %s", cfg.SessionLifetime)
	}
	if cfg.PageCacheTTL != 30*time.Second {
		t.Errorf("Expected default page cache TTL 30s, got %s", cfg.PageCacheTTL)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "text" {
		t.Errorf("Expected info/text logging, got %s/%s", cfg.LogLevel, cfg.LogFormat)
	}
}

func TestLoadConfig_FromEnv(t *testing.T) {
	withCleanEnv(t, map[string]string{
		"BUGTRACKER_API_URL": "tracker.example.com:8000/",
		"PAGE_LIMIT":         "10",
		"REQUEST_TIMEOUT":    "5",
		"SESSION_LIFETIME":   "15m",
		"PAGE_CACHE_TTL":     "0",
		"RATE_LIMIT_RPS":     "2.5",
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.APIURL != "http://tracker.example.com:8000" {
		t.Errorf("Expected scheme added and trailing slash trimmed, got %s", cfg.APIURL)
	}
	if cfg.PageLimit != 10 {
		t.Errorf("Expected page limit 10, got %d", cfg.PageLimit)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Errorf("Expected plain seconds to parse, got %s", cfg.RequestTimeout)
	}
	if cfg.SessionLifetime != 15*time.Minute {
		t.Errorf("Expected 15m, got %s", cfg.SessionLifetime)
	}
	if cfg.PageCacheTTL != 0 {
		t.Errorf("Expected cache disabled, got %s", cfg.PageCacheTTL)
	}
	if cfg.RateLimitRPS != 2.5 {
		t.Errorf("Expected 2.5 rps, got %g", cfg.RateLimitRPS)
	}
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"zero page limit", map[string]string{"PAGE_LIMIT": "0"}, "PAGE_LIMIT"},
		{"negative timeout", map[string]string{"REQUEST_TIMEOUT": "-1s"}, "REQUEST_TIMEOUT"},
		{"negative rps", map[string]string{"RATE_LIMIT_RPS": "-1"}, "RATE_LIMIT_RPS"},
		{"burst too large", map[string]string{"RATE_LIMIT_BURST": "5000"}, "RATE_LIMIT_BURST"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			withCleanEnv(t, tc.env)

			_, err := Load()
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("Expected error to mention %s, got %v", tc.want, err)
			}
		})
	}
}

func TestLoadConfig_DotEnvFile(t *testing.T) {
	withCleanEnv(t, nil)

	if err := os.WriteFile(".env", []byte("PAGE_LIMIT=15\nBUGTRACKER_API_URL=http://from-file:9000\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.PageLimit != 15 {
		t.Errorf("Expected page limit from .env, got %d", cfg.PageLimit)
	}
	if cfg.APIURL != "http://from-file:9000" {
		t.Errorf("Expected API URL from .env, got %s", cfg.APIURL)
	}
}

func TestLoadConfig_EnvOverridesDotEnv(t *testing.T) {
	withCleanEnv(t, map[string]string{"PAGE_LIMIT": "40"})

	if err := os.WriteFile(".env", []byte("PAGE_LIMIT=15\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.PageLimit != 40 {
		t.Errorf("Expected environment to win over .env, got %d", cfg.PageLimit)
	}
}

func TestLoadConfig_ExplicitEnvFileMissing(t *testing.T) {
	withCleanEnv(t, map[string]string{
		"BUGTRACKER_ENV_FILE": filepath.Join(t.TempDir(), "missing.env"),
	})

	if _, err := Load(); err == nil {
		t.Error("Expected error for missing explicit env file")
	}
}

func TestEnsureScheme(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"localhost:8000", "http://localhost:8000"},
		{"https://tracker.example.com", "https://tracker.example.com"},
	}
	for _, tc := range tests {
		if got := ensureScheme(tc.in); got != tc.want {
			t.Errorf("ensureScheme(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
