// ABOUTME: Test helpers for config tests
// ABOUTME: Provides utilities for environment variable management

package config

import (
	"os"
	"testing"
)

// configKeys are every variable Load reads
var configKeys = []string{
	"BUGTRACKER_API_URL",
	"BUGTRACKER_CONFIG_DIR",
	"BUGTRACKER_ENV_FILE",
	"REQUEST_TIMEOUT",
	"ALL_PROXY",
	"RATE_LIMIT_RPS",
	"RATE_LIMIT_BURST",
	"SESSION_LIFETIME",
	"PAGE_LIMIT",
	"PAGE_CACHE_TTL",
	"LOG_LEVEL",
	"LOG_FORMAT",
}

// withCleanEnv unsets every config variable and moves into an empty working
// directory so no stray .env is picked up. Both are restored on cleanup.
//
// Example:
//
//	func TestSomething(t *testing.T) {
//	    withCleanEnv(t, map[string]string{"PAGE_LIMIT": "10"})
//	}
func withCleanEnv(t *testing.T, extra map[string]string) {
	t.Helper()

	for _, key := range configKeys {
		// t.Setenv registers the restore; Unsetenv then clears it
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	for key, value := range extra {
		t.Setenv(key, value)
	}

	t.Chdir(t.TempDir())
}
