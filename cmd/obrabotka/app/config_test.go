package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/constants"
)

// isolate points HOME at an empty directory and clears the logging env.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "")
	t.Setenv("LOG_OUTPUT", "")
	return home
}

// TestLoadConfig verifies the defaults.
func TestLoadConfig(t *testing.T) {
	home := isolate(t)

	config, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	if config.MatcherURL != constants.DefaultMatcherURL {
		t.Errorf("MatcherURL = %q, want %q", config.MatcherURL, constants.DefaultMatcherURL)
	}
	if config.SessionTTL != constants.SessionTTL {
		t.Errorf("SessionTTL = %v, want %v", config.SessionTTL, constants.SessionTTL)
	}
	if config.MaxSessions != constants.MaxSessions {
		t.Errorf("MaxSessions = %d, want %d", config.MaxSessions, constants.MaxSessions)
	}
	if want := filepath.Join(home, ".obrabotka", "sessions"); config.SessionDir != want {
		t.Errorf("SessionDir = %q, want %q", config.SessionDir, want)
	}
	if config.LogFormat != "auto" || config.LogOutput != "stderr" {
		t.Errorf("log defaults = %q/%q, want auto/stderr", config.LogFormat, config.LogOutput)
	}
	if config.LogLevel != "" {
		t.Errorf("LogLevel = %q, want empty so flags decide", config.LogLevel)
	}
}

// TestConfig_File verifies values read from an explicit config file.
func TestConfig_File(t *testing.T) {
	home := isolate(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `matcher:
  url: http://matcher.internal:9000
  api_key: secret
  auth: bearer
  timeout: 45s
roles:
  catalog: ~/roles.yaml
session:
  ttl: 30m
  max: 5
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	if config.ConfigFile != path {
		t.Errorf("ConfigFile = %q, want %q", config.ConfigFile, path)
	}
	if config.MatcherURL != "http://matcher.internal:9000" {
		t.Errorf("MatcherURL = %q", config.MatcherURL)
	}
	if config.MatcherAPIKey != "secret" || config.MatcherAuth != "bearer" {
		t.Errorf("matcher auth = %q/%q", config.MatcherAPIKey, config.MatcherAuth)
	}
	if config.MatcherTimeout != 45*time.Second {
		t.Errorf("MatcherTimeout = %v, want 45s", config.MatcherTimeout)
	}
	if want := filepath.Join(home, "roles.yaml"); config.RolesCatalog != want {
		t.Errorf("RolesCatalog = %q, want %q", config.RolesCatalog, want)
	}
	if config.SessionTTL != 30*time.Minute || config.MaxSessions != 5 {
		t.Errorf("session = %v/%d, want 30m/5", config.SessionTTL, config.MaxSessions)
	}
	if config.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", config.LogLevel)
	}
}

// TestConfig_EnvironmentVariables verifies OBRABOTKA_ variables override the file.
func TestConfig_EnvironmentVariables(t *testing.T) {
	isolate(t)
	t.Setenv("OBRABOTKA_MATCHER_URL", "http://env-matcher:8000")
	t.Setenv("OBRABOTKA_SESSION_TTL", "15m")
	t.Setenv("OBRABOTKA_SERVER_API_KEY", "service-key")
	t.Setenv("LOG_LEVEL", "warn")

	config, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	if config.MatcherURL != "http://env-matcher:8000" {
		t.Errorf("MatcherURL = %q", config.MatcherURL)
	}
	if config.SessionTTL != 15*time.Minute {
		t.Errorf("SessionTTL = %v, want 15m", config.SessionTTL)
	}
	if config.ServerAPIKey != "service-key" {
		t.Errorf("ServerAPIKey = %q", config.ServerAPIKey)
	}
	if config.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", config.LogLevel)
	}
}

// TestConfig_MissingExplicitFile verifies an unreadable --config fails.
func TestConfig_MissingExplicitFile(t *testing.T) {
	isolate(t)
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("LoadConfig() succeeded for a missing file")
	}
}

// TestConfig_UpdateFromFlags verifies flags override loaded values.
func TestConfig_UpdateFromFlags(t *testing.T) {
	config := &Config{Format: "table", LogLevel: "info"}

	config.UpdateFromFlags(true, false, true, "json", "")
	if !config.Verbose || config.Quiet || !config.NoColor {
		t.Errorf("bool flags not applied: %+v", config)
	}
	if config.Format != "json" {
		t.Errorf("Format = %q, want json", config.Format)
	}
	if config.LogLevel != "info" {
		t.Errorf("empty --log-level replaced LogLevel with %q", config.LogLevel)
	}

	config.UpdateFromFlags(false, false, false, "", "trace")
	if config.Format != "json" || config.LogLevel != "trace" {
		t.Errorf("got Format=%q LogLevel=%q", config.Format, config.LogLevel)
	}
}
