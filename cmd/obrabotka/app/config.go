package app

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/constants"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/errors"
)

// Config holds the application configuration loaded from config files,
// environment variables and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Matching backend
	MatcherURL     string
	MatcherAPIKey  string
	MatcherAuth    string
	MatcherTimeout time.Duration

	// RolesCatalog is an optional YAML or JSON file of role names and UIDs
	RolesCatalog string

	// Sessions
	SessionDir  string
	SessionTTL  time.Duration
	MaxSessions int

	// ServerAPIKey protects the HTTP service when auth is enabled
	ServerAPIKey string

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables (OBRABOTKA_ prefix)
// 3. .env files
// 4. Config file (~/.obrabotka.yaml)
// 5. Defaults
func LoadConfig(configFile string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetEnvPrefix("obrabotka")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".obrabotka")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// An explicit --config that cannot be read is an error; a missing
		// default file is not.
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, errors.NewConfigError("config", "cannot read config file", err)
		}
	}

	config := &Config{
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		NoColor: v.GetBool("no-color"),
		Format:  v.GetString("format"),

		ConfigFile: v.ConfigFileUsed(),

		MatcherURL:     v.GetString("matcher.url"),
		MatcherAPIKey:  v.GetString("matcher.api_key"),
		MatcherAuth:    v.GetString("matcher.auth"),
		MatcherTimeout: v.GetDuration("matcher.timeout"),

		RolesCatalog: expandHome(v.GetString("roles.catalog")),

		SessionDir:  expandHome(v.GetString("session.dir")),
		SessionTTL:  v.GetDuration("session.ttl"),
		MaxSessions: v.GetInt("session.max"),

		ServerAPIKey: v.GetString("server.api_key"),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", v.GetString("log.level")),
		LogFormat: getEnvOrDefault("LOG_FORMAT", v.GetString("log.format")),
		LogOutput: getEnvOrDefault("LOG_OUTPUT", v.GetString("log.output")),
	}

	if config.SessionTTL <= 0 {
		config.SessionTTL = constants.SessionTTL
	}
	if config.MaxSessions < 0 {
		config.MaxSessions = 0
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("matcher.url", constants.DefaultMatcherURL)
	v.SetDefault("matcher.auth", "")
	v.SetDefault("matcher.timeout", time.Duration(0))
	v.SetDefault("session.dir", constants.DefaultSessionDir)
	v.SetDefault("session.ttl", constants.SessionTTL)
	v.SetDefault("session.max", constants.MaxSessions)
	v.SetDefault("log.format", "auto")
	v.SetDefault("log.output", "stderr")
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags so that flag values
// take precedence over the config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads environment variables from .env files.
// .env.local overrides .env.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}

func expandHome(path string) string {
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, rest)
		}
	}
	return path
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
