package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/constants"
)

// Config describes how a logger is built. The zero value logs info and
// above to stderr, as console output on a terminal and JSON otherwise.
type Config struct {
	// Level is a zerolog level name; "warning" and "off" are also accepted.
	Level string

	// Format is console, json or auto.
	Format string

	// Output is stderr, stdout, discard or a file path. Files are opened
	// for append.
	Output string

	// TimeFormat is kitchen, rfc3339, unix or a Go layout.
	TimeFormat string

	NoColor   bool
	AddCaller bool

	// Fields tag every event, e.g. component=server.
	Fields map[string]string
}

// DefaultConfig returns the configuration of the process-wide logger before
// the CLI configures its own.
func DefaultConfig() *Config {
	cfg := &Config{
		Level:      "info",
		Format:     "auto",
		Output:     "stderr",
		TimeFormat: "kitchen",
		NoColor:    os.Getenv("NO_COLOR") != "",
	}
	if os.Getenv("DEBUG") != "" {
		cfg.Level = "debug"
	}
	return cfg
}

// ApplyEnv overlays LOG_LEVEL, LOG_FORMAT, LOG_OUTPUT, LOG_TIME_FORMAT,
// LOG_CALLER and LOG_FIELDS (key=value,key=value) onto cfg.
func (cfg *Config) ApplyEnv() *Config {
	overlay := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	overlay(&cfg.Level, "LOG_LEVEL")
	overlay(&cfg.Format, "LOG_FORMAT")
	overlay(&cfg.Output, "LOG_OUTPUT")
	overlay(&cfg.TimeFormat, "LOG_TIME_FORMAT")
	if os.Getenv("LOG_CALLER") == "true" {
		cfg.AddCaller = true
	}
	for _, pair := range strings.Split(os.Getenv("LOG_FIELDS"), ",") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(k) == "" {
			continue
		}
		if cfg.Fields == nil {
			cfg.Fields = make(map[string]string)
		}
		cfg.Fields[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return cfg
}

// NewLoggerFromConfig builds a logger and sets the zerolog global level to
// match it. Unknown levels fall back to info.
func NewLoggerFromConfig(cfg *Config) zerolog.Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	level := parseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	ctx := zerolog.New(writerFor(cfg)).Level(level).With().Timestamp()
	if cfg.AddCaller || level <= zerolog.DebugLevel {
		ctx = ctx.Caller()
	}
	for k, v := range cfg.Fields {
		ctx = ctx.Str(k, v)
	}
	return ctx.Logger()
}

func writerFor(cfg *Config) io.Writer {
	out, terminal := openOutput(cfg.Output)

	format := strings.ToLower(cfg.Format)
	if format == "" || format == "auto" {
		format = "json"
		if terminal {
			format = "console"
		}
	}
	if format != "console" && format != "pretty" {
		return out
	}
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: timeLayout(cfg.TimeFormat),
		NoColor:    cfg.NoColor,
	}
}

// openOutput resolves an output name. A file that cannot be opened falls
// back to stderr.
func openOutput(name string) (io.Writer, bool) {
	switch strings.ToLower(name) {
	case "", "stderr":
		return os.Stderr, stderrIsTerminal()
	case "stdout":
		return os.Stdout, false
	case "discard", "none":
		return io.Discard, false
	}
	f, err := os.OpenFile(name, os.O_CREATE|os.O_APPEND|os.O_WRONLY, constants.SecureFilePermissions)
	if err != nil {
		return os.Stderr, stderrIsTerminal()
	}
	return f, false
}

var levelAliases = map[string]zerolog.Level{
	"warning":  zerolog.WarnLevel,
	"none":     zerolog.Disabled,
	"off":      zerolog.Disabled,
	"disabled": zerolog.Disabled,
}

func parseLevel(name string) zerolog.Level {
	name = strings.ToLower(strings.TrimSpace(name))
	if l, ok := levelAliases[name]; ok {
		return l
	}
	if name == "" {
		return zerolog.InfoLevel
	}
	l, err := zerolog.ParseLevel(name)
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}

func timeLayout(name string) string {
	switch strings.ToLower(name) {
	case "", "kitchen":
		return time.Kitchen
	case "rfc3339":
		return time.RFC3339
	case "unix", "epoch":
		return zerolog.TimeFormatUnix
	}
	if strings.Contains(name, "2006") || strings.Contains(name, "15:04") {
		return name
	}
	return time.Kitchen
}
