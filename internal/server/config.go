package server

import (
	"net"
	"strconv"
	"time"

	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/constants"
)

// Config holds server configuration.
type Config struct {
	// Server settings
	Host string
	Port int

	// API settings
	PathPrefix string

	// CORS settings
	CORSEnabled bool
	CORSOrigins []string

	// Authentication settings
	AuthEnabled bool
	APIKey      string
	AuthHeader  string

	// RateLimit is requests per minute per IP (0 to disable)
	RateLimit int

	// DownloadCacheTTL is how long downloaded workbooks stay cached
	DownloadCacheTTL time.Duration

	// HTTP timeouts. WriteTimeout must outlast a synchronous analysis.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Host:             constants.DefaultHost,
		Port:             constants.DefaultPort,
		PathPrefix:       "/api/v1",
		AuthHeader:       "X-API-Key",
		RateLimit:        constants.DefaultRateLimit,
		DownloadCacheTTL: 15 * time.Minute,
		ReadTimeout:      time.Minute,
		WriteTimeout:     constants.AnalyzeTimeout + time.Minute,
		IdleTimeout:      120 * time.Second,
	}
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
