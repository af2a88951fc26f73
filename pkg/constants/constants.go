// Package constants provides shared constants used throughout the
// reconciliation workflow: timeouts, limits, file permissions and the
// defaults the CLI and HTTP service fall back to.
package constants

import "time"

// Timeout constants define various timeout durations used in the application
const (
	// DefaultHTTPTimeout is the standard timeout for requests to the matching backend
	DefaultHTTPTimeout = 30 * time.Second

	// AnalyzeTimeout bounds a single analysis request; spreadsheets can be large
	AnalyzeTimeout = 5 * time.Minute

	// ProcessTimeout bounds a single processing request
	ProcessTimeout = 5 * time.Minute

	// CommandTimeout is the default timeout for CLI commands
	CommandTimeout = 10 * time.Minute

	// ShutdownTimeout is the grace period for the HTTP server to drain
	ShutdownTimeout = 30 * time.Second

	// HealthTimeout bounds the readiness check of the matching backend
	HealthTimeout = 5 * time.Second
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644

	// SecureFilePermissions is for session files that may contain survey data (rw-------)
	SecureFilePermissions = 0600
)

// Limit constants define various limits and capacities
const (
	// MaxUploadSize is the maximum accepted multipart body for an analysis upload
	MaxUploadSize = 64 << 20

	// MaxUploadMemory is the multipart form size kept in memory before spilling to disk
	MaxUploadMemory = 32 << 20

	// ChannelBufferSize is the default buffer size for event channels
	ChannelBufferSize = 100

	// MaxSessions caps the number of live sessions the service keeps
	MaxSessions = 1000
)

// Rate limiting constants
const (
	// DefaultRateLimit is the default requests per minute per client
	DefaultRateLimit = 120
)

// Session cache constants
const (
	// SessionTTL is how long an untouched workflow session is kept
	SessionTTL = 2 * time.Hour

	// SessionCleanupInterval is how often expired sessions are evicted
	SessionCleanupInterval = 10 * time.Minute
)

// Default values
const (
	// DefaultMatcherURL is where the matching backend listens by default
	DefaultMatcherURL = "http://localhost:8000"

	// DefaultControlColumn is the survey column holding TU labels
	DefaultControlColumn = "Управление"

	// DefaultOperationColumn is the survey column holding TV and IV labels
	DefaultOperationColumn = "Ведение"

	// DefaultRoleColumn is the catalog column holding role names
	DefaultRoleColumn = "Роль"

	// DefaultUIDColumn is the catalog column holding role UIDs
	DefaultUIDColumn = "UID"

	// DefaultHost and DefaultPort are the HTTP service bind defaults
	DefaultHost = "localhost"
	DefaultPort = 8080

	// DefaultSessionDir is where CLI session files are written
	DefaultSessionDir = "~/.obrabotka/sessions"
)

// Format constants
const (
	// TimeFormatFilename is the format used in generated filenames
	TimeFormatFilename = "20060102-150405"
)

// User-facing messages
const (
	// NotFoundLabel marks a pending value that has no confirmed role yet
	NotFoundLabel = "Не найдено"

	// HighlightWarningFormat renders the row-count mismatch warning
	HighlightWarningFormat = "Подсвечено %d строк с несоответствием количества ролей."

	// ResultFileFormat names the downloaded result workbook after its process id
	ResultFileFormat = "результат_сопоставления_%s.xlsx"
)
