// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - CORS settings
//   - Request body size limits
//
// AppConfig is where everything specific to TaskQuest lives: the document
// store, sessions, object storage, third-party API keys, the reminder job and
// rate limits.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: taskquest-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Cookie lifetime

	// Object storage for profile images and task documents
	StorageType       string // "local" or "s3"
	StorageLocalPath  string // Root directory for the local backend
	StorageS3Region   string
	StorageS3Bucket   string
	StorageS3Prefix   string
	StorageS3Endpoint string        // S3-compatible endpoint (MinIO, R2); blank for AWS
	StoragePresignTTL time.Duration // Lifetime of presigned download URLs

	// Third-party APIs proxied for the mobile client
	WeatherAPIKey      string
	WeatherBaseURL     string
	WeatherUnits       string
	PlacesAPIKey       string
	PlacesBaseURL      string
	NLAPIKey           string
	NLBaseURL          string
	NLUseADC           bool // Use Application Default Credentials when no NL API key is set
	TextGenAPIKey      string
	TextGenBaseURL     string
	TextGenModel       string
	IntegrationTimeout time.Duration

	// Suggestions pipeline
	SuggestionsMaxTasks    int
	SuggestionsConcurrency int

	// Reminder digest job
	ReminderTime      string // HH:MM in ReminderTimeZone
	ReminderTimeZone  string // IANA zone name
	ReminderDueWithin time.Duration

	// Login rate limiting
	LoginIPLimit     int
	LoginIPWindow    time.Duration
	LoginEmailLimit  int
	LoginEmailWindow time.Duration

	// Per-user limit on the third-party proxy endpoints
	ProxyRateLimit  int
	ProxyRateWindow time.Duration

	// Audit logging
	AuditLogAuth   string        // "all", "db", "log" or "off"
	AuditRetention time.Duration // 0 keeps events forever

	// Handler timeouts (zero keeps the default)
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration
}
