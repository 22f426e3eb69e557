// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/taskquest/internal/app/system/auditlog"
	"github.com/dalemusser/taskquest/internal/app/system/tasks"
	"github.com/dalemusser/taskquest/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for TaskQuest.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: TASKQUEST_MONGO_URI, TASKQUEST_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "taskquest", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 5, Desc: "MongoDB min connection pool size (default: 5)"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "taskquest-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "720h", Desc: "Session cookie lifetime"},

	// Object storage
	{Name: "storage_type", Default: "local", Desc: "Storage backend: 'local' or 's3'"},
	{Name: "storage_local_path", Default: "./uploads", Desc: "Local storage root for uploaded files"},
	{Name: "storage_s3_region", Default: "", Desc: "AWS region for S3"},
	{Name: "storage_s3_bucket", Default: "", Desc: "S3 bucket name"},
	{Name: "storage_s3_prefix", Default: "taskquest/", Desc: "S3 key prefix"},
	{Name: "storage_s3_endpoint", Default: "", Desc: "S3-compatible endpoint URL (blank for AWS)"},
	{Name: "storage_presign_ttl", Default: "15m", Desc: "Lifetime of presigned download URLs (0 streams through the app)"},

	// Third-party APIs
	{Name: "weather_api_key", Default: "", Desc: "OpenWeatherMap API key"},
	{Name: "weather_base_url", Default: "", Desc: "OpenWeatherMap base URL override"},
	{Name: "weather_units", Default: "metric", Desc: "Weather units: metric, imperial or standard"},
	{Name: "places_api_key", Default: "", Desc: "Google Places API key"},
	{Name: "places_base_url", Default: "", Desc: "Google Places base URL override"},
	{Name: "nl_api_key", Default: "", Desc: "Google Cloud Natural Language API key"},
	{Name: "nl_base_url", Default: "", Desc: "Natural Language base URL override"},
	{Name: "nl_use_adc", Default: false, Desc: "Authenticate Natural Language calls with Application Default Credentials"},
	{Name: "textgen_api_key", Default: "", Desc: "Gemini API key"},
	{Name: "textgen_base_url", Default: "", Desc: "Gemini API base URL override"},
	{Name: "textgen_model", Default: "", Desc: "Gemini model name (blank for the default)"},
	{Name: "integration_timeout", Default: "8s", Desc: "Timeout for one third-party API call"},

	// Suggestions
	{Name: "suggestions_max_tasks", Default: 30, Desc: "Recent tasks classified per suggestions request"},
	{Name: "suggestions_concurrency", Default: 4, Desc: "Concurrent classification calls per suggestions request"},

	// Reminder digest job
	{Name: "reminder_time", Default: "07:00", Desc: "Daily reminder digest time (HH:MM)"},
	{Name: "reminder_time_zone", Default: "UTC", Desc: "Time zone for the reminder digest"},
	{Name: "reminder_due_within", Default: "48h", Desc: "Open tasks due within this window are listed as due soon"},

	// Login rate limiting
	{Name: "login_ip_limit", Default: 20, Desc: "Login attempts allowed per IP per window"},
	{Name: "login_ip_window", Default: "15m", Desc: "Login IP rate-limit window"},
	{Name: "login_email_limit", Default: 5, Desc: "Login attempts allowed per email per window"},
	{Name: "login_email_window", Default: "15m", Desc: "Login email rate-limit window"},
	{Name: "proxy_rate_limit", Default: 30, Desc: "Weather, places and suggestions requests allowed per user per window (0 disables)"},
	{Name: "proxy_rate_window", Default: "1m", Desc: "Proxy rate-limit window"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_retention", Default: "2160h", Desc: "How long audit events are kept (0 keeps them forever)"},

	// Handler timeouts
	{Name: "timeout_short", Default: "", Desc: "Timeout for single-document operations"},
	{Name: "timeout_medium", Default: "", Desc: "Timeout for list queries and multi-document writes"},
	{Name: "timeout_long", Default: "", Desc: "Timeout for uploads and the suggestions pipeline"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, TASKQUEST_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "TASKQUEST", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),
		SessionMaxAge:    appValues.Duration("session_max_age", 30*24*time.Hour),

		// Object storage
		StorageType:       appValues.String("storage_type"),
		StorageLocalPath:  appValues.String("storage_local_path"),
		StorageS3Region:   appValues.String("storage_s3_region"),
		StorageS3Bucket:   appValues.String("storage_s3_bucket"),
		StorageS3Prefix:   appValues.String("storage_s3_prefix"),
		StorageS3Endpoint: appValues.String("storage_s3_endpoint"),
		StoragePresignTTL: appValues.Duration("storage_presign_ttl", 15*time.Minute),

		// Third-party APIs
		WeatherAPIKey:      appValues.String("weather_api_key"),
		WeatherBaseURL:     appValues.String("weather_base_url"),
		WeatherUnits:       appValues.String("weather_units"),
		PlacesAPIKey:       appValues.String("places_api_key"),
		PlacesBaseURL:      appValues.String("places_base_url"),
		NLAPIKey:           appValues.String("nl_api_key"),
		NLBaseURL:          appValues.String("nl_base_url"),
		NLUseADC:           appValues.Bool("nl_use_adc"),
		TextGenAPIKey:      appValues.String("textgen_api_key"),
		TextGenBaseURL:     appValues.String("textgen_base_url"),
		TextGenModel:       appValues.String("textgen_model"),
		IntegrationTimeout: appValues.Duration("integration_timeout", timeouts.DefaultIntegration),

		// Suggestions
		SuggestionsMaxTasks:    appValues.Int("suggestions_max_tasks"),
		SuggestionsConcurrency: appValues.Int("suggestions_concurrency"),

		// Reminder digest
		ReminderTime:      appValues.String("reminder_time"),
		ReminderTimeZone:  appValues.String("reminder_time_zone"),
		ReminderDueWithin: appValues.Duration("reminder_due_within", 48*time.Hour),

		// Login rate limiting
		LoginIPLimit:     appValues.Int("login_ip_limit"),
		LoginIPWindow:    appValues.Duration("login_ip_window", 15*time.Minute),
		LoginEmailLimit:  appValues.Int("login_email_limit"),
		LoginEmailWindow: appValues.Duration("login_email_window", 15*time.Minute),
		ProxyRateLimit:   appValues.Int("proxy_rate_limit"),
		ProxyRateWindow:  appValues.Duration("proxy_rate_window", time.Minute),

		// Audit logging
		AuditLogAuth:   appValues.String("audit_log_auth"),
		AuditRetention: appValues.Duration("audit_retention", 90*24*time.Hour),

		// Handler timeouts
		TimeoutShort:  appValues.Duration("timeout_short", 0),
		TimeoutMedium: appValues.Duration("timeout_medium", 0),
		TimeoutLong:   appValues.Duration("timeout_long", 0),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// TaskQuest validates the MongoDB URI, the storage selection and the
// reminder schedule so that mistakes surface before anything connects.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.MongoDatabase == "" {
		return errors.New("mongo_database is required")
	}
	if coreCfg != nil && coreCfg.Env == "prod" && len(appCfg.SessionKey) < 32 {
		return errors.New("session_key must be at least 32 characters in production")
	}

	switch appCfg.StorageType {
	case "local":
		if appCfg.StorageLocalPath == "" {
			return errors.New("storage_local_path is required for local storage")
		}
	case "s3":
		if appCfg.StorageS3Bucket == "" {
			return errors.New("storage_s3_bucket is required for s3 storage")
		}
	default:
		return fmt.Errorf("storage_type must be 'local' or 's3', got %q", appCfg.StorageType)
	}

	if _, err := tasks.DailySpec(appCfg.ReminderTime); err != nil {
		return fmt.Errorf("reminder_time: %w", err)
	}
	if _, err := time.LoadLocation(appCfg.ReminderTimeZone); err != nil {
		return fmt.Errorf("reminder_time_zone: %w", err)
	}

	if appCfg.LoginIPWindow <= 0 {
		return errors.New("login_ip_window must be positive")
	}
	if appCfg.LoginEmailWindow <= 0 {
		return errors.New("login_email_window must be positive")
	}
	if appCfg.ProxyRateLimit > 0 && appCfg.ProxyRateWindow <= 0 {
		return errors.New("proxy_rate_window must be positive when proxy_rate_limit is set")
	}

	switch appCfg.AuditLogAuth {
	case auditlog.ModeAll, auditlog.ModeDB, auditlog.ModeLog, auditlog.ModeOff:
	default:
		return fmt.Errorf("audit_log_auth must be one of all, db, log, off; got %q", appCfg.AuditLogAuth)
	}

	if appCfg.WeatherAPIKey == "" {
		logger.Warn("weather_api_key not set; /api/weather will return 503")
	}
	if appCfg.PlacesAPIKey == "" {
		logger.Warn("places_api_key not set; /api/places/autocomplete will return 503")
	}
	if appCfg.NLAPIKey == "" && !appCfg.NLUseADC {
		logger.Warn("nl_api_key not set and nl_use_adc off; /api/suggestions will return 503")
	}
	if appCfg.TextGenAPIKey == "" {
		logger.Warn("textgen_api_key not set; /api/suggestions will return 503")
	}
	return nil
}
