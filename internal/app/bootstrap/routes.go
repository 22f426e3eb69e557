// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	categoriesfeature "github.com/dalemusser/taskquest/internal/app/features/categories"
	errorsfeature "github.com/dalemusser/taskquest/internal/app/features/errors"
	geofeature "github.com/dalemusser/taskquest/internal/app/features/geo"
	healthfeature "github.com/dalemusser/taskquest/internal/app/features/health"
	leaderboardfeature "github.com/dalemusser/taskquest/internal/app/features/leaderboard"
	loginfeature "github.com/dalemusser/taskquest/internal/app/features/login"
	logoutfeature "github.com/dalemusser/taskquest/internal/app/features/logout"
	profilefeature "github.com/dalemusser/taskquest/internal/app/features/profile"
	remindersfeature "github.com/dalemusser/taskquest/internal/app/features/reminders"
	statsfeature "github.com/dalemusser/taskquest/internal/app/features/stats"
	suggestionsfeature "github.com/dalemusser/taskquest/internal/app/features/suggestions"
	tasksfeature "github.com/dalemusser/taskquest/internal/app/features/tasks"
	auditstore "github.com/dalemusser/taskquest/internal/app/store/audit"
	userstore "github.com/dalemusser/taskquest/internal/app/store/users"
	"github.com/dalemusser/taskquest/internal/app/system/auditlog"
	"github.com/dalemusser/taskquest/internal/app/system/auth"
	"github.com/dalemusser/taskquest/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. At this point you have access to:
//   - coreCfg: WAFFLE core configuration (ports, env, timeouts, etc.)
//   - appCfg: app-specific configuration defined in AppConfig
//   - deps: any DB or backend clients bundled in DBDeps
//   - logger: the fully configured zap.Logger for this app
//
// TaskQuest is a JSON API: every feature router is mounted under /api except
// the health check, and unknown routes answer with a JSON error body.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Create the session manager using app config.
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Set up the UserFetcher so LoadSessionUser fetches fresh user data on each request.
	// This ensures disabled accounts and profile updates take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(deps.MongoDatabase))

	errLog := errorsfeature.NewErrorLogger(logger)
	auditLog := auditlog.New(auditstore.New(deps.MongoDatabase), logger, auditlog.Config{Auth: appCfg.AuditLogAuth})

	loc, err := time.LoadLocation(appCfg.ReminderTimeZone)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	// Set before mounting so sub-routers inherit them.
	r.NotFound(errorsfeature.RouteNotFound)
	r.MethodNotAllowed(errorsfeature.MethodNotAllowed)

	// Global auth middleware: loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Authentication: /api/register, /api/login, /api/me
	loginHandler := loginfeature.NewHandler(deps.MongoDatabase, sessionMgr, errLog, auditLog, deps.Limiter, logger)
	r.Mount("/api", loginfeature.Routes(loginHandler, sessionMgr))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, auditLog, logger)
	r.Mount("/api/logout", logoutfeature.Routes(logoutHandler, sessionMgr))

	profileHandler := profilefeature.NewHandler(deps.MongoDatabase, deps.Blobs, appCfg.StoragePresignTTL, errLog, auditLog, logger)
	r.Mount("/api/profile", profilefeature.Routes(profileHandler, sessionMgr))

	// Categories and tasks
	categoriesHandler := categoriesfeature.NewHandler(deps.MongoDatabase, deps.Blobs, errLog, logger)
	r.Mount("/api/categories", categoriesfeature.Routes(categoriesHandler, sessionMgr))

	tasksHandler := tasksfeature.NewHandler(deps.MongoDatabase, deps.Blobs, appCfg.StoragePresignTTL, errLog, logger)
	r.Mount("/api/tasks", tasksfeature.Routes(tasksHandler, sessionMgr))

	// Gamification
	leaderboardHandler := leaderboardfeature.NewHandler(deps.MongoDatabase, errLog, logger)
	r.Mount("/api/leaderboard", leaderboardfeature.Routes(leaderboardHandler, sessionMgr))

	statsHandler := statsfeature.NewHandler(deps.MongoDatabase, errLog, logger)
	r.Mount("/api/stats", statsfeature.Routes(statsHandler, sessionMgr))

	// Third-party API proxies, throttled per user because each call is metered.
	proxied := r.With()
	if deps.ProxyLimiter != nil {
		proxied = r.With(deps.ProxyLimiter.Middleware(proxyKey))
	}

	geoHandler := geofeature.NewHandler(deps.Weather, deps.Places, errLog, logger)
	proxied.Mount("/api/weather", geofeature.WeatherRoutes(geoHandler, sessionMgr))
	proxied.Mount("/api/places", geofeature.PlacesRoutes(geoHandler, sessionMgr))

	suggestionsHandler := suggestionsfeature.NewHandler(deps.MongoDatabase, deps.Classifier, deps.TextGen, errLog, logger)
	if appCfg.SuggestionsMaxTasks > 0 {
		suggestionsHandler.MaxTasks = appCfg.SuggestionsMaxTasks
	}
	if appCfg.SuggestionsConcurrency > 0 {
		suggestionsHandler.Concurrency = appCfg.SuggestionsConcurrency
	}
	proxied.Mount("/api/suggestions", suggestionsfeature.Routes(suggestionsHandler, sessionMgr))

	// Daily reminder digest
	remindersHandler := remindersfeature.NewHandler(deps.MongoDatabase, loc, errLog, logger)
	r.Mount("/api/reminders", remindersfeature.Routes(remindersHandler, sessionMgr))

	return r, nil
}

// proxyKey buckets signed-in users by ID and everyone else by client IP.
func proxyKey(r *http.Request) string {
	if u, ok := auth.CurrentUser(r); ok {
		return "user:" + u.ID
	}
	return "ip:" + ratelimit.ClientIP(r)
}
