package bootstrap

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/taskquest/internal/app/system/auth"
	"github.com/dalemusser/taskquest/internal/app/system/ratelimit"
	"github.com/dalemusser/taskquest/internal/testutil"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/storage"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func validAppConfig(t *testing.T) AppConfig {
	return AppConfig{
		MongoURI:          "mongodb://localhost:27017",
		MongoDatabase:     "taskquest_test",
		SessionKey:        strings.Repeat("k", 40),
		SessionName:       "taskquest-session",
		SessionMaxAge:     time.Hour,
		StorageType:       "local",
		StorageLocalPath:  t.TempDir(),
		ReminderTime:      "07:00",
		ReminderTimeZone:  "UTC",
		ReminderDueWithin: 48 * time.Hour,
		LoginIPLimit:      20,
		LoginIPWindow:     time.Minute,
		LoginEmailLimit:   5,
		LoginEmailWindow:  time.Minute,
		AuditLogAuth:      "log",
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{name: "valid", mutate: func(*AppConfig) {}},
		{name: "missing database", mutate: func(c *AppConfig) { c.MongoDatabase = "" }, wantErr: "mongo_database"},
		{name: "short session key in prod", env: "prod", mutate: func(c *AppConfig) { c.SessionKey = "short" }, wantErr: "session_key"},
		{name: "short session key in dev", env: "dev", mutate: func(c *AppConfig) { c.SessionKey = "short" }},
		{name: "unknown storage", mutate: func(c *AppConfig) { c.StorageType = "ftp" }, wantErr: "storage_type"},
		{name: "s3 without bucket", mutate: func(c *AppConfig) { c.StorageType = "s3" }, wantErr: "storage_s3_bucket"},
		{name: "local without path", mutate: func(c *AppConfig) { c.StorageLocalPath = "" }, wantErr: "storage_local_path"},
		{name: "bad reminder time", mutate: func(c *AppConfig) { c.ReminderTime = "25:00" }, wantErr: "reminder_time"},
		{name: "bad time zone", mutate: func(c *AppConfig) { c.ReminderTimeZone = "Mars/Olympus" }, wantErr: "reminder_time_zone"},
		{name: "zero login ip window", mutate: func(c *AppConfig) { c.LoginIPWindow = 0 }, wantErr: "login_ip_window"},
		{name: "negative login email window", mutate: func(c *AppConfig) { c.LoginEmailWindow = -time.Second }, wantErr: "login_email_window"},
		{name: "proxy limit without window", mutate: func(c *AppConfig) { c.ProxyRateLimit = 30; c.ProxyRateWindow = 0 }, wantErr: "proxy_rate_window"},
		{name: "proxy disabled ignores window", mutate: func(c *AppConfig) { c.ProxyRateLimit = 0; c.ProxyRateWindow = 0 }},
		{name: "bad audit mode", mutate: func(c *AppConfig) { c.AuditLogAuth = "sometimes" }, wantErr: "audit_log_auth"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validAppConfig(t)
			tt.mutate(&cfg)
			err := ValidateConfig(&config.CoreConfig{Env: tt.env}, cfg, testLogger())
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("ValidateConfig: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to mention %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestNewBlobStore_Local(t *testing.T) {
	cfg := validAppConfig(t)
	s, err := newBlobStore(t.Context(), cfg)
	if err != nil {
		t.Fatalf("newBlobStore: %v", err)
	}
	if _, ok := s.(*storage.Local); !ok {
		t.Errorf("expected *storage.Local, got %T", s)
	}
}

func TestNewBlobStore_Unknown(t *testing.T) {
	cfg := validAppConfig(t)
	cfg.StorageType = "ftp"
	if _, err := newBlobStore(t.Context(), cfg); err == nil {
		t.Fatal("expected error for unknown storage type")
	}
}

func TestBackgroundJobs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := validAppConfig(t)

	jobs := backgroundJobs(cfg, DBDeps{MongoDatabase: db}, time.UTC, testLogger())
	names := map[string]bool{}
	for _, j := range jobs {
		names[j.Name] = true
	}
	for _, want := range []string{"reminder-digest", "audit-retention"} {
		if !names[want] {
			t.Errorf("missing job %q in %v", want, names)
		}
	}
}

func TestBuildHandler_Routes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := validAppConfig(t)
	blobs, err := newBlobStore(t.Context(), cfg)
	if err != nil {
		t.Fatalf("newBlobStore: %v", err)
	}

	deps := DBDeps{MongoClient: db.Client(), MongoDatabase: db, Blobs: blobs}
	h, err := BuildHandler(&config.CoreConfig{Env: "dev"}, cfg, deps, testLogger())
	if err != nil {
		t.Fatalf("BuildHandler: %v", err)
	}

	tests := []struct {
		method string
		target string
		want   int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/api/me", http.StatusUnauthorized},
		{http.MethodGet, "/api/tasks", http.StatusUnauthorized},
		{http.MethodGet, "/api/categories", http.StatusUnauthorized},
		{http.MethodGet, "/api/leaderboard", http.StatusUnauthorized},
		{http.MethodGet, "/api/stats", http.StatusUnauthorized},
		{http.MethodGet, "/api/weather?lat=1&lon=2", http.StatusUnauthorized},
		{http.MethodGet, "/api/places/autocomplete?input=x", http.StatusUnauthorized},
		{http.MethodGet, "/api/suggestions", http.StatusUnauthorized},
		{http.MethodGet, "/api/reminders/today", http.StatusUnauthorized},
		{http.MethodGet, "/nowhere", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.target, nil))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestBuildHandler_ProxyLimiter(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := validAppConfig(t)
	limiter := ratelimit.New(1, time.Minute)
	defer limiter.Close()

	deps := DBDeps{MongoClient: db.Client(), MongoDatabase: db, ProxyLimiter: limiter}
	h, err := BuildHandler(&config.CoreConfig{Env: "dev"}, cfg, deps, testLogger())
	if err != nil {
		t.Fatalf("BuildHandler: %v", err)
	}

	want := []int{http.StatusUnauthorized, http.StatusTooManyRequests}
	for i, code := range want {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/weather?lat=1&lon=2", nil))
		if rec.Code != code {
			t.Fatalf("request %d: status = %d, want %d", i+1, rec.Code, code)
		}
	}

	// Other endpoints are not throttled.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tasks", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("/api/tasks status = %d, want 401", rec.Code)
	}
}

func TestProxyKey(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/weather", nil)
	r.RemoteAddr = "203.0.113.7:5555"
	if got := proxyKey(r); got != "ip:203.0.113.7" {
		t.Errorf("anonymous key = %q", got)
	}

	r = auth.WithTestUser(r, &auth.SessionUser{ID: "abc"})
	if got := proxyKey(r); got != "user:abc" {
		t.Errorf("signed-in key = %q", got)
	}
}
