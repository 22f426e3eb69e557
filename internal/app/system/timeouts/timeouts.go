// Package timeouts provides centralized timeout values for handler operations.
//
// Handlers wrap their Mongo and HTTP calls with context.WithTimeout using one
// of these values:
//   - Ping: health checks
//   - Short: single-document reads and writes (get task, update profile)
//   - Medium: list queries and multi-document writes (task list, cascades)
//   - Long: uploads to object storage, the suggestions pipeline
//   - Integration: one outbound call to a third-party API (weather, places, ...)
//   - Batch: background jobs that touch every user (reminder digest)
//
// Values can be overridden at startup with Configure.
package timeouts

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Default timeout values (used if Configure is not called).
const (
	DefaultPing        = 2 * time.Second
	DefaultShort       = 5 * time.Second
	DefaultMedium      = 10 * time.Second
	DefaultLong        = 30 * time.Second
	DefaultIntegration = 8 * time.Second
	DefaultBatch       = 2 * time.Minute
)

// Config holds timeout configuration values.
// Zero values are ignored (current values are kept).
type Config struct {
	Ping        time.Duration
	Short       time.Duration
	Medium      time.Duration
	Long        time.Duration
	Integration time.Duration
	Batch       time.Duration
}

var (
	mu  sync.RWMutex
	cur = defaults()
)

func defaults() Config {
	return Config{
		Ping:        DefaultPing,
		Short:       DefaultShort,
		Medium:      DefaultMedium,
		Long:        DefaultLong,
		Integration: DefaultIntegration,
		Batch:       DefaultBatch,
	}
}

func get(pick func(Config) time.Duration) time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return pick(cur)
}

func Ping() time.Duration        { return get(func(c Config) time.Duration { return c.Ping }) }
func Short() time.Duration       { return get(func(c Config) time.Duration { return c.Short }) }
func Medium() time.Duration      { return get(func(c Config) time.Duration { return c.Medium }) }
func Long() time.Duration        { return get(func(c Config) time.Duration { return c.Long }) }
func Integration() time.Duration { return get(func(c Config) time.Duration { return c.Integration }) }
func Batch() time.Duration       { return get(func(c Config) time.Duration { return c.Batch }) }

// Configure overrides timeouts. Call during startup before handlers are built.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	set := func(dst *time.Duration, v time.Duration) {
		if v > 0 {
			*dst = v
		}
	}
	set(&cur.Ping, cfg.Ping)
	set(&cur.Short, cfg.Short)
	set(&cur.Medium, cfg.Medium)
	set(&cur.Long, cfg.Long)
	set(&cur.Integration, cfg.Integration)
	set(&cur.Batch, cfg.Batch)
}

// Reset restores all timeouts to their default values.
// Useful for testing.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	cur = defaults()
}

// Current returns the active configuration, for startup logging.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return cur
}

// WithTimeout creates a context with timeout and returns a cancel function that
// logs a warning if the context was canceled due to deadline exceeded.
//
//	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "suggestions pipeline")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
