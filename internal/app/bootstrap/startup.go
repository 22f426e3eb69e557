// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	auditstore "github.com/dalemusser/taskquest/internal/app/store/audit"
	reminderstore "github.com/dalemusser/taskquest/internal/app/store/reminders"
	"github.com/dalemusser/taskquest/internal/app/system/tasks"
	"github.com/dalemusser/taskquest/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It applies
// the configured handler timeouts and starts the background jobs.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Short:       appCfg.TimeoutShort,
		Medium:      appCfg.TimeoutMedium,
		Long:        appCfg.TimeoutLong,
		Integration: appCfg.IntegrationTimeout,
	})
	cur := timeouts.Current()
	logger.Info("handler timeouts",
		zap.Duration("short", cur.Short),
		zap.Duration("medium", cur.Medium),
		zap.Duration("long", cur.Long),
		zap.Duration("integration", cur.Integration),
	)

	loc, err := time.LoadLocation(appCfg.ReminderTimeZone)
	if err != nil {
		return fmt.Errorf("reminder time zone: %w", err)
	}
	for _, j := range backgroundJobs(appCfg, deps, loc, logger) {
		if err := deps.Scheduler.Add(j); err != nil {
			return fmt.Errorf("schedule %s: %w", j.Name, err)
		}
	}
	deps.Scheduler.Start()
	logger.Info("scheduler started",
		zap.String("reminder_time", appCfg.ReminderTime),
		zap.String("time_zone", loc.String()),
	)
	return nil
}

func backgroundJobs(appCfg AppConfig, deps DBDeps, loc *time.Location, logger *zap.Logger) []tasks.Job {
	reminders := reminderstore.New(deps.MongoDatabase, loc)
	return []tasks.Job{
		tasks.ReminderDigestJob(reminders, logger, appCfg.ReminderTime, appCfg.ReminderDueWithin, nil),
		tasks.AuditRetentionJob(auditstore.New(deps.MongoDatabase), logger, appCfg.AuditRetention),
	}
}
