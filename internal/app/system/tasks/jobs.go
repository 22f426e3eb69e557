// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DigestBuilder writes the reminder digests for one day.
type DigestBuilder interface {
	BuildDigests(ctx context.Context, now time.Time, dueWithin time.Duration) (int, error)
}

// AuditPruner deletes audit events older than a cutoff.
type AuditPruner interface {
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// ReminderDigestJob writes one digest per user with open tasks, daily at hhmm.
func ReminderDigestJob(b DigestBuilder, logger *zap.Logger, hhmm string, dueWithin time.Duration, now func() time.Time) Job {
	if now == nil {
		now = time.Now
	}
	return Job{
		Name:    "reminder-digest",
		Daily:   hhmm,
		Timeout: 10 * time.Minute,
		Run: func(ctx context.Context) error {
			n, err := b.BuildDigests(ctx, now(), dueWithin)
			if err != nil {
				return err
			}
			logger.Info("reminder digests written", zap.Int("users", n))
			return nil
		},
	}
}

// AuditRetentionJob prunes audit events older than keep, hourly. A
// non-positive keep disables pruning.
func AuditRetentionJob(p AuditPruner, logger *zap.Logger, keep time.Duration) Job {
	return Job{
		Name:  "audit-retention",
		Every: time.Hour,
		Run: func(ctx context.Context) error {
			if keep <= 0 {
				return nil
			}
			n, err := p.DeleteBefore(ctx, time.Now().UTC().Add(-keep))
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Debug("pruned audit events", zap.Int64("count", n))
			}
			return nil
		},
	}
}
