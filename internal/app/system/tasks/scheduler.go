// internal/app/system/tasks/scheduler.go
package tasks

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is a named unit of background work. Exactly one of Daily (HH:MM in the
// scheduler's location) or Every must be set.
type Job struct {
	Name    string
	Daily   string
	Every   time.Duration
	Timeout time.Duration
	Run     func(ctx context.Context) error
}

// Scheduler runs Jobs on a cron clock.
type Scheduler struct {
	cron *cron.Cron
	log  *zap.Logger
}

// NewScheduler creates a stopped scheduler evaluating daily times in loc.
func NewScheduler(loc *time.Location, logger *zap.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		cron: cron.New(cron.WithLocation(loc), cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		log:  logger,
	}
}

// Add registers j.
func (s *Scheduler) Add(j Job) error {
	spec, err := jobSpec(j)
	if err != nil {
		return fmt.Errorf("job %s: %w", j.Name, err)
	}
	if _, err := s.cron.AddFunc(spec, func() { s.runOnce(j) }); err != nil {
		return fmt.Errorf("job %s: %w", j.Name, err)
	}
	s.log.Info("job scheduled", zap.String("job", j.Name), zap.String("spec", spec))
	return nil
}

func (s *Scheduler) runOnce(j Job) {
	timeout := j.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("job panicked", zap.String("job", j.Name), zap.Any("panic", r))
		}
	}()
	if err := j.Run(ctx); err != nil {
		s.log.Error("job failed", zap.String("job", j.Name), zap.Duration("took", time.Since(start)), zap.Error(err))
		return
	}
	s.log.Debug("job finished", zap.String("job", j.Name), zap.Duration("took", time.Since(start)))
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", zap.Int("jobs", len(s.cron.Entries())))
}

// Stop stops scheduling and waits for running jobs or ctx, whichever ends
// first.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.log.Info("scheduler stopped")
	case <-ctx.Done():
		s.log.Warn("scheduler stop timed out with jobs still running")
	}
}

func jobSpec(j Job) (string, error) {
	switch {
	case j.Run == nil:
		return "", fmt.Errorf("no Run func")
	case j.Daily != "" && j.Every > 0:
		return "", fmt.Errorf("set Daily or Every, not both")
	case j.Daily != "":
		return DailySpec(j.Daily)
	case j.Every > 0:
		secs := int(j.Every.Seconds())
		if secs < 1 {
			secs = 1
		}
		return fmt.Sprintf("@every %ds", secs), nil
	}
	return "", fmt.Errorf("no schedule")
}

// DailySpec converts "HH:MM" into a six-field cron spec.
func DailySpec(hhmm string) (string, error) {
	hs, ms, ok := strings.Cut(strings.TrimSpace(hhmm), ":")
	if !ok {
		return "", fmt.Errorf("invalid time %q, expected HH:MM", hhmm)
	}
	hour, err := strconv.Atoi(hs)
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid hour in %q", hhmm)
	}
	minute, err := strconv.Atoi(ms)
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid minute in %q", hhmm)
	}
	return fmt.Sprintf("0 %d %d * * *", minute, hour), nil
}
