package cron

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Marga-Ghale/ora-tracker/internal/logutils"
	"github.com/Marga-Ghale/ora-tracker/internal/types"
)

var log = logutils.Component("cron")

// Every Sunday at midnight
const cleanupSchedule = "0 0 * * 0"

// NotificationPurger deletes read notifications of one type created before a cutoff.
type NotificationPurger interface {
	DeleteReadOlderThan(ctx context.Context, notificationType string, before time.Time) (int, error)
}

// Scheduler handles scheduled housekeeping
type Scheduler struct {
	cron      *cron.Cron
	purger    NotificationPurger
	retention time.Duration
	now       func() time.Time
}

// NewScheduler creates a scheduler that keeps read comment notifications for retentionDays.
func NewScheduler(purger NotificationPurger, retentionDays int) *Scheduler {
	if retentionDays <= 0 {
		retentionDays = 30
	}
	return &Scheduler{
		cron:      cron.New(),
		purger:    purger,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		now:       time.Now,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(cleanupSchedule, func() {
		log.Info("running notification cleanup")
		s.cleanupOldNotifications()
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	log.Info("scheduler started")
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Info("scheduler stopped")
}

// cleanupOldNotifications removes read Comment notifications past retention.
// Invite notifications stay until the invitation is accepted.
func (s *Scheduler) cleanupOldNotifications() int {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := s.now().Add(-s.retention)
	deleted, err := s.purger.DeleteReadOlderThan(ctx, types.NotificationComment, cutoff)
	if err != nil {
		log.WithError(err).Error("notification cleanup failed")
		return 0
	}

	log.WithFields(logutils.Fields{"deleted": deleted, "before": cutoff.Format(time.RFC3339)}).
		Info("notification cleanup finished")
	return deleted
}

// ManualTrigger runs a job immediately.
func (s *Scheduler) ManualTrigger(checkType string) {
	switch checkType {
	case "cleanup", "all":
		s.cleanupOldNotifications()
	default:
		log.WithField("job", checkType).Warn("unknown job")
	}
}
