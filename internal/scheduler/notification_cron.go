package cron

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Job is a unit of scheduled work.
type Job interface {
	Run(ctx context.Context) error
}

// StartNotificationCronJobs schedules the outbox relay and starts the
// scheduler. The caller stops it on shutdown.
func StartNotificationCronJobs(outboxRelay Job, schedule string) (*cron.Cron, error) {
	c := cron.New()

	// Replay notifications whose first write failed
	if _, err := c.AddFunc(schedule, func() {
		if err := outboxRelay.Run(context.Background()); err != nil {
			logrus.WithError(err).Error("Notification outbox relay failed")
		}
	}); err != nil {
		return nil, fmt.Errorf("invalid outbox schedule %q: %w", schedule, err)
	}

	c.Start()
	logrus.WithField("schedule", schedule).Info("Notification cron jobs started")
	return c, nil
}

// StopNotificationCronJobs stops the scheduler and blocks until running jobs
// have returned.
func StopNotificationCronJobs(c *cron.Cron) {
	<-c.Stop().Done()
	logrus.Info("Notification cron jobs stopped")
}
