package cron

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopJob struct{}

func (nopJob) Run(context.Context) error { return nil }

func TestStartNotificationCronJobs(t *testing.T) {
	c, err := StartNotificationCronJobs(nopJob{}, "@every 1m")
	require.NoError(t, err)
	defer c.Stop()

	assert.Len(t, c.Entries(), 1)
}

func TestStartNotificationCronJobsRejectsBadSchedule(t *testing.T) {
	_, err := StartNotificationCronJobs(nopJob{}, "not a schedule")
	assert.Error(t, err)
}

type slowJob struct {
	started  chan struct{}
	finished atomic.Bool
}

func (j *slowJob) Run(context.Context) error {
	select {
	case j.started <- struct{}{}:
	default:
	}
	time.Sleep(200 * time.Millisecond)
	j.finished.Store(true)
	return nil
}

func TestStopNotificationCronJobsWaitsForRunningJob(t *testing.T) {
	job := &slowJob{started: make(chan struct{}, 1)}
	c, err := StartNotificationCronJobs(job, "@every 1s")
	require.NoError(t, err)

	select {
	case <-job.started:
	case <-time.After(3 * time.Second):
		t.Fatal("job never started")
	}
	StopNotificationCronJobs(c)

	assert.True(t, job.finished.Load())
}
