package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// OutboxReplayer writes queued notifications. Implemented by services.NotificationService.
type OutboxReplayer interface {
	ReplayOutbox(ctx context.Context) (int, error)
}

// OutboxRelay drains the notification outbox.
type OutboxRelay struct {
	Replayer OutboxReplayer
	Timeout  time.Duration
}

// NewOutboxRelay creates a relay whose runs are bounded by timeout.
func NewOutboxRelay(replayer OutboxReplayer, timeout time.Duration) *OutboxRelay {
	return &OutboxRelay{
		Replayer: replayer,
		Timeout:  timeout,
	}
}

// Run replays one batch of due notifications.
func (j *OutboxRelay) Run(ctx context.Context) error {
	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}

	delivered, err := j.Replayer.ReplayOutbox(ctx)
	if err != nil {
		return fmt.Errorf("failed to replay notification outbox: %w", err)
	}

	if delivered > 0 {
		logrus.WithField("delivered", delivered).Info("Replayed queued notifications")
	}
	return nil
}
