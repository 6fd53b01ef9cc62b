package expiry

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type subscriptionExpirer interface {
	ExpireSubscriptions(ctx context.Context, now time.Time) (int64, error)
}

// Job downgrades users whose subscription period has ended to the free tier.
type Job struct {
	users  subscriptionExpirer
	now    func() time.Time
	logger *zap.Logger
}

func New(users subscriptionExpirer, logger *zap.Logger) *Job {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Job{
		users:  users,
		now:    time.Now,
		logger: logger,
	}
}

func (j *Job) Run(ctx context.Context) error {
	if j.users == nil {
		return nil
	}

	rows, err := j.users.ExpireSubscriptions(ctx, j.now().UTC())
	if err != nil {
		return fmt.Errorf("expire subscriptions: %w", err)
	}
	if rows > 0 {
		j.logger.Info("expired subscriptions downgraded", zap.Int64("downgraded", rows))
	}
	return nil
}
