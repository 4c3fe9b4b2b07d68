package application

import (
	"context"
	"time"

	"github.com/mwangik8/sugar-board-backend/utils"
)

// RedisLocker backs the review lock with the shared redis client. The TTL
// bounds how long an abandoned claim can hold an application.
type RedisLocker struct {
	TTL time.Duration
}

func NewRedisLocker(ttl time.Duration) *RedisLocker {
	return &RedisLocker{TTL: ttl}
}

func (l *RedisLocker) Acquire(ctx context.Context, applicationID string, reviewerID uint) (bool, error) {
	return utils.AcquireReviewLock(ctx, applicationID, reviewerID, l.TTL)
}

func (l *RedisLocker) Release(ctx context.Context, applicationID string, reviewerID uint) error {
	return utils.ReleaseReviewLock(ctx, applicationID, reviewerID)
}

func (l *RedisLocker) Holder(ctx context.Context, applicationID string) (uint, error) {
	return utils.ReviewLockHolder(ctx, applicationID)
}
