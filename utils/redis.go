package utils

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mwangik8/sugar-board-backend/config"
)

// RedisClient is the shared client used for the feed channel and
// reviewer advisory locks.
var RedisClient *redis.Client

// InitRedis connects the shared client and pings once.
func InitRedis(cfg *config.Config) error {
	RedisClient = redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := RedisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}

	log.Println("✅ Redis connected")
	return nil
}

// ================ REVIEWER ADVISORY LOCKS ================
//
// One reviewer at a time per application. The lock is keyed by application
// id and expires on its own so an abandoned review never wedges the record.

const lockKeyPrefix = "review-lock:application:"

// AcquireReviewLock takes the advisory lock for an application on behalf
// of a reviewer. Returns false when another reviewer already holds it.
func AcquireReviewLock(ctx context.Context, applicationID string, reviewerID uint, ttl time.Duration) (bool, error) {
	key := lockKeyPrefix + applicationID
	return RedisClient.SetNX(ctx, key, reviewerID, ttl).Result()
}

// ReleaseReviewLock releases the lock if this reviewer holds it. Releasing
// someone else's lock is a no-op.
func ReleaseReviewLock(ctx context.Context, applicationID string, reviewerID uint) error {
	key := lockKeyPrefix + applicationID

	current, err := RedisClient.Get(ctx, key).Uint64()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}
	if uint(current) != reviewerID {
		return nil
	}
	return RedisClient.Del(ctx, key).Err()
}

// ReviewLockHolder reports which reviewer holds the lock, zero when free.
func ReviewLockHolder(ctx context.Context, applicationID string) (uint, error) {
	current, err := RedisClient.Get(ctx, lockKeyPrefix+applicationID).Uint64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return uint(current), nil
}
