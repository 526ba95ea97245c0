package ratelimiter

import (
	"context"
	"fmt"
	"time"

	"anoa.com/warbler/pkg/apperror"
	"github.com/redis/go-redis/v9"
)

type RateLimitError struct {
	Message    string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return e.Message
}

func (e *RateLimitError) Unwrap() error {
	return apperror.ErrRateLimitExceeded
}

// CheckAndSetRateLimit reports whether the action is allowed and arms the
// cooldown if it is. A nil client allows everything.
func CheckAndSetRateLimit(ctx context.Context, rdb *redis.Client, userID uint, action string, limit time.Duration) (bool, error) {
	if rdb == nil || limit <= 0 {
		return true, nil
	}

	wasSet, err := rdb.SetNX(ctx, key(userID, action), "locked", limit).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit in redis: %w", err)
	}

	return wasSet, nil
}

func GetRateLimitTTL(ctx context.Context, rdb *redis.Client, userID uint, action string) (time.Duration, error) {
	if rdb == nil {
		return 0, nil
	}
	return rdb.TTL(ctx, key(userID, action)).Result()
}

func ClearRateLimit(ctx context.Context, rdb *redis.Client, userID uint, action string) error {
	if rdb == nil {
		return nil
	}
	_, err := rdb.Del(ctx, key(userID, action)).Result()
	return err
}

func key(userID uint, action string) string {
	return fmt.Sprintf("rate_limit:user:%d:%s", userID, action)
}
