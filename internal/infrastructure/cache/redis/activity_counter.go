package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"fraud-risk-engine/internal/domain/risk"
)

// counterTTL bounds how much velocity history is retained per key. It must
// cover the longest configurable velocity window.
const counterTTL = 24 * time.Hour

// ActivityCounter tracks per-user activity timestamps in Redis sorted sets
// so the velocity check can count a window without touching Postgres. It
// implements risk.ActivityCounter.
type ActivityCounter struct {
	client *Client
}

// NewActivityCounter creates a new activity counter
func NewActivityCounter(client *Client) *ActivityCounter {
	return &ActivityCounter{client: client}
}

func counterKey(userID uuid.UUID, activityType risk.ActivityType) string {
	return fmt.Sprintf("activity:user:%s:%s", userID.String(), string(activityType))
}

// Record adds one activity occurrence for velocity tracking
func (c *ActivityCounter) Record(ctx context.Context, userID uuid.UUID, activityType risk.ActivityType, at time.Time) error {
	key := counterKey(userID, activityType)

	// Sorted set with timestamp as score for efficient range counting
	member := redis.Z{
		Score:  float64(at.Unix()),
		Member: fmt.Sprintf("%d:%s", at.UnixNano(), uuid.New().String()),
	}
	if err := c.client.ZAdd(ctx, key, member); err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}

	if err := c.client.Expire(ctx, key, counterTTL); err != nil {
		return fmt.Errorf("failed to set expiration: %w", err)
	}

	// Trim entries past the retention horizon, best effort
	cutoff := at.Add(-counterTTL).Unix()
	c.client.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(cutoff, 10))

	return nil
}

// CountByUserAndType counts activities of one type since a point in time
func (c *ActivityCounter) CountByUserAndType(ctx context.Context, userID uuid.UUID, activityType risk.ActivityType, since time.Time) (int64, error) {
	key := counterKey(userID, activityType)

	count, err := c.client.ZCount(ctx, key, strconv.FormatInt(since.Unix(), 10), "+inf")
	if err != nil {
		return 0, fmt.Errorf("failed to count activities: %w", err)
	}
	return count, nil
}
