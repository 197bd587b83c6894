package runner

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisCoordinator serializes batch runs through a SetNX lock and mirrors
// live progress into a hash for the ready/ops surface. The lock carries a TTL
// so a crashed run cannot wedge the system.
type RedisCoordinator struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.SugaredLogger
}

func NewRedisCoordinator(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisCoordinator {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RedisCoordinator{client: client, ttl: ttl, logger: logger.Sugar()}
}

func lockKey(kind string) string     { return "run:" + kind + ":lock" }
func progressKey(kind string) string { return "run:" + kind + ":live" }

func (c *RedisCoordinator) AcquireLock(ctx context.Context, kind string) (bool, error) {
	return c.client.SetNX(ctx, lockKey(kind), "1", c.ttl).Result()
}

func (c *RedisCoordinator) ReleaseLock(ctx context.Context, kind string) {
	if err := c.client.Del(ctx, lockKey(kind)).Err(); err != nil {
		c.logger.Warnw("Failed to release run lock", "kind", kind, "error", err)
	}
}

func (c *RedisCoordinator) SetProgress(ctx context.Context, kind string, done, total int) {
	err := c.client.HSet(ctx, progressKey(kind),
		"done", strconv.Itoa(done),
		"total", strconv.Itoa(total),
		"updated_at", time.Now().UTC().Format(time.RFC3339),
	).Err()
	if err != nil {
		c.logger.Debugw("Failed to publish run progress", "kind", kind, "error", err)
	}
}

func (c *RedisCoordinator) ClearProgress(ctx context.Context, kind string) {
	if err := c.client.Del(ctx, progressKey(kind)).Err(); err != nil {
		c.logger.Debugw("Failed to clear run progress", "kind", kind, "error", err)
	}
}
