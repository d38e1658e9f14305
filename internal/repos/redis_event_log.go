package repos

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	eventKeyPrefix = "webhook:event:"
	eventKeyTTL    = 72 * time.Hour
)

// RedisEventLog is the Redis-backed alternative to EventRepo, used when
// several web instances share one processor endpoint.
type RedisEventLog struct {
	client *redis.Client
}

func NewRedisEventLog(client *redis.Client) *RedisEventLog {
	return &RedisEventLog{client: client}
}

func (r *RedisEventLog) Claim(ctx context.Context, id string) (bool, error) {
	return r.client.SetNX(ctx, eventKeyPrefix+id, 1, eventKeyTTL).Result()
}

func (r *RedisEventLog) Release(ctx context.Context, id string) error {
	return r.client.Del(ctx, eventKeyPrefix+id).Err()
}
