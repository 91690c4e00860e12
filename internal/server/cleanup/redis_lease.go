package cleanup

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultLeaseKey is the redis key guarding the sweep.
const DefaultLeaseKey = "bankauth:cleanup:lease"

// RedisLease grants the lease to whoever sets the key first; the key expires
// after ttl so the next interval is up for grabs again.
type RedisLease struct {
	client redis.Cmdable
	key    string
	owner  string
}

func NewRedisLease(client redis.Cmdable, key string) *RedisLease {
	if key == "" {
		key = DefaultLeaseKey
	}
	host, _ := os.Hostname()
	return &RedisLease{
		client: client,
		key:    key,
		owner:  fmt.Sprintf("%s/%s", host, uuid.NewString()),
	}
}

func (l *RedisLease) Acquire(ctx context.Context, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key, l.owner, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis error: %w", err)
	}
	return ok, nil
}
