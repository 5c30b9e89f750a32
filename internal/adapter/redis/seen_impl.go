package redis

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/user/dealwatch/internal/repository"
)

// DefaultSeenKey is the set holding every listing id recorded by the pipeline.
const DefaultSeenKey = "dealwatch:seen"

// SeenCacheImpl provides a concrete implementation for the SeenCache interface using a Redis set.
type SeenCacheImpl struct {
	client *redis.Client
	key    string
}

// NewSeenCache creates a cache backed by the set at key. An empty key uses DefaultSeenKey.
func NewSeenCache(client *redis.Client, key string) *SeenCacheImpl {
	if key == "" {
		key = DefaultSeenKey
	}
	return &SeenCacheImpl{client: client, key: key}
}

// NewClient builds a client from connection settings.
func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// IsSeen checks set membership for id.
func (c *SeenCacheImpl) IsSeen(ctx context.Context, id string) (bool, error) {
	return c.client.SIsMember(ctx, c.key, id).Result()
}

// MarkSeen adds id to the set. SADD is idempotent.
func (c *SeenCacheImpl) MarkSeen(ctx context.Context, id string) error {
	return c.client.SAdd(ctx, c.key, id).Err()
}

func (c *SeenCacheImpl) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *SeenCacheImpl) Close() error {
	return c.client.Close()
}

var _ repository.SeenCache = (*SeenCacheImpl)(nil)
