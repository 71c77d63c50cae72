package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"github.com/VoxKiosk/OrderOS/backend/internal/shared/types"
)

const cartKey = "kiosk:cart"

// Redis persists cart snapshots in a Redis key. Snapshots are written with
// a TTL slightly past the freshness bound; the freshness check itself stays
// with the cart so behavior does not depend on Redis expiry precision.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// RedisConfig configures the Redis store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// TTL bounds how long a snapshot survives in Redis. Zero means no expiry.
	TTL time.Duration
}

// NewRedis connects to Redis and verifies the connection.
func NewRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	return &Redis{client: client, ttl: cfg.TTL}, nil
}

func (r *Redis) Save(ctx context.Context, snap types.CartSnapshot) error {
	data, err := sonic.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal cart snapshot: %w", err)
	}
	if err := r.client.Set(ctx, cartKey, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to persist cart snapshot: %w", err)
	}
	return nil
}

func (r *Redis) Load(ctx context.Context) (types.CartSnapshot, bool, error) {
	data, err := r.client.Get(ctx, cartKey).Bytes()
	if err == redis.Nil {
		return types.CartSnapshot{}, false, nil
	}
	if err != nil {
		return types.CartSnapshot{}, false, fmt.Errorf("failed to read cart snapshot: %w", err)
	}

	var snap types.CartSnapshot
	if err := sonic.Unmarshal(data, &snap); err != nil {
		return types.CartSnapshot{}, false, fmt.Errorf("failed to decode cart snapshot: %w", err)
	}
	return snap, true, nil
}

func (r *Redis) Delete(ctx context.Context) error {
	if err := r.client.Del(ctx, cartKey).Err(); err != nil {
		return fmt.Errorf("failed to delete cart snapshot: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}
