package snapshotstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/libmcu/ocpp-session-core/internal/config"
)

// ErrNotFound is returned by Load when no snapshot exists for a given
// charge point id.
var ErrNotFound = errors.New("snapshotstore: not found")

// RedisStore stores snapshot blobs in Redis under a fixed key prefix,
// following the teacher's RedisStorage: a thin wrapper over
// *redis.Client with an exported Client/Prefix so tests can inject a
// redismock client directly.
type RedisStore struct {
	Client *redis.Client
	Prefix string
	TTL    time.Duration
}

// NewRedisStore dials Redis and verifies the connection with a Ping,
// the way NewRedisStorage does.
func NewRedisStore(cfg config.RedisConfig, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("snapshotstore: connect to redis at %s: %w", cfg.Addr, err)
	}

	return &RedisStore{Client: client, Prefix: "snapshot:", TTL: ttl}, nil
}

func (r *RedisStore) key(chargePointID string) string {
	return fmt.Sprintf("%s%s", r.Prefix, chargePointID)
}

// Save writes blob with the store's configured TTL, so a session that
// never resumes eventually ages out instead of accumulating forever.
func (r *RedisStore) Save(ctx context.Context, chargePointID string, blob []byte) error {
	if err := r.Client.Set(ctx, r.key(chargePointID), blob, r.TTL).Err(); err != nil {
		return fmt.Errorf("snapshotstore: save %s: %w", chargePointID, err)
	}
	return nil
}

// Load returns ErrNotFound (not redis.Nil) when the key is absent, so
// callers need not import the redis package themselves.
func (r *RedisStore) Load(ctx context.Context, chargePointID string) ([]byte, error) {
	val, err := r.Client.Get(ctx, r.key(chargePointID)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("snapshotstore: load %s: %w", chargePointID, err)
	}
	return val, nil
}

func (r *RedisStore) Delete(ctx context.Context, chargePointID string) error {
	if err := r.Client.Del(ctx, r.key(chargePointID)).Err(); err != nil {
		return fmt.Errorf("snapshotstore: delete %s: %w", chargePointID, err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.Client.Close()
}
