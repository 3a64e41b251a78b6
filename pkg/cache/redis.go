package cache

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/matzehuels/schemahub/pkg/errors"
)

// DefaultRedisKey is the hash holding owner → fingerprint.
const DefaultRedisKey = "schemahub:notifications"

// RedisConfig defines Redis connection settings.
type RedisConfig struct {
	Addr     string
	Username string
	Password string
	Database int
	Key      string
}

// RedisStore keeps the document in a single Redis hash.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	addr := cfg.Addr
	if addr == "" {
		addr = "localhost:6379"
	}
	key := cfg.Key
	if key == "" {
		key = DefaultRedisKey
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.Database,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "connect to redis at %s", addr)
	}
	return &RedisStore{client: client, key: key}, nil
}

// Load reads the hash.
func (s *RedisStore) Load(ctx context.Context) (map[string]string, error) {
	m, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "load notification cache")
	}
	return m, nil
}

// Replace deletes and rewrites the hash inside one MULTI/EXEC transaction.
func (s *RedisStore) Replace(ctx context.Context, entries map[string]string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key)
		if len(entries) > 0 {
			values := make([]any, 0, 2*len(entries))
			for owner, fp := range entries {
				values = append(values, owner, fp)
			}
			pipe.HSet(ctx, s.key, values...)
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "persist notification cache")
	}
	return nil
}

// Close closes the client.
func (s *RedisStore) Close() error { return s.client.Close() }

// String describes the store for logs.
func (s *RedisStore) String() string {
	return fmt.Sprintf("redis://%s/%s", s.client.Options().Addr, s.key)
}

// Ensure RedisStore implements Store.
var _ Store = (*RedisStore)(nil)
