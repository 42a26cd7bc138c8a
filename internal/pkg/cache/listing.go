package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is a JSON cache for read heavy listings. Admin writes drop a whole
// key prefix.
type Store interface {
	GetJSON(ctx context.Context, key string, dst interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	InvalidatePrefix(ctx context.Context, prefix string) error
}

type redisStore struct {
	rdb *redis.Client
}

// NewRedisStore wraps a go-redis client.
func NewRedisStore(rdb *redis.Client) Store {
	return &redisStore{rdb: rdb}
}

// NewStore returns a store on the shared cache client.
func NewStore() Store {
	return NewRedisStore(GetClient())
}

func (s *redisStore) GetJSON(ctx context.Context, key string, dst interface{}) (bool, error) {
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		// Drop entries written by an older shape.
		_ = s.rdb.Del(ctx, key).Err()
		return false, nil
	}
	return true, nil
}

func (s *redisStore) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key, raw, ttl).Err()
}

// InvalidatePrefix deletes every key starting with prefix using SCAN.
func (s *redisStore) InvalidatePrefix(ctx context.Context, prefix string) error {
	iter := s.rdb.Scan(ctx, 0, prefix+"*", 100).Iterator()
	batch := make([]string, 0, 100)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := s.rdb.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return s.rdb.Del(ctx, batch...).Err()
	}
	return nil
}

// Remember returns the cached value for key or loads, stores and returns it.
// Cache failures never fail the request.
func Remember[T any](ctx context.Context, store Store, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	var cached T
	if store != nil {
		if ok, err := store.GetJSON(ctx, key, &cached); err == nil && ok {
			return cached, nil
		}
	}
	value, err := load()
	if err != nil {
		return value, err
	}
	if store != nil {
		_ = store.SetJSON(ctx, key, value, ttl)
	}
	return value, nil
}

// NoopStore never hits.
type NoopStore struct{}

func (NoopStore) GetJSON(context.Context, string, interface{}) (bool, error) { return false, nil }
func (NoopStore) SetJSON(context.Context, string, interface{}, time.Duration) error {
	return nil
}
func (NoopStore) InvalidatePrefix(context.Context, string) error { return nil }
