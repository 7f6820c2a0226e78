package kv

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisStore keeps records as plain string keys with JSON payloads.
type RedisStore struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewRedis constructs a redis-backed store.
func NewRedis(client *redis.Client, logger zerolog.Logger) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("kv: redis client must be provided")
	}

	return &RedisStore{
		client: client,
		logger: logger.With().Str("component", "kv_redis").Logger(),
	}, nil
}

// Set upserts a single record.
func (s *RedisStore) Set(ctx context.Context, key string, value interface{}) error {
	payload, err := marshalValue("set", value)
	if err != nil {
		return err
	}

	return storageErr("set", s.client.Set(ctx, key, []byte(payload), 0).Err())
}

// Get returns the value stored at key, if any.
func (s *RedisStore) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	payload, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, storageErr("get", err)
	}

	return json.RawMessage(payload), true, nil
}

// Delete removes the record at key, if present.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return storageErr("delete", s.client.Del(ctx, key).Err())
}

// SetMany upserts all pairs in one batch.
func (s *RedisStore) SetMany(ctx context.Context, keys []string, values []interface{}) error {
	if len(keys) != len(values) {
		return storageErr("mset", fmt.Errorf("got %d keys for %d values", len(keys), len(values)))
	}
	if len(keys) == 0 {
		return nil
	}

	pairs := make([]interface{}, 0, 2*len(keys))
	for i, key := range keys {
		payload, err := marshalValue("mset", values[i])
		if err != nil {
			return err
		}
		pairs = append(pairs, key, []byte(payload))
	}

	return storageErr("mset", s.client.MSet(ctx, pairs...).Err())
}

// GetMany returns the values found among keys.
func (s *RedisStore) GetMany(ctx context.Context, keys []string) ([]json.RawMessage, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	results, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, storageErr("mget", err)
	}

	values := make([]json.RawMessage, 0, len(results))
	for _, result := range results {
		text, ok := result.(string)
		if !ok {
			continue
		}
		values = append(values, json.RawMessage(text))
	}
	return values, nil
}

// DeleteMany removes every record whose key is in keys.
func (s *RedisStore) DeleteMany(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	return storageErr("mdel", s.client.Del(ctx, keys...).Err())
}

// GetByPrefix returns all values whose key starts with prefix.
func (s *RedisStore) GetByPrefix(ctx context.Context, prefix string) ([]json.RawMessage, error) {
	pattern := escapeGlob(prefix) + "*"

	var keys []string
	var cursor uint64
	for {
		batch, next, err := s.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, storageErr("prefix", err)
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			break
		}
	}

	return s.GetMany(ctx, keys)
}

// escapeGlob neutralises redis MATCH wildcards so the prefix matches literally.
func escapeGlob(prefix string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)
	return replacer.Replace(prefix)
}
