package store

import (
	"context"
	"errors"
	"fmt"

	"pepeboard/internal/models"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the document as a single string value.
type RedisStore struct {
	rdb *redis.Client
	key string
}

// NewRedisStore returns a store that reads and writes key on rdb.
func NewRedisStore(rdb *redis.Client, key string) *RedisStore {
	return &RedisStore{rdb: rdb, key: key}
}

func (s *RedisStore) Name() string { return "redis" }

func (s *RedisStore) Load(ctx context.Context) (models.Collection, error) {
	data, err := s.rdb.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		// SETNX so a concurrent first save is not clobbered.
		created, serr := s.rdb.SetNX(ctx, s.key, emptyDocument, 0).Result()
		if serr != nil {
			return nil, models.NewStorageError(fmt.Errorf("init %s: %w", s.key, serr))
		}
		if created {
			return models.Collection{}, nil
		}
		// Another writer got there first; read what it stored.
		data, err = s.rdb.Get(ctx, s.key).Bytes()
	}
	if err != nil {
		return nil, models.NewStorageError(fmt.Errorf("get %s: %w", s.key, err))
	}

	posts, err := decode(data)
	if err != nil {
		return nil, models.NewStorageError(fmt.Errorf("%s: %w", s.key, err))
	}
	return posts, nil
}

func (s *RedisStore) Save(ctx context.Context, posts models.Collection) error {
	data, err := encode(posts)
	if err != nil {
		return models.NewStorageError(err)
	}
	if err := s.rdb.Set(ctx, s.key, data, 0).Err(); err != nil {
		return models.NewStorageError(fmt.Errorf("set %s: %w", s.key, err))
	}
	return nil
}

// Close is a no-op; the client is shared and closed by its owner.
func (s *RedisStore) Close() error { return nil }

// Ping reports whether Redis is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
