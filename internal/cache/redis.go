package cache

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/fd1az/lp-portfolio/internal/apperror"
)

// Redis is a Store backed by Redis, for sharing lookups between instances.
// Values are JSON encoded and written without expiry.
type Redis[V any] struct {
	client redis.UniversalClient
	prefix string
}

var _ Store[int] = (*Redis[int])(nil)

// NewRedis returns a Redis store namespacing keys under prefix.
func NewRedis[V any](client redis.UniversalClient, prefix string) *Redis[V] {
	return &Redis[V]{client: client, prefix: prefix}
}

func (r *Redis[V]) key(k string) string {
	return r.prefix + ":" + k
}

func (r *Redis[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var v V
	raw, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return v, false, nil
	}
	if err != nil {
		return v, false, apperror.New(apperror.CodeCacheError, apperror.WithContext(key), apperror.WithCause(err))
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, false, apperror.New(apperror.CodeCacheError, apperror.WithContext(key), apperror.WithCause(err))
	}
	return v, true, nil
}

func (r *Redis[V]) Set(ctx context.Context, key string, value V) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return apperror.New(apperror.CodeCacheError, apperror.WithContext(key), apperror.WithCause(err))
	}
	if err := r.client.Set(ctx, r.key(key), raw, 0).Err(); err != nil {
		return apperror.New(apperror.CodeCacheError, apperror.WithContext(key), apperror.WithCause(err))
	}
	return nil
}
