package caching

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheService backs the server-tracked pieces of the identity core: the
// refresh-token store, login throttling, and the short-lived permission-set
// cache. Misses are reported as empty values, not errors.
type CacheService interface {
	SetString(ctx context.Context, key, value string, ttl time.Duration) error
	GetString(ctx context.Context, key string) (string, error)
	// GetDel atomically reads and removes a key. Refresh-token rotation
	// relies on this: the first concurrent claim wins, every replay loses.
	GetDel(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
	IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	// Accept redis:// and rediss:// style addresses as plain host:port.
	addr = strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://")

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &redisCacheService{client: client}
}

func (r *redisCacheService) SetString(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *redisCacheService) GetString(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", err
	}
	return val, nil
}

func (r *redisCacheService) GetDel(ctx context.Context, key string) (string, error) {
	val, err := r.client.GetDel(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", err
	}
	return val, nil
}

func (r *redisCacheService) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *redisCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		// Fail open on cache trouble: throttling is a hardening layer, not
		// the authentication decision itself.
		return false, err
	}
	if count == 1 {
		r.client.Expire(ctx, key, window)
	}
	return count > int64(limit), nil
}
