package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jellydator/ttlcache/v2"
	"github.com/redis/go-redis/v9"
)

var ErrCacheMiss = errors.New("session not cached")

// SessionCache is secondary storage for resolved sessions keyed by token.
// The relational store stays the source of truth
type SessionCache interface {
	Get(ctx context.Context, token string) (*SessionWithUser, error)
	Set(ctx context.Context, token string, s *SessionWithUser, ttl time.Duration) error
	Delete(ctx context.Context, token string) error
	Close() error
}

// MemoryCache keeps sessions in process memory
type MemoryCache struct {
	c *ttlcache.Cache
}

func NewMemoryCache() *MemoryCache {
	c := ttlcache.NewCache()
	c.SkipTTLExtensionOnHit(true)

	return &MemoryCache{c: c}
}

func (m *MemoryCache) Get(_ context.Context, token string) (*SessionWithUser, error) {
	v, err := m.c.Get(token)
	if err != nil {
		if errors.Is(err, ttlcache.ErrNotFound) {
			return nil, ErrCacheMiss
		}

		return nil, err
	}

	sw, ok := v.(SessionWithUser)
	if !ok {
		return nil, ErrCacheMiss
	}

	sw.Refreshed = false
	return &sw, nil
}

func (m *MemoryCache) Set(_ context.Context, token string, s *SessionWithUser, ttl time.Duration) error {
	return m.c.SetWithTTL(token, *s, ttl)
}

func (m *MemoryCache) Delete(_ context.Context, token string) error {
	err := m.c.Remove(token)
	if errors.Is(err, ttlcache.ErrNotFound) {
		return nil
	}

	return err
}

func (m *MemoryCache) Close() error {
	return m.c.Close()
}

// RedisCache keeps sessions in redis as JSON so they're shared between
// instances
type RedisCache struct {
	client *redis.Client
	prefix string
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client: client,
		prefix: "session:",
	}
}

// NewRedisClient connects to redis and checks the connection
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis, %w", err)
	}

	return client, nil
}

func (r *RedisCache) key(token string) string {
	return r.prefix + token
}

func (r *RedisCache) Get(ctx context.Context, token string) (*SessionWithUser, error) {
	val, err := r.client.Get(ctx, r.key(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}

		return nil, err
	}

	var sw SessionWithUser
	if err := json.Unmarshal(val, &sw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached session, %w", err)
	}

	return &sw, nil
}

func (r *RedisCache) Set(ctx context.Context, token string, s *SessionWithUser, ttl time.Duration) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session, %w", err)
	}

	return r.client.Set(ctx, r.key(token), data, ttl).Err()
}

func (r *RedisCache) Delete(ctx context.Context, token string) error {
	return r.client.Del(ctx, r.key(token)).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
