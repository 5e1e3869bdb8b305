package redis

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/avatarctic/health-cache/internal/core/domain/cache"
	"github.com/go-redis/redis/v8"
)

const (
	scanCount  = 100
	mgetBatch  = 100
	infoMemory = "memory"
)

// RedisCache implements ports.RemoteStore using a Redis client.
type RedisCache struct {
	client *redis.Client
	r      redis.Cmdable
	// optional key prefix to namespace entries
	prefix string
}

// NewRedisCache creates a new Redis-backed store.
func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{client: client, r: client, prefix: prefix}
}

func (c *RedisCache) namespaced(key string) string {
	if c.prefix == "" {
		return key
	}
	return c.prefix + ":" + key
}

func (c *RedisCache) stripNamespace(key string) string {
	if c.prefix == "" {
		return key
	}
	return strings.TrimPrefix(key, c.prefix+":")
}

// Get implements Store.Get.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.r.Get(ctx, c.namespaced(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

// Set implements Store.Set.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.r.Set(ctx, c.namespaced(key), value, ttl).Err()
}

// Delete implements Store.Delete.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.r.Del(ctx, c.namespaced(key)).Err()
}

// Clear implements Store.Clear. Without a prefix the whole logical database
// belongs to the cache and is flushed.
func (c *RedisCache) Clear(ctx context.Context) error {
	if c.prefix == "" {
		return c.r.FlushDB(ctx).Err()
	}
	keys, err := c.scan(ctx, c.prefix+":*")
	if err != nil {
		return err
	}
	for start := 0; start < len(keys); start += mgetBatch {
		end := min(start+mgetBatch, len(keys))
		if err := c.r.Del(ctx, keys[start:end]...).Err(); err != nil {
			return err
		}
	}
	return nil
}

// Match implements Store.Match. Keys that expire between SCAN and MGET are
// skipped.
func (c *RedisCache) Match(ctx context.Context, pattern *cache.Pattern) ([]cache.KeyValue, error) {
	keys, err := c.scan(ctx, c.namespaced(pattern.RedisGlob()))
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)

	results := make([]cache.KeyValue, 0, len(keys))
	for start := 0; start < len(keys); start += mgetBatch {
		end := min(start+mgetBatch, len(keys))
		vals, err := c.r.MGet(ctx, keys[start:end]...).Result()
		if err != nil {
			return nil, err
		}
		for i, v := range vals {
			s, ok := v.(string)
			if !ok {
				continue
			}
			results = append(results, cache.KeyValue{
				Key:   c.stripNamespace(keys[start+i]),
				Value: []byte(s),
			})
		}
	}
	return results, nil
}

func (c *RedisCache) scan(ctx context.Context, match string) ([]string, error) {
	seen := make(map[string]struct{})
	var keys []string
	iter := c.r.Scan(ctx, 0, match, scanCount).Iterator()
	for iter.Next(ctx) {
		k := iter.Val()
		// SCAN may return a key more than once
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}

// Ping implements RemoteStore.Ping.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.r.Ping(ctx).Err()
}

// MemoryInfo implements RemoteStore.MemoryInfo using INFO memory.
func (c *RedisCache) MemoryInfo(ctx context.Context) (map[string]string, error) {
	info, err := c.r.Info(ctx, infoMemory).Result()
	if err != nil {
		return nil, err
	}
	return ParseMemoryInfo(info), nil
}

// Close implements RemoteStore.Close.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// ParseMemoryInfo keeps the INFO fields whose name mentions memory.
func ParseMemoryInfo(info string) map[string]string {
	out := make(map[string]string)
	for _, line := range strings.Split(info, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok || !strings.Contains(name, "memory") {
			continue
		}
		out[name] = value
	}
	return out
}
