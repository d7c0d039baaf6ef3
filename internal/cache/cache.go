package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"

	appredis "github.com/Varun5711/bookshelf/internal/redis"
)

// Cache is a two-tier cache: an in-process expirable LRU in front of an optional redis.
// A nil redis client makes it L1 only.
type Cache struct {
	l1Cache *lru.LRU[string, string]
	l2Cache *redis.Client
	l2TTL   time.Duration
	prefix  string
}

func NewMultiTierCache(l1Capacity int, redisClient *redis.Client, l2TTL time.Duration) *Cache {
	return &Cache{
		l1Cache: lru.NewLRU[string, string](l1Capacity, nil, l2TTL),
		l2Cache: redisClient,
		l2TTL:   l2TTL,
		prefix:  appredis.Namespace("cache"),
	}
}

func (c *Cache) Get(ctx context.Context, key string) (string, bool) {
	if val, found := c.l1Cache.Get(key); found {
		return val, true
	}

	if c.l2Cache == nil {
		return "", false
	}

	val, err := c.l2Cache.Get(ctx, c.prefix+key).Result()
	if err == nil {
		c.l1Cache.Add(key, val)
		return val, true
	}

	return "", false
}

func (c *Cache) Set(ctx context.Context, key string, value string) error {
	c.l1Cache.Add(key, value)
	if c.l2Cache == nil {
		return nil
	}
	return c.l2Cache.Set(ctx, c.prefix+key, value, c.l2TTL).Err()
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	c.l1Cache.Remove(key)
	if c.l2Cache == nil {
		return nil
	}
	err := c.l2Cache.Del(ctx, c.prefix+key).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}

func (c *Cache) Len() int {
	return c.l1Cache.Len()
}

func (c *Cache) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	val, found := c.Get(ctx, key)
	if !found {
		return false, nil
	}

	err := json.Unmarshal([]byte(val), dest)
	if err != nil {
		return false, err
	}

	return true, nil
}

func (c *Cache) SetJSON(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return c.Set(ctx, key, string(data))
}
