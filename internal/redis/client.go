package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces every key the API writes so one redis can be shared with other apps.
const KeyPrefix = "bookshelf"

// Key joins parts under KeyPrefix, e.g. Key("ratelimit", ip) is "bookshelf:ratelimit:<ip>".
// Empty parts are skipped.
func Key(parts ...string) string {
	var b strings.Builder
	b.WriteString(KeyPrefix)
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.WriteByte(':')
		b.WriteString(p)
	}
	return b.String()
}

// Namespace is Key with a trailing separator, for callers that append their own suffix.
func Namespace(parts ...string) string {
	return Key(parts...) + ":"
}

// MigrateLockKey guards schema migrations when several instances start together.
var MigrateLockKey = Key("lock", "migrate")

// RedisClient backs the search cache's second tier, the rate limiter and the migration lock.
type RedisClient struct {
	client *redis.Client
	addr   string
}

type Config struct {
	Addr     string
	Password string
	DB       int
}

func NewRedisClient(ctx context.Context, cfg Config) (*RedisClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	rc := &RedisClient{client: rdb, addr: cfg.Addr}
	if err := rc.Ping(ctx); err != nil {
		rdb.Close()
		return nil, err
	}
	return rc, nil
}

func (r *RedisClient) GetClient() *redis.Client {
	return r.client
}

func (r *RedisClient) Addr() string {
	return r.addr
}

// Ping backs the /health redis check. The error names the address so a failing check
// points at the instance.
func (r *RedisClient) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis at %s unreachable: %w", r.addr, err)
	}
	return nil
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}
