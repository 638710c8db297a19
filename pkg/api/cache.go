package api

import (
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	redisstore "github.com/eko/gocache/store/redis/v4"
	"github.com/redis/go-redis/v9"
)

// NewResponseCache keeps rendered responses in Redis for ttl
func NewResponseCache(client *redis.Client, ttl time.Duration) *cache.Cache[string] {
	redisStore := redisstore.NewRedis(client, store.WithExpiration(ttl))

	return cache.New[string](redisStore)
}
