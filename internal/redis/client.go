package redis

import (
	"quickpoll/config"

	"github.com/redis/go-redis/v9"
)

// NewClient creates a Redis client. The client is constructed once in main
// and passed explicitly to whatever needs it.
func NewClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}
