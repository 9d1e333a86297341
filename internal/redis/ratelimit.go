package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Rate limiting key patterns:
// - ratelimit:{voter_key}:votes - per-minute vote submissions
// - ratelimit:{ip}:auth - per-minute auth attempts

// RateLimitConfig contains configuration for rate limiting
type RateLimitConfig struct {
	VoteLimit  int           // Max vote submissions per window
	VoteWindow time.Duration // Vote rate limit window
	AuthLimit  int           // Max auth attempts per window
	AuthWindow time.Duration // Auth rate limit window
}

// DefaultRateLimitConfig returns sensible defaults
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		VoteLimit:  30,
		VoteWindow: 60 * time.Second,
		AuthLimit:  5,
		AuthWindow: 60 * time.Second,
	}
}

// RateLimiter handles rate limiting using Redis
type RateLimiter struct {
	client *goredis.Client
	config RateLimitConfig
}

// RateLimitResult contains the result of a rate limit check
type RateLimitResult struct {
	Allowed   bool
	Remaining int
	ResetIn   time.Duration
	Limit     int
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(client *goredis.Client, config RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		client: client,
		config: config,
	}
}

// AllowVote checks if a voter identity can submit another vote
func (r *RateLimiter) AllowVote(ctx context.Context, voterKey string) (*RateLimitResult, error) {
	key := fmt.Sprintf("ratelimit:%s:votes", voterKey)
	return r.checkLimit(ctx, key, r.config.VoteLimit, r.config.VoteWindow)
}

// AllowAuth checks if an IP can make an auth attempt
func (r *RateLimiter) AllowAuth(ctx context.Context, ip string) (*RateLimitResult, error) {
	key := fmt.Sprintf("ratelimit:%s:auth", ip)
	return r.checkLimit(ctx, key, r.config.AuthLimit, r.config.AuthWindow)
}

// checkLimit performs an atomic fixed-window increment and check.
func (r *RateLimiter) checkLimit(ctx context.Context, key string, limit int, window time.Duration) (*RateLimitResult, error) {
	script := goredis.NewScript(`
		local key = KEYS[1]
		local limit = tonumber(ARGV[1])
		local window = tonumber(ARGV[2])

		local current = redis.call('INCR', key)
		if current == 1 then
			redis.call('EXPIRE', key, window)
		end
		local ttl = redis.call('TTL', key)
		if ttl < 0 then
			ttl = window
		end
		return {current, ttl}
	`)

	res, err := script.Run(ctx, r.client, []string{key},
		limit, int(window.Seconds())).Int64Slice()
	if err != nil {
		return nil, err
	}
	if len(res) != 2 {
		return nil, fmt.Errorf("unexpected rate limit script result")
	}

	current := int(res[0])
	remaining := limit - current
	if remaining < 0 {
		remaining = 0
	}

	return &RateLimitResult{
		Allowed:   current <= limit,
		Remaining: remaining,
		ResetIn:   time.Duration(res[1]) * time.Second,
		Limit:     limit,
	}, nil
}
