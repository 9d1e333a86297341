package middleware

import (
	"net/http"
	"strconv"

	"quickpoll/internal/redis"
	"quickpoll/internal/services"
	"quickpoll/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

// RateLimitMiddleware applies per-IP rate limiting to auth endpoints.
func RateLimitMiddleware(limiter *redis.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()

		path := c.Request.URL.Path
		if isAuthEndpoint(path) {
			result, err := limiter.AllowAuth(c.Request.Context(), clientIP)
			if err != nil {
				c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("rate limit error", "INTERNAL_ERROR"))
				c.Abort()
				return
			}

			setRateLimitHeaders(c, result)

			if !result.Allowed {
				c.JSON(http.StatusTooManyRequests, httpdto.NewErrorResponse("rate limit exceeded", "RATE_LIMITED"))
				c.Abort()
				return
			}
		}

		c.Next()
	}
}

// VoteRateLimitMiddleware throttles vote submissions per voter identity.
// Applied to the vote endpoint after auth and device middleware so a
// session or fingerprint is already in context; requests with neither fall
// back to the client IP.
func VoteRateLimitMiddleware(limiter *redis.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if userID, ok := services.UserIDFromContext(c.Request.Context()); ok {
			key = "user:" + userID.String()
		} else if fp, ok := services.DeviceFromContext(c.Request.Context()); ok {
			key = "device:" + fp
		}

		result, err := limiter.AllowVote(c.Request.Context(), key)
		if err != nil {
			c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("rate limit error", "INTERNAL_ERROR"))
			c.Abort()
			return
		}

		setRateLimitHeaders(c, result)

		if !result.Allowed {
			c.JSON(http.StatusTooManyRequests, httpdto.NewErrorResponse("vote rate limit exceeded", "RATE_LIMITED"))
			c.Abort()
			return
		}

		c.Next()
	}
}

// setRateLimitHeaders sets standard rate limit response headers
func setRateLimitHeaders(c *gin.Context, result *redis.RateLimitResult) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(int64(result.ResetIn.Seconds()), 10))
}

// isAuthEndpoint checks if the request path is an auth endpoint
func isAuthEndpoint(path string) bool {
	authPaths := []string{
		"/v1/auth/login",
		"/v1/auth/register",
	}
	for _, p := range authPaths {
		if path == p {
			return true
		}
	}
	return false
}
