package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"library-lite/internal/shared/response"
	"library-lite/internal/shared/utils"
	"library-lite/pkg/logger"
)

// Limiter là phần rate limiter middleware cần (pkg/ratelimit.FixedWindowLimiter)
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Limit() int
}

// ClientIPMiddleware set "client_ip" cho handler và rate limiter
func ClientIPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("client_ip", utils.ExtractClientIP(c))
		c.Next()
	}
}

// RateLimitMiddleware giới hạn request theo client IP. Limiter lỗi thì cho qua.
func RateLimitMiddleware(limiter Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.GetString("client_ip")
		if ip == "" {
			ip = utils.ExtractClientIP(c)
		}

		allowed, err := limiter.Allow(c.Request.Context(), ip)
		if err != nil {
			logger.Warn("Rate limiter unavailable", map[string]interface{}{"error": err.Error()})
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))
		if !allowed {
			response.ErrorResponse(c, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests, please slow down")
			c.Abort()
			return
		}
		c.Next()
	}
}
