// internal/interfaces/http/middleware/rate_limit.go
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const rateLimitWindow = time.Minute

// RateLimit allows perMinute requests per client IP in fixed one-minute
// windows counted in Redis. Requests pass through when Redis is unavailable.
func RateLimit(perMinute int, client *redis.Client, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		window := time.Now().Unix() / int64(rateLimitWindow.Seconds())
		key := fmt.Sprintf("rate_limit:%s:%d", c.ClientIP(), window)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 500*time.Millisecond)
		defer cancel()

		var incr *redis.IntCmd
		_, err := client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			incr = pipe.Incr(ctx, key)
			pipe.Expire(ctx, key, rateLimitWindow)
			return nil
		})
		if err != nil {
			log.WithError(err).Warn("rate limiter unavailable, allowing request")
			c.Next()
			return
		}

		count := int(incr.Val())
		reset := (window + 1) * int64(rateLimitWindow.Seconds())
		c.Header("X-RateLimit-Limit", strconv.Itoa(perMinute))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(max(perMinute-count, 0)))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(reset, 10))

		if count > perMinute {
			c.Header("Retry-After", strconv.FormatInt(reset-time.Now().Unix(), 10))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}

		c.Next()
	}
}
