package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/orris-inc/helpdesk/internal/shared/logger"
	"github.com/orris-inc/helpdesk/internal/shared/utils"
)

// RateLimiter counts requests per client IP in fixed windows stored in
// Redis, so every instance behind the same Redis shares one budget.
type RateLimiter struct {
	client *redis.Client
	scope  string
	limit  int64
	window time.Duration
	now    func() time.Time
	logger logger.Interface
}

func NewRateLimiter(client *redis.Client, scope string, limit int, window time.Duration, log logger.Interface) *RateLimiter {
	return &RateLimiter{
		client: client,
		scope:  scope,
		limit:  int64(limit),
		window: window,
		now:    time.Now,
		logger: log,
	}
}

func (rl *RateLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		now := rl.now()
		bucket := now.UnixNano() / int64(rl.window)
		key := fmt.Sprintf("helpdesk:ratelimit:%s:%s:%d", rl.scope, c.ClientIP(), bucket)

		pipe := rl.client.TxPipeline()
		incr := pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, rl.window)
		if _, err := pipe.Exec(ctx); err != nil {
			// Redis being down must not stop mail intake.
			rl.logger.Warnw("rate limiter unavailable, allowing request", "scope", rl.scope, "error", err)
			c.Next()
			return
		}

		count := incr.Val()
		c.Header("X-RateLimit-Limit", strconv.FormatInt(rl.limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(max(rl.limit-count, 0), 10))

		if count > rl.limit {
			reset := time.Unix(0, (bucket+1)*int64(rl.window)).Sub(now)
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(reset.Seconds()))))
			rl.logger.Debugw("rate limit exceeded", "scope", rl.scope, "ip", c.ClientIP(), "count", count)
			utils.ErrorResponse(c, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
			c.Abort()
			return
		}

		c.Next()
	}
}
