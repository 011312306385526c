package middleware

import (
	"fmt"
	"net/http"
	"time"

	"payread/internal/constants"
	"payread/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimit 基于Redis计数的限流中间件，窗口内超限返回429
// Redis不可用时直接放行
func RateLimit(redisClient *redis.Client, log *logger.Logger, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if redisClient == nil {
			c.Next()
			return
		}

		key := fmt.Sprintf("ratelimit:%s:%s", c.FullPath(), c.ClientIP())
		count, err := redisClient.Incr(c.Request.Context(), key).Result()
		if err != nil {
			log.Warn("限流计数失败", "error", err)
			c.Next()
			return
		}
		if count == 1 {
			redisClient.Expire(c.Request.Context(), key, window)
		}
		if count > int64(limit) {
			c.JSON(http.StatusTooManyRequests, gin.H{"code": 429, "msg": constants.ErrOperationTooFrequent})
			c.Abort()
			return
		}

		c.Next()
	}
}
