package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"payread/pkg/logger"

	"github.com/gin-gonic/gin"
)

// 限流依赖Redis计数，未接入Redis时放行，保证支付链路可用
func TestRateLimitWithoutRedis(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/ping", RateLimit(nil, logger.NewLogger("error"), 1, time.Minute), func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	for i := 0; i < 5; i++ {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("第%d次请求 status = %d, want 200", i+1, resp.Code)
		}
	}
}
