package apis

import (
	"time"

	"payread/internal/api/handler"
	"payread/internal/middleware"
	"payread/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// 下单接口限流参数
const (
	createOrderRateLimit  = 60
	createOrderRateWindow = time.Minute
)

// RegisterOrderRoutes 注册订单与支付回调路由
func RegisterOrderRoutes(router *gin.RouterGroup, orderHandler *handler.OrderHandler, paymentHandler *handler.PaymentHandler, redisClient *redis.Client, log *logger.Logger) {
	orders := router.Group("/orders")
	orders.Use(middleware.RateLimit(redisClient, log, createOrderRateLimit, createOrderRateWindow))
	{
		orders.POST("", orderHandler.CreateOrder)
	}

	payments := router.Group("/payments")
	{
		payments.POST("/notify", paymentHandler.PaymentNotify)
		payments.GET("/status", orderHandler.GetOrderStatus)
	}
}
