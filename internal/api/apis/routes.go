package apis

import (
	"payread/internal/api/handler"
	"payread/internal/service"
	"payread/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RegisterRoutes 注册所有对外API路由
func RegisterRoutes(
	router *gin.RouterGroup,
	orderHandler *handler.OrderHandler,
	paymentHandler *handler.PaymentHandler,
	sessionHandler *handler.SessionHandler,
	contentHandler *handler.ContentHandler,
	tokenService *service.TokenService,
	cookieName string,
	redisClient *redis.Client,
	log *logger.Logger,
) {
	// 订单与支付回调
	RegisterOrderRoutes(router, orderHandler, paymentHandler, redisClient, log)

	// 会话兑换与文章内容
	RegisterContentRoutes(router, sessionHandler, contentHandler, tokenService, cookieName)
}
