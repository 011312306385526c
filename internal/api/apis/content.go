package apis

import (
	"payread/internal/api/handler"
	"payread/internal/middleware"
	"payread/internal/service"

	"github.com/gin-gonic/gin"
)

// RegisterContentRoutes 注册会话兑换与文章内容路由
func RegisterContentRoutes(router *gin.RouterGroup, sessionHandler *handler.SessionHandler, contentHandler *handler.ContentHandler, tokenService *service.TokenService, cookieName string) {
	sessions := router.Group("/sessions")
	{
		sessions.GET("/exchange", sessionHandler.Exchange)
	}

	// 内容路由要求有效的访问凭证
	content := router.Group("/content")
	content.Use(middleware.TokenAuth(tokenService, cookieName))
	{
		content.GET("", contentHandler.GetContent)
	}
}
