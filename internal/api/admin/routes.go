package admin

import (
	"payread/internal/middleware"
	"payread/internal/service"

	"github.com/gin-gonic/gin"
)

// RegisterAdminRoutes 注册管理API路由
func RegisterAdminRoutes(router *gin.RouterGroup, adminHandler *AdminHandler, adminService service.AdminService) {
	// 登录不需要会话
	router.POST("/login", adminHandler.Login)

	// 其余路由都要求有效的管理员会话
	authed := router.Group("")
	authed.Use(middleware.AdminAuth(adminService))
	{
		authed.GET("/orders", adminHandler.ListOrders)
		authed.GET("/notifications", adminHandler.ListNotifications)
		authed.GET("/stats", adminHandler.GetStats)
	}
}
