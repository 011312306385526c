package middleware

import (
	"net/http"

	"payread/internal/constants"
	"payread/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminAuth 管理员认证中间件
func AdminAuth(adminService service.AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 从请求头获取会话令牌
		token := c.GetHeader("Authorization")
		if err := adminService.CheckSession(c.Request.Context(), token); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"code": 401, "msg": constants.ErrUnauthorized})
			c.Abort()
			return
		}

		c.Next()
	}
}
