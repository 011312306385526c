package middleware

import (
	"net/http"
	"strings"

	"payread/internal/constants"
	"payread/internal/service"

	"github.com/gin-gonic/gin"
)

// 凭证声明在上下文中的键
const (
	ContextPostID  = "post_id"
	ContextTradeNo = "trade_no"
)

// TokenAuth 访问凭证校验中间件
// 优先取Authorization头中的Bearer凭证，没有再取会话Cookie
// 文章标识只来自凭证声明，请求参数不参与
func TokenAuth(tokenService *service.TokenService, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			if cookie, err := c.Cookie(cookieName); err == nil {
				raw = cookie
			}
		}
		if raw == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"code": 401, "msg": constants.ErrNoToken})
			c.Abort()
			return
		}

		claims, err := tokenService.Verify(raw)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"code": 401, "msg": constants.ErrInvalidToken})
			c.Abort()
			return
		}

		c.Set(ContextPostID, claims.PostID)
		c.Set(ContextTradeNo, claims.TradeNo)
		c.Next()
	}
}

// bearerToken 从Authorization头提取凭证，兼容不带Bearer前缀的写法
func bearerToken(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	if auth == "" {
		return ""
	}
	const prefix = "Bearer "
	if strings.HasPrefix(auth, prefix) {
		return strings.TrimSpace(auth[len(prefix):])
	}
	return strings.TrimSpace(auth)
}
