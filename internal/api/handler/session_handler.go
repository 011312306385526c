package handler

import (
	"fmt"
	"net/http"
	"strings"

	"payread/internal/service"
	"payread/pkg/logger"

	"github.com/gin-gonic/gin"
)

// SessionHandler 会话兑换处理器，面向浏览器跳转
type SessionHandler struct {
	orderService  *service.OrderService
	baseURL       string
	cookieName    string
	sessionMaxAge int
	secureCookie  bool
	logger        *logger.Logger
}

// NewSessionHandler 创建会话兑换处理器
func NewSessionHandler(orderService *service.OrderService, baseURL, cookieName string, sessionMaxAge int, logger *logger.Logger) *SessionHandler {
	return &SessionHandler{
		orderService:  orderService,
		baseURL:       strings.TrimRight(baseURL, "/"),
		cookieName:    cookieName,
		sessionMaxAge: sessionMaxAge,
		secureCookie:  strings.HasPrefix(baseURL, "https://"),
		logger:        logger,
	}
}

// Exchange 用已支付订单换取会话Cookie并跳转到文章页
// 订单号和文章标识必须成对匹配，任何失败都跳转到失败页而不是报错
func (h *SessionHandler) Exchange(c *gin.Context) {
	tradeNo := c.Query("trade_no")
	post := c.Query("post")
	failureURL := h.baseURL + "/purchase/failed"

	if tradeNo == "" || post == "" {
		c.Redirect(http.StatusFound, failureURL)
		return
	}

	order, err := h.orderService.GetPaidOrder(c.Request.Context(), tradeNo, post)
	if err != nil {
		h.logger.Error("会话兑换查询订单失败", "error", err, "trade_no", tradeNo)
		c.Redirect(http.StatusFound, failureURL)
		return
	}
	if order == nil || !order.Token.Valid {
		h.logger.Info("会话兑换失败", "trade_no", tradeNo, "post", post)
		c.Redirect(http.StatusFound, failureURL)
		return
	}

	// 会话Cookie：凭证写入HttpOnly Cookie，有效期与凭证一致
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, order.Token.String, h.sessionMaxAge, "/", "", h.secureCookie, true)

	c.Redirect(http.StatusFound, fmt.Sprintf("%s/posts/%s", h.baseURL, order.PostID))
}
