package handler

import (
	"errors"
	"io"
	"net/http"

	"payread/internal/constants"
	"payread/internal/service"
	"payread/internal/types"
	"payread/pkg/logger"

	"github.com/gin-gonic/gin"
)

// PaymentHandler 支付回调处理器
type PaymentHandler struct {
	orderService *service.OrderService
	logger       *logger.Logger
}

// NewPaymentHandler 创建支付回调处理器
func NewPaymentHandler(orderService *service.OrderService, logger *logger.Logger) *PaymentHandler {
	return &PaymentHandler{
		orderService: orderService,
		logger:       logger,
	}
}

// PaymentNotify 处理支付成功回调
// 应答为纯文本，只有固定应答会被支付方认作成功
func (h *PaymentHandler) PaymentNotify(c *gin.Context) {
	// 读取请求体
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.logger.Error("读取请求体失败", "error", err)
		c.String(http.StatusBadRequest, "读取请求体失败")
		return
	}

	// 记录请求内容
	h.logger.Info("收到支付回调", "body", string(body))

	// 解析归一化回调字段
	notify, err := types.ParseNotifyRequest(body, c.Request.URL.Query())
	if err != nil {
		h.logger.Warn("支付回调解析失败", "error", err)
		c.String(http.StatusBadRequest, err.Error())
		return
	}

	if err := h.orderService.HandlePaymentNotify(c.Request.Context(), notify); err != nil {
		if errors.Is(err, service.ErrInvalidPostID) {
			c.String(http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("处理支付回调失败", "error", err, "trade_no", notify.TradeNo)
		c.String(http.StatusInternalServerError, constants.ErrInternalServer)
		return
	}

	c.String(http.StatusOK, constants.NotifyAckOK)
}
