package handler

import (
	"errors"
	"net/http"

	"payread/internal/constants"
	"payread/internal/service"
	"payread/internal/types"
	"payread/pkg/logger"

	"github.com/gin-gonic/gin"
)

// OrderHandler 订单处理器
type OrderHandler struct {
	orderService *service.OrderService
	logger       *logger.Logger
}

// NewOrderHandler 创建订单处理器
func NewOrderHandler(orderService *service.OrderService, logger *logger.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		logger:       logger,
	}
}

// CreateOrder 创建订单
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req types.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": constants.ErrInvalidParams})
		return
	}

	tradeNo, err := h.orderService.CreateOrder(c.Request.Context(), req.PostID, req.Amount)
	if err != nil {
		if errors.Is(err, service.ErrPostIDRequired) ||
			errors.Is(err, service.ErrInvalidPostID) ||
			errors.Is(err, service.ErrInvalidAmount) {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": err.Error()})
			return
		}
		h.logger.Error("创建订单失败", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": constants.ErrInternalServer})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":     200,
		"ok":       true,
		"trade_no": tradeNo,
	})
}

// GetOrderStatus 查询订单支付状态
func (h *OrderHandler) GetOrderStatus(c *gin.Context) {
	tradeNo := c.Query("trade_no")

	status, err := h.orderService.GetOrderStatus(c.Request.Context(), tradeNo)
	if err != nil {
		if errors.Is(err, service.ErrTradeNoRequired) {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": err.Error()})
			return
		}
		h.logger.Error("查询订单状态失败", "error", err, "trade_no", tradeNo)
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": constants.ErrInternalServer})
		return
	}

	resp := gin.H{
		"code": 200,
		"paid": status.Paid,
	}
	if status.Paid {
		resp["post_id"] = status.PostID
		resp["token"] = status.Token
	}
	c.JSON(http.StatusOK, resp)
}
