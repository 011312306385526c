package admin

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"payread/internal/constants"
	"payread/internal/service"
	"payread/internal/types"
	"payread/pkg/logger"

	"github.com/gin-gonic/gin"
)

// AdminHandler 管理处理器
type AdminHandler struct {
	adminService service.AdminService
	orderService *service.OrderService
	logger       *logger.Logger
}

// NewAdminHandler 创建管理处理器实例
func NewAdminHandler(adminService service.AdminService, orderService *service.OrderService, logger *logger.Logger) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		orderService: orderService,
		logger:       logger,
	}
}

// Login 管理员登录
func (h *AdminHandler) Login(c *gin.Context) {
	var req types.AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": constants.ErrInvalidParams})
		return
	}

	token, err := h.adminService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrLoginFailed) {
			c.JSON(http.StatusUnauthorized, gin.H{"code": 401, "msg": err.Error()})
			return
		}
		h.logger.Error("管理员登录异常", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": constants.ErrInternalServer})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"msg":  constants.SuccessLogin,
		"data": gin.H{"token": token},
	})
}

// ListOrders 获取最近订单列表
func (h *AdminHandler) ListOrders(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", "50")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": "无效的数量限制"})
		return
	}

	orders, err := h.orderService.ListRecentOrders(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("获取订单列表失败", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": constants.ErrInternalServer})
		return
	}

	// 订单脱敏投影，凭证原文不下发
	type OrderView struct {
		TradeNo   string     `json:"trade_no"`
		PostID    string     `json:"post_id"`
		Amount    float64    `json:"amount"`
		Status    int        `json:"status"`
		HasToken  bool       `json:"has_token"`
		CreatedAt time.Time  `json:"created_at"`
		PaidAt    *time.Time `json:"paid_at,omitempty"`
	}

	views := make([]OrderView, 0, len(orders))
	for _, order := range orders {
		view := OrderView{
			TradeNo:   order.TradeNo,
			PostID:    order.PostID,
			Amount:    order.Amount,
			Status:    order.Status,
			HasToken:  order.Token.Valid,
			CreatedAt: order.CreatedAt,
		}
		if order.PaidAt.Valid {
			paidAt := order.PaidAt.Time
			view.PaidAt = &paidAt
		}
		views = append(views, view)
	}

	c.JSON(http.StatusOK, gin.H{
		"code":   200,
		"msg":    constants.SuccessGet,
		"orders": views,
	})
}

// ListNotifications 获取最近的支付回调审计记录
func (h *AdminHandler) ListNotifications(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", "50")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": "无效的数量限制"})
		return
	}

	notifications, err := h.orderService.ListRecentNotifications(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("获取回调记录失败", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": constants.ErrInternalServer})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":          200,
		"msg":           constants.SuccessGet,
		"notifications": notifications,
	})
}

// GetStats 获取订单统计
func (h *AdminHandler) GetStats(c *gin.Context) {
	stats, err := h.orderService.GetStats(c.Request.Context())
	if err != nil {
		h.logger.Error("获取订单统计失败", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": constants.ErrInternalServer})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"msg":  constants.SuccessGet,
		"data": stats,
	})
}
