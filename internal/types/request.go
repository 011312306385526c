package types

// CreateOrderRequest 创建订单请求
type CreateOrderRequest struct {
	PostID string  `json:"post_id"`
	Amount float64 `json:"amount"`
}

// AdminLoginRequest 管理员登录请求
type AdminLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}
