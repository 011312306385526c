package model

import (
	"database/sql"
	"time"
)

// 订单状态
const (
	OrderStatusPending = 0 // 待支付
	OrderStatusPaid    = 1 // 已支付
)

// Order 订单模型
type Order struct {
	ID        uint64         `db:"id" json:"id"`
	TradeNo   string         `db:"trade_no" json:"trade_no"`
	PostID    string         `db:"post_id" json:"post_id"`
	Amount    float64        `db:"amount" json:"amount"`
	Status    int            `db:"status" json:"status"` // 0: 待支付, 1: 已支付
	Token     sql.NullString `db:"token" json:"token,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
	PaidAt    sql.NullTime   `db:"paid_at" json:"paid_at,omitempty"`
}

// IsPaid 订单是否已支付
func (o *Order) IsPaid() bool {
	return o.Status == OrderStatusPaid
}
