package model

import (
	"time"
)

// PaymentNotification 支付回调审计记录
type PaymentNotification struct {
	ID         string    `db:"id" json:"id"` // UUID
	TradeNo    string    `db:"trade_no" json:"trade_no"`
	PostID     string    `db:"post_id" json:"post_id"`
	Amount     float64   `db:"amount" json:"amount"`
	RawBody    string    `db:"raw_body" json:"raw_body"`
	ReceivedAt time.Time `db:"received_at" json:"received_at"`
}
