package model

// OrderStats 订单统计
type OrderStats struct {
	TotalOrders  int64   `db:"total_orders" json:"total_orders"`
	PaidOrders   int64   `db:"paid_orders" json:"paid_orders"`
	TotalRevenue float64 `db:"total_revenue" json:"total_revenue"`
}
