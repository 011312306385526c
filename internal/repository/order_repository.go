package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"payread/internal/model"

	"github.com/jmoiron/sqlx"
)

// OrderRepository 订单仓库接口
type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	GetByTradeNo(ctx context.Context, tradeNo string) (*model.Order, error)
	GetPaidOrder(ctx context.Context, tradeNo, postID string) (*model.Order, error)
	MarkPaid(ctx context.Context, tradeNo, token string, paidAt time.Time) (bool, error)
	ListRecent(ctx context.Context, limit int) ([]model.Order, error)
	GetStats(ctx context.Context) (*model.OrderStats, error)
}

// orderRepository 订单仓库实现
type orderRepository struct {
	db *sqlx.DB
}

// NewOrderRepository 创建订单仓库实例
func NewOrderRepository(db *sqlx.DB) OrderRepository {
	return &orderRepository{db: db}
}

// Create 创建订单，trade_no唯一索引冲突时原样返回错误，由调用方识别
func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	query := `
		INSERT INTO orders (trade_no, post_id, amount, status, token, created_at, updated_at, paid_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		order.TradeNo,
		order.PostID,
		order.Amount,
		order.Status,
		order.Token,
		order.PaidAt,
	)
	return err
}

// GetByTradeNo 根据订单号获取订单，不存在时返回nil
func (r *orderRepository) GetByTradeNo(ctx context.Context, tradeNo string) (*model.Order, error) {
	var order model.Order
	query := `SELECT * FROM orders WHERE trade_no = ?`
	err := r.db.GetContext(ctx, &order, query, tradeNo)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetPaidOrder 根据订单号和文章标识获取已支付订单，不存在时返回nil
func (r *orderRepository) GetPaidOrder(ctx context.Context, tradeNo, postID string) (*model.Order, error) {
	var order model.Order
	query := `SELECT * FROM orders WHERE trade_no = ? AND post_id = ? AND status = ?`
	err := r.db.GetContext(ctx, &order, query, tradeNo, postID, model.OrderStatusPaid)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// MarkPaid 将待支付订单置为已支付并写入凭证
// WHERE条件带原状态，同一订单并发回调只有一次更新生效
func (r *orderRepository) MarkPaid(ctx context.Context, tradeNo, token string, paidAt time.Time) (bool, error) {
	query := `
		UPDATE orders
		SET status = ?, token = ?, paid_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE trade_no = ? AND status = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		model.OrderStatusPaid,
		token,
		paidAt,
		tradeNo,
		model.OrderStatusPending,
	)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// ListRecent 获取最近的订单，按创建时间倒序
func (r *orderRepository) ListRecent(ctx context.Context, limit int) ([]model.Order, error) {
	var orders []model.Order
	query := `SELECT * FROM orders ORDER BY created_at DESC, id DESC LIMIT ?`
	err := r.db.SelectContext(ctx, &orders, query, limit)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []model.Order{}
	}
	return orders, nil
}

// GetStats 聚合订单统计
func (r *orderRepository) GetStats(ctx context.Context) (*model.OrderStats, error) {
	var stats model.OrderStats
	query := `
		SELECT
			COUNT(*) AS total_orders,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS paid_orders,
			COALESCE(SUM(CASE WHEN status = ? THEN amount ELSE 0 END), 0) AS total_revenue
		FROM orders
	`
	err := r.db.GetContext(ctx, &stats, query, model.OrderStatusPaid, model.OrderStatusPaid)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
