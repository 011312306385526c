package repository

import (
	"context"

	"payread/internal/model"

	"github.com/jmoiron/sqlx"
)

// NotificationRepository 支付回调审计仓库接口
type NotificationRepository interface {
	Create(ctx context.Context, notification *model.PaymentNotification) error
	ListRecent(ctx context.Context, limit int) ([]model.PaymentNotification, error)
}

// notificationRepository 支付回调审计仓库实现
type notificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository 创建支付回调审计仓库实例
func NewNotificationRepository(db *sqlx.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

// Create 写入一条回调记录
func (r *notificationRepository) Create(ctx context.Context, notification *model.PaymentNotification) error {
	query := `
		INSERT INTO payment_notifications (id, trade_no, post_id, amount, raw_body, received_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		notification.ID,
		notification.TradeNo,
		notification.PostID,
		notification.Amount,
		notification.RawBody,
		notification.ReceivedAt,
	)
	return err
}

// ListRecent 获取最近的回调记录，按接收时间倒序
func (r *notificationRepository) ListRecent(ctx context.Context, limit int) ([]model.PaymentNotification, error) {
	var notifications []model.PaymentNotification
	query := `SELECT * FROM payment_notifications ORDER BY received_at DESC, id DESC LIMIT ?`
	err := r.db.SelectContext(ctx, &notifications, query, limit)
	if err != nil {
		return nil, err
	}
	if notifications == nil {
		notifications = []model.PaymentNotification{}
	}
	return notifications, nil
}
