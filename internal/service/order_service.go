package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"payread/internal/model"
	"payread/internal/repository"
	"payread/internal/types"
	"payread/pkg/async"
	"payread/pkg/database"
	"payread/pkg/email"
	"payread/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// 文章标识格式白名单
var postIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// 订单统计缓存
const (
	statsCacheKey = "order:stats"
	statsCacheTTL = 10 * time.Minute
)

// OrderService 订单服务，负责订单生命周期的流转
type OrderService struct {
	orderRepo    repository.OrderRepository
	notifyRepo   repository.NotificationRepository
	tokenService *TokenService
	worker       *async.Worker
	emailService *email.Service
	notifyEmail  string
	redisClient  *redis.Client
	logger       *logger.Logger
}

// NewOrderService 创建订单服务
func NewOrderService(
	orderRepo repository.OrderRepository,
	notifyRepo repository.NotificationRepository,
	tokenService *TokenService,
	worker *async.Worker,
	emailService *email.Service,
	notifyEmail string,
	redisClient *redis.Client,
	logger *logger.Logger,
) *OrderService {
	return &OrderService{
		orderRepo:    orderRepo,
		notifyRepo:   notifyRepo,
		tokenService: tokenService,
		worker:       worker,
		emailService: emailService,
		notifyEmail:  notifyEmail,
		redisClient:  redisClient,
		logger:       logger,
	}
}

// generateRandomString 生成随机字符串
func generateRandomString(length int) string {
	b := make([]byte, length/2)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// generateTradeNo 生成订单号
func generateTradeNo() string {
	return fmt.Sprintf("PR%s%s", time.Now().Format("20060102150405"), generateRandomString(16))
}

// CreateOrder 创建待支付订单，返回订单号
func (s *OrderService) CreateOrder(ctx context.Context, postID string, amount float64) (string, error) {
	if postID == "" {
		return "", ErrPostIDRequired
	}
	if !postIDPattern.MatchString(postID) {
		return "", ErrInvalidPostID
	}
	if amount < 0 {
		return "", ErrInvalidAmount
	}

	order := &model.Order{
		TradeNo: generateTradeNo(),
		PostID:  postID,
		Amount:  amount,
		Status:  model.OrderStatusPending,
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		return "", fmt.Errorf("创建订单失败: %w", err)
	}

	s.logger.Info("订单已创建", "trade_no", order.TradeNo, "post_id", postID)
	return order.TradeNo, nil
}

// HandlePaymentNotify 处理支付成功回调
// 重复回调和乱序回调一律流转到已支付后应答成功，避免支付方反复重发
func (s *OrderService) HandlePaymentNotify(ctx context.Context, notify *types.NotifyRequest) error {
	order, err := s.orderRepo.GetByTradeNo(ctx, notify.TradeNo)
	if err != nil {
		return fmt.Errorf("查询订单失败: %w", err)
	}

	switch {
	case order == nil:
		// 回调先于创建订单到达，直接落一条已支付订单
		if err := s.createPaidOrder(ctx, notify); err != nil {
			return err
		}
	case order.IsPaid():
		// 重复回调，幂等跳过
		s.logger.Info("订单已支付，跳过重复回调", "trade_no", notify.TradeNo)
	default:
		if err := s.markPaid(ctx, order); err != nil {
			return err
		}
	}

	s.auditNotify(notify)
	return nil
}

// markPaid 将待支付订单流转为已支付
// 凭证绑定订单自身的文章标识，回调里的文章字段在此不生效
func (s *OrderService) markPaid(ctx context.Context, order *model.Order) error {
	token, err := s.tokenService.Issue(order.PostID, order.TradeNo)
	if err != nil {
		return err
	}

	updated, err := s.orderRepo.MarkPaid(ctx, order.TradeNo, token, time.Now())
	if err != nil {
		return fmt.Errorf("更新订单状态失败: %w", err)
	}
	if !updated {
		// 并发回调先一步完成了流转
		s.logger.Info("订单已由并发回调置为已支付", "trade_no", order.TradeNo)
		return nil
	}

	s.logger.Info("订单支付成功", "trade_no", order.TradeNo, "post_id", order.PostID)
	s.notifyOperator(order.TradeNo, order.PostID, order.Amount)
	return nil
}

// createPaidOrder 为未知订单号直接落一条已支付订单
func (s *OrderService) createPaidOrder(ctx context.Context, notify *types.NotifyRequest) error {
	if !postIDPattern.MatchString(notify.PostID) {
		return ErrInvalidPostID
	}

	token, err := s.tokenService.Issue(notify.PostID, notify.TradeNo)
	if err != nil {
		return err
	}

	now := time.Now()
	order := &model.Order{
		TradeNo: notify.TradeNo,
		PostID:  notify.PostID,
		Amount:  notify.Amount,
		Status:  model.OrderStatusPaid,
		Token:   sql.NullString{String: token, Valid: true},
		PaidAt:  sql.NullTime{Time: now, Valid: true},
	}
	err = s.orderRepo.Create(ctx, order)
	if err == nil {
		s.logger.Info("回调先于订单到达，已直接落为已支付", "trade_no", notify.TradeNo, "post_id", notify.PostID)
		s.notifyOperator(order.TradeNo, order.PostID, order.Amount)
		return nil
	}
	if !database.IsDuplicateKeyErr(err) {
		return fmt.Errorf("创建订单失败: %w", err)
	}

	// 与创建订单或另一条回调撞了唯一索引，重读后按常规流转
	existing, err := s.orderRepo.GetByTradeNo(ctx, notify.TradeNo)
	if err != nil {
		return fmt.Errorf("查询订单失败: %w", err)
	}
	if existing == nil || existing.IsPaid() {
		return nil
	}
	return s.markPaid(ctx, existing)
}

// auditNotify 异步写入回调审计记录
func (s *OrderService) auditNotify(notify *types.NotifyRequest) {
	record := &model.PaymentNotification{
		ID:         uuid.NewString(),
		TradeNo:    notify.TradeNo,
		PostID:     notify.PostID,
		Amount:     notify.Amount,
		RawBody:    string(notify.Raw),
		ReceivedAt: time.Now(),
	}
	s.worker.AddTask(func() {
		if err := s.notifyRepo.Create(context.Background(), record); err != nil {
			s.logger.Error("写入回调审计记录失败", "error", err, "trade_no", record.TradeNo)
		}
	})
}

// notifyOperator 异步发送支付成功通知邮件
func (s *OrderService) notifyOperator(tradeNo, postID string, amount float64) {
	if s.emailService == nil || s.notifyEmail == "" {
		return
	}
	to := s.notifyEmail
	s.worker.AddTask(func() {
		if err := s.emailService.SendOrderPaidNotice(to, tradeNo, postID, amount); err != nil {
			s.logger.Error("发送支付成功通知邮件失败", "error", err, "trade_no", tradeNo)
		}
	})
}

// OrderStatus 订单状态查询结果
type OrderStatus struct {
	Paid   bool   `json:"paid"`
	PostID string `json:"post_id,omitempty"`
	Token  string `json:"token,omitempty"`
}

// GetOrderStatus 查询订单支付状态，未知订单视为未支付而不是错误
func (s *OrderService) GetOrderStatus(ctx context.Context, tradeNo string) (*OrderStatus, error) {
	if tradeNo == "" {
		return nil, ErrTradeNoRequired
	}

	order, err := s.orderRepo.GetByTradeNo(ctx, tradeNo)
	if err != nil {
		return nil, fmt.Errorf("查询订单失败: %w", err)
	}
	if order == nil || !order.IsPaid() {
		return &OrderStatus{Paid: false}, nil
	}
	return &OrderStatus{
		Paid:   true,
		PostID: order.PostID,
		Token:  order.Token.String,
	}, nil
}

// GetPaidOrder 获取订单号与文章标识都匹配的已支付订单，不匹配时返回nil
func (s *OrderService) GetPaidOrder(ctx context.Context, tradeNo, postID string) (*model.Order, error) {
	if tradeNo == "" || postID == "" {
		return nil, nil
	}
	return s.orderRepo.GetPaidOrder(ctx, tradeNo, postID)
}

// ListRecentOrders 获取最近订单
func (s *OrderService) ListRecentOrders(ctx context.Context, limit int) ([]model.Order, error) {
	if limit < 1 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	return s.orderRepo.ListRecent(ctx, limit)
}

// ListRecentNotifications 获取最近的回调审计记录
func (s *OrderService) ListRecentNotifications(ctx context.Context, limit int) ([]model.PaymentNotification, error) {
	if limit < 1 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	return s.notifyRepo.ListRecent(ctx, limit)
}

// GetStats 获取订单统计，优先读缓存
func (s *OrderService) GetStats(ctx context.Context) (*model.OrderStats, error) {
	if s.redisClient != nil {
		cachedData, err := s.redisClient.Get(ctx, statsCacheKey).Bytes()
		if err == nil {
			var stats model.OrderStats
			if err := json.Unmarshal(cachedData, &stats); err == nil {
				return &stats, nil
			}
		}
	}
	return s.RefreshStats(ctx)
}

// RefreshStats 重新聚合订单统计并刷新缓存
func (s *OrderService) RefreshStats(ctx context.Context) (*model.OrderStats, error) {
	stats, err := s.orderRepo.GetStats(ctx)
	if err != nil {
		s.logger.Error("聚合订单统计失败", "error", err)
		return nil, err
	}

	if s.redisClient != nil {
		if data, err := json.Marshal(stats); err == nil {
			s.redisClient.Set(ctx, statsCacheKey, data, statsCacheTTL)
		}
	}
	return stats, nil
}
