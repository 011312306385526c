package scheduler

import (
	"context"
	"time"

	"payread/internal/service"
	"payread/pkg/logger"
)

// 统计刷新周期
const statsRefreshInterval = 5 * time.Minute

// StatsScheduler 订单统计调度器
type StatsScheduler struct {
	orderService *service.OrderService
	logger       *logger.Logger
	quit         chan struct{}
}

// NewStatsScheduler 创建订单统计调度器实例
func NewStatsScheduler(orderService *service.OrderService, logger *logger.Logger) *StatsScheduler {
	return &StatsScheduler{
		orderService: orderService,
		logger:       logger,
		quit:         make(chan struct{}),
	}
}

// Start 启动订单统计调度器
func (s *StatsScheduler) Start() {
	// 启动时立即刷新一次
	go s.refreshStats()

	// 启动定时刷新goroutine
	go s.scheduleStatsRefresh()

	s.logger.Info("订单统计调度器启动")
}

// Stop 停止订单统计调度器
func (s *StatsScheduler) Stop() {
	close(s.quit)
	s.logger.Info("订单统计调度器停止")
}

// scheduleStatsRefresh 统计刷新定时器
func (s *StatsScheduler) scheduleStatsRefresh() {
	ticker := time.NewTicker(statsRefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.refreshStats()
		case <-s.quit:
			return
		}
	}
}

// refreshStats 刷新订单统计缓存
func (s *StatsScheduler) refreshStats() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := s.orderService.RefreshStats(ctx); err != nil {
		s.logger.Error("刷新订单统计失败", "error", err)
	}
}
