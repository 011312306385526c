package api

import (
	"time"

	"payread/config"
	"payread/internal/api/admin"
	"payread/internal/api/apis"
	"payread/internal/api/handler"
	"payread/internal/middleware"
	"payread/internal/repository"
	"payread/internal/scheduler"
	"payread/internal/service"
	"payread/pkg/async"
	"payread/pkg/email"
	"payread/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// SetupRouter 设置API路由
func SetupRouter(cfg *config.Config, logger *logger.Logger, db *sqlx.DB, redisClient *redis.Client, worker *async.Worker) (*gin.Engine, *scheduler.StatsScheduler, error) {
	// 创建Gin引擎
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// 使用中间件
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS())

	// 初始化存储库
	orderRepo := repository.NewOrderRepository(db)
	notifyRepo := repository.NewNotificationRepository(db)
	contentStore := repository.NewContentStore(cfg.Content.Dir)

	// 初始化邮件服务，未配置SMTP时不发送通知
	var emailService *email.Service
	if cfg.Email.Host != "" {
		emailService = email.NewService(email.Config{
			Host:     cfg.Email.Host,
			Port:     cfg.Email.Port,
			Username: cfg.Email.Username,
			Password: cfg.Email.Password,
			From:     cfg.Email.From,
			FromName: cfg.Email.FromName,
		}, logger)
	}

	// 初始化服务
	tokenService := service.NewTokenService(cfg.Token.Secret, time.Duration(cfg.Token.SessionMaxAge)*time.Second)
	orderService := service.NewOrderService(orderRepo, notifyRepo, tokenService, worker, emailService, cfg.Email.NotifyTo, redisClient, logger)
	contentService := service.NewContentService(contentStore, redisClient, logger)
	adminService, err := service.NewAdminService(cfg.Admin.Username, cfg.Admin.Password, redisClient, logger)
	if err != nil {
		return nil, nil, err
	}

	// 初始化统计调度器
	statsScheduler := scheduler.NewStatsScheduler(orderService, logger)
	statsScheduler.Start()

	// 初始化处理器
	orderHandler := handler.NewOrderHandler(orderService, logger)
	paymentHandler := handler.NewPaymentHandler(orderService, logger)
	sessionHandler := handler.NewSessionHandler(orderService, cfg.BaseURL, cfg.Token.CookieName, cfg.Token.SessionMaxAge, logger)
	contentHandler := handler.NewContentHandler(contentService, logger)
	adminHandler := admin.NewAdminHandler(adminService, orderService, logger)

	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// 注册对外路由
	root := router.Group("")
	apis.RegisterRoutes(root, orderHandler, paymentHandler, sessionHandler, contentHandler, tokenService, cfg.Token.CookieName, redisClient, logger)

	// 注册管理API路由，未配置管理员账号时不开放
	if adminService.Enabled() {
		adminRouter := router.Group("/admin")
		admin.RegisterAdminRoutes(adminRouter, adminHandler, adminService)
	} else {
		logger.Warn("未配置管理员账号，管理接口未启用")
	}

	return router, statsScheduler, nil
}
