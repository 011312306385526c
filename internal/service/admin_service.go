package service

import (
	"context"
	"fmt"
	"time"

	"payread/pkg/logger"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"k8s.io/apimachinery/pkg/util/rand"
)

// 管理员会话
const (
	adminSessionPrefix = "admin_session:"
	adminSessionTTL    = 12 * time.Hour
)

// AdminService 管理员服务接口
type AdminService interface {
	Login(ctx context.Context, username, password string) (string, error)
	CheckSession(ctx context.Context, token string) error
	Enabled() bool
}

// adminService 管理员服务实现
type adminService struct {
	username     string
	passwordHash []byte
	redisClient  *redis.Client
	logger       *logger.Logger
}

// NewAdminService 创建管理员服务实例，配置的明文密码在启动时就地散列
func NewAdminService(username, password string, redisClient *redis.Client, logger *logger.Logger) (AdminService, error) {
	svc := &adminService{
		username:    username,
		redisClient: redisClient,
		logger:      logger,
	}
	if username != "" && password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("管理员密码散列失败: %w", err)
		}
		svc.passwordHash = hash
	}
	return svc, nil
}

// Enabled 是否配置了管理员账号
func (s *adminService) Enabled() bool {
	return s.username != "" && len(s.passwordHash) > 0
}

// Login 管理员登录，成功时返回会话令牌
func (s *adminService) Login(ctx context.Context, username, password string) (string, error) {
	if !s.Enabled() {
		return "", ErrLoginFailed
	}

	// 无论用户名对错都做一次密码比较
	err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password))
	if err != nil || username != s.username {
		s.logger.Warn("管理员登录失败", "username", username)
		return "", ErrLoginFailed
	}

	token := rand.String(32)
	key := adminSessionPrefix + token
	if err := s.redisClient.Set(ctx, key, username, adminSessionTTL).Err(); err != nil {
		return "", fmt.Errorf("保存管理员会话失败: %w", err)
	}

	s.logger.Info("管理员登录成功", "username", username)
	return token, nil
}

// CheckSession 校验管理员会话令牌
func (s *adminService) CheckSession(ctx context.Context, token string) error {
	if token == "" {
		return ErrUnauthorized
	}

	exists, err := s.redisClient.Exists(ctx, adminSessionPrefix+token).Result()
	if err != nil {
		return fmt.Errorf("查询管理员会话失败: %w", err)
	}
	if exists == 0 {
		return ErrUnauthorized
	}
	return nil
}
