package service

import (
	"context"
	"fmt"
	"time"

	"payread/internal/repository"
	"payread/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// ContentService 文章内容服务
type ContentService struct {
	contentStore repository.ContentStore
	redisClient  *redis.Client
	logger       *logger.Logger
}

// NewContentService 创建文章内容服务实例
func NewContentService(contentStore repository.ContentStore, redisClient *redis.Client, logger *logger.Logger) *ContentService {
	return &ContentService{
		contentStore: contentStore,
		redisClient:  redisClient,
		logger:       logger,
	}
}

// GetPostContent 获取文章内容
func (s *ContentService) GetPostContent(ctx context.Context, postID string) (string, error) {
	// 尝试从缓存获取
	cacheKey := fmt.Sprintf("content:post:%s", postID)
	if s.redisClient != nil {
		cachedData, err := s.redisClient.Get(ctx, cacheKey).Bytes()
		if err == nil {
			return string(cachedData), nil
		}
	}

	// 缓存未命中，读内容存储
	data, err := s.contentStore.Get(ctx, postID)
	if err != nil {
		s.logger.Error("读取文章内容失败", "post_id", postID, "error", err)
		return "", err
	}
	if data == nil {
		return "", ErrContentNotFound
	}

	// 将结果存入缓存
	if s.redisClient != nil {
		s.redisClient.Set(ctx, cacheKey, data, 5*time.Minute)
	}

	return string(data), nil
}
