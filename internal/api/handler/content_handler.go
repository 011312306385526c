package handler

import (
	"errors"
	"net/http"

	"payread/internal/constants"
	"payread/internal/middleware"
	"payread/internal/service"
	"payread/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ContentHandler 文章内容处理器
type ContentHandler struct {
	contentService *service.ContentService
	logger         *logger.Logger
}

// NewContentHandler 创建文章内容处理器
func NewContentHandler(contentService *service.ContentService, logger *logger.Logger) *ContentHandler {
	return &ContentHandler{
		contentService: contentService,
		logger:         logger,
	}
}

// GetContent 获取付费文章内容
// 文章标识取自凭证校验中间件写入的声明，请求参数一概不用
func (h *ContentHandler) GetContent(c *gin.Context) {
	postID := c.GetString(middleware.ContextPostID)
	if postID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"code": 401, "msg": constants.ErrInvalidToken})
		return
	}

	content, err := h.contentService.GetPostContent(c.Request.Context(), postID)
	if err != nil {
		if errors.Is(err, service.ErrContentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": 404, "msg": err.Error()})
			return
		}
		h.logger.Error("获取文章内容失败", "error", err, "post_id", postID)
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": constants.ErrInternalServer})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"html": content,
	})
}
