package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// 文章标识白名单，防止拼接路径时越出内容目录
var postIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ContentStore 文章内容存储接口
type ContentStore interface {
	Get(ctx context.Context, postID string) ([]byte, error)
}

// fileContentStore 基于文件目录的内容存储
type fileContentStore struct {
	dir string
}

// NewContentStore 创建内容存储实例
func NewContentStore(dir string) ContentStore {
	return &fileContentStore{dir: dir}
}

// Get 读取文章内容，不存在时返回nil
func (s *fileContentStore) Get(ctx context.Context, postID string) ([]byte, error) {
	if !postIDPattern.MatchString(postID) {
		return nil, nil
	}

	path := filepath.Join(s.dir, postID+".html")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取内容文件失败: %w", err)
	}
	return data, nil
}
