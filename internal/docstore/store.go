// Package docstore 层级路径寻址的文档存储：collection/doc/collection/doc 交替嵌套。
// Postgres JSONB 实现用于生产，内存实现用于本地开发与测试。
package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound 文档不存在（UpdateDocument 合并写的前置条件）
var ErrNotFound = errors.New("document not found")

// ErrInvalidPath 路径段数或段内容非法
var ErrInvalidPath = errors.New("invalid document path")

// Snapshot 读取结果
type Snapshot struct {
	Exists bool
	Data   map[string]any
}

// Entry ListCollection 返回的条目
type Entry struct {
	ID   string
	Data map[string]any
}

// Store 文档存储契约。
// SetDocument 整文档覆盖写，不保证隐式创建祖先，调用方用 EnsureDocument 预建；
// UpdateDocument 合并写，文档不存在返回 ErrNotFound。
type Store interface {
	GetDocument(ctx context.Context, path string) (*Snapshot, error)
	SetDocument(ctx context.Context, path string, data map[string]any) error
	UpdateDocument(ctx context.Context, path string, partial map[string]any) error
	// EnsureDocument 文档不存在时写入空文档，存在时不动
	EnsureDocument(ctx context.Context, path string) error
	ListCollection(ctx context.Context, path string) ([]Entry, error)
}

// ValidateDocumentPath 校验文档路径：段数为偶数（collection/doc 交替），无空段
func ValidateDocumentPath(path string) error {
	segments, err := splitPath(path)
	if err != nil {
		return err
	}
	if len(segments)%2 != 0 {
		return fmt.Errorf("%w: %q is not a document path", ErrInvalidPath, path)
	}
	return nil
}

// ValidateCollectionPath 校验集合路径：段数为奇数
func ValidateCollectionPath(path string) error {
	segments, err := splitPath(path)
	if err != nil {
		return err
	}
	if len(segments)%2 != 1 {
		return fmt.Errorf("%w: %q is not a collection path", ErrInvalidPath, path)
	}
	return nil
}

func splitPath(path string) ([]string, error) {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	segments := strings.Split(path, "/")
	for _, s := range segments {
		if s == "" {
			return nil, fmt.Errorf("%w: %q has an empty segment", ErrInvalidPath, path)
		}
	}
	return segments, nil
}

// NormalizePath 去掉首尾斜杠，统一存储键
func NormalizePath(path string) string {
	return strings.Trim(path, "/")
}

// ParentCollection 文档路径的父集合路径（"users/u1/dailyReports/d1" -> "users/u1/dailyReports"）
func ParentCollection(docPath string) string {
	p := NormalizePath(docPath)
	idx := strings.LastIndex(p, "/")
	if idx < 0 {
		return ""
	}
	return p[:idx]
}
