package docstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// ChangeStream 文档变更事件的 Redis Stream 键（实时进度展示消费端订阅）
const ChangeStream = "cognify:document_changes"

// ChangeEvent 文档变更事件
type ChangeEvent struct {
	Path      string `json:"path"`
	Op        string `json:"op"` // set | update
	Timestamp int64  `json:"timestamp"`
}

// NotifyingStore 在写成功后向 Redis Stream 发布变更事件的装饰器。
// 发布失败只记日志，不影响写结果。
type NotifyingStore struct {
	Store
	redis  *redis.Client
	logger *zap.Logger
}

// NewNotifyingStore 包装底层存储，写后发布变更
func NewNotifyingStore(inner Store, redisClient *redis.Client, logger *zap.Logger) *NotifyingStore {
	return &NotifyingStore{Store: inner, redis: redisClient, logger: logger}
}

func (n *NotifyingStore) SetDocument(ctx context.Context, path string, data map[string]any) error {
	if err := n.Store.SetDocument(ctx, path, data); err != nil {
		return err
	}
	n.publish(ctx, path, "set")
	return nil
}

func (n *NotifyingStore) UpdateDocument(ctx context.Context, path string, partial map[string]any) error {
	if err := n.Store.UpdateDocument(ctx, path, partial); err != nil {
		return err
	}
	n.publish(ctx, path, "update")
	return nil
}

func (n *NotifyingStore) publish(ctx context.Context, path, op string) {
	event := ChangeEvent{
		Path:      NormalizePath(path),
		Op:        op,
		Timestamp: time.Now().Unix(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		n.logger.Warn("encode change event failed", zap.Error(err))
		return
	}
	if err := n.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: ChangeStream,
		Values: map[string]interface{}{"data": string(payload)},
	}).Err(); err != nil {
		n.logger.Warn("publish change event failed",
			zap.String("path", path),
			zap.Error(err))
	}
}
