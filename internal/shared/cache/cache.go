// Package cache 缓存层抽象接口
//
// 提供 webhook 事件去重能力，当前由 Redis 实现。
package cache

import (
	"context"
	"time"
)

// TTLWebhookEvent 已处理 webhook 事件标记的保留时间
// 网关的重试窗口远小于一天，到期后的重复投递按新事件处理
const TTLWebhookEvent = 24 * time.Hour

// Cache 缓存接口
type Cache interface {
	// MarkEventProcessed 原子地标记事件已处理
	// 首次标记返回 true，重复事件返回 false
	MarkEventProcessed(ctx context.Context, eventID string) (bool, error)
	Close() error
}
