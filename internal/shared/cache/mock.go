// Package cache 缓存层 mock 实现
package cache

import (
	"context"
	"sync"
)

// NoOpCache 不做任何去重的 Cache 实现（用于测试和无 Redis 部署）
// 所有事件都视为首次出现
type NoOpCache struct{}

// NewNoOpCache 创建 NoOpCache 实例
func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

func (c *NoOpCache) MarkEventProcessed(ctx context.Context, eventID string) (bool, error) {
	return true, nil
}

func (c *NoOpCache) Close() error {
	return nil
}

// MemoryCache 进程内 Cache 实现（用于测试）
type MemoryCache struct {
	mu   sync.Mutex
	seen map[string]bool
}

// NewMemoryCache 创建 MemoryCache 实例
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{seen: map[string]bool{}}
}

func (c *MemoryCache) MarkEventProcessed(ctx context.Context, eventID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seen[eventID] {
		return false, nil
	}
	c.seen[eventID] = true
	return true, nil
}

func (c *MemoryCache) Close() error {
	return nil
}
