package cache

import (
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMemorySize 是 size 無效時使用的容量
const DefaultMemorySize = 10000

// Memory 是帶 TTL 的行程內 LRU 快取，時鐘可注入以便測試。
// 超過容量時最久沒用的項目先被淘汰。
type Memory[K comparable, V any] struct {
	ttl     time.Duration
	now     func() time.Time
	entries *lru.Cache[K, memoryEntry[V]]
}

type memoryEntry[V any] struct {
	value    V
	cachedAt time.Time
}

// NewMemory 建立 Memory；now 為 nil 時使用 time.Now
func NewMemory[K comparable, V any](size int, ttl time.Duration, now func() time.Time) *Memory[K, V] {
	if now == nil {
		now = time.Now
	}
	if size <= 0 {
		size = DefaultMemorySize
	}
	entries, err := lru.New[K, memoryEntry[V]](size)
	if err != nil {
		slog.Error("failed to create LRU cache, using default size", "size", size, "error", err)
		entries, _ = lru.New[K, memoryEntry[V]](DefaultMemorySize)
	}
	return &Memory[K, V]{ttl: ttl, now: now, entries: entries}
}

// Get 回傳未過期的值；過期項目會順便移除
func (m *Memory[K, V]) Get(key K) (V, bool) {
	e, ok := m.entries.Get(key)
	if !ok {
		var zero V
		return zero, false
	}
	if m.now().Sub(e.cachedAt) >= m.ttl {
		m.entries.Remove(key)
		var zero V
		return zero, false
	}
	return e.value, true
}

func (m *Memory[K, V]) Set(key K, value V) {
	m.entries.Add(key, memoryEntry[V]{value: value, cachedAt: m.now()})
}

func (m *Memory[K, V]) Delete(key K) {
	m.entries.Remove(key)
}

// Len 包含尚未清除的過期項目
func (m *Memory[K, V]) Len() int {
	return m.entries.Len()
}
