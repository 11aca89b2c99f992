package cache

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// item 包装缓存数据和过期时间
type item[V any] struct {
	data      V
	expiresAt time.Time
}

// LRU 带过期时间的本地缓存
type LRU[K comparable, V any] struct {
	mu  sync.Mutex
	c   *lru.Cache[K, item[V]]
	ttl time.Duration
	now func() time.Time
}

// NewLRU size 为容量，ttl 为 0 时永不过期
func NewLRU[K comparable, V any](size int, ttl time.Duration) (*LRU[K, V], error) {
	c, err := lru.New[K, item[V]](size)
	if err != nil {
		return nil, err
	}
	return &LRU[K, V]{c: c, ttl: ttl, now: time.Now}, nil
}

// Set 设置缓存
func (l *LRU[K, V]) Set(key K, data V) {
	it := item[V]{data: data}
	if l.ttl > 0 {
		it.expiresAt = l.now().Add(l.ttl)
	}
	l.c.Add(key, it)
}

// Get 获取缓存，不存在或已过期返回 false
func (l *LRU[K, V]) Get(key K) (V, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var zero V
	val, ok := l.c.Get(key)
	if !ok {
		return zero, false
	}
	if !val.expiresAt.IsZero() && l.now().After(val.expiresAt) {
		l.c.Remove(key)
		return zero, false
	}
	return val.data, true
}

// Delete 删除指定缓存
func (l *LRU[K, V]) Delete(key K) {
	l.c.Remove(key)
}

func (l *LRU[K, V]) Purge() {
	l.c.Purge()
}
