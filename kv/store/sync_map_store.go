package store

import (
	"context"
	"sync"
)

// SyncMapStore 基于 sync.Map，适合读多写少，例如解析后的模型
type SyncMapStore[K comparable, V any] struct {
	m sync.Map
}

func NewSyncMapStoreWithOptions[K comparable, V any]() *SyncMapStore[K, V] {
	return &SyncMapStore[K, V]{}
}

func (s *SyncMapStore[K, V]) Set(ctx context.Context, key K, value V, opts ...setOption) error {
	if applySetOptions(opts).IfNotExist {
		if _, loaded := s.m.LoadOrStore(key, value); loaded {
			return ErrConditionFailed
		}
		return nil
	}
	s.m.Store(key, value)
	return nil
}

func (s *SyncMapStore[K, V]) Get(ctx context.Context, key K) (V, error) {
	value, ok := s.m.Load(key)
	if !ok {
		var zero V
		return zero, ErrKeyNotFound
	}
	return value.(V), nil
}

func (s *SyncMapStore[K, V]) Del(ctx context.Context, key K) error {
	s.m.Delete(key)
	return nil
}

// Range 遍历所有键值，fn 返回 false 时停止
func (s *SyncMapStore[K, V]) Range(fn func(key K, value V) bool) {
	s.m.Range(func(k, v any) bool {
		return fn(k.(K), v.(V))
	})
}

func (s *SyncMapStore[K, V]) Close() error {
	s.m.Clear()
	return nil
}
