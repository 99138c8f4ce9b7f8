package store

import (
	"context"
	"sync"
)

// MapStore 加锁的 map，不支持过期
type MapStore[K comparable, V any] struct {
	mu sync.RWMutex
	m  map[K]V
}

func NewMapStoreWithOptions[K comparable, V any]() *MapStore[K, V] {
	return &MapStore[K, V]{m: make(map[K]V)}
}

func (s *MapStore[K, V]) Set(ctx context.Context, key K, value V, opts ...setOption) error {
	options := applySetOptions(opts)

	s.mu.Lock()
	defer s.mu.Unlock()
	if options.IfNotExist {
		if _, ok := s.m[key]; ok {
			return ErrConditionFailed
		}
	}
	s.m[key] = value
	return nil
}

func (s *MapStore[K, V]) Get(ctx context.Context, key K) (V, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.m[key]
	if !ok {
		var zero V
		return zero, ErrKeyNotFound
	}
	return value, nil
}

func (s *MapStore[K, V]) Del(ctx context.Context, key K) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	return nil
}

func (s *MapStore[K, V]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m = make(map[K]V)
	return nil
}
