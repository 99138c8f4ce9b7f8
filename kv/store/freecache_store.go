package store

import (
	"context"
	"time"

	"github.com/coocood/freecache"
	"github.com/hatlonely/sqljson/kv/serializer"
	"github.com/hatlonely/sqljson/ref"
	"github.com/pkg/errors"
)

type FreeCacheStoreOptions struct {
	// 字节数，freecache 的最小值为 512KB
	Size          int              `cfg:"size" def:"33554432"`
	DefaultTTL    time.Duration    `cfg:"defaultTTL"`
	KeySerializer *ref.TypeOptions `cfg:"keySerializer"`
	ValSerializer *ref.TypeOptions `cfg:"valSerializer"`
}

// FreeCacheStore 进程内的字节缓存，容量满时按近似 LRU 淘汰
type FreeCacheStore[K, V any] struct {
	cache         *freecache.Cache
	defaultTTL    time.Duration
	keySerializer serializer.Serializer[K, []byte]
	valSerializer serializer.Serializer[V, []byte]
}

func NewFreeCacheStoreWithOptions[K, V any](options *FreeCacheStoreOptions) (*FreeCacheStore[K, V], error) {
	keySerializer, err := serializer.NewByteSerializerWithOptions[K](options.KeySerializer)
	if err != nil {
		return nil, errors.WithMessage(err, "create key serializer failed")
	}
	valSerializer, err := serializer.NewByteSerializerWithOptions[V](options.ValSerializer)
	if err != nil {
		return nil, errors.WithMessage(err, "create value serializer failed")
	}
	return &FreeCacheStore[K, V]{
		cache:         freecache.NewCache(options.Size),
		defaultTTL:    options.DefaultTTL,
		keySerializer: keySerializer,
		valSerializer: valSerializer,
	}, nil
}

func (s *FreeCacheStore[K, V]) Set(ctx context.Context, key K, value V, opts ...setOption) error {
	options := applySetOptions(opts)

	keyBytes, err := s.keySerializer.Serialize(key)
	if err != nil {
		return err
	}
	valBytes, err := s.valSerializer.Serialize(value)
	if err != nil {
		return err
	}

	expiration := options.Expiration
	if expiration == 0 {
		expiration = s.defaultTTL
	}
	if options.IfNotExist {
		if _, err := s.cache.Get(keyBytes); err == nil {
			return ErrConditionFailed
		}
	}
	if err := s.cache.Set(keyBytes, valBytes, int(expiration.Seconds())); err != nil {
		return errors.Wrap(err, "freecache.Set failed")
	}
	return nil
}

func (s *FreeCacheStore[K, V]) Get(ctx context.Context, key K) (V, error) {
	var zero V
	keyBytes, err := s.keySerializer.Serialize(key)
	if err != nil {
		return zero, err
	}
	valBytes, err := s.cache.Get(keyBytes)
	if err != nil {
		if errors.Is(err, freecache.ErrNotFound) {
			return zero, ErrKeyNotFound
		}
		return zero, errors.Wrap(err, "freecache.Get failed")
	}
	return s.valSerializer.Deserialize(valBytes)
}

func (s *FreeCacheStore[K, V]) Del(ctx context.Context, key K) error {
	keyBytes, err := s.keySerializer.Serialize(key)
	if err != nil {
		return err
	}
	s.cache.Del(keyBytes)
	return nil
}

func (s *FreeCacheStore[K, V]) Close() error {
	s.cache.Clear()
	return nil
}
