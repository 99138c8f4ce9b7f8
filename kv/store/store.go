package store

import (
	"context"
	"reflect"
	"strings"
	"time"

	"github.com/hatlonely/sqljson/kv/serializer"
	"github.com/hatlonely/sqljson/ref"
	"github.com/pkg/errors"
)

var (
	ErrKeyNotFound     = errors.New("key not found")
	ErrConditionFailed = errors.New("condition failed")
)

type setOptions struct {
	Expiration time.Duration
	IfNotExist bool
}

type setOption func(*setOptions)

func WithExpiration(expiration time.Duration) setOption {
	return func(options *setOptions) {
		options.Expiration = expiration
	}
}

func WithIfNotExist() setOption {
	return func(options *setOptions) {
		options.IfNotExist = true
	}
}

func applySetOptions(opts []setOption) *setOptions {
	options := &setOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

type Store[K, V any] interface {
	// Set WithIfNotExist 时键已存在返回 ErrConditionFailed
	Set(ctx context.Context, key K, value V, opts ...setOption) error
	// Get 键不存在时返回 ErrKeyNotFound
	Get(ctx context.Context, key K) (V, error)
	// Del 键不存在时也返回成功
	Del(ctx context.Context, key K) error
	Close() error
}

// NewStoreWithOptions 按 TypeOptions 创建存储
// Type 可以省略类型参数，如 "SyncMapStore" 会补全为 "SyncMapStore[string,[]uint8]"
func NewStoreWithOptions[K comparable, V any](options *ref.TypeOptions) (Store[K, V], error) {
	if options == nil {
		return nil, errors.New("store options is nil")
	}
	for _, err := range []error{
		ref.RegisterT[*MapStore[K, V]](NewMapStoreWithOptions[K, V]),
		ref.RegisterT[*SyncMapStore[K, V]](NewSyncMapStoreWithOptions[K, V]),
		ref.RegisterT[*FreeCacheStore[K, V]](NewFreeCacheStoreWithOptions[K, V]),
		ref.RegisterT[*RedisStore[K, V]](NewRedisStoreWithOptions[K, V]),
	} {
		if err != nil {
			return nil, err
		}
	}

	typ := options.Type
	if !strings.Contains(typ, "[") {
		typ += serializer.TypeArgs(reflect.TypeOf(MapStore[K, V]{}).Name())
	}
	s, err := ref.NewWithTypeOptions[Store[K, V]]("github.com/hatlonely/sqljson/kv/store", &ref.TypeOptions{
		Namespace: options.Namespace,
		Type:      typ,
		Options:   options.Options,
	})
	if err != nil {
		return nil, errors.WithMessage(err, "create store failed")
	}
	return s, nil
}
