package store

import (
	"context"
	"time"

	"github.com/hatlonely/sqljson/kv/serializer"
	"github.com/hatlonely/sqljson/ref"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

type RedisStoreOptions struct {
	// 单机地址 host:port
	Endpoint string `cfg:"endpoint"`
	// 集群节点地址
	Endpoints []string `cfg:"endpoints"`
	// 键前缀，多个服务共用一个 redis 时区分
	Prefix        string           `cfg:"prefix"`
	DefaultTTL    time.Duration    `cfg:"defaultTTL"`
	KeySerializer *ref.TypeOptions `cfg:"keySerializer"`
	ValSerializer *ref.TypeOptions `cfg:"valSerializer"`

	Username     string        `cfg:"username"`
	Password     string        `cfg:"password"`
	DB           int           `cfg:"db"`
	MaxRetries   int           `cfg:"maxRetries" def:"3"`
	DialTimeout  time.Duration `cfg:"dialTimeout" def:"5s"`
	ReadTimeout  time.Duration `cfg:"readTimeout" def:"3s"`
	WriteTimeout time.Duration `cfg:"writeTimeout" def:"3s"`
	PoolSize     int           `cfg:"poolSize" def:"100"`
	MinIdleConns int           `cfg:"minIdleConns"`
}

// RedisStore 多个进程共享的缓存
type RedisStore[K, V any] struct {
	client        redis.UniversalClient
	prefix        string
	defaultTTL    time.Duration
	keySerializer serializer.Serializer[K, []byte]
	valSerializer serializer.Serializer[V, []byte]
}

func NewRedisStoreWithOptions[K, V any](options *RedisStoreOptions) (*RedisStore[K, V], error) {
	keySerializer, err := serializer.NewByteSerializerWithOptions[K](options.KeySerializer)
	if err != nil {
		return nil, errors.WithMessage(err, "create key serializer failed")
	}
	valSerializer, err := serializer.NewByteSerializerWithOptions[V](options.ValSerializer)
	if err != nil {
		return nil, errors.WithMessage(err, "create value serializer failed")
	}

	var client redis.UniversalClient
	switch {
	case options.Endpoint != "":
		client = redis.NewClient(&redis.Options{
			Addr:         options.Endpoint,
			Username:     options.Username,
			Password:     options.Password,
			DB:           options.DB,
			MaxRetries:   options.MaxRetries,
			DialTimeout:  options.DialTimeout,
			ReadTimeout:  options.ReadTimeout,
			WriteTimeout: options.WriteTimeout,
			PoolSize:     options.PoolSize,
			MinIdleConns: options.MinIdleConns,
		})
	case len(options.Endpoints) > 0:
		client = redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:        options.Endpoints,
			Username:     options.Username,
			Password:     options.Password,
			MaxRetries:   options.MaxRetries,
			DialTimeout:  options.DialTimeout,
			ReadTimeout:  options.ReadTimeout,
			WriteTimeout: options.WriteTimeout,
			PoolSize:     options.PoolSize,
			MinIdleConns: options.MinIdleConns,
		})
	default:
		return nil, errors.New("endpoint or endpoints must be set")
	}

	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "redis ping failed")
	}

	return &RedisStore[K, V]{
		client:        client,
		prefix:        options.Prefix,
		defaultTTL:    options.DefaultTTL,
		keySerializer: keySerializer,
		valSerializer: valSerializer,
	}, nil
}

func (s *RedisStore[K, V]) key(key K) (string, error) {
	buf, err := s.keySerializer.Serialize(key)
	if err != nil {
		return "", err
	}
	return s.prefix + string(buf), nil
}

func (s *RedisStore[K, V]) Set(ctx context.Context, key K, value V, opts ...setOption) error {
	options := applySetOptions(opts)

	k, err := s.key(key)
	if err != nil {
		return err
	}
	val, err := s.valSerializer.Serialize(value)
	if err != nil {
		return err
	}

	expiration := options.Expiration
	if expiration == 0 {
		expiration = s.defaultTTL
	}
	if options.IfNotExist {
		ok, err := s.client.SetNX(ctx, k, val, expiration).Result()
		if err != nil {
			return errors.Wrap(err, "redis setnx failed")
		}
		if !ok {
			return ErrConditionFailed
		}
		return nil
	}
	if err := s.client.Set(ctx, k, val, expiration).Err(); err != nil {
		return errors.Wrap(err, "redis set failed")
	}
	return nil
}

func (s *RedisStore[K, V]) Get(ctx context.Context, key K) (V, error) {
	var zero V
	k, err := s.key(key)
	if err != nil {
		return zero, err
	}
	val, err := s.client.Get(ctx, k).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return zero, ErrKeyNotFound
		}
		return zero, errors.Wrap(err, "redis get failed")
	}
	return s.valSerializer.Deserialize(val)
}

func (s *RedisStore[K, V]) Del(ctx context.Context, key K) error {
	k, err := s.key(key)
	if err != nil {
		return err
	}
	if err := s.client.Del(ctx, k).Err(); err != nil {
		return errors.Wrap(err, "redis del failed")
	}
	return nil
}

func (s *RedisStore[K, V]) Close() error {
	return s.client.Close()
}
