package sqljson

import (
	"context"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/goccy/go-json"
	"github.com/hatlonely/sqljson/cfg"
	"github.com/hatlonely/sqljson/converter"
	"github.com/hatlonely/sqljson/document"
	"github.com/hatlonely/sqljson/kv/store"
	"github.com/hatlonely/sqljson/log"
	"github.com/hatlonely/sqljson/log/logger"
	"github.com/hatlonely/sqljson/model"
	"github.com/hatlonely/sqljson/rdb"
	"github.com/hatlonely/sqljson/ref"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrModelNotFound = errors.New("model not found")
	ErrNoSource      = errors.New("no row source configured")
)

type ModelOptions struct {
	Name     string          `cfg:"name" validate:"required"`
	Provider ref.TypeOptions `cfg:"provider"`
	Decoder  ref.TypeOptions `cfg:"decoder"`
	// 内容变化时重新解析模型
	Watch bool `cfg:"watch"`
}

type Options struct {
	Models []ModelOptions `cfg:"models" validate:"dive"`
	// 解析后的模型缓存，默认 SyncMapStore
	ModelCache *ref.TypeOptions `cfg:"modelCache"`
	// Render 结果缓存，为空时不缓存
	PayloadCache *ref.TypeOptions `cfg:"payloadCache"`
	PayloadTTL   time.Duration    `cfg:"payloadTTL" def:"1m"`
	// Query、Stream、Render 使用的行数据源
	Source *ref.TypeOptions    `cfg:"source"`
	Logger *logger.SLogOptions `cfg:"logger"`
	// Render 的编码格式
	Format        string `cfg:"format" def:"json" validate:"omitempty,oneof=json yaml msgpack"`
	Name          string `cfg:"name" def:"sqljson"`
	EnableMetrics bool   `cfg:"enableMetrics" def:"true"`
	EnableTracing bool   `cfg:"enableTracing"`
}

// Engine 管理命名模型，把行数据物化为文档
type Engine struct {
	models     store.Store[string, *model.ParsedModel]
	payloads   store.Store[string, []byte]
	payloadTTL time.Duration
	source     rdb.Source
	configs    []*cfg.Config
	format     document.Format

	// 模型每次注册加一，作为缓存键的一部分，模型变化后旧的缓存不再命中
	versions sync.Map

	logger logger.Logger
	// 由引擎创建的日志器，Close 时关闭
	logCloser io.Closer

	registry *prometheus.Registry
	metrics  *metrics
	tracer   trace.Tracer
	name     string

	closeOnce sync.Once
	closeErr  error
}

func NewEngineWithOptions(options *Options) (*Engine, error) {
	if options == nil {
		options = &Options{}
	}
	l, err := log.NewLogWithOptions(options.Logger)
	if err != nil {
		return nil, errors.WithMessage(err, "create logger failed")
	}

	name := options.Name
	if name == "" {
		name = "sqljson"
	}
	e := &Engine{
		payloadTTL: options.PayloadTTL,
		format:     document.Format(options.Format),
		logger:     l,
		registry:   prometheus.NewRegistry(),
		name:       name,
	}
	if c, ok := l.(io.Closer); ok && options.Logger != nil {
		e.logCloser = c
	}
	if options.EnableMetrics {
		e.metrics = newMetrics(name, e.registry)
	}
	if options.EnableTracing {
		e.tracer = otel.Tracer(name)
	}

	modelCache := options.ModelCache
	if modelCache == nil {
		modelCache = &ref.TypeOptions{Type: "SyncMapStore"}
	}
	e.models, err = store.NewStoreWithOptions[string, *model.ParsedModel](modelCache)
	if err != nil {
		return nil, errors.WithMessage(err, "create model cache failed")
	}
	if options.PayloadCache != nil {
		if e.payloads, err = store.NewStoreWithOptions[string, []byte](options.PayloadCache); err != nil {
			_ = e.Close()
			return nil, errors.WithMessage(err, "create payload cache failed")
		}
	}
	if options.Source != nil {
		if e.source, err = rdb.NewSourceWithOptions(options.Source); err != nil {
			_ = e.Close()
			return nil, err
		}
	}

	for i := range options.Models {
		if err := e.loadModel(&options.Models[i]); err != nil {
			_ = e.Close()
			return nil, err
		}
	}
	return e, nil
}

// loadModel 从 Provider 读取模型文件，Watch 时在文件变化后重新注册
func (e *Engine) loadModel(options *ModelOptions) error {
	c, err := cfg.NewConfigWithOptions(&cfg.Options{
		Provider: options.Provider,
		Decoder:  options.Decoder,
	})
	if err != nil {
		return errors.WithMessagef(err, "load model [%s] failed", options.Name)
	}
	e.configs = append(e.configs, c)

	if err := e.RegisterModel(options.Name, c.Storage().Data()); err != nil {
		return err
	}
	if !options.Watch {
		return nil
	}

	name := options.Name
	c.OnChange(func(c *cfg.Config) error {
		err := e.RegisterModel(name, c.Storage().Data())
		e.metrics.reload(name, err)
		return err
	})
	if err := c.Watch(); err != nil {
		return errors.WithMessagef(err, "watch model [%s] failed", options.Name)
	}
	return nil
}

// RegisterModel 解析并缓存模型，同名模型被替换
func (e *Engine) RegisterModel(name string, raw any) error {
	node, err := model.Parse(raw)
	if err != nil {
		return errors.WithMessagef(err, "parse model [%s] failed", name)
	}
	parsed := model.ParseModel(node)
	if err := e.models.Set(context.Background(), name, parsed); err != nil {
		return errors.WithMessagef(err, "cache model [%s] failed", name)
	}
	e.bumpVersion(name)
	e.logger.Info("model registered", "model", name, "kind", node.Kind().String(),
		"columns", len(parsed.Columns), "primaryKeys", parsed.PrimaryKeys)
	return nil
}

func (e *Engine) bumpVersion(name string) {
	for {
		v, _ := e.versions.LoadOrStore(name, int64(0))
		if e.versions.CompareAndSwap(name, v, v.(int64)+1) {
			return
		}
	}
}

func (e *Engine) version(name string) int64 {
	v, ok := e.versions.Load(name)
	if !ok {
		return 0
	}
	return v.(int64)
}

func (e *Engine) Model(name string) (*model.ParsedModel, error) {
	parsed, err := e.models.Get(context.Background(), name)
	if err != nil {
		if errors.Is(err, store.ErrKeyNotFound) {
			return nil, errors.Wrapf(ErrModelNotFound, "model [%s]", name)
		}
		return nil, errors.WithMessagef(err, "get model [%s] failed", name)
	}
	return parsed, nil
}

// Materialize 用调用方提供的行生成文档
func (e *Engine) Materialize(ctx context.Context, name string, rows []converter.Row) (any, error) {
	var doc any
	err := e.observe(ctx, "materialize", name, func(ctx context.Context) error {
		parsed, err := e.Model(name)
		if err != nil {
			return err
		}
		doc = converter.SQLToJSON(parsed.Root, rows)
		e.metrics.rows(name, len(rows))
		return nil
	})
	return doc, err
}

// Query 从 Source 读取全部行后生成文档
func (e *Engine) Query(ctx context.Context, name string, query string, args ...any) (any, error) {
	var doc any
	err := e.observe(ctx, "query", name, func(ctx context.Context) error {
		var err error
		doc, err = e.query(ctx, name, query, args)
		return err
	})
	return doc, err
}

func (e *Engine) query(ctx context.Context, name string, query string, args []any) (any, error) {
	parsed, err := e.Model(name)
	if err != nil {
		return nil, err
	}
	if e.source == nil {
		return nil, ErrNoSource
	}
	rows, err := e.source.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.WithMessagef(err, "query rows for model [%s] failed", name)
	}
	e.metrics.rows(name, len(rows))
	e.logger.DebugContext(ctx, "rows fetched", "model", name, "rows", len(rows))
	return converter.SQLToJSON(parsed.Root, rows), nil
}

// Stream 逐行读取并增量写入文档，不保留原始行
func (e *Engine) Stream(ctx context.Context, name string, query string, args ...any) (any, error) {
	var doc any
	err := e.observe(ctx, "stream", name, func(ctx context.Context) error {
		parsed, err := e.Model(name)
		if err != nil {
			return err
		}
		if e.source == nil {
			return ErrNoSource
		}
		w := converter.NewWriter(parsed)
		if err := e.source.Each(ctx, query, args, w.Write); err != nil {
			return errors.WithMessagef(err, "stream rows for model [%s] failed", name)
		}
		e.metrics.rows(name, w.Rows())
		e.logger.DebugContext(ctx, "rows streamed", "model", name, "rows", w.Rows())
		doc = w.Document()
		return nil
	})
	return doc, err
}

// Render 查询并编码，配置了 PayloadCache 时缓存编码结果
func (e *Engine) Render(ctx context.Context, name string, query string, args ...any) ([]byte, error) {
	var buf []byte
	err := e.observe(ctx, "render", name, func(ctx context.Context) error {
		key, err := e.payloadKey(name, query, args)
		if err != nil {
			return err
		}
		if e.payloads != nil {
			cached, err := e.payloads.Get(ctx, key)
			if err == nil {
				e.metrics.cache(true)
				buf = cached
				return nil
			}
			if !errors.Is(err, store.ErrKeyNotFound) {
				e.logger.WarnContext(ctx, "read payload cache failed", "model", name, "error", err)
			}
			e.metrics.cache(false)
		}

		doc, err := e.query(ctx, name, query, args)
		if err != nil {
			return err
		}
		if buf, err = document.Encode(doc, e.format); err != nil {
			return errors.WithMessagef(err, "encode model [%s] failed", name)
		}
		if e.payloads != nil {
			if err := e.payloads.Set(ctx, key, buf, store.WithExpiration(e.payloadTTL)); err != nil {
				e.logger.WarnContext(ctx, "write payload cache failed", "model", name, "error", err)
			}
		}
		return nil
	})
	return buf, err
}

func (e *Engine) payloadKey(name string, query string, args []any) (string, error) {
	argsJSON, err := json.Marshal(args)
	if err != nil {
		return "", errors.Wrap(err, "marshal query args failed")
	}
	h := xxhash.New()
	_, _ = h.WriteString(query)
	_, _ = h.Write([]byte{0})
	_, _ = h.Write(argsJSON)
	return e.name + ":" + name + ":" + strconv.FormatInt(e.version(name), 10) + ":" +
		string(e.format) + ":" + strconv.FormatUint(h.Sum64(), 16), nil
}

// OrderBy 返回模型标识列组成的排序子句，例如 "idorder, iditem"
func (e *Engine) OrderBy(name string) (string, error) {
	parsed, err := e.Model(name)
	if err != nil {
		return "", err
	}
	return model.OrderBy(parsed.Root), nil
}

// Registry 引擎指标所在的 registry，EnableMetrics 为 false 时其中没有指标
func (e *Engine) Registry() *prometheus.Registry {
	return e.registry
}

func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		var errs []error
		for _, c := range e.configs {
			errs = append(errs, c.Close())
		}
		if e.source != nil {
			errs = append(errs, e.source.Close())
		}
		if e.payloads != nil {
			errs = append(errs, e.payloads.Close())
		}
		if e.models != nil {
			errs = append(errs, e.models.Close())
		}
		if e.logCloser != nil {
			errs = append(errs, e.logCloser.Close())
		}
		for _, err := range errs {
			if err != nil {
				e.closeErr = errors.WithMessage(err, "close engine failed")
				break
			}
		}
	})
	return e.closeErr
}
