package cfg

import (
	"strings"
	"sync"
	"time"

	"github.com/hatlonely/sqljson/cfg/decoder"
	"github.com/hatlonely/sqljson/cfg/provider"
	"github.com/hatlonely/sqljson/cfg/storage"
	"github.com/hatlonely/sqljson/cfg/validator"
	"github.com/hatlonely/sqljson/document"
	"github.com/hatlonely/sqljson/log"
	"github.com/hatlonely/sqljson/log/logger"
	"github.com/hatlonely/sqljson/ref"
	"github.com/pkg/errors"
)

type Options struct {
	Provider ref.TypeOptions `cfg:"provider"`
	Decoder  ref.TypeOptions `cfg:"decoder"`
	// 为空时使用 log.Default()
	Logger *logger.SLogOptions `cfg:"logger"`
}

// Config 由 Provider 读取、Decoder 解码的层级数据
// Sub 返回的子配置共享根配置的数据和回调
type Config struct {
	root *Config
	key  string

	// 以下字段只在根配置上使用
	mu          sync.RWMutex
	provider    provider.Provider
	decoder     decoder.Decoder
	storage     storage.Storage
	logger      logger.Logger
	onChange    []func(*Config) error
	onKeyChange map[string][]func(*Config) error
	closeOnce   sync.Once
	closeErr    error
}

func NewConfigWithOptions(options *Options) (*Config, error) {
	if options == nil {
		return nil, errors.New("options is nil")
	}
	prov, err := provider.NewProviderWithOptions(&options.Provider)
	if err != nil {
		return nil, err
	}
	dec, err := decoder.NewDecoderWithOptions(&options.Decoder)
	if err != nil {
		_ = prov.Close()
		return nil, err
	}
	data, err := prov.Load()
	if err != nil {
		_ = prov.Close()
		return nil, errors.WithMessage(err, "load data failed")
	}
	stor, err := dec.Decode(data)
	if err != nil {
		_ = prov.Close()
		return nil, errors.WithMessage(err, "decode data failed")
	}
	l, err := log.NewLogWithOptions(options.Logger)
	if err != nil {
		_ = prov.Close()
		return nil, errors.WithMessage(err, "create logger failed")
	}

	c := &Config{
		provider:    prov,
		decoder:     dec,
		storage:     stor,
		logger:      l,
		onKeyChange: map[string][]func(*Config) error{},
	}
	c.root = c
	prov.OnChange(c.reload)
	return c, nil
}

// NewConfig 从文件创建配置，按后缀选择解码器
func NewConfig(filename string) (*Config, error) {
	if filename == "" {
		return nil, errors.New("filename is empty")
	}
	decoderOptions, err := decoder.TypeOptionsByExtension(filename)
	if err != nil {
		return nil, err
	}
	return NewConfigWithOptions(&Options{
		Provider: ref.TypeOptions{
			Type:    "FileProvider",
			Options: &provider.FileProviderOptions{FilePath: filename},
		},
		Decoder: *decoderOptions,
	})
}

// Load 读取文件并转换为 object，转换后按 validate 标签校验
func Load(filename string, object any) error {
	c, err := NewConfig(filename)
	if err != nil {
		return err
	}
	defer c.Close()
	return c.ConvertTo(object)
}

func LoadWithOptions(options *Options, object any) error {
	c, err := NewConfigWithOptions(options)
	if err != nil {
		return err
	}
	defer c.Close()
	return c.ConvertTo(object)
}

func (c *Config) reload(data []byte) error {
	root := c.root
	stor, err := root.decoder.Decode(data)
	if err != nil {
		root.logger.Warn("decode changed data failed", "error", err)
		return errors.WithMessage(err, "decode changed data failed")
	}

	root.mu.Lock()
	old := root.storage
	root.storage = stor
	onChange := append([]func(*Config) error(nil), root.onChange...)
	onKeyChange := make(map[string][]func(*Config) error, len(root.onKeyChange))
	for k, fns := range root.onKeyChange {
		onKeyChange[k] = append([]func(*Config) error(nil), fns...)
	}
	root.mu.Unlock()

	for _, fn := range onChange {
		root.call("", root, fn)
	}
	for key, fns := range onKeyChange {
		if document.Equal(old.Sub(key).Data(), stor.Sub(key).Data()) {
			continue
		}
		sub := root.Sub(key)
		for _, fn := range fns {
			root.call(key, sub, fn)
		}
	}
	return nil
}

func (c *Config) call(key string, sub *Config, fn func(*Config) error) {
	start := time.Now()
	if err := fn(sub); err != nil {
		c.logger.Warn("config change handler failed", "key", key, "duration", time.Since(start), "error", err)
		return
	}
	c.logger.Info("config change handler succeeded", "key", key, "duration", time.Since(start))
}

func (c *Config) fullKey(key string) string {
	if c.key == "" {
		return key
	}
	if key == "" {
		return c.key
	}
	if strings.HasPrefix(key, "[") {
		return c.key + key
	}
	return c.key + "." + key
}

// Storage 当前数据，变更后重新获取
func (c *Config) Storage() storage.Storage {
	c.root.mu.RLock()
	defer c.root.mu.RUnlock()
	return c.root.storage.Sub(c.key)
}

func (c *Config) Sub(key string) *Config {
	return &Config{root: c.root, key: c.fullKey(key)}
}

// ConvertTo 转换后按 validate 标签校验
func (c *Config) ConvertTo(object any) error {
	if err := c.Storage().ConvertTo(object); err != nil {
		return err
	}
	if err := validator.ValidateStruct(object); err != nil {
		return errors.WithMessagef(err, "validate config [%s] failed", c.key)
	}
	return nil
}

// OnChange 注册变更回调，子配置只在自己的数据变化时回调
func (c *Config) OnChange(fn func(*Config) error) {
	if c.key != "" {
		c.OnKeyChange("", fn)
		return
	}
	c.root.mu.Lock()
	defer c.root.mu.Unlock()
	c.root.onChange = append(c.root.onChange, fn)
}

func (c *Config) OnKeyChange(key string, fn func(*Config) error) {
	full := c.fullKey(key)
	c.root.mu.Lock()
	defer c.root.mu.Unlock()
	c.root.onKeyChange[full] = append(c.root.onKeyChange[full], fn)
}

// Watch 开始监听 Provider 的变更
func (c *Config) Watch() error {
	if err := c.root.provider.Watch(); err != nil {
		return errors.WithMessage(err, "watch provider failed")
	}
	return nil
}

// Close 关闭 Provider，多次调用返回第一次的结果
func (c *Config) Close() error {
	root := c.root
	root.closeOnce.Do(func() {
		root.closeErr = root.provider.Close()
	})
	return root.closeErr
}
