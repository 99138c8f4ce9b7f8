package provider

import (
	"github.com/hatlonely/sqljson/ref"
	"github.com/pkg/errors"
)

func init() {
	ref.MustRegisterT[*FileProvider](NewFileProviderWithOptions)
	ref.MustRegisterT[*GormProvider](NewGormProviderWithOptions)
}

// Provider 提供模型文件或配置文件的原始字节
type Provider interface {
	Load() ([]byte, error)
	Save(data []byte) error
	// OnChange 注册变更回调，Watch 之后才会触发
	OnChange(fn func(data []byte) error)
	Watch() error
	Close() error
}

func NewProviderWithOptions(options *ref.TypeOptions) (Provider, error) {
	p, err := ref.NewWithTypeOptions[Provider]("github.com/hatlonely/sqljson/cfg/provider", options)
	if err != nil {
		return nil, errors.WithMessage(err, "create provider failed")
	}
	return p, nil
}

type handlers struct {
	fns []func(data []byte) error
}

func (h *handlers) add(fn func(data []byte) error) {
	if fn != nil {
		h.fns = append(h.fns, fn)
	}
}

func (h *handlers) snapshot() []func(data []byte) error {
	return append([]func(data []byte) error(nil), h.fns...)
}
