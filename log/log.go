package log

import (
	"sync/atomic"

	"github.com/hatlonely/sqljson/log/logger"
)

var defaultLogger atomic.Value

func init() {
	l, err := logger.NewSLogWithOptions(&logger.SLogOptions{Level: "info", Format: "text"})
	if err != nil {
		panic(err)
	}
	SetDefault(l)
}

func Default() logger.Logger {
	return defaultLogger.Load().(loggerHolder).Logger
}

// SetDefault 替换默认日志器，nil 被忽略
func SetDefault(l logger.Logger) {
	if l == nil {
		return
	}
	defaultLogger.Store(loggerHolder{l})
}

// NewLogWithOptions 按选项创建日志器，options 为 nil 时返回默认日志器
func NewLogWithOptions(options *logger.SLogOptions) (logger.Logger, error) {
	if options == nil {
		return Default(), nil
	}
	l, err := logger.NewSLogWithOptions(options)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// atomic.Value 要求每次存入的具体类型相同
type loggerHolder struct {
	logger.Logger
}
