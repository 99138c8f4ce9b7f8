package logger

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/hatlonely/sqljson/log/writer"
	"github.com/hatlonely/sqljson/ref"
	"github.com/pkg/errors"
)

type SLogOptions struct {
	Level  string `cfg:"level" def:"info" validate:"omitempty,oneof=debug info warn warning error"`
	Format string `cfg:"format" def:"text" validate:"omitempty,oneof=text json"`
	// 输出器，为空时输出到 stdout
	Output *ref.TypeOptions `cfg:"output"`
	// 为空时使用 RFC3339
	TimeFormat string         `cfg:"timeFormat"`
	AddSource  bool           `cfg:"addSource"`
	Fields     map[string]any `cfg:"fields"`
}

type SLog struct {
	logger *slog.Logger
	closer io.Closer
}

func NewSLogWithOptions(options *SLogOptions) (*SLog, error) {
	level, err := parseLevel(options.Level)
	if err != nil {
		return nil, err
	}

	var w writer.Writer
	if options.Output != nil && options.Output.Type != "" {
		w, err = ref.NewWithTypeOptions[writer.Writer]("github.com/hatlonely/sqljson/log/writer", options.Output)
		if err != nil {
			return nil, errors.WithMessage(err, "create log writer failed")
		}
	} else {
		w, _ = writer.NewConsoleWriterWithOptions(&writer.ConsoleWriterOptions{})
	}

	l, err := newSLog(w, level, options)
	if err != nil {
		_ = w.Close()
		return nil, err
	}
	l.closer = w
	return l, nil
}

// NewSLogWithWriter 输出到指定的 io.Writer，主要用于测试
func NewSLogWithWriter(w io.Writer, options *SLogOptions) (*SLog, error) {
	level, err := parseLevel(options.Level)
	if err != nil {
		return nil, err
	}
	return newSLog(w, level, options)
}

func newSLog(w io.Writer, level slog.Level, options *SLogOptions) (*SLog, error) {
	handlerOptions := &slog.HandlerOptions{
		Level:     level,
		AddSource: options.AddSource,
	}
	if options.TimeFormat != "" && options.TimeFormat != time.RFC3339 {
		format := options.TimeFormat
		handlerOptions.ReplaceAttr = func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.String(a.Key, a.Value.Time().Format(format))
			}
			return a
		}
	}

	var handler slog.Handler
	switch strings.ToLower(options.Format) {
	case "", "text":
		handler = slog.NewTextHandler(w, handlerOptions)
	case "json":
		handler = slog.NewJSONHandler(w, handlerOptions)
	default:
		return nil, errors.Errorf("unsupported log format [%s]", options.Format)
	}

	l := slog.New(handler)
	if len(options.Fields) > 0 {
		keys := make([]string, 0, len(options.Fields))
		for k := range options.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		args := make([]any, 0, len(keys)*2)
		for _, k := range keys {
			args = append(args, k, options.Fields[k])
		}
		l = l.With(args...)
	}
	return &SLog{logger: l}, nil
}

func parseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, errors.Errorf("unknown log level [%s]", level)
}

func (l *SLog) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }
func (l *SLog) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l *SLog) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }
func (l *SLog) Error(msg string, args ...any) { l.logger.Error(msg, args...) }

func (l *SLog) DebugContext(ctx context.Context, msg string, args ...any) {
	l.logger.DebugContext(ctx, msg, args...)
}

func (l *SLog) InfoContext(ctx context.Context, msg string, args ...any) {
	l.logger.InfoContext(ctx, msg, args...)
}

func (l *SLog) WarnContext(ctx context.Context, msg string, args ...any) {
	l.logger.WarnContext(ctx, msg, args...)
}

func (l *SLog) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.logger.ErrorContext(ctx, msg, args...)
}

func (l *SLog) With(args ...any) Logger {
	return &SLog{logger: l.logger.With(args...)}
}

func (l *SLog) WithGroup(name string) Logger {
	return &SLog{logger: l.logger.WithGroup(name)}
}

// Close 关闭由 NewSLogWithOptions 创建的输出器
func (l *SLog) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
