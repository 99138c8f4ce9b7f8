package writer

import (
	"io"
	"os"

	"github.com/hatlonely/sqljson/ref"
	"github.com/pkg/errors"
)

func init() {
	ref.MustRegisterT[*ConsoleWriter](NewConsoleWriterWithOptions)
	ref.MustRegisterT[*FileWriter](NewFileWriterWithOptions)
}

// Writer 日志输出器
type Writer interface {
	io.Writer
	io.Closer
}

type ConsoleWriterOptions struct {
	// stdout 或 stderr
	Target string `cfg:"target" def:"stdout" validate:"omitempty,oneof=stdout stderr"`
}

// ConsoleWriter 输出到终端，Close 不关闭标准输出
type ConsoleWriter struct {
	w io.Writer
}

func NewConsoleWriterWithOptions(options *ConsoleWriterOptions) (*ConsoleWriter, error) {
	switch options.Target {
	case "", "stdout":
		return &ConsoleWriter{w: os.Stdout}, nil
	case "stderr":
		return &ConsoleWriter{w: os.Stderr}, nil
	}
	return nil, errors.Errorf("unsupported console target [%s]", options.Target)
}

func (c *ConsoleWriter) Write(p []byte) (int, error) {
	return c.w.Write(p)
}

func (c *ConsoleWriter) Close() error {
	return nil
}
