package logger

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hatlonely/sqljson/log/writer"
	"github.com/hatlonely/sqljson/ref"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSLog(t *testing.T) {
	Convey("SLog", t, func() {
		var buf bytes.Buffer

		Convey("json 格式与级别过滤", func() {
			l, err := NewSLogWithWriter(&buf, &SLogOptions{
				Level:  "warn",
				Format: "json",
				Fields: map[string]any{"service": "sqljson"},
			})
			So(err, ShouldBeNil)
			l.Info("ignored")
			l.With("model", "orders").Warn("reload failed", "err", "boom")
			l.WithGroup("query").ErrorContext(context.Background(), "query failed", "rows", 3)

			out := buf.String()
			So(out, ShouldNotContainSubstring, "ignored")
			So(out, ShouldContainSubstring, `"msg":"reload failed"`)
			So(out, ShouldContainSubstring, `"model":"orders"`)
			So(out, ShouldContainSubstring, `"service":"sqljson"`)
			So(out, ShouldContainSubstring, `"query":{"rows":3}`)
		})

		Convey("text 格式与时间格式", func() {
			l, err := NewSLogWithWriter(&buf, &SLogOptions{Level: "debug", TimeFormat: "2006-01-02"})
			So(err, ShouldBeNil)
			l.Debug("materialize", "rows", 2)
			So(buf.String(), ShouldContainSubstring, "level=DEBUG msg=materialize rows=2")
		})

		Convey("非法选项", func() {
			_, err := NewSLogWithWriter(&buf, &SLogOptions{Level: "verbose"})
			So(err, ShouldNotBeNil)
			_, err = NewSLogWithWriter(&buf, &SLogOptions{Format: "xml"})
			So(err, ShouldNotBeNil)
		})
	})
}

func TestNewSLogWithOptions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l, err := NewSLogWithOptions(&SLogOptions{
		Format: "json",
		Output: &ref.TypeOptions{
			Type:    "FileWriter",
			Options: &writer.FileWriterOptions{Path: path},
		},
	})
	require.NoError(t, err)
	l.Info("hello", "k", "v")
	require.NoError(t, l.Close())

	buf, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(buf), `"msg":"hello"`)

	_, err = NewSLogWithOptions(&SLogOptions{Output: &ref.TypeOptions{Type: "NoSuchWriter"}})
	assert.Error(t, err)
}
