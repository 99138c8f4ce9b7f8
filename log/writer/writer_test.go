package writer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hatlonely/sqljson/ref"
	. "github.com/smartystreets/goconvey/convey"
)

func TestConsoleWriter(t *testing.T) {
	Convey("ConsoleWriter", t, func() {
		w, err := NewConsoleWriterWithOptions(&ConsoleWriterOptions{Target: "stderr"})
		So(err, ShouldBeNil)
		So(w.w, ShouldEqual, os.Stderr)
		So(w.Close(), ShouldBeNil)

		_, err = NewConsoleWriterWithOptions(&ConsoleWriterOptions{Target: "printer"})
		So(err, ShouldNotBeNil)

		obj, err := ref.New("github.com/hatlonely/sqljson/log/writer", "ConsoleWriter", &ConsoleWriterOptions{})
		So(err, ShouldBeNil)
		So(obj.(*ConsoleWriter).w, ShouldEqual, os.Stdout)
	})
}

func TestFileWriter(t *testing.T) {
	Convey("FileWriter", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "logs", "sqljson.log")

		Convey("追加写入", func() {
			w, err := NewFileWriterWithOptions(&FileWriterOptions{Path: path})
			So(err, ShouldBeNil)
			_, err = w.Write([]byte("line1\n"))
			So(err, ShouldBeNil)
			So(w.Close(), ShouldBeNil)

			w, err = NewFileWriterWithOptions(&FileWriterOptions{Path: path})
			So(err, ShouldBeNil)
			_, err = w.Write([]byte("line2\n"))
			So(err, ShouldBeNil)
			So(w.Close(), ShouldBeNil)

			buf, err := os.ReadFile(path)
			So(err, ShouldBeNil)
			So(string(buf), ShouldEqual, "line1\nline2\n")

			_, err = w.Write([]byte("closed"))
			So(err, ShouldNotBeNil)
		})

		Convey("按大小轮转并清理历史文件", func() {
			w, err := NewFileWriterWithOptions(&FileWriterOptions{Path: path, MaxSize: 10, MaxBackups: 1})
			So(err, ShouldBeNil)
			for i := 0; i < 4; i++ {
				_, err = w.Write([]byte("012345678\n"))
				So(err, ShouldBeNil)
			}
			So(w.Close(), ShouldBeNil)

			entries, err := os.ReadDir(filepath.Dir(path))
			So(err, ShouldBeNil)
			backups := 0
			for _, e := range entries {
				if strings.HasPrefix(e.Name(), "sqljson.log.") {
					backups++
				}
			}
			So(backups, ShouldEqual, 1)
			buf, _ := os.ReadFile(path)
			So(string(buf), ShouldEqual, "012345678\n")
		})

		Convey("缺少路径", func() {
			_, err := NewFileWriterWithOptions(&FileWriterOptions{})
			So(err, ShouldNotBeNil)
		})
	})
}
