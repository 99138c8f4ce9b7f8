package writer

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
)

type FileWriterOptions struct {
	Path string `cfg:"path" validate:"required"`
	// 单个文件的最大字节数，超过后轮转，0 表示不轮转
	MaxSize int64 `cfg:"maxSize"`
	// 保留的历史文件数，0 表示全部保留
	MaxBackups int `cfg:"maxBackups"`
}

// FileWriter 追加写入文件，按大小轮转
type FileWriter struct {
	options *FileWriterOptions
	mutex   sync.Mutex
	file    *os.File
	size    int64
}

func NewFileWriterWithOptions(options *FileWriterOptions) (*FileWriter, error) {
	if options.Path == "" {
		return nil, errors.New("file path is required")
	}
	w := &FileWriter{options: options}
	if err := w.open(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *FileWriter) open() error {
	if err := os.MkdirAll(filepath.Dir(w.options.Path), 0755); err != nil {
		return errors.Wrapf(err, "mkdir [%s] failed", filepath.Dir(w.options.Path))
	}
	f, err := os.OpenFile(w.options.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return errors.Wrapf(err, "open [%s] failed", w.options.Path)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "stat [%s] failed", w.options.Path)
	}
	w.file = f
	w.size = info.Size()
	return nil
}

func (w *FileWriter) Write(p []byte) (int, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.file == nil {
		return 0, errors.New("file writer is closed")
	}
	if w.options.MaxSize > 0 && w.size > 0 && w.size+int64(len(p)) > w.options.MaxSize {
		if err := w.rotate(); err != nil {
			return 0, err
		}
	}
	n, err := w.file.Write(p)
	w.size += int64(n)
	return n, err
}

func (w *FileWriter) rotate() error {
	if err := w.file.Close(); err != nil {
		return errors.Wrap(err, "close file failed")
	}
	w.file = nil
	backup := fmt.Sprintf("%s.%s", w.options.Path, time.Now().Format("20060102150405.000000"))
	if err := os.Rename(w.options.Path, backup); err != nil {
		return errors.Wrapf(err, "rename [%s] failed", w.options.Path)
	}
	if err := w.open(); err != nil {
		return err
	}
	return w.purge()
}

func (w *FileWriter) purge() error {
	if w.options.MaxBackups <= 0 {
		return nil
	}
	backups, err := filepath.Glob(w.options.Path + ".*")
	if err != nil {
		return errors.Wrap(err, "glob backups failed")
	}
	sort.Strings(backups)
	for len(backups) > w.options.MaxBackups {
		if !strings.HasPrefix(backups[0], w.options.Path+".") {
			break
		}
		if err := os.Remove(backups[0]); err != nil {
			return errors.Wrapf(err, "remove [%s] failed", backups[0])
		}
		backups = backups[1:]
	}
	return nil
}

func (w *FileWriter) Close() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}
