package provider

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/hatlonely/sqljson/log"
	"github.com/pkg/errors"
)

type FileProviderOptions struct {
	FilePath string `cfg:"filePath" validate:"required"`
}

// FileProvider 读取本地文件，Watch 之后监听所在目录，文件写入或重建时回调
type FileProvider struct {
	filePath string

	mu       sync.RWMutex
	handlers handlers
	watcher  *fsnotify.Watcher
	once     sync.Once
}

func NewFileProviderWithOptions(options *FileProviderOptions) (*FileProvider, error) {
	if options == nil || options.FilePath == "" {
		return nil, errors.New("file path is required")
	}
	absPath, err := filepath.Abs(options.FilePath)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid file path [%s]", options.FilePath)
	}
	return &FileProvider{filePath: absPath}, nil
}

func (p *FileProvider) Load() ([]byte, error) {
	data, err := os.ReadFile(p.filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "read file [%s] failed", p.filePath)
	}
	return data, nil
}

func (p *FileProvider) Save(data []byte) error {
	if err := os.WriteFile(p.filePath, data, 0644); err != nil {
		return errors.Wrapf(err, "write file [%s] failed", p.filePath)
	}
	return nil
}

func (p *FileProvider) OnChange(fn func(data []byte) error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers.add(fn)
}

func (p *FileProvider) Watch() error {
	var watchErr error
	p.once.Do(func() {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			watchErr = errors.Wrap(err, "fsnotify.NewWatcher failed")
			return
		}
		// 监听目录而不是文件，编辑器重命名替换文件后仍能收到事件
		if err := watcher.Add(filepath.Dir(p.filePath)); err != nil {
			_ = watcher.Close()
			watchErr = errors.Wrapf(err, "watch directory [%s] failed", filepath.Dir(p.filePath))
			return
		}

		p.mu.Lock()
		p.watcher = watcher
		p.mu.Unlock()

		go p.loop(watcher)
	})
	return watchErr
}

func (p *FileProvider) loop(watcher *fsnotify.Watcher) {
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != p.filePath {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			p.notify()
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Default().Warn("file watcher error", "file", p.filePath, "error", err)
		}
	}
}

func (p *FileProvider) notify() {
	data, err := os.ReadFile(p.filePath)
	if err != nil {
		log.Default().Warn("reload file failed", "file", p.filePath, "error", err)
		return
	}
	p.mu.RLock()
	fns := p.handlers.snapshot()
	p.mu.RUnlock()
	for _, fn := range fns {
		if err := fn(data); err != nil {
			log.Default().Warn("file change handler failed", "file", p.filePath, "error", err)
		}
	}
}

func (p *FileProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.watcher == nil {
		return nil
	}
	err := p.watcher.Close()
	p.watcher = nil
	return err
}
