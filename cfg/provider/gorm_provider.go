package provider

import (
	"sync"
	"time"

	"github.com/hatlonely/sqljson/log"
	"github.com/pkg/errors"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ModelRecord 模型表中的一行，Name 对应一个模型或一份配置
type ModelRecord struct {
	Name      string    `gorm:"primaryKey;column:name;size:128"`
	Content   string    `gorm:"type:text;not null;column:content"`
	Version   int64     `gorm:"not null;default:0;column:version"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;column:updated_at"`
}

type GormProviderOptions struct {
	Name         string        `cfg:"name" validate:"required"`
	Driver       string        `cfg:"driver" def:"sqlite" validate:"oneof=sqlite mysql"`
	DSN          string        `cfg:"dsn" validate:"required"`
	Table        string        `cfg:"table" def:"sqljson_models"`
	PollInterval time.Duration `cfg:"pollInterval" def:"5s"`
}

// GormProvider 从数据库表读取内容，Watch 之后按 PollInterval 比较版本号
type GormProvider struct {
	name         string
	table        string
	pollInterval time.Duration
	db           *gorm.DB

	mu          sync.RWMutex
	handlers    handlers
	lastVersion int64
	watching    bool
	once        sync.Once
	closeOnce   sync.Once
	stop        chan struct{}
	done        chan struct{}
}

func NewGormProviderWithOptions(options *GormProviderOptions) (*GormProvider, error) {
	if options == nil || options.Name == "" {
		return nil, errors.New("name is required")
	}
	if options.DSN == "" {
		return nil, errors.New("dsn is required")
	}

	var dialector gorm.Dialector
	switch options.Driver {
	case "", "sqlite":
		dialector = sqlite.Open(options.DSN)
	case "mysql":
		dialector = mysql.Open(options.DSN)
	default:
		return nil, errors.Errorf("unsupported driver [%s]", options.Driver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, errors.Wrap(err, "gorm.Open failed")
	}

	p := &GormProvider{
		name:         options.Name,
		table:        options.Table,
		pollInterval: options.PollInterval,
		db:           db,
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
	if p.table == "" {
		p.table = "sqljson_models"
	}
	if p.pollInterval <= 0 {
		p.pollInterval = 5 * time.Second
	}
	if err := db.Table(p.table).AutoMigrate(&ModelRecord{}); err != nil {
		return nil, errors.Wrapf(err, "migrate table [%s] failed", p.table)
	}
	return p, nil
}

func (p *GormProvider) fetch() (*ModelRecord, error) {
	var record ModelRecord
	if err := p.db.Table(p.table).Where("name = ?", p.name).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Errorf("record [%s] not found in table [%s]", p.name, p.table)
		}
		return nil, errors.Wrapf(err, "query record [%s] failed", p.name)
	}
	return &record, nil
}

func (p *GormProvider) Load() ([]byte, error) {
	record, err := p.fetch()
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.lastVersion = record.Version
	p.mu.Unlock()
	return []byte(record.Content), nil
}

// Save 写入内容并递增版本号
func (p *GormProvider) Save(data []byte) error {
	return p.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Table(p.table).Where("name = ?", p.name).Updates(map[string]any{
			"content": string(data),
			"version": gorm.Expr("version + 1"),
		})
		if res.Error != nil {
			return errors.Wrapf(res.Error, "update record [%s] failed", p.name)
		}
		if res.RowsAffected > 0 {
			return nil
		}
		if err := tx.Table(p.table).Create(&ModelRecord{Name: p.name, Content: string(data), Version: 1}).Error; err != nil {
			return errors.Wrapf(err, "create record [%s] failed", p.name)
		}
		return nil
	})
}

func (p *GormProvider) OnChange(fn func(data []byte) error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers.add(fn)
}

func (p *GormProvider) Watch() error {
	p.once.Do(func() {
		p.mu.Lock()
		p.watching = true
		p.mu.Unlock()
		go p.poll()
	})
	return nil
}

func (p *GormProvider) poll() {
	defer close(p.done)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			p.check()
		}
	}
}

func (p *GormProvider) check() {
	record, err := p.fetch()
	if err != nil {
		log.Default().Warn("poll record failed", "name", p.name, "error", err)
		return
	}

	p.mu.RLock()
	changed := record.Version > p.lastVersion
	fns := p.handlers.snapshot()
	p.mu.RUnlock()
	if !changed {
		return
	}

	for _, fn := range fns {
		if err := fn([]byte(record.Content)); err != nil {
			// 版本号不前进，下一轮重试
			log.Default().Warn("record change handler failed", "name", p.name, "version", record.Version, "error", err)
			return
		}
	}
	p.mu.Lock()
	p.lastVersion = record.Version
	p.mu.Unlock()
}

func (p *GormProvider) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.stop)
		p.mu.RLock()
		watching := p.watching
		p.mu.RUnlock()
		if watching {
			<-p.done
		}

		sqlDB, dbErr := p.db.DB()
		if dbErr != nil {
			err = errors.Wrap(dbErr, "get sql.DB failed")
			return
		}
		err = sqlDB.Close()
	})
	return err
}
