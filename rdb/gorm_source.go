package rdb

import (
	"context"

	"github.com/hatlonely/sqljson/converter"
	"github.com/pkg/errors"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type GormSourceOptions struct {
	Driver string `cfg:"driver" def:"mysql" validate:"oneof=mysql sqlite"`
	DSN    string `cfg:"dsn" validate:"required"`
	// 记录每条 SQL，调试用
	Debug bool `cfg:"debug"`
}

// GormSource 通过 gorm 的 Raw 执行 SQL，连接池和方言由 gorm 管理
type GormSource struct {
	db *gorm.DB
}

func NewGormSourceWithOptions(options *GormSourceOptions) (*GormSource, error) {
	var dialector gorm.Dialector
	switch options.Driver {
	case "mysql":
		dialector = mysql.Open(options.DSN)
	case "sqlite":
		dialector = sqlite.Open(options.DSN)
	default:
		return nil, errors.Wrapf(ErrUnsupportedDriver, "driver [%s]", options.Driver)
	}
	level := logger.Silent
	if options.Debug {
		level = logger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(level)})
	if err != nil {
		return nil, errors.Wrap(err, "gorm.Open failed")
	}
	return &GormSource{db: db}, nil
}

func NewGormSourceWithDB(db *gorm.DB) *GormSource {
	return &GormSource{db: db}
}

func (s *GormSource) DB() *gorm.DB {
	return s.db
}

func (s *GormSource) Query(ctx context.Context, query string, args ...any) ([]converter.Row, error) {
	return collect(ctx, s, query, args)
}

func (s *GormSource) Each(ctx context.Context, query string, args []any, fn func(row converter.Row) error) error {
	rows, err := s.db.WithContext(ctx).Raw(query, args...).Rows()
	if err != nil {
		return errors.Wrap(err, "query failed")
	}
	defer rows.Close()
	return scanRows(rows, fn)
}

func (s *GormSource) Close() error {
	db, err := s.db.DB()
	if err != nil {
		return errors.Wrap(err, "get sql.DB failed")
	}
	return db.Close()
}
