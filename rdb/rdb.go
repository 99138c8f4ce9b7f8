package rdb

import (
	"context"

	"github.com/hatlonely/sqljson/converter"
	"github.com/hatlonely/sqljson/ref"
	"github.com/pkg/errors"
)

var ErrUnsupportedDriver = errors.New("unsupported driver")

func init() {
	ref.MustRegisterT[*SQLSource](NewSQLSourceWithOptions)
	ref.MustRegisterT[*GormSource](NewGormSourceWithOptions)
	ref.MustRegisterT[*MongoSource](NewMongoSourceWithOptions)
}

// Source 执行查询并返回扁平的结果行
// 行中的值已经归一化：文本为 string，整数为 int64，时间为 time.Time
type Source interface {
	Query(ctx context.Context, query string, args ...any) ([]converter.Row, error)
	// Each 逐行回调，fn 返回错误时停止
	Each(ctx context.Context, query string, args []any, fn func(row converter.Row) error) error
	Close() error
}

func NewSourceWithOptions(options *ref.TypeOptions) (Source, error) {
	s, err := ref.NewWithTypeOptions[Source]("github.com/hatlonely/sqljson/rdb", options)
	if err != nil {
		return nil, errors.WithMessage(err, "create source failed")
	}
	return s, nil
}

func collect(ctx context.Context, s Source, query string, args []any) ([]converter.Row, error) {
	var rows []converter.Row
	err := s.Each(ctx, query, args, func(row converter.Row) error {
		rows = append(rows, row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}
