package rdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/hatlonely/sqljson/converter"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

type SQLSourceOptions struct {
	Driver          string        `cfg:"driver" def:"mysql" validate:"oneof=mysql sqlite3"`
	DSN             string        `cfg:"dsn"`
	Host            string        `cfg:"host" def:"localhost"`
	Port            int           `cfg:"port" def:"3306"`
	Database        string        `cfg:"database"`
	Username        string        `cfg:"username"`
	Password        string        `cfg:"password"`
	Charset         string        `cfg:"charset" def:"utf8mb4"`
	MaxConns        int           `cfg:"maxConns" def:"10"`
	MaxIdle         int           `cfg:"maxIdle" def:"5"`
	ConnMaxLifetime time.Duration `cfg:"connMaxLifetime" def:"1h"`
}

// SQLSource 通过 database/sql 执行调用方给出的 SQL
type SQLSource struct {
	db *sql.DB
}

func NewSQLSourceWithOptions(options *SQLSourceOptions) (*SQLSource, error) {
	dsn, err := sqlDSN(options)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(options.Driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "sql.Open [%s] failed", options.Driver)
	}
	if options.MaxConns > 0 {
		db.SetMaxOpenConns(options.MaxConns)
	}
	if options.MaxIdle > 0 {
		db.SetMaxIdleConns(options.MaxIdle)
	}
	if options.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(options.ConnMaxLifetime)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "ping database failed")
	}
	return &SQLSource{db: db}, nil
}

// NewSQLSourceWithDB 使用已有的连接，Close 会关闭它
func NewSQLSourceWithDB(db *sql.DB) *SQLSource {
	return &SQLSource{db: db}
}

func sqlDSN(options *SQLSourceOptions) (string, error) {
	switch options.Driver {
	case "mysql":
		if options.DSN != "" {
			return options.DSN, nil
		}
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=Local",
			options.Username, options.Password, options.Host, options.Port, options.Database, options.Charset), nil
	case "sqlite3":
		if options.DSN != "" {
			return options.DSN, nil
		}
		return options.Database, nil
	}
	return "", errors.Wrapf(ErrUnsupportedDriver, "driver [%s]", options.Driver)
}

func (s *SQLSource) DB() *sql.DB {
	return s.db
}

func (s *SQLSource) Query(ctx context.Context, query string, args ...any) ([]converter.Row, error) {
	return collect(ctx, s, query, args)
}

func (s *SQLSource) Each(ctx context.Context, query string, args []any, fn func(row converter.Row) error) error {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "query failed")
	}
	defer rows.Close()
	return scanRows(rows, fn)
}

func (s *SQLSource) Close() error {
	return s.db.Close()
}

// scanRows 逐行扫描，同名列以后出现的为准
// 声明为二进制类型的列保留 []byte，其余列的 []byte 按文本转为 string
func scanRows(rows *sql.Rows, fn func(row converter.Row) error) error {
	columns, err := rows.Columns()
	if err != nil {
		return errors.Wrap(err, "get columns failed")
	}
	binary := binaryColumns(rows, len(columns))
	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return errors.Wrap(err, "scan row failed")
		}
		row := make(converter.Row, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok && binary[i] {
				row[col] = b
				continue
			}
			row[col] = normalize(values[i])
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return errors.Wrap(err, "iterate rows failed")
	}
	return nil
}

// binaryColumns 取不到列类型时全部按文本处理
func binaryColumns(rows *sql.Rows, n int) []bool {
	binary := make([]bool, n)
	types, err := rows.ColumnTypes()
	if err != nil {
		return binary
	}
	for i, t := range types {
		if i < n {
			binary[i] = isBinaryType(t.DatabaseTypeName())
		}
	}
	return binary
}

// isBinaryType BLOB、TINYBLOB、LONGBLOB、BINARY、VARBINARY 等
func isBinaryType(name string) bool {
	name = strings.ToUpper(name)
	return strings.Contains(name, "BLOB") || strings.Contains(name, "BINARY")
}
