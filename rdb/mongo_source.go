package rdb

import (
	"context"
	"fmt"
	"time"

	"github.com/hatlonely/sqljson/converter"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type MongoSourceOptions struct {
	URI         string        `cfg:"uri"`
	Host        string        `cfg:"host" def:"localhost"`
	Port        int           `cfg:"port" def:"27017"`
	Database    string        `cfg:"database" validate:"required"`
	Username    string        `cfg:"username"`
	Password    string        `cfg:"password"`
	AuthSource  string        `cfg:"authSource" def:"admin"`
	Timeout     time.Duration `cfg:"timeout" def:"30s"`
	MaxPoolSize uint64        `cfg:"maxPoolSize" def:"100"`
	// 嵌套文档展开为列时的分隔符，$lookup 之后 $unwind 的子文档 c.name 对应列 c.name
	Separator string `cfg:"separator" def:"."`
}

// MongoSource 执行聚合管道，每个结果文档展开为一行
// Query 的 query 参数为集合名，args 为管道的各个阶段
type MongoSource struct {
	client    *mongo.Client
	database  *mongo.Database
	separator string
}

func NewMongoSourceWithOptions(opts *MongoSourceOptions) (*MongoSource, error) {
	uri := opts.URI
	if uri == "" {
		if opts.Username != "" {
			uri = fmt.Sprintf("mongodb://%s:%s@%s:%d/%s?authSource=%s",
				opts.Username, opts.Password, opts.Host, opts.Port, opts.Database, opts.AuthSource)
		} else {
			uri = fmt.Sprintf("mongodb://%s:%d/%s", opts.Host, opts.Port, opts.Database)
		}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	clientOptions := options.Client().ApplyURI(uri).SetTimeout(timeout)
	if opts.MaxPoolSize > 0 {
		clientOptions.SetMaxPoolSize(opts.MaxPoolSize)
	}
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, errors.Wrap(err, "connect mongodb failed")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "ping mongodb failed")
	}

	separator := opts.Separator
	if separator == "" {
		separator = "."
	}
	return &MongoSource{
		client:    client,
		database:  client.Database(opts.Database),
		separator: separator,
	}, nil
}

func (s *MongoSource) Query(ctx context.Context, collection string, stages ...any) ([]converter.Row, error) {
	return collect(ctx, s, collection, stages)
}

func (s *MongoSource) Each(ctx context.Context, collection string, stages []any, fn func(row converter.Row) error) error {
	pipeline, err := Pipeline(stages...)
	if err != nil {
		return err
	}
	cursor, err := s.database.Collection(collection).Aggregate(ctx, pipeline)
	if err != nil {
		return errors.Wrapf(err, "aggregate collection [%s] failed", collection)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return errors.Wrap(err, "decode document failed")
		}
		if err := fn(s.Row(doc)); err != nil {
			return err
		}
	}
	if err := cursor.Err(); err != nil {
		return errors.Wrap(err, "iterate cursor failed")
	}
	return nil
}

// Row 将结果文档展开并归一化为一行
func (s *MongoSource) Row(doc bson.M) converter.Row {
	row := converter.Row{}
	flatten(row, "", s.separator, doc)
	return row
}

func (s *MongoSource) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Pipeline 组装聚合管道
// 每个阶段可以是 bson.D、bson.M、map[string]any 或扩展 JSON 文本；
// 只有一个参数且为数组时，按整个管道处理
func Pipeline(stages ...any) (bson.A, error) {
	if len(stages) == 1 {
		switch x := stages[0].(type) {
		case mongo.Pipeline:
			out := make(bson.A, len(x))
			for i, stage := range x {
				out[i] = stage
			}
			return out, nil
		case bson.A:
			return Pipeline(x...)
		case []any:
			return Pipeline(x...)
		case string:
			// 扩展 JSON 只能解析文档，数组包一层再解析
			var wrapper struct {
				Pipeline bson.A `bson:"pipeline"`
			}
			text := []byte(`{"pipeline": ` + x + `}`)
			if err := bson.UnmarshalExtJSON(text, false, &wrapper); err == nil {
				return Pipeline(wrapper.Pipeline...)
			}
		}
	}

	pipeline := make(bson.A, 0, len(stages))
	for i, stage := range stages {
		switch x := stage.(type) {
		case bson.D, bson.M:
			pipeline = append(pipeline, x)
		case map[string]any:
			pipeline = append(pipeline, bson.M(x))
		case string:
			var d bson.D
			if err := bson.UnmarshalExtJSON([]byte(x), false, &d); err != nil {
				return nil, errors.Wrapf(err, "parse stage %d failed", i)
			}
			pipeline = append(pipeline, d)
		default:
			return nil, errors.Errorf("unsupported stage type %T at %d", stage, i)
		}
	}
	return pipeline, nil
}
