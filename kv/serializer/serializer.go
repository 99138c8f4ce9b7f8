package serializer

import (
	"reflect"
	"strings"

	"github.com/hatlonely/sqljson/ref"
	"github.com/pkg/errors"
)

// Serializer 在 F 和 T 之间转换，字节存储用它编码键和值
type Serializer[F, T any] interface {
	Serialize(from F) (T, error)
	Deserialize(to T) (F, error)
}

// NewByteSerializerWithOptions options 为空时使用 MsgPackSerializer
// Type 可以省略类型参数，如 "JSONSerializer" 等价于 "JSONSerializer[string]"
func NewByteSerializerWithOptions[T any](options *ref.TypeOptions) (Serializer[T, []byte], error) {
	if err := ref.RegisterT[*JSONSerializer[T]](NewJSONSerializer[T]); err != nil {
		return nil, err
	}
	if err := ref.RegisterT[*MsgPackSerializer[T]](NewMsgPackSerializer[T]); err != nil {
		return nil, err
	}

	typ := "MsgPackSerializer"
	namespace := ""
	var opts any
	if options != nil {
		typ, namespace, opts = options.Type, options.Namespace, options.Options
	}
	if !strings.Contains(typ, "[") {
		typ += TypeArgs(reflect.TypeOf(JSONSerializer[T]{}).Name())
	}

	s, err := ref.NewWithTypeOptions[Serializer[T, []byte]]("github.com/hatlonely/sqljson/kv/serializer", &ref.TypeOptions{
		Namespace: namespace,
		Type:      typ,
		Options:   opts,
	})
	if err != nil {
		return nil, errors.WithMessage(err, "create serializer failed")
	}
	return s, nil
}

// TypeArgs 返回泛型实例类型名中的类型参数部分，如 "MapStore[string,int]" 返回 "[string,int]"
func TypeArgs(name string) string {
	if i := strings.Index(name, "["); i >= 0 {
		return name[i:]
	}
	return ""
}
