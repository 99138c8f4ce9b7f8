package model

import (
	"sort"

	"github.com/hatlonely/sqljson/document"
	"github.com/pkg/errors"
)

// Parse 将书写形式的模型转换为 Node
// 支持 Map、*document.Object、map[string]any（键按字典序）、[]any、[]string、string 以及已经是 Node 的值。
// 修饰不规范的列名不会报错，按最接近的类型处理
func Parse(raw any) (Node, error) {
	if n, ok := raw.(Node); ok {
		return n, nil
	}
	if raw == nil {
		return &Empty{}, nil
	}

	switch TypeOf(raw) {
	case KindObject:
		kvs, err := objectEntries(raw)
		if err != nil {
			return nil, err
		}
		obj := &Object{Fields: make([]Field, 0, len(kvs))}
		for _, kv := range kvs {
			child, err := Parse(kv.Value)
			if err != nil {
				return nil, errors.WithMessagef(err, "key [%s]", kv.Key)
			}
			obj.Fields = append(obj.Fields, Field{Key: kv.Key, Node: child})
		}
		return obj, nil
	case KindArray:
		seq := raw.([]any)
		elem, constraints := seq[0], seq[1:]
		if s, ok := seq[0].(string); ok && s == tagArray {
			elem, constraints = seq[1], seq[2:]
		}
		child, err := Parse(elem)
		if err != nil {
			return nil, errors.WithMessage(err, "array element")
		}
		return &Array{Elem: child, Constraints: constraints}, nil
	case KindKey, KindPrimaryKey:
		return &Leaf{Column: NameOf(raw), PrimaryKey: TypeOf(raw) == KindPrimaryKey}, nil
	}

	switch v := raw.(type) {
	case []any, []string:
		return &Empty{}, nil
	default:
		return nil, errors.Errorf("unsupported model node type %T", v)
	}
}

// MustParse 同 Parse，出错时 panic
func MustParse(raw any) Node {
	n, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return n
}

func objectEntries(raw any) (Map, error) {
	switch v := raw.(type) {
	case Map:
		return v, nil
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := make(Map, 0, len(keys))
		for _, k := range keys {
			m = append(m, KV{Key: k, Value: v[k]})
		}
		return m, nil
	case *document.Object:
		m := make(Map, 0, v.Len())
		v.Range(func(key string, value any) bool {
			m = append(m, KV{Key: key, Value: value})
			return true
		})
		return m, nil
	case []any:
		if len(v) > 1 {
			return objectEntries(v[1])
		}
	}
	return nil, errors.Errorf("object model expects a mapping, got %T", raw)
}
