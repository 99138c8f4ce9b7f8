package storage

import (
	"strconv"
	"strings"

	"github.com/hatlonely/sqljson/document"
	"github.com/pkg/errors"
)

// MapStorage 基于解码结果的存储，对象可以是 *document.Object 或 map[string]any
type MapStorage struct {
	data any
}

func NewMapStorage(data any) *MapStorage {
	return &MapStorage{data: data}
}

func (s *MapStorage) Data() any {
	return s.data
}

func (s *MapStorage) Sub(key string) Storage {
	if key == "" {
		return s
	}
	v := s.data
	for _, k := range splitKey(key) {
		v = child(v, k)
		if v == nil {
			break
		}
	}
	return NewMapStorage(v)
}

func (s *MapStorage) ConvertTo(object any) error {
	if err := convertTo(s.data, object); err != nil {
		return errors.WithMessage(err, "convert storage failed")
	}
	return nil
}

// splitKey 将 a.b[0].c 拆分为 a b 0 c
func splitKey(key string) []string {
	key = strings.NewReplacer("[", ".", "]", "").Replace(key)
	var keys []string
	for _, k := range strings.Split(key, ".") {
		if k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

func child(v any, key string) any {
	switch x := v.(type) {
	case *document.Object:
		return x.Value(key)
	case map[string]any:
		return x[key]
	case []any:
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 || i >= len(x) {
			return nil
		}
		return x[i]
	}
	return nil
}

// lookup 在对象中按名称查找，先精确匹配，再忽略大小写
func lookup(v any, name string) (any, bool) {
	switch x := v.(type) {
	case *document.Object:
		if val, ok := x.Get(name); ok {
			return val, true
		}
		for _, k := range x.Keys() {
			if strings.EqualFold(k, name) {
				return x.Value(k), true
			}
		}
	case map[string]any:
		if val, ok := x[name]; ok {
			return val, true
		}
		for k, val := range x {
			if strings.EqualFold(k, name) {
				return val, true
			}
		}
	}
	return nil, false
}
