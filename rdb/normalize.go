package rdb

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// normalize 统一驱动返回的值类型，保证同一列在不同行中可以直接比较
func normalize(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case []byte:
		return string(x)
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint:
		return normalizeUint(uint64(x))
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return normalizeUint(x)
	case float32:
		return float64(x)
	case primitive.ObjectID:
		return x.Hex()
	case primitive.DateTime:
		return x.Time().UTC()
	case primitive.Timestamp:
		return time.Unix(int64(x.T), 0).UTC()
	case primitive.Decimal128:
		return x.String()
	case primitive.Null, primitive.Undefined:
		return nil
	case primitive.Binary:
		return x.Data
	case primitive.A:
		return normalizeSlice(x)
	case []any:
		return normalizeSlice(x)
	}
	return v
}

func normalizeUint(x uint64) any {
	if x > math.MaxInt64 {
		return x
	}
	return int64(x)
}

func normalizeSlice(items []any) []any {
	out := make([]any, len(items))
	for i, item := range items {
		switch sub := item.(type) {
		case bson.M:
			m := map[string]any{}
			flatten(m, "", ".", sub)
			out[i] = m
		case bson.D:
			m := map[string]any{}
			flatten(m, "", ".", docToMap(sub))
			out[i] = m
		default:
			out[i] = normalize(item)
		}
	}
	return out
}

// flatten 将嵌套文档展开为 prefix + sep + key 形式的列
func flatten(dst map[string]any, prefix string, sep string, doc bson.M) {
	for k, v := range doc {
		key := k
		if prefix != "" {
			key = prefix + sep + k
		}
		switch sub := v.(type) {
		case bson.M:
			flatten(dst, key, sep, sub)
		case bson.D:
			flatten(dst, key, sep, docToMap(sub))
		default:
			dst[key] = normalize(v)
		}
	}
}

func docToMap(d bson.D) bson.M {
	m := make(bson.M, len(d))
	for _, e := range d {
		m[e.Key] = e.Value
	}
	return m
}
