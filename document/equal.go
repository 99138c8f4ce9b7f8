package document

import (
	"bytes"
	"reflect"
	"time"
)

// IsNull 判断值是否为 null，包括值为 nil 的容器指针
func IsNull(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case *Object:
		return x == nil
	case *Array:
		return x == nil
	}
	return false
}

// IsEmpty 判断值是否为空
// null、空字符串、空字节数组为空；对象的所有值都为空时为空；数组的所有元素都为空时为空。
// 0 和 false 不为空
func IsEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case []byte:
		return len(x) == 0
	case *Object:
		if x == nil {
			return true
		}
		for _, k := range x.keys {
			if !IsEmpty(x.values[k]) {
				return false
			}
		}
		return true
	case *Array:
		if x == nil {
			return true
		}
		for _, item := range x.Items {
			if !IsEmpty(item) {
				return false
			}
		}
		return true
	}
	return false
}

// Equal 比较两个文档值
// 时间按时刻比较，对象和数组按值深度比较，其余按 == 比较
func Equal(a, b any) bool {
	switch x := a.(type) {
	case nil:
		return IsNull(b)
	case time.Time:
		y, ok := b.(time.Time)
		return ok && x.Equal(y)
	case *time.Time:
		y, ok := b.(*time.Time)
		if !ok || x == nil || y == nil {
			return ok && x == y
		}
		return x.Equal(*y)
	case []byte:
		y, ok := b.([]byte)
		return ok && bytes.Equal(x, y)
	case *Object:
		y, ok := b.(*Object)
		if !ok || x == nil || y == nil {
			return IsNull(a) && IsNull(b)
		}
		if len(x.keys) != len(y.keys) {
			return false
		}
		for _, k := range x.keys {
			yv, ok := y.values[k]
			if !ok || !Equal(x.values[k], yv) {
				return false
			}
		}
		return true
	case *Array:
		y, ok := b.(*Array)
		if !ok || x == nil || y == nil {
			return IsNull(a) && IsNull(b)
		}
		if len(x.Items) != len(y.Items) {
			return false
		}
		for i := range x.Items {
			if !Equal(x.Items[i], y.Items[i]) {
				return false
			}
		}
		return true
	}
	if b == nil {
		return false
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta.Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}
