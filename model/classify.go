package model

import (
	"strings"

	"github.com/hatlonely/sqljson/document"
)

// KV 有序映射中的一个键值对
type KV struct {
	Key   string
	Value any
}

// Map 保持声明顺序的映射，是模型书写形式中的对象
type Map []KV

const (
	tagObject = "object"
	tagArray  = "array"
)

// TypeOf 判断书写形式的模型节点类型
// 对象：映射（Map、map[string]any、*document.Object）或 ["object", 映射]；数组：首元素为映射的序列或 ["array", 子模型, 约束...]；
// 空序列：KindNone；其余视为带修饰的列名，<<x>> 为标识字段。
// 数组子模型之后的约束标记被忽略
func TypeOf(raw any) Kind {
	switch v := raw.(type) {
	case Map, map[string]any, *document.Object:
		return KindObject
	case []any:
		return typeOfSeq(v)
	case []string:
		if len(v) == 0 {
			return KindNone
		}
		return typeOfLeaf(v[0])
	case string:
		return typeOfLeaf(v)
	case Node:
		return v.Kind()
	}
	return KindNone
}

func typeOfSeq(v []any) Kind {
	if len(v) == 0 {
		return KindNone
	}
	switch first := v[0].(type) {
	case Map, map[string]any, *document.Object, *Object:
		return KindArray
	case string:
		if len(v) > 1 {
			switch first {
			case tagObject:
				return KindObject
			case tagArray:
				return KindArray
			}
		}
		return typeOfLeaf(first)
	}
	return KindNone
}

func typeOfLeaf(s string) Kind {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "<<") && strings.HasSuffix(s, ">>") {
		return KindPrimaryKey
	}
	return KindKey
}

// NameOf 返回叶子节点去掉 < > 修饰后的列名，非叶子节点返回空字符串
func NameOf(raw any) string {
	switch v := raw.(type) {
	case string:
		return trimName(v)
	case []string:
		if len(v) > 0 {
			return trimName(v[0])
		}
	case []any:
		if len(v) > 0 && typeOfSeq(v) >= KindKey {
			if s, ok := v[0].(string); ok {
				return trimName(s)
			}
		}
	case *Leaf:
		return v.Column
	}
	return ""
}

func trimName(s string) string {
	return strings.Trim(strings.TrimSpace(s), "<>")
}
