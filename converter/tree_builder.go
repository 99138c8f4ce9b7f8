package converter

import (
	"github.com/hatlonely/sqljson/document"
	"github.com/hatlonely/sqljson/model"
)

// SQLToJSON 将扇出的结果集按模型折叠为嵌套文档
// 行按顺序逐一折叠，数组的每一层独立去重，同一实体在不同行中的字段取第一个非空值。
// 结果集为空时，对象模型返回 {}，数组模型返回 []，其余返回 nil
func SQLToJSON(node model.Node, rows []Row) any {
	current := empty(node)
	for _, row := range rows {
		current = Fold(node, current, row)
	}
	return current
}

// Fold 将一行折叠进 current 并返回结果，current 为 nil 时新建
// current 会被原地修改，调用方需保证没有其他人同时修改
func Fold(node model.Node, current any, row Row) any {
	switch n := node.(type) {
	case *model.Object:
		obj, ok := current.(*document.Object)
		if !ok || obj == nil {
			obj = document.NewObject()
		}
		fillObject(n, obj, row)
		return obj
	case *model.Array:
		arr, ok := current.(*document.Array)
		if !ok || arr == nil {
			arr = document.NewArray()
		}
		foldArray(n, arr, row)
		return arr
	case *model.Leaf:
		if document.IsNull(current) {
			return row.Value(n.Column)
		}
	}
	return current
}

func empty(node model.Node) any {
	switch node.(type) {
	case *model.Object:
		return document.NewObject()
	case *model.Array:
		return document.NewArray()
	}
	return nil
}

func fillObject(n *model.Object, obj *document.Object, row Row) {
	for _, f := range n.Fields {
		switch c := f.Node.(type) {
		case *model.Leaf:
			setScalar(obj, f.Key, row.Value(c.Column))
		case *model.Object:
			child, ok := obj.Value(f.Key).(*document.Object)
			if !ok || child == nil {
				child = document.NewObject()
				obj.Set(f.Key, child)
			}
			fillObject(c, child, row)
		case *model.Array:
			child, ok := obj.Value(f.Key).(*document.Array)
			if !ok || child == nil {
				child = document.NewArray()
				obj.Set(f.Key, child)
			}
			foldArray(c, child, row)
		}
	}
}

// setScalar 第一个非空值生效，之后的 null 不会覆盖
func setScalar(obj *document.Object, key string, value any) {
	old, ok := obj.Get(key)
	if !ok || (document.IsNull(old) && !document.IsNull(value)) {
		obj.Set(key, value)
	}
}

func foldArray(n *model.Array, arr *document.Array, row Row) {
	switch elem := n.Elem.(type) {
	case *model.Object:
		candidate := document.NewObject()
		fillObject(elem, candidate, row)
		for _, item := range arr.Items {
			if existing, ok := item.(*document.Object); ok && existing != nil && matchObject(candidate, existing) {
				fillObject(elem, existing, row)
				return
			}
		}
		if !document.IsEmpty(candidate) {
			arr.Append(candidate)
		}
	case *model.Leaf:
		appendUnique(arr, row.Value(elem.Column))
	case *model.Array:
		candidate := document.NewArray()
		foldArray(elem, candidate, row)
		appendUnique(arr, candidate)
	}
}

func appendUnique(arr *document.Array, value any) {
	if document.IsEmpty(value) {
		return
	}
	for _, item := range arr.Items {
		if document.Equal(item, value) {
			return
		}
	}
	arr.Append(value)
}

// matchObject 只比较两边都已知（非 null）的字段，嵌套对象按同样规则递归，数组不参与比较
func matchObject(candidate, existing *document.Object) bool {
	match := true
	candidate.Range(func(key string, cv any) bool {
		ev := existing.Value(key)
		if document.IsNull(cv) || document.IsNull(ev) {
			return true
		}
		if _, ok := cv.(*document.Array); ok {
			return true
		}
		if _, ok := ev.(*document.Array); ok {
			return true
		}
		co, cok := cv.(*document.Object)
		eo, eok := ev.(*document.Object)
		switch {
		case cok && eok:
			match = matchObject(co, eo)
		case cok || eok:
			match = false
		default:
			match = document.Equal(cv, ev)
		}
		return match
	})
	return match
}
