package converter

import (
	"github.com/hatlonely/sqljson/document"
	"github.com/hatlonely/sqljson/model"
	"github.com/pkg/errors"
)

// SetDeepProperty 在文档的 path 位置写入 value，按需创建中间容器，返回写入后的文档
// 键段创建对象，Slot 段复用下标 0 的元素（没有时追加），Index(n) 指向具体元素，n 等于长度时追加。
// value 为 null 时不会为了存放它而创建容器；路径上深度不小于 startLevel 的容器写入后如果只剩空值，
// 数组元素从所在数组中删除，对象从所在对象中删除
func SetDeepProperty(doc any, path model.Path, value any, startLevel int) (any, error) {
	if document.IsNull(value) {
		return unsetDeep(doc, path, 0, startLevel)
	}
	return setDeep(doc, path, 0, value)
}

func setDeep(cur any, path model.Path, depth int, value any) (any, error) {
	if depth == len(path) {
		return value, nil
	}
	seg := path[depth]
	if seg.Kind == model.SegmentKey {
		obj, err := asObject(cur, path, depth)
		if err != nil {
			return nil, err
		}
		child, err := setDeep(obj.Value(seg.Key), path, depth+1, value)
		if err != nil {
			return nil, err
		}
		obj.Set(seg.Key, child)
		return obj, nil
	}

	arr, err := asArray(cur, path, depth)
	if err != nil {
		return nil, err
	}
	i := slotIndex(seg)
	if i > arr.Len() {
		return nil, errors.Errorf("path %s: index %d out of range [0, %d]", path, i, arr.Len())
	}
	child, err := setDeep(arr.At(i), path, depth+1, value)
	if err != nil {
		return nil, err
	}
	if i == arr.Len() {
		arr.Append(child)
	} else {
		arr.Items[i] = child
	}
	return arr, nil
}

func unsetDeep(cur any, path model.Path, depth int, startLevel int) (any, error) {
	if depth == len(path) || document.IsNull(cur) {
		return cur, nil
	}
	seg := path[depth]
	last := depth == len(path)-1
	if seg.Kind == model.SegmentKey {
		obj, err := asObject(cur, path, depth)
		if err != nil {
			return nil, err
		}
		child, ok := obj.Get(seg.Key)
		if !ok {
			return obj, nil
		}
		if last {
			obj.Set(seg.Key, nil)
			return obj, nil
		}
		child, err = unsetDeep(child, path, depth+1, startLevel)
		if err != nil {
			return nil, err
		}
		if _, ok := child.(*document.Object); ok && depth >= startLevel && document.IsEmpty(child) {
			obj.Delete(seg.Key)
			return obj, nil
		}
		obj.Set(seg.Key, child)
		return obj, nil
	}

	arr, err := asArray(cur, path, depth)
	if err != nil {
		return nil, err
	}
	i := slotIndex(seg)
	if i >= arr.Len() {
		return arr, nil
	}
	var child any
	if !last {
		if child, err = unsetDeep(arr.Items[i], path, depth+1, startLevel); err != nil {
			return nil, err
		}
	}
	arr.Items[i] = child
	if depth >= startLevel && document.IsEmpty(child) {
		arr.Remove(i)
	}
	return arr, nil
}

func slotIndex(seg model.Segment) int {
	if seg.Kind == model.SegmentIndex {
		return seg.Index
	}
	return 0
}

func asObject(cur any, path model.Path, depth int) (*document.Object, error) {
	if document.IsNull(cur) {
		return document.NewObject(), nil
	}
	obj, ok := cur.(*document.Object)
	if !ok {
		return nil, errors.Errorf("path %s: segment %d expects an object, got %T", path, depth, cur)
	}
	return obj, nil
}

func asArray(cur any, path model.Path, depth int) (*document.Array, error) {
	if document.IsNull(cur) {
		return document.NewArray(), nil
	}
	arr, ok := cur.(*document.Array)
	if !ok {
		return nil, errors.Errorf("path %s: segment %d expects an array, got %T", path, depth, cur)
	}
	return arr, nil
}
