package converter

import (
	"github.com/hatlonely/sqljson/document"
	"github.com/hatlonely/sqljson/model"
)

// GetListOfNewID 返回行中代表新实体的标识列，顺序与模型中一致
// 行中为空的标识列被跳过。数组层级的标识沿祖先实体向下查找，祖先实体按折叠时的去重规则定位，
// 标识所在层级只比较标识值。
// 根对象上的标识只有在文档中对应字段为 null 时才算新的
func GetListOfNewID(row Row, parsed *model.ParsedModel, doc any) []string {
	var ids []string
	for _, pk := range parsed.RootPrimaryKeys {
		if document.IsEmpty(row.Value(pk.SQLKey)) {
			continue
		}
		if document.IsNull(identityOf(doc, pk.KeyPath, pk.ObjKey)) {
			ids = append(ids, pk.SQLKey)
		}
	}
	for _, pk := range parsed.ComplexPrimaryKeys {
		if document.IsEmpty(row.Value(pk.SQLKey)) {
			continue
		}
		if !identityExists(row, parsed, doc, pk) {
			ids = append(ids, pk.SQLKey)
		}
	}
	return ids
}

func identityExists(row Row, parsed *model.ParsedModel, doc any, pk model.ComplexPrimaryKey) bool {
	level := pk.Level()
	cur := doc
	for i, seg := range pk.KeyPath {
		if seg.Kind == model.SegmentKey {
			obj, ok := cur.(*document.Object)
			if !ok || obj == nil {
				return false
			}
			cur = obj.Value(seg.Key)
			continue
		}

		arr, ok := cur.(*document.Array)
		if !ok || arr == nil {
			return false
		}
		if i == len(level)-1 {
			want := row.Value(pk.SQLKey)
			rel := pk.KeyPath[len(level):]
			for _, item := range arr.Items {
				if document.Equal(identityOf(item, rel, pk.ObjKey), want) {
					return true
				}
			}
			return false
		}

		elem, err := model.Lookup(parsed.Root, pk.KeyPath[:i+1])
		if err != nil {
			return false
		}
		idx := locate(arr, elem, row)
		if idx < 0 {
			return false
		}
		cur = arr.Items[idx]
	}
	return false
}

// locate 在数组中查找当前行会被折叠进去的元素，找不到时返回 -1
// 与 SQLToJSON 的去重规则相同：用行构建该层级的候选对象，取第一个两边已知字段都相同的元素
func locate(arr *document.Array, elem model.Node, row Row) int {
	obj, ok := elem.(*model.Object)
	if !ok {
		return -1
	}
	candidate := document.NewObject()
	fillObject(obj, candidate, row)
	for i, item := range arr.Items {
		if existing, ok := item.(*document.Object); ok && existing != nil && matchObject(candidate, existing) {
			return i
		}
	}
	return -1
}

// identityOf 沿只包含键的相对路径取出标识字段的值
func identityOf(v any, rel model.Path, key string) any {
	for _, seg := range rel {
		obj, ok := v.(*document.Object)
		if !ok || obj == nil || seg.Kind != model.SegmentKey {
			return nil
		}
		v = obj.Value(seg.Key)
	}
	obj, ok := v.(*document.Object)
	if !ok {
		return nil
	}
	return obj.Value(key)
}
