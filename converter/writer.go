package converter

import (
	"github.com/hatlonely/sqljson/document"
	"github.com/hatlonely/sqljson/model"
	"github.com/pkg/errors"
)

// Writer 逐行构建文档
// 每行先通过 GetListOfNewID 找出新实体，新实体整体构建后写入对应位置，已存在的实体只合并新出现的字段。
// 带新标识的行在数组中没有缺少该标识的元素时直接追加，其余情况按 SQLToJSON 的去重规则定位，结果与 SQLToJSON 相同
type Writer struct {
	parsed *model.ParsedModel
	doc    any
	rows   int
}

func NewWriter(parsed *model.ParsedModel) *Writer {
	return &Writer{
		parsed: parsed,
		doc:    empty(parsed.Root),
	}
}

// Document 返回当前构建的文档，之后继续 Write 会修改它
func (w *Writer) Document() any {
	return w.doc
}

// Rows 返回已写入的行数
func (w *Writer) Rows() int {
	return w.rows
}

func (w *Writer) Write(row Row) error {
	fresh := map[string]bool{}
	for _, id := range GetListOfNewID(row, w.parsed, w.doc) {
		fresh[id] = true
	}

	var err error
	switch n := w.parsed.Root.(type) {
	case *model.Object:
		obj := w.doc.(*document.Object)
		if obj.Len() == 0 {
			fillObject(n, obj, row)
		} else {
			err = w.absorb(n, obj, model.Path{}, row, fresh)
		}
	case *model.Array:
		err = w.writeArray(n, w.doc.(*document.Array), model.Path{}, row, fresh)
	default:
		w.doc = Fold(w.parsed.Root, w.doc, row)
	}
	if err != nil {
		return errors.WithMessagef(err, "write row %d", w.rows)
	}
	w.rows++
	return nil
}

// absorb 已存在的实体吸收一行：标量和嵌套对象合并，数组逐层处理
func (w *Writer) absorb(n *model.Object, obj *document.Object, path model.Path, row Row, fresh map[string]bool) error {
	DeepMergeObject(obj, scalars(n, row))
	return w.writeArrays(n, obj, path, row, fresh)
}

func (w *Writer) writeArrays(n *model.Object, obj *document.Object, path model.Path, row Row, fresh map[string]bool) error {
	for _, f := range n.Fields {
		switch c := f.Node.(type) {
		case *model.Object:
			child, ok := obj.Value(f.Key).(*document.Object)
			if !ok || child == nil {
				continue
			}
			if err := w.writeArrays(c, child, path.Append(model.K(f.Key)), row, fresh); err != nil {
				return err
			}
		case *model.Array:
			child, ok := obj.Value(f.Key).(*document.Array)
			if !ok || child == nil {
				child = document.NewArray()
				obj.Set(f.Key, child)
			}
			if err := w.writeArray(c, child, path.Append(model.K(f.Key)), row, fresh); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *Writer) writeArray(n *model.Array, arr *document.Array, path model.Path, row Row, fresh map[string]bool) error {
	elem, ok := n.Elem.(*model.Object)
	keys := w.parsed.LevelKeys(path.Append(model.Slot()))
	if !ok || !anyKnown(keys, row) {
		foldArray(n, arr, row)
		return nil
	}

	idx := -1
	if !anyFresh(keys, fresh) || hasUnidentified(arr, keys, fresh) {
		idx = locate(arr, elem, row)
	}
	if idx < 0 {
		candidate := document.NewObject()
		fillObject(elem, candidate, row)
		if document.IsEmpty(candidate) {
			return nil
		}
		doc, err := SetDeepProperty(w.doc, path.Append(model.Index(arr.Len())), candidate, len(path))
		if err != nil {
			return err
		}
		w.doc = doc
		return nil
	}
	existing, ok := arr.Items[idx].(*document.Object)
	if !ok {
		return errors.Errorf("path %s: element %d is %T, not an object", path, idx, arr.Items[idx])
	}
	return w.absorb(elem, existing, path.Append(model.Index(idx)), row, fresh)
}

// anyFresh 行中该层级有文档里还没有的标识值
func anyFresh(keys []model.ComplexPrimaryKey, fresh map[string]bool) bool {
	for _, k := range keys {
		if fresh[k.SQLKey] {
			return true
		}
	}
	return false
}

// hasUnidentified 数组中存在某个新标识字段为 null 的元素，这样的元素可能与当前行合并
func hasUnidentified(arr *document.Array, keys []model.ComplexPrimaryKey, fresh map[string]bool) bool {
	for _, item := range arr.Items {
		for _, k := range keys {
			if fresh[k.SQLKey] && document.IsNull(identityOf(item, k.KeyPath[len(k.Level()):], k.ObjKey)) {
				return true
			}
		}
	}
	return false
}

func anyKnown(keys []model.ComplexPrimaryKey, row Row) bool {
	for _, k := range keys {
		if !document.IsEmpty(row.Value(k.SQLKey)) {
			return true
		}
	}
	return false
}

// scalars 只包含叶子和嵌套对象的行片段
func scalars(n *model.Object, row Row) *document.Object {
	obj := document.NewObject()
	for _, f := range n.Fields {
		switch c := f.Node.(type) {
		case *model.Leaf:
			obj.Set(f.Key, row.Value(c.Column))
		case *model.Object:
			obj.Set(f.Key, scalars(c, row))
		}
	}
	return obj
}
