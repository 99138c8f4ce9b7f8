package converter

import "github.com/hatlonely/sqljson/document"

// DeepMergeObject 将 src 中的已知字段合并到 dst：dst 中为 null 或不存在而 src 中非 null 的字段被复制，
// 嵌套对象递归合并，数组字段两边都不处理
func DeepMergeObject(dst, src *document.Object) *document.Object {
	if dst == nil {
		dst = document.NewObject()
	}
	src.Range(func(key string, sv any) bool {
		dv, _ := dst.Get(key)
		if _, ok := sv.(*document.Array); ok {
			return true
		}
		if _, ok := dv.(*document.Array); ok {
			return true
		}
		so, sok := sv.(*document.Object)
		do, dok := dv.(*document.Object)
		if sok && dok && so != nil && do != nil {
			DeepMergeObject(do, so)
			return true
		}
		if document.IsNull(dv) && !document.IsNull(sv) {
			dst.Set(key, document.Clone(sv))
		}
		return true
	})
	return dst
}
