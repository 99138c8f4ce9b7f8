package model

import "github.com/hatlonely/sqljson/document"

// ColumnInfo 结果集中一列的元信息
type ColumnInfo struct {
	// PrimaryKey 是否为所在层级的标识字段
	PrimaryKey bool
	// Parents 从 root 到当前位置的容器名
	Parents []string
	// Path 在文档中的访问路径，最后一段为模型中的键而不是列名
	Path Path
}

// ComplexPrimaryKey 数组层级的标识字段
type ComplexPrimaryKey struct {
	// KeyPath 实体容器的路径，即字段路径去掉最后的键
	KeyPath Path
	// ObjKey 模型中的键
	ObjKey string
	// SQLKey 结果集中的列名
	SQLKey string
}

// Level 返回标识字段所在数组层级的路径，即 KeyPath 截止到最后一个数组段
func (k ComplexPrimaryKey) Level() Path {
	i := k.KeyPath.LastArray()
	if i < 0 {
		return Path{}
	}
	return k.KeyPath[:i+1]
}

// ParsedModel 模型的解析结果，一次解析后可重复使用
type ParsedModel struct {
	Root Node
	// Info 列名到元信息的映射
	Info map[string]ColumnInfo
	// Columns 按先序遍历顺序排列的列名
	Columns []string
	// Skeleton 所有叶子为 null、每个数组包含一个模板元素的文档
	Skeleton any
	// PrimaryKeys 按先序遍历顺序排列的标识列名
	PrimaryKeys []string
	// ComplexPrimaryKeys 每个数组层级标识字段一项，先序遍历顺序
	ComplexPrimaryKeys []ComplexPrimaryKey
	// RootPrimaryKeys 不在任何数组中的标识字段
	RootPrimaryKeys []ComplexPrimaryKey
}

// ParseModel 解析模型，生成列元信息、骨架文档和标识字段列表
func ParseModel(root Node) *ParsedModel {
	p := &ParsedModel{
		Root: root,
		Info: make(map[string]ColumnInfo),
	}
	parents := []string{"root"}
	switch n := root.(type) {
	case *Object:
		p.Skeleton = p.walkFields(n, parents, Path{}, false)
	case *Array:
		p.Skeleton = document.NewArray(p.walkElem(n.Elem, parents, Path{Slot()}))
	case *Leaf:
		p.addLeaf(n, "", parents, Path{}, false)
	}
	return p
}

func (p *ParsedModel) walkFields(obj *Object, parents []string, path Path, inArray bool) *document.Object {
	skeleton := document.NewObject()
	for _, f := range obj.Fields {
		switch n := f.Node.(type) {
		case *Leaf:
			p.addLeaf(n, f.Key, parents, path, inArray)
			skeleton.Set(f.Key, nil)
		case *Object:
			skeleton.Set(f.Key, p.walkFields(n, push(parents, f.Key), path.Append(K(f.Key)), inArray))
		case *Array:
			elemPath := path.Append(K(f.Key), Slot())
			skeleton.Set(f.Key, document.NewArray(p.walkElem(n.Elem, push(parents, f.Key), elemPath)))
		}
	}
	return skeleton
}

func (p *ParsedModel) walkElem(elem Node, parents []string, path Path) any {
	switch n := elem.(type) {
	case *Object:
		return p.walkFields(n, parents, path, true)
	case *Leaf:
		// 标量数组按值去重，标识列只记录在 PrimaryKeys 中，不生成 ComplexPrimaryKey
		p.Info[n.Column] = ColumnInfo{PrimaryKey: n.PrimaryKey, Parents: clone(parents), Path: path}
		p.Columns = append(p.Columns, n.Column)
		if n.PrimaryKey {
			p.PrimaryKeys = append(p.PrimaryKeys, n.Column)
		}
	case *Array:
		return document.NewArray(p.walkElem(n.Elem, parents, path.Append(Slot())))
	}
	return nil
}

func (p *ParsedModel) addLeaf(leaf *Leaf, key string, parents []string, path Path, inArray bool) {
	leafPath := path
	if key != "" {
		leafPath = path.Append(K(key))
	}
	p.Info[leaf.Column] = ColumnInfo{
		PrimaryKey: leaf.PrimaryKey,
		Parents:    clone(parents),
		Path:       leafPath,
	}
	p.Columns = append(p.Columns, leaf.Column)
	if !leaf.PrimaryKey {
		return
	}
	p.PrimaryKeys = append(p.PrimaryKeys, leaf.Column)
	pk := ComplexPrimaryKey{KeyPath: path.Append(), ObjKey: key, SQLKey: leaf.Column}
	if inArray {
		p.ComplexPrimaryKeys = append(p.ComplexPrimaryKeys, pk)
	} else {
		p.RootPrimaryKeys = append(p.RootPrimaryKeys, pk)
	}
}

// LevelKeys 返回指定数组层级（模板路径）上的标识字段
func (p *ParsedModel) LevelKeys(level Path) []ComplexPrimaryKey {
	target := level.Template().String()
	var keys []ComplexPrimaryKey
	for _, k := range p.ComplexPrimaryKeys {
		if k.Level().String() == target {
			keys = append(keys, k)
		}
	}
	return keys
}

func push(parents []string, name string) []string {
	out := make([]string, 0, len(parents)+1)
	out = append(out, parents...)
	return append(out, name)
}

func clone(s []string) []string {
	return append([]string(nil), s...)
}
