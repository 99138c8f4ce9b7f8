package model

import "github.com/pkg/errors"

// Kind 模型节点类型
type Kind int

const (
	// KindNone 空节点，不产生任何输出
	KindNone Kind = iota
	KindObject
	KindArray
	// KindKey 普通字段
	KindKey
	// KindPrimaryKey 标识字段，用于区分同一层级的不同实体
	KindPrimaryKey
)

func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindKey:
		return "key"
	case KindPrimaryKey:
		return "primaryKey"
	}
	return "none"
}

// Node 模型节点，取值为 *Leaf、*Object、*Array、*Empty 之一
type Node interface {
	Kind() Kind
}

// Leaf 叶子节点，引用结果集中的一列
type Leaf struct {
	Column     string
	PrimaryKey bool
}

func (l *Leaf) Kind() Kind {
	if l.PrimaryKey {
		return KindPrimaryKey
	}
	return KindKey
}

func (l *Leaf) String() string {
	if l.PrimaryKey {
		return "<<" + l.Column + ">>"
	}
	return "<" + l.Column + ">"
}

// Field 对象中的一个字段，Key 为输出文档中的键
type Field struct {
	Key  string
	Node Node
}

// Object 对象节点，字段保持声明顺序
type Object struct {
	Fields []Field
}

func (o *Object) Kind() Kind { return KindObject }

// Field 按键查找字段
func (o *Object) Field(key string) (Node, bool) {
	for _, f := range o.Fields {
		if f.Key == key {
			return f.Node, true
		}
	}
	return nil, false
}

// Array 数组节点
// Constraints 为数组模型之后的约束标记，只供校验器使用
type Array struct {
	Elem        Node
	Constraints []any
}

func (a *Array) Kind() Kind { return KindArray }

// Empty 空节点
type Empty struct{}

func (e *Empty) Kind() Kind { return KindNone }

// Key 创建普通字段
func Key(column string) *Leaf {
	return &Leaf{Column: column}
}

// PK 创建标识字段
func PK(column string) *Leaf {
	return &Leaf{Column: column, PrimaryKey: true}
}

// F 创建对象字段
func F(key string, node Node) Field {
	return Field{Key: key, Node: node}
}

// Obj 创建对象节点
func Obj(fields ...Field) *Object {
	return &Object{Fields: fields}
}

// Arr 创建数组节点
func Arr(elem Node, constraints ...any) *Array {
	return &Array{Elem: elem, Constraints: constraints}
}

// Lookup 沿模板路径查找模型节点，Index 段与 Slot 段等价
func Lookup(root Node, path Path) (Node, error) {
	node := root
	for i, seg := range path {
		switch n := node.(type) {
		case *Object:
			if seg.Kind != SegmentKey {
				return nil, errors.Errorf("segment %d of %s: object expects a key", i, path)
			}
			child, ok := n.Field(seg.Key)
			if !ok {
				return nil, errors.Errorf("segment %d of %s: key %q not found", i, path, seg.Key)
			}
			node = child
		case *Array:
			if seg.Kind == SegmentKey {
				return nil, errors.Errorf("segment %d of %s: array expects a slot", i, path)
			}
			node = n.Elem
		default:
			return nil, errors.Errorf("segment %d of %s: cannot descend into %s", i, path, node.Kind())
		}
	}
	return node, nil
}
