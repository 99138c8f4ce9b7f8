package document

// Object 保持插入顺序的对象节点
// 键的顺序即首次写入的顺序，序列化时按此顺序输出
type Object struct {
	keys   []string
	values map[string]any
}

// NewObject 创建空对象
func NewObject() *Object {
	return &Object{values: make(map[string]any)}
}

// Len 返回键的数量
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Keys 按插入顺序返回所有键，调用方不应修改返回的切片
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	return o.keys
}

// Get 获取键对应的值以及键是否存在
func (o *Object) Get(key string) (any, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.values[key]
	return v, ok
}

// Value 获取键对应的值，不存在时返回 nil
func (o *Object) Value(key string) any {
	v, _ := o.Get(key)
	return v
}

// Has 判断键是否存在
func (o *Object) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// Set 设置键值，已存在的键保持原有位置
func (o *Object) Set(key string, value any) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

// Delete 删除键
func (o *Object) Delete(key string) {
	if _, ok := o.values[key]; !ok {
		return
	}
	delete(o.values, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
}

// Range 按插入顺序遍历，fn 返回 false 时停止
func (o *Object) Range(fn func(key string, value any) bool) {
	if o == nil {
		return
	}
	for _, k := range o.keys {
		if !fn(k, o.values[k]) {
			return
		}
	}
}

// Array 数组节点
type Array struct {
	Items []any
}

// NewArray 创建数组
func NewArray(items ...any) *Array {
	return &Array{Items: items}
}

func (a *Array) Len() int {
	if a == nil {
		return 0
	}
	return len(a.Items)
}

func (a *Array) Append(v any) {
	a.Items = append(a.Items, v)
}

// At 返回下标 i 的元素，越界时返回 nil
func (a *Array) At(i int) any {
	if a == nil || i < 0 || i >= len(a.Items) {
		return nil
	}
	return a.Items[i]
}

// Remove 删除下标 i 的元素
func (a *Array) Remove(i int) {
	if i < 0 || i >= len(a.Items) {
		return
	}
	a.Items = append(a.Items[:i], a.Items[i+1:]...)
}

// Clone 深拷贝文档
func Clone(v any) any {
	switch x := v.(type) {
	case *Object:
		if x == nil {
			return x
		}
		c := NewObject()
		for _, k := range x.keys {
			c.Set(k, Clone(x.values[k]))
		}
		return c
	case *Array:
		if x == nil {
			return x
		}
		c := &Array{Items: make([]any, len(x.Items))}
		for i, item := range x.Items {
			c.Items[i] = Clone(item)
		}
		return c
	case []byte:
		return append([]byte(nil), x...)
	}
	return v
}

// ToNative 将文档转换为 map[string]any / []any 组成的普通结构
// 对象键的顺序在转换后丢失
func ToNative(v any) any {
	switch x := v.(type) {
	case *Object:
		if x == nil {
			return nil
		}
		m := make(map[string]any, len(x.keys))
		for _, k := range x.keys {
			m[k] = ToNative(x.values[k])
		}
		return m
	case *Array:
		if x == nil {
			return nil
		}
		s := make([]any, len(x.Items))
		for i, item := range x.Items {
			s[i] = ToNative(item)
		}
		return s
	case []any:
		s := make([]any, len(x))
		for i, item := range x {
			s[i] = ToNative(item)
		}
		return s
	}
	return v
}
