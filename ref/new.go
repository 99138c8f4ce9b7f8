package ref

import (
	"reflect"
	"sync"

	"github.com/pkg/errors"
)

// TypeOptions 通过配置选择实现
// Namespace 为空时使用注册时的包路径，Options 为构造函数的参数或可以转换为参数的 Convertable
type TypeOptions struct {
	Namespace string `cfg:"namespace"`
	Type      string `cfg:"type" validate:"required"`
	Options   any    `cfg:"options"`
}

// Convertable 可以转换为构造函数参数的配置数据，object 为指向参数的指针
type Convertable interface {
	ConvertTo(object any) error
}

type constructor struct {
	fn           reflect.Value
	in           reflect.Type
	returnsError bool
}

var (
	mutex        sync.RWMutex
	constructors = map[string]*constructor{}
	errorType    = reflect.TypeOf((*error)(nil)).Elem()
)

func key(namespace, typ string) string {
	return namespace + ":" + typ
}

func parseConstructor(fn any) (*constructor, error) {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return nil, errors.Errorf("constructor must be a function, got %T", fn)
	}
	t := v.Type()
	if t.NumIn() > 1 {
		return nil, errors.Errorf("constructor accepts at most 1 parameter, got %d", t.NumIn())
	}
	if t.NumOut() != 1 && t.NumOut() != 2 {
		return nil, errors.Errorf("constructor returns 1 or 2 values, got %d", t.NumOut())
	}
	if t.NumOut() == 2 && !t.Out(1).Implements(errorType) {
		return nil, errors.New("the second return value of constructor must be an error")
	}

	c := &constructor{fn: v, returnsError: t.NumOut() == 2}
	if t.NumIn() == 1 {
		c.in = t.In(0)
	}
	return c, nil
}

func (c *constructor) call(options any) (any, error) {
	var args []reflect.Value
	if c.in != nil {
		arg, err := c.argument(options)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}

	out := c.fn.Call(args)
	if c.returnsError && !out[1].IsNil() {
		return nil, out[1].Interface().(error)
	}
	return out[0].Interface(), nil
}

func (c *constructor) argument(options any) (reflect.Value, error) {
	if conv, ok := options.(Convertable); ok {
		target := c.in
		if target.Kind() == reflect.Ptr {
			target = target.Elem()
		}
		ptr := reflect.New(target)
		if err := conv.ConvertTo(ptr.Interface()); err != nil {
			return reflect.Value{}, errors.WithMessagef(err, "convert options to %v", c.in)
		}
		if c.in.Kind() == reflect.Ptr {
			return ptr, nil
		}
		return ptr.Elem(), nil
	}

	if options == nil {
		// 未提供参数时使用零值，指针参数得到一个空结构
		if c.in.Kind() == reflect.Ptr {
			return reflect.New(c.in.Elem()), nil
		}
		return reflect.Zero(c.in), nil
	}

	v := reflect.ValueOf(options)
	switch {
	case v.Type().AssignableTo(c.in):
		return v, nil
	case v.Kind() == reflect.Ptr && v.Type().Elem().AssignableTo(c.in):
		return v.Elem(), nil
	case c.in.Kind() == reflect.Ptr && v.Type().AssignableTo(c.in.Elem()):
		ptr := reflect.New(c.in.Elem())
		ptr.Elem().Set(v)
		return ptr, nil
	}
	return reflect.Value{}, errors.Errorf("options type %T is not assignable to %v", options, c.in)
}

// Register 注册构造函数，同一个函数重复注册不会报错
func Register(namespace string, typ string, fn any) error {
	c, err := parseConstructor(fn)
	if err != nil {
		return errors.WithMessagef(err, "register [%s]", key(namespace, typ))
	}

	mutex.Lock()
	defer mutex.Unlock()
	if old, ok := constructors[key(namespace, typ)]; ok {
		if old.fn.Pointer() == c.fn.Pointer() {
			return nil
		}
		return errors.Errorf("constructor [%s] already registered", key(namespace, typ))
	}
	constructors[key(namespace, typ)] = c
	return nil
}

// RegisterT 以 T 的包路径和类型名注册
func RegisterT[T any](fn any) error {
	namespace, typ, err := typeKey[T]()
	if err != nil {
		return err
	}
	return Register(namespace, typ, fn)
}

func MustRegister(namespace string, typ string, fn any) {
	if err := Register(namespace, typ, fn); err != nil {
		panic(err)
	}
}

func MustRegisterT[T any](fn any) {
	if err := RegisterT[T](fn); err != nil {
		panic(err)
	}
}

func New(namespace string, typ string, options any) (any, error) {
	mutex.RLock()
	c, ok := constructors[key(namespace, typ)]
	mutex.RUnlock()
	if !ok {
		return nil, errors.Errorf("constructor [%s] not found", key(namespace, typ))
	}
	return c.call(options)
}

// NewT 以 T 的包路径和类型名查找构造函数
func NewT[T any](options any) (T, error) {
	var zero T
	namespace, typ, err := typeKey[T]()
	if err != nil {
		return zero, err
	}
	return cast[T](New(namespace, typ, options))
}

// NewWithTypeOptions 按 TypeOptions 构造对象并转换为 T
// Namespace 为空时，在 defaultNamespace 下查找 Type
func NewWithTypeOptions[T any](defaultNamespace string, options *TypeOptions) (T, error) {
	var zero T
	if options == nil {
		return zero, errors.New("type options is nil")
	}
	namespace := options.Namespace
	if namespace == "" {
		namespace = defaultNamespace
	}
	return cast[T](New(namespace, options.Type, options.Options))
}

func cast[T any](obj any, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	v, ok := obj.(T)
	if !ok {
		return zero, errors.Errorf("%T is not a %v", obj, reflect.TypeOf((*T)(nil)).Elem())
	}
	return v, nil
}

func typeKey[T any]() (string, string, error) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.PkgPath() == "" || t.Name() == "" {
		return "", "", errors.Errorf("cannot determine package path or name of %v", t)
	}
	return t.PkgPath(), t.Name(), nil
}
