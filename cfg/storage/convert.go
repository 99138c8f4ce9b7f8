package storage

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/hatlonely/sqljson/document"
	"github.com/pkg/errors"
)

var (
	durationType = reflect.TypeOf(time.Duration(0))
	timeType     = reflect.TypeOf(time.Time{})
)

func convertTo(src any, object any) error {
	rv := reflect.ValueOf(object)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return errors.Errorf("object must be a non-nil pointer, got %T", object)
	}
	return convert(src, rv.Elem(), "")
}

func convert(src any, dst reflect.Value, path string) error {
	if dst.Kind() == reflect.Ptr {
		if src == nil {
			return nil
		}
		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		return convert(src, dst.Elem(), path)
	}

	if dst.Kind() == reflect.Interface {
		return convertInterface(src, dst)
	}
	if dst.Kind() == reflect.Struct && dst.Type() != timeType {
		return convertStruct(src, dst, path)
	}
	if src == nil {
		return nil
	}

	switch {
	case dst.Type() == durationType:
		d, err := toDuration(src)
		if err != nil {
			return errors.WithMessagef(err, "key [%s]", path)
		}
		dst.SetInt(int64(d))
		return nil
	case dst.Type() == timeType:
		t, err := toTime(src)
		if err != nil {
			return errors.WithMessagef(err, "key [%s]", path)
		}
		dst.Set(reflect.ValueOf(t))
		return nil
	}

	switch dst.Kind() {
	case reflect.Slice:
		return convertSlice(src, dst, path)
	case reflect.Map:
		return convertMap(src, dst, path)
	}
	if err := convertScalar(src, dst); err != nil {
		return errors.WithMessagef(err, "key [%s]", path)
	}
	return nil
}

// convertInterface 对象转换为 Storage 以便之后再转换为具体类型（如 ref.TypeOptions.Options），其余原样保留
func convertInterface(src any, dst reflect.Value) error {
	if src == nil {
		return nil
	}
	var v any = src
	switch src.(type) {
	case *document.Object, map[string]any:
		if reflect.TypeOf(NewMapStorage(nil)).Implements(dst.Type()) {
			v = NewMapStorage(src)
		}
	}
	rv := reflect.ValueOf(v)
	if !rv.Type().AssignableTo(dst.Type()) {
		return errors.Errorf("cannot assign %T to %v", v, dst.Type())
	}
	dst.Set(rv)
	return nil
}

func convertStruct(src any, dst reflect.Value, path string) error {
	if src != nil {
		switch src.(type) {
		case *document.Object, map[string]any:
		default:
			return errors.Errorf("key [%s]: expect an object for %v, got %T", path, dst.Type(), src)
		}
	}

	t := dst.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		fv := dst.Field(i)
		if field.Anonymous && field.Type.Kind() == reflect.Struct && field.Tag.Get("cfg") == "" {
			if err := convertStruct(src, fv, path); err != nil {
				return err
			}
			continue
		}

		name := fieldName(field)
		if name == "-" {
			continue
		}
		key := name
		if path != "" {
			key = path + "." + name
		}
		val, ok := lookup(src, name)
		if !ok || val == nil {
			if def, has := field.Tag.Lookup("def"); has && fv.IsZero() {
				if err := convertDefault(def, fv, key); err != nil {
					return err
				}
				continue
			}
			if field.Type.Kind() == reflect.Struct && field.Type != timeType {
				if err := convertStruct(nil, fv, key); err != nil {
					return err
				}
			}
			continue
		}
		if err := convert(val, fv, key); err != nil {
			return err
		}
	}
	return nil
}

func fieldName(field reflect.StructField) string {
	if tag := field.Tag.Get("cfg"); tag != "" {
		return strings.Split(tag, ",")[0]
	}
	return field.Name
}

// convertDefault def 标签中的切片以逗号分隔
func convertDefault(def string, dst reflect.Value, key string) error {
	var src any = def
	if dst.Kind() == reflect.Slice {
		items := make([]any, 0)
		for _, s := range strings.Split(def, ",") {
			if s = strings.TrimSpace(s); s != "" {
				items = append(items, s)
			}
		}
		src = items
	}
	if err := convert(src, dst, key); err != nil {
		return errors.WithMessage(err, "apply default failed")
	}
	return nil
}

func convertSlice(src any, dst reflect.Value, path string) error {
	items, ok := src.([]any)
	if !ok {
		rv := reflect.ValueOf(src)
		if rv.Kind() != reflect.Slice {
			return errors.Errorf("key [%s]: expect a list for %v, got %T", path, dst.Type(), src)
		}
		items = make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
	}
	out := reflect.MakeSlice(dst.Type(), len(items), len(items))
	for i, item := range items {
		if err := convert(item, out.Index(i), fmt.Sprintf("%s[%d]", path, i)); err != nil {
			return err
		}
	}
	dst.Set(out)
	return nil
}

func convertMap(src any, dst reflect.Value, path string) error {
	if dst.Type().Key().Kind() != reflect.String {
		return errors.Errorf("key [%s]: map key of %v must be a string", path, dst.Type())
	}
	out := reflect.MakeMap(dst.Type())
	set := func(k string, v any) error {
		elem := reflect.New(dst.Type().Elem()).Elem()
		if err := convert(v, elem, path+"."+k); err != nil {
			return err
		}
		out.SetMapIndex(reflect.ValueOf(k).Convert(dst.Type().Key()), elem)
		return nil
	}

	switch x := src.(type) {
	case *document.Object:
		var err error
		x.Range(func(k string, v any) bool {
			err = set(k, v)
			return err == nil
		})
		if err != nil {
			return err
		}
	case map[string]any:
		for k, v := range x {
			if err := set(k, v); err != nil {
				return err
			}
		}
	default:
		return errors.Errorf("key [%s]: expect an object for %v, got %T", path, dst.Type(), src)
	}
	dst.Set(out)
	return nil
}

func convertScalar(src any, dst reflect.Value) error {
	sv := reflect.ValueOf(src)
	switch dst.Kind() {
	case reflect.String:
		switch sv.Kind() {
		case reflect.String, reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Float32, reflect.Float64:
			dst.SetString(fmt.Sprint(src))
			return nil
		}
	case reflect.Bool:
		switch x := src.(type) {
		case bool:
			dst.SetBool(x)
			return nil
		case string:
			b, err := strconv.ParseBool(x)
			if err != nil {
				return errors.Wrapf(err, "parse bool [%s] failed", x)
			}
			dst.SetBool(b)
			return nil
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := toFloat(src)
		if err != nil {
			return err
		}
		dst.SetInt(int64(n))
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := toFloat(src)
		if err != nil {
			return err
		}
		if n < 0 {
			return errors.Errorf("negative value %v for %v", src, dst.Type())
		}
		dst.SetUint(uint64(n))
		return nil
	case reflect.Float32, reflect.Float64:
		n, err := toFloat(src)
		if err != nil {
			return err
		}
		dst.SetFloat(n)
		return nil
	}
	if sv.Type().ConvertibleTo(dst.Type()) && sv.Kind() == dst.Kind() {
		dst.Set(sv.Convert(dst.Type()))
		return nil
	}
	return errors.Errorf("cannot convert %T to %v", src, dst.Type())
}

func toFloat(src any) (float64, error) {
	sv := reflect.ValueOf(src)
	switch sv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(sv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(sv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return sv.Float(), nil
	case reflect.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(sv.String()), 64)
		if err != nil {
			return 0, errors.Wrapf(err, "parse number [%s] failed", sv.String())
		}
		return f, nil
	}
	return 0, errors.Errorf("cannot convert %T to a number", src)
}

// toDuration 字符串按 time.ParseDuration 解析，整数为纳秒，浮点数为秒
func toDuration(src any) (time.Duration, error) {
	switch x := src.(type) {
	case string:
		d, err := time.ParseDuration(x)
		if err != nil {
			return 0, errors.Wrapf(err, "parse duration [%s] failed", x)
		}
		return d, nil
	case float32, float64:
		f, _ := toFloat(x)
		return time.Duration(f * float64(time.Second)), nil
	}
	n, err := toFloat(src)
	if err != nil {
		return 0, err
	}
	return time.Duration(int64(n)), nil
}

func toTime(src any) (time.Time, error) {
	switch x := src.(type) {
	case time.Time:
		return x, nil
	case string:
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, x); err == nil {
				return t, nil
			}
		}
		return time.Time{}, errors.Errorf("parse time [%s] failed", x)
	}
	n, err := toFloat(src)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(int64(n), 0), nil
}
