package decoder

import (
	"testing"

	"github.com/hatlonely/sqljson/document"
	"github.com/hatlonely/sqljson/ref"
	. "github.com/smartystreets/goconvey/convey"
)

func keysOf(v any) []string {
	obj, ok := v.(*document.Object)
	if !ok {
		return nil
	}
	return obj.Keys()
}

func TestYamlDecoder(t *testing.T) {
	Convey("YamlDecoder", t, func() {
		d := NewYamlDecoderWithOptions(&YamlDecoderOptions{})

		Convey("映射保持书写顺序", func() {
			s, err := d.Decode([]byte(`
zeta: <id>
alpha: <name>
items:
  - sku: <sku>
    qty: <qty>
`))
			So(err, ShouldBeNil)
			So(keysOf(s.Data()), ShouldResemble, []string{"zeta", "alpha", "items"})

			items, ok := s.Sub("items").Data().([]any)
			So(ok, ShouldBeTrue)
			So(items, ShouldHaveLength, 2)
			So(keysOf(items[0]), ShouldResemble, []string{"sku", "qty"})
		})

		Convey("标量类型", func() {
			s, err := d.Decode([]byte("a: 1\nb: 1.5\nc: true\nd: null\ne: text\n"))
			So(err, ShouldBeNil)
			obj := s.Data().(*document.Object)
			So(obj.Value("a"), ShouldEqual, 1)
			So(obj.Value("b"), ShouldEqual, 1.5)
			So(obj.Value("c"), ShouldEqual, true)
			So(obj.Value("d"), ShouldBeNil)
			So(obj.Value("e"), ShouldEqual, "text")
		})

		Convey("锚点和合并键", func() {
			s, err := d.Decode([]byte(`
base: &base
  x: 1
  y: 2
child:
  <<: *base
  y: 3
`))
			So(err, ShouldBeNil)
			child := s.Sub("child").Data().(*document.Object)
			So(child.Value("x"), ShouldEqual, 1)
			So(child.Value("y"), ShouldEqual, 3)
		})

		Convey("空文档", func() {
			s, err := d.Decode([]byte(""))
			So(err, ShouldBeNil)
			So(s.Data(), ShouldBeNil)
		})

		Convey("语法错误", func() {
			_, err := d.Decode([]byte("a: [1, 2"))
			So(err, ShouldNotBeNil)
		})

		Convey("编码后再解码顺序不变", func() {
			s, err := d.Decode([]byte("b: 1\na: 2\n"))
			So(err, ShouldBeNil)
			buf, err := d.Encode(s)
			So(err, ShouldBeNil)
			So(string(buf), ShouldEqual, "b: 1\na: 2\n")
		})
	})
}

func TestJsonDecoder(t *testing.T) {
	Convey("JsonDecoder", t, func() {
		Convey("对象保持书写顺序，整数解码为 int64", func() {
			d := NewJsonDecoderWithOptions(&JsonDecoderOptions{})
			s, err := d.Decode([]byte(`{"zeta": "<id>", "alpha": {"b": 1, "a": 2.5}, "list": [{"y": 1, "x": 2}]}`))
			So(err, ShouldBeNil)
			So(keysOf(s.Data()), ShouldResemble, []string{"zeta", "alpha", "list"})
			So(keysOf(s.Sub("alpha").Data()), ShouldResemble, []string{"b", "a"})
			So(s.Sub("alpha.b").Data(), ShouldEqual, int64(1))
			So(s.Sub("alpha.a").Data(), ShouldEqual, 2.5)
			So(keysOf(s.Sub("list[0]").Data()), ShouldResemble, []string{"y", "x"})
		})

		Convey("注释", func() {
			data := []byte(`{
  // 行注释
  "url": "http://example.com/a//b", /* 块注释 */
  "n": 1
}`)
			_, err := NewJsonDecoderWithOptions(&JsonDecoderOptions{}).Decode(data)
			So(err, ShouldNotBeNil)

			s, err := NewJsonDecoderWithOptions(&JsonDecoderOptions{AllowComments: true}).Decode(data)
			So(err, ShouldBeNil)
			So(s.Sub("url").Data(), ShouldEqual, "http://example.com/a//b")
			So(s.Sub("n").Data(), ShouldEqual, int64(1))
		})

		Convey("顶层数组和标量", func() {
			d := NewJsonDecoderWithOptions(&JsonDecoderOptions{})
			s, err := d.Decode([]byte(`[{"id": "<<id>>"}, "x"]`))
			So(err, ShouldBeNil)
			items := s.Data().([]any)
			So(items, ShouldHaveLength, 2)
			So(items[1], ShouldEqual, "x")

			s, err = d.Decode([]byte(`"<value>"`))
			So(err, ShouldBeNil)
			So(s.Data(), ShouldEqual, "<value>")
		})

		Convey("多余的数据", func() {
			_, err := NewJsonDecoderWithOptions(&JsonDecoderOptions{}).Decode([]byte(`{"a": 1} {"b": 2}`))
			So(err, ShouldNotBeNil)
		})

		Convey("编码", func() {
			d := NewJsonDecoderWithOptions(&JsonDecoderOptions{})
			s, err := d.Decode([]byte(`{"b":1,"a":[1,2]}`))
			So(err, ShouldBeNil)
			buf, err := d.Encode(s)
			So(err, ShouldBeNil)
			s2, err := d.Decode(buf)
			So(err, ShouldBeNil)
			So(keysOf(s2.Data()), ShouldResemble, []string{"b", "a"})
		})
	})
}

func TestTomlDecoder(t *testing.T) {
	Convey("TomlDecoder", t, func() {
		d := NewTomlDecoderWithOptions(&TomlDecoderOptions{Indent: "  "})

		Convey("键按出现顺序排列", func() {
			s, err := d.Decode([]byte(`
zeta = "<id>"
alpha = "<name>"

[customer]
name = "<customer_name>"
id = "<<customer_id>>"

[[items]]
sku = "<sku>"
qty = "<qty>"
`))
			So(err, ShouldBeNil)
			So(keysOf(s.Data()), ShouldResemble, []string{"zeta", "alpha", "customer", "items"})
			So(keysOf(s.Sub("customer").Data()), ShouldResemble, []string{"name", "id"})
			items, ok := s.Sub("items").Data().([]any)
			So(ok, ShouldBeTrue)
			So(items, ShouldHaveLength, 1)
			So(keysOf(items[0]), ShouldResemble, []string{"sku", "qty"})
		})

		Convey("语法错误", func() {
			_, err := d.Decode([]byte(`a = `))
			So(err, ShouldNotBeNil)
		})

		Convey("编码", func() {
			s, err := d.Decode([]byte("a = 1\n[b]\nc = \"x\"\n"))
			So(err, ShouldBeNil)
			buf, err := d.Encode(s)
			So(err, ShouldBeNil)
			s2, err := d.Decode(buf)
			So(err, ShouldBeNil)
			So(s2.Sub("b.c").Data(), ShouldEqual, "x")
			So(s2.Sub("a").Data(), ShouldEqual, int64(1))
		})
	})
}

func TestNewDecoderWithOptions(t *testing.T) {
	Convey("NewDecoderWithOptions", t, func() {
		Convey("按后缀选择", func() {
			for ext, typ := range map[string]any{
				"model.json":  &JsonDecoder{},
				"model.jsonc": &JsonDecoder{},
				"model.yaml":  &YamlDecoder{},
				"model.yml":   &YamlDecoder{},
				"model.toml":  &TomlDecoder{},
			} {
				options, err := TypeOptionsByExtension(ext)
				So(err, ShouldBeNil)
				d, err := NewDecoderWithOptions(options)
				So(err, ShouldBeNil)
				So(d, ShouldHaveSameTypeAs, typ)
			}
		})

		Convey("不支持的后缀", func() {
			_, err := TypeOptionsByExtension("model.ini")
			So(err, ShouldNotBeNil)
		})

		Convey("未注册的类型", func() {
			_, err := NewDecoderWithOptions(&ref.TypeOptions{Type: "IniDecoder"})
			So(err, ShouldNotBeNil)
		})
	})
}
