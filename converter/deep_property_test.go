package converter

import (
	"testing"

	"github.com/hatlonely/sqljson/document"
	"github.com/hatlonely/sqljson/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSetDeepProperty(t *testing.T) {
	Convey("SetDeepProperty", t, func() {
		Convey("空文档中按路径创建容器", func() {
			doc, err := SetDeepProperty(nil, model.Path{model.K("a"), model.K("b"), model.K("c")}, 1, 0)
			So(err, ShouldBeNil)
			So(toJSON(doc), ShouldEqual, `{"a":{"b":{"c":1}}}`)

			doc, err = SetDeepProperty(nil, model.Path{model.Slot(), model.Slot()}, 1, 0)
			So(err, ShouldBeNil)
			So(toJSON(doc), ShouldEqual, `[[1]]`)

			doc, err = SetDeepProperty(nil, model.Path{model.K("items"), model.Slot(), model.K("tags"), model.Slot(), model.K("name")}, "x", 0)
			So(err, ShouldBeNil)
			So(toJSON(doc), ShouldEqual, `{"items":[{"tags":[{"name":"x"}]}]}`)
		})

		Convey("Slot 复用第一个元素", func() {
			doc, _ := SetDeepProperty(nil, model.Path{model.K("items"), model.Slot(), model.K("a")}, 1, 0)
			doc, err := SetDeepProperty(doc, model.Path{model.K("items"), model.Slot(), model.K("b")}, 2, 0)
			So(err, ShouldBeNil)
			So(toJSON(doc), ShouldEqual, `{"items":[{"a":1,"b":2}]}`)
		})

		Convey("Index 指向具体元素，等于长度时追加", func() {
			doc, _ := SetDeepProperty(nil, model.Path{model.K("items"), model.Index(0), model.K("a")}, 1, 0)
			doc, err := SetDeepProperty(doc, model.Path{model.K("items"), model.Index(1), model.K("a")}, 2, 0)
			So(err, ShouldBeNil)
			doc, err = SetDeepProperty(doc, model.Path{model.K("items"), model.Index(0), model.K("b")}, 3, 0)
			So(err, ShouldBeNil)
			So(toJSON(doc), ShouldEqual, `{"items":[{"a":1,"b":3},{"a":2}]}`)

			_, err = SetDeepProperty(doc, model.Path{model.K("items"), model.Index(5)}, 1, 0)
			So(err, ShouldNotBeNil)
		})

		Convey("写入 null 不创建容器", func() {
			doc, err := SetDeepProperty(nil, model.Path{model.K("items"), model.Slot(), model.K("a")}, nil, 0)
			So(err, ShouldBeNil)
			So(doc, ShouldBeNil)

			obj := document.NewObject()
			doc, err = SetDeepProperty(obj, model.Path{model.K("items"), model.Slot(), model.K("a")}, nil, 0)
			So(err, ShouldBeNil)
			So(toJSON(doc), ShouldEqual, `{}`)
		})

		Convey("写入 null 后只剩空值的元素被删除", func() {
			path := model.Path{model.K("items"), model.Index(0), model.K("name")}
			doc, _ := SetDeepProperty(nil, path, "x", 0)
			doc, err := SetDeepProperty(doc, path, nil, 0)
			So(err, ShouldBeNil)
			So(toJSON(doc), ShouldEqual, `{"items":[]}`)

			doc, _ = SetDeepProperty(nil, path, "x", 0)
			doc, err = SetDeepProperty(doc, path, nil, 2)
			So(err, ShouldBeNil)
			So(toJSON(doc), ShouldEqual, `{"items":[{"name":null}]}`)
		})

		Convey("写入 null 后只剩空值的对象被删除", func() {
			path := model.Path{model.K("meta"), model.K("a")}
			doc, _ := SetDeepProperty(nil, path, 1, 0)
			doc, err := SetDeepProperty(doc, path, nil, 0)
			So(err, ShouldBeNil)
			So(toJSON(doc), ShouldEqual, `{}`)

			doc, _ = SetDeepProperty(nil, path, 1, 0)
			doc, err = SetDeepProperty(doc, path, nil, 1)
			So(err, ShouldBeNil)
			So(toJSON(doc), ShouldEqual, `{"meta":{"a":null}}`)

			obj := document.NewObject()
			obj.Set("b", 2)
			doc, _ = SetDeepProperty(obj, path, 1, 0)
			doc, err = SetDeepProperty(doc, path, nil, 0)
			So(err, ShouldBeNil)
			So(toJSON(doc), ShouldEqual, `{"b":2}`)

			doc, _ = SetDeepProperty(nil, model.Path{model.K("meta"), model.K("a")}, 1, 0)
			doc, _ = SetDeepProperty(doc, model.Path{model.K("meta"), model.K("b")}, 2, 0)
			doc, err = SetDeepProperty(doc, path, nil, 0)
			So(err, ShouldBeNil)
			So(toJSON(doc), ShouldEqual, `{"meta":{"a":null,"b":2}}`)
		})

		Convey("类型不匹配", func() {
			obj := document.NewObject()
			obj.Set("a", 1)
			_, err := SetDeepProperty(obj, model.Path{model.K("a"), model.K("b")}, 1, 0)
			So(err, ShouldNotBeNil)
			_, err = SetDeepProperty(obj, model.Path{model.K("a"), model.Slot()}, 1, 0)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestDeepMergeObject(t *testing.T) {
	Convey("DeepMergeObject", t, func() {
		meta := document.NewObject()
		meta.Set("x", nil)
		dst := document.NewObject()
		dst.Set("id", 1)
		dst.Set("name", nil)
		dst.Set("items", document.NewArray("a"))
		dst.Set("meta", meta)

		srcMeta := document.NewObject()
		srcMeta.Set("x", 3)
		src := document.NewObject()
		src.Set("id", 2)
		src.Set("name", "n")
		src.Set("items", document.NewArray("b"))
		src.Set("meta", srcMeta)
		src.Set("extra", nil)
		src.Set("more", "m")

		out := DeepMergeObject(dst, src)
		So(out, ShouldEqual, dst)
		So(toJSON(dst), ShouldEqual, `{"id":1,"name":"n","items":["a"],"meta":{"x":3},"more":"m"}`)

		Convey("复制的对象与 src 不共享", func() {
			nested := document.NewObject()
			nested.Set("k", 1)
			s := document.NewObject()
			s.Set("obj", nested)
			d := DeepMergeObject(nil, s)
			nested.Set("k", 2)
			So(toJSON(d), ShouldEqual, `{"obj":{"k":1}}`)
		})
	})
}
