package serializer

import (
	"testing"

	"github.com/hatlonely/sqljson/ref"
	. "github.com/smartystreets/goconvey/convey"
)

type payload struct {
	Name  string `json:"name" msgpack:"name"`
	Count int    `json:"count" msgpack:"count"`
}

func TestSerializer(t *testing.T) {
	Convey("Serializer", t, func() {
		Convey("默认 MsgPack", func() {
			s, err := NewByteSerializerWithOptions[payload](nil)
			So(err, ShouldBeNil)
			So(s, ShouldHaveSameTypeAs, &MsgPackSerializer[payload]{})

			buf, err := s.Serialize(payload{Name: "orders", Count: 2})
			So(err, ShouldBeNil)
			v, err := s.Deserialize(buf)
			So(err, ShouldBeNil)
			So(v, ShouldResemble, payload{Name: "orders", Count: 2})
		})

		Convey("按短名称选择 JSON", func() {
			s, err := NewByteSerializerWithOptions[string](&ref.TypeOptions{Type: "JSONSerializer"})
			So(err, ShouldBeNil)
			buf, err := s.Serialize("orders")
			So(err, ShouldBeNil)
			So(string(buf), ShouldEqual, `"orders"`)
		})

		Convey("完整类型名", func() {
			s, err := NewByteSerializerWithOptions[string](&ref.TypeOptions{Type: "JSONSerializer[string]"})
			So(err, ShouldBeNil)
			So(s, ShouldHaveSameTypeAs, &JSONSerializer[string]{})
		})

		Convey("字节值", func() {
			s, err := NewByteSerializerWithOptions[[]byte](nil)
			So(err, ShouldBeNil)
			buf, err := s.Serialize([]byte(`{"id":1}`))
			So(err, ShouldBeNil)
			v, err := s.Deserialize(buf)
			So(err, ShouldBeNil)
			So(string(v), ShouldEqual, `{"id":1}`)
		})

		Convey("解码失败", func() {
			_, err := NewJSONSerializer[payload]().Deserialize([]byte("{"))
			So(err, ShouldNotBeNil)
			_, err = NewMsgPackSerializer[payload]().Deserialize([]byte{0xc1})
			So(err, ShouldNotBeNil)
		})

		Convey("未知类型", func() {
			_, err := NewByteSerializerWithOptions[string](&ref.TypeOptions{Type: "BSONSerializer"})
			So(err, ShouldNotBeNil)
		})
	})
}
