package store

import (
	"context"
	"testing"
	"time"

	"github.com/hatlonely/sqljson/ref"
	. "github.com/smartystreets/goconvey/convey"
)

func testStore(s Store[string, []byte]) {
	ctx := context.Background()

	Convey("读写删除", func() {
		_, err := s.Get(ctx, "orders")
		So(err, ShouldEqual, ErrKeyNotFound)

		So(s.Set(ctx, "orders", []byte(`[{"id":1}]`)), ShouldBeNil)
		v, err := s.Get(ctx, "orders")
		So(err, ShouldBeNil)
		So(string(v), ShouldEqual, `[{"id":1}]`)

		So(s.Set(ctx, "orders", []byte(`[]`)), ShouldBeNil)
		v, err = s.Get(ctx, "orders")
		So(err, ShouldBeNil)
		So(string(v), ShouldEqual, `[]`)

		So(s.Del(ctx, "orders"), ShouldBeNil)
		So(s.Del(ctx, "orders"), ShouldBeNil)
		_, err = s.Get(ctx, "orders")
		So(err, ShouldEqual, ErrKeyNotFound)
	})

	Convey("WithIfNotExist", func() {
		So(s.Set(ctx, "k", []byte("1"), WithIfNotExist()), ShouldBeNil)
		So(s.Set(ctx, "k", []byte("2"), WithIfNotExist()), ShouldEqual, ErrConditionFailed)
		v, err := s.Get(ctx, "k")
		So(err, ShouldBeNil)
		So(string(v), ShouldEqual, "1")
	})
}

func TestMapStore(t *testing.T) {
	Convey("MapStore", t, func() {
		testStore(NewMapStoreWithOptions[string, []byte]())
	})
}

func TestSyncMapStore(t *testing.T) {
	Convey("SyncMapStore", t, func() {
		s := NewSyncMapStoreWithOptions[string, []byte]()
		testStore(s)

		Convey("Range", func() {
			ctx := context.Background()
			So(s.Set(ctx, "a", []byte("1")), ShouldBeNil)
			So(s.Set(ctx, "b", []byte("2")), ShouldBeNil)
			keys := map[string]bool{}
			s.Range(func(key string, value []byte) bool {
				keys[key] = true
				return true
			})
			So(keys, ShouldResemble, map[string]bool{"a": true, "b": true})

			So(s.Close(), ShouldBeNil)
			_, err := s.Get(ctx, "a")
			So(err, ShouldEqual, ErrKeyNotFound)
		})
	})
}

func TestFreeCacheStore(t *testing.T) {
	Convey("FreeCacheStore", t, func() {
		s, err := NewFreeCacheStoreWithOptions[string, []byte](&FreeCacheStoreOptions{Size: 1024 * 1024})
		So(err, ShouldBeNil)
		testStore(s)

		Convey("过期", func() {
			ctx := context.Background()
			So(s.Set(ctx, "k", []byte("v"), WithExpiration(time.Second)), ShouldBeNil)
			_, err := s.Get(ctx, "k")
			So(err, ShouldBeNil)
			time.Sleep(2100 * time.Millisecond)
			_, err = s.Get(ctx, "k")
			So(err, ShouldEqual, ErrKeyNotFound)
		})

		Convey("序列化器不存在", func() {
			_, err := NewFreeCacheStoreWithOptions[string, []byte](&FreeCacheStoreOptions{
				ValSerializer: &ref.TypeOptions{Type: "GobSerializer"},
			})
			So(err, ShouldNotBeNil)
		})
	})
}

func TestNewStoreWithOptions(t *testing.T) {
	Convey("NewStoreWithOptions", t, func() {
		Convey("短类型名", func() {
			s, err := NewStoreWithOptions[string, []byte](&ref.TypeOptions{Type: "SyncMapStore"})
			So(err, ShouldBeNil)
			So(s, ShouldHaveSameTypeAs, &SyncMapStore[string, []byte]{})
		})

		Convey("完整类型名", func() {
			s, err := NewStoreWithOptions[string, []byte](&ref.TypeOptions{Type: "MapStore[string,[]uint8]"})
			So(err, ShouldBeNil)
			So(s, ShouldHaveSameTypeAs, &MapStore[string, []byte]{})
		})

		Convey("带参数", func() {
			s, err := NewStoreWithOptions[string, []byte](&ref.TypeOptions{
				Type:    "FreeCacheStore",
				Options: &FreeCacheStoreOptions{Size: 1024 * 1024, DefaultTTL: time.Minute},
			})
			So(err, ShouldBeNil)
			So(s, ShouldHaveSameTypeAs, &FreeCacheStore[string, []byte]{})
		})

		Convey("未注册的类型", func() {
			_, err := NewStoreWithOptions[string, []byte](&ref.TypeOptions{Type: "PebbleStore"})
			So(err, ShouldNotBeNil)
			_, err = NewStoreWithOptions[string, []byte](nil)
			So(err, ShouldNotBeNil)
		})
	})
}
