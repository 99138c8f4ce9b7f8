package converter

import (
	"testing"

	"github.com/hatlonely/sqljson/model"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/assert"
)

func ordersModel() model.Node {
	return model.MustParse([]any{model.Map{
		{Key: "id", Value: "<<idorder>>"},
		{Key: "items", Value: []any{model.Map{
			{Key: "id", Value: "<<iditem>>"},
			{Key: "name", Value: "<name>"},
		}}},
		{Key: "payments", Value: []any{model.Map{
			{Key: "id", Value: "<<idpayment>>"},
			{Key: "amount", Value: "<amount>"},
		}}},
	}})
}

// statusModel 订单的标识相同但状态不同时，折叠结果中是两个元素
func statusModel() model.Node {
	return model.MustParse([]any{model.Map{
		{Key: "id", Value: "<<idorder>>"},
		{Key: "status", Value: "<status>"},
		{Key: "lines", Value: []any{model.Map{
			{Key: "id", Value: "<<idline>>"},
		}}},
	}})
}

func statusRows() []Row {
	return []Row{
		{"idorder": 1, "status": "open", "idline": nil},
		{"idorder": 1, "status": "paid", "idline": 5},
		{"idorder": 1, "status": "paid", "idline": 6},
		{"idorder": 1, "status": nil, "idline": 7},
	}
}

func TestGetListOfNewID(t *testing.T) {
	Convey("GetListOfNewID", t, func() {
		node := ordersModel()
		parsed := model.ParseModel(node)

		Convey("空文档中所有非空标识都是新的", func() {
			doc := SQLToJSON(node, nil)
			ids := GetListOfNewID(Row{"idorder": 1, "iditem": 10, "idpayment": nil}, parsed, doc)
			So(ids, ShouldResemble, []string{"idorder", "iditem"})
		})

		Convey("已存在的层级只返回更深或兄弟层级的新标识", func() {
			row := Row{"idorder": 1, "iditem": 10, "name": "pen", "idpayment": nil}
			doc := SQLToJSON(node, []Row{row})
			So(GetListOfNewID(row, parsed, doc), ShouldBeEmpty)

			So(GetListOfNewID(Row{"idorder": 1, "iditem": 11, "idpayment": 100}, parsed, doc), ShouldResemble, []string{"iditem", "idpayment"})
			So(GetListOfNewID(Row{"idorder": 1, "iditem": 10, "idpayment": 100}, parsed, doc), ShouldResemble, []string{"idpayment"})
		})

		Convey("沿已确认的祖先实体查找", func() {
			doc := SQLToJSON(node, []Row{{"idorder": 1, "iditem": 10}})
			So(GetListOfNewID(Row{"idorder": 2, "iditem": 10}, parsed, doc), ShouldResemble, []string{"idorder", "iditem"})
		})

		Convey("祖先标识为空时按已知字段定位", func() {
			doc := SQLToJSON(node, []Row{{"idorder": nil, "iditem": 10, "name": "pen"}})
			So(GetListOfNewID(Row{"idorder": nil, "iditem": 10}, parsed, doc), ShouldBeEmpty)
			So(GetListOfNewID(Row{"idorder": nil, "iditem": 11}, parsed, doc), ShouldResemble, []string{"iditem"})
		})

		Convey("同一标识的祖先因其他字段不同被拆成两个元素", func() {
			node := statusModel()
			parsed := model.ParseModel(node)
			rows := statusRows()
			doc := SQLToJSON(node, rows[:1])
			So(GetListOfNewID(rows[1], parsed, doc), ShouldResemble, []string{"idline"})

			var folded any = SQLToJSON(node, nil)
			for _, row := range rows {
				folded = Fold(node, folded, row)
				So(GetListOfNewID(row, parsed, folded), ShouldBeEmpty)
			}
			So(toJSON(folded), ShouldEqual, `[`+
				`{"id":1,"status":"open","lines":[{"id":7}]},`+
				`{"id":1,"status":"paid","lines":[{"id":5},{"id":6}]}`+
				`]`)
		})

		Convey("根对象上的标识", func() {
			root := model.MustParse(model.Map{
				{Key: "id", Value: "<<idproduct>>"},
				{Key: "value", Value: "<value>"},
			})
			p := model.ParseModel(root)
			So(GetListOfNewID(Row{"idproduct": 1}, p, SQLToJSON(root, nil)), ShouldResemble, []string{"idproduct"})
			doc := SQLToJSON(root, []Row{{"idproduct": 1}})
			So(GetListOfNewID(Row{"idproduct": 1}, p, doc), ShouldBeEmpty)
		})
	})
}

func TestGetListOfNewIDExhaustion(t *testing.T) {
	node := ordersModel()
	parsed := model.ParseModel(node)
	rows := []Row{
		{"idorder": 1, "iditem": 10, "name": "pen", "idpayment": 100, "amount": 3},
		{"idorder": 1, "iditem": 11, "name": "ink", "idpayment": 100, "amount": 3},
		{"idorder": 1, "iditem": 10, "name": "pen", "idpayment": 101, "amount": 4},
		{"idorder": 2, "iditem": 10, "name": "pen", "idpayment": nil, "amount": nil},
		{"idorder": 3, "iditem": nil, "name": nil, "idpayment": nil, "amount": nil},
		{"idorder": 2, "iditem": 12, "name": "", "idpayment": 200, "amount": 1},
	}

	var doc any = SQLToJSON(node, nil)
	for i, row := range rows {
		for _, id := range GetListOfNewID(row, parsed, doc) {
			assert.NotNil(t, row[id], "row %d", i)
		}
		doc = Fold(node, doc, row)
		assert.Empty(t, GetListOfNewID(row, parsed, doc), "row %d", i)
	}
}
