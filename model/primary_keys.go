package model

import "strings"

// GetModelPrimaryKeys 按先序遍历顺序返回模型中所有标识字段的列名
func GetModelPrimaryKeys(node Node) []string {
	return collectPrimaryKeys(node, nil)
}

func collectPrimaryKeys(node Node, keys []string) []string {
	switch n := node.(type) {
	case *Leaf:
		if n.PrimaryKey {
			keys = append(keys, n.Column)
		}
	case *Object:
		for _, f := range n.Fields {
			keys = collectPrimaryKeys(f.Node, keys)
		}
	case *Array:
		keys = collectPrimaryKeys(n.Elem, keys)
	}
	return keys
}

// OrderBy 返回以逗号连接的标识列，用于拼接 ORDER BY，使同一实体的扇出行相邻
func OrderBy(node Node) string {
	return strings.Join(GetModelPrimaryKeys(node), ", ")
}
