package converter

// Row 结果集中的一行，列名到标量值的映射
// 值为 nil、string、int64、float64、bool、time.Time、[]byte 之一，缺失的列视为 null
type Row map[string]any

// Value 返回列值，列不存在时返回 nil
func (r Row) Value(column string) any {
	return r[column]
}
