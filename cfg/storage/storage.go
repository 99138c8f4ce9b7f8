package storage

// Storage 解码后的层级配置数据
type Storage interface {
	// Sub 返回子节点，key 形如 "models[0].provider.options"，不存在时返回数据为 nil 的 Storage
	Sub(key string) Storage
	// ConvertTo 按 cfg 标签转换为结构体、map、slice 等，缺失的字段使用 def 标签的默认值
	ConvertTo(object any) error
	// Data 原始数据，对象为 *document.Object，数组为 []any
	Data() any
}
