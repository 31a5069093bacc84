package shield

// NodeKind 结构节点的种类
type NodeKind int

const (
	// NodeText 文本节点
	NodeText NodeKind = iota
	// NodeElement 元素节点
	NodeElement
)

// Node 结构解析报告的文档体顶层兄弟节点及其源区间
// 行号和列号从1开始；End 为不含端点的字节偏移
type Node struct {
	Kind      NodeKind
	Start     int
	End       int
	StartLine int
	EndLine   int
	StartCol  int
}

// NodeParser 结构解析能力，由调用方注入
// Parse 返回文档体顶层兄弟节点的有序列表；嵌套在元素内部的标记
// 不单独出现，随所在顶层节点的区间一并处理。
// 解析按浏览器方式容错，对格式不良的标记不报错
type NodeParser interface {
	Parse(text string) ([]Node, error)
}
