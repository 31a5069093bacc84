package shield

import (
	"fmt"
	"sync"
)

// Category 占位符的类别标签，出现在占位符文本中间
type Category string

const (
	// CategoryDirective 模板指令
	CategoryDirective Category = "HANDLEBARS"
	// CategoryCodeBlock 代码块
	CategoryCodeBlock Category = "CODE_BLOCK"
	// CategoryHTMLSnippet 原始标记片段
	CategoryHTMLSnippet Category = "HTML_SNIPPET"
)

// Token 返回指定序号的占位符文本，格式为 ==<类别>_ID_<序号>==
// 分隔符的选择使占位符既不会与普通文本冲突，也不会被 Markdown/HTML 语法改写；
// 这是一个记录在案的假设，不做与自然文本的冲突检测
func (c Category) Token(n int) string {
	return fmt.Sprintf("==%s_ID_%d==", c, n)
}

// Registry 管理一次提取过程中分配的占位符
// 每个文档的每次提取使用独立实例，绝不能跨文档共享
type Registry struct {
	mu       sync.Mutex
	payloads map[string]string
	counters map[Category]int
	ordered  map[Category][]string
}

// NewRegistry 创建占位符注册表
func NewRegistry() *Registry {
	return &Registry{
		payloads: make(map[string]string),
		counters: make(map[Category]int),
		ordered:  make(map[Category][]string),
	}
}

// Allocate 记录原始内容并返回新占位符，序号按类别从1开始单调递增
func (r *Registry) Allocate(category Category, payload string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.counters[category]++
	token := category.Token(r.counters[category])
	r.payloads[token] = payload
	r.ordered[category] = append(r.ordered[category], payload)

	return token
}

// Resolve 查询占位符对应的原始内容
// 占位符不是本次提取分配的时返回 ErrUnknownToken，
// 说明还原用错了映射，或者用户内容里混入了占位符样式的文本
func (r *Registry) Resolve(token string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	payload, ok := r.payloads[token]
	if !ok {
		return "", fmt.Errorf("resolve %s: %w", token, ErrUnknownToken)
	}
	return payload, nil
}

// Mapping 返回占位符到原始内容的映射副本
func (r *Registry) Mapping() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()

	m := make(map[string]string, len(r.payloads))
	for token, payload := range r.payloads {
		m[token] = payload
	}
	return m
}

// Payloads 按分配顺序返回某个类别的全部原始内容
// 序号为 n 的占位符对应返回切片的第 n-1 个元素
func (r *Registry) Payloads(category Category) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.ordered[category]...)
}

// Len 当前已分配的占位符数量
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.payloads)
}
