// Package htmlparse 提供 shield.NodeParser 的默认实现：
// 基于 x/net/html 词法器的片段扫描，报告顶层兄弟节点的精确源区间。
// 选它而不用 DOM 式解析库的原因是屏蔽逻辑按字节区间定义，
// 词法器的 Raw 缓冲能给出逐字节准确的偏移
package htmlparse

import (
	"sort"
	"strings"

	"golang.org/x/net/html"

	"github.com/nerdneilsfield/go-markdown-shield/pkg/shield"
)

// voidElements 没有结束标签的HTML元素
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true,
	"embed": true, "hr": true, "img": true, "input": true,
	"link": true, "meta": true, "param": true, "source": true,
	"track": true, "wbr": true,
}

// Parser 结构解析器
type Parser struct{}

// NewParser 创建结构解析器
func NewParser() *Parser {
	return &Parser{}
}

// Parse 扫描文本，返回文档体顶层兄弟节点及其字节偏移和行列号
// 按浏览器方式容错：顶层的孤立结束标签降级为文本，
// 文本末尾未闭合的元素不报告（宁可不提取也不吞掉后续内容）
func (p *Parser) Parse(text string) ([]shield.Node, error) {
	index := buildLineIndex(text)
	z := html.NewTokenizer(strings.NewReader(text))

	var nodes []shield.Node
	offset := 0
	depth := 0
	elemStart := -1

	appendNode := func(kind shield.NodeKind, start, end int) {
		startLine, startCol := index.locate(start)
		endLine := startLine
		if end > start {
			endLine, _ = index.locate(end - 1)
		}
		nodes = append(nodes, shield.Node{
			Kind:      kind,
			Start:     start,
			End:       end,
			StartLine: startLine,
			EndLine:   endLine,
			StartCol:  startCol,
		})
	}

	appendText := func(start, end int) {
		// 相邻的顶层文本节点合并
		if n := len(nodes); n > 0 && nodes[n-1].Kind == shield.NodeText && nodes[n-1].End == start {
			nodes[n-1].End = end
			nodes[n-1].EndLine, _ = index.locate(end - 1)
			return
		}
		appendNode(shield.NodeText, start, end)
	}

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			// io.EOF 或读取错误都意味着没有更多完整的词法单元
			break
		}

		raw := len(z.Raw())
		switch tt {
		case html.TextToken:
			if depth == 0 {
				appendText(offset, offset+raw)
			}
		case html.StartTagToken:
			name, _ := z.TagName()
			if voidElements[string(name)] {
				if depth == 0 {
					appendNode(shield.NodeElement, offset, offset+raw)
				}
				break
			}
			if depth == 0 {
				elemStart = offset
			}
			depth++
		case html.EndTagToken:
			if depth == 0 {
				// 没有对应开始标签的结束标签按文本处理
				appendText(offset, offset+raw)
				break
			}
			depth--
			if depth == 0 && elemStart >= 0 {
				appendNode(shield.NodeElement, elemStart, offset+raw)
				elemStart = -1
			}
		case html.SelfClosingTagToken, html.CommentToken, html.DoctypeToken:
			if depth == 0 {
				appendNode(shield.NodeElement, offset, offset+raw)
			}
		}
		offset += raw
	}

	return nodes, nil
}

// lineIndex 每行起始字节偏移，升序
type lineIndex []int

func buildLineIndex(text string) lineIndex {
	index := lineIndex{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			index = append(index, i+1)
		}
	}
	return index
}

// locate 偏移所在的行号和列号，均从1开始
func (li lineIndex) locate(offset int) (line, col int) {
	i := sort.Search(len(li), func(i int) bool { return li[i] > offset }) - 1
	return i + 1, offset - li[i] + 1
}
