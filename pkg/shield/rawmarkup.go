package shield

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// snippetRestoreRegex 优先识别被渲染器包进 <p> 标签的占位符，再匹配裸占位符
var snippetRestoreRegex = regexp.MustCompile(
	`<p>[ \t]*==HTML_SNIPPET_ID_(\d+)==[ \t]*</p>|==HTML_SNIPPET_ID_(\d+)==`)

// ExtractHTMLSnippets 提取独立成块的原始标记，替换为占位符
// 行内标记（句子里的 <span> 之类）原样保留；独立块的判定见 isStandalone。
// 相邻的独立块——中间没有内容、只隔一个换行或恰好一个空行——合并为
// 同一个片段，间隔逐字节保留在片段内部，避免渲染器在两块之间插入段落。
// 结构解析失败或没有节点时不提取，整段文本原样返回
func ExtractHTMLSnippets(parser NodeParser, text string) (string, []string) {
	registry := NewRegistry()

	nodes, err := parser.Parse(text)
	if err != nil || len(nodes) == 0 {
		return text, nil
	}

	var standalone []Node
	for _, node := range nodes {
		if node.Kind == NodeElement && isStandalone(node, text) {
			standalone = append(standalone, node)
		}
	}
	if len(standalone) == 0 {
		return text, nil
	}

	// 合并相邻独立块
	var spans [][2]int
	for i := 0; i < len(standalone); {
		start := standalone[i].Start
		end := standalone[i].End
		j := i + 1
		for j < len(standalone) && standalone[j].Start >= end && mergeableGap(text[end:standalone[j].Start]) {
			end = standalone[j].End
			j++
		}
		spans = append(spans, [2]int{start, end})
		i = j
	}

	var b strings.Builder
	last := 0
	for _, span := range spans {
		b.WriteString(text[last:span[0]])
		b.WriteString(registry.Allocate(CategoryHTMLSnippet, text[span[0]:span[1]]))
		last = span[1]
	}
	b.WriteString(text[last:])

	return b.String(), registry.Payloads(CategoryHTMLSnippet)
}

// isStandalone 元素独立成块的判定：源区间跨多行，
// 或从第1列开始且其后紧跟换行（文本末尾视同换行）
func isStandalone(node Node, text string) bool {
	if node.EndLine > node.StartLine {
		return true
	}
	if node.StartCol != 1 {
		return false
	}
	rest := text[node.End:]
	return rest == "" || strings.HasPrefix(rest, "\n") || strings.HasPrefix(rest, "\r\n")
}

// mergeableGap 两个独立块之间允许合并的间隔：
// 直接相邻、单个换行、或恰好一个空行
func mergeableGap(gap string) bool {
	switch gap {
	case "", "\n", "\n\n", "\r\n", "\r\n\r\n":
		return true
	}
	return false
}

// InsertHTMLSnippets 按位置把原始标记片段还原回文本
// 渲染器会把单独成段的占位符包进 <p> 标签，先剥除这种包裹形式，
// 再处理裸占位符；两种形式在一次扫描里完成，替换进去的内容不会被再次扫描
func InsertHTMLSnippets(snippets []string, text string) (string, error) {
	var firstErr error

	result := snippetRestoreRegex.ReplaceAllStringFunc(text, func(match string) string {
		sub := snippetRestoreRegex.FindStringSubmatch(match)
		id := sub[1]
		if id == "" {
			id = sub[2]
		}
		n, err := strconv.Atoi(id)
		if err != nil || n < 1 || n > len(snippets) {
			if firstErr == nil {
				firstErr = fmt.Errorf("insert html snippets: ==HTML_SNIPPET_ID_%s==: %w", id, ErrUnresolvedToken)
			}
			return match
		}
		return snippets[n-1]
	})
	if firstErr != nil {
		return "", firstErr
	}

	return result, nil
}
