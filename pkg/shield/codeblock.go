package shield

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	backtickFenceRegex = regexp.MustCompile("(?ms)^ {0,3}```[^\n]*\n.*?^ {0,3}```+[ \t]*$")
	tildeFenceRegex    = regexp.MustCompile("(?ms)^ {0,3}~~~[^\n]*\n.*?^ {0,3}~~~+[ \t]*$")
	codeTokenRegex     = regexp.MustCompile(`==CODE_BLOCK_ID_(\d+)==(\n\n)?`)

	// listUnderIndentRegex 缩进后紧跟项目符号或序号的行
	// 这类行是列表的结构性延续而不是代码，即使缩进达到4列也不提取
	listUnderIndentRegex = regexp.MustCompile(`^[ \t]+(?:[-*+]|\d+[.)])(?:\s|$)`)
)

// lineClass 行分类扫描的状态
type lineClass int

const (
	lineOther lineClass = iota
	lineBlank
	lineIndented
	lineListItem
)

// classifyLine 对单行分类：空行、缩进候选行、缩进下的列表项、其他
func classifyLine(line string) lineClass {
	if strings.TrimSpace(line) == "" {
		return lineBlank
	}
	if indentWidth(line) >= 4 {
		if listUnderIndentRegex.MatchString(line) {
			return lineListItem
		}
		return lineIndented
	}
	return lineOther
}

// indentWidth 行首缩进的列宽，制表符按4列计
func indentWidth(line string) int {
	width := 0
	for _, r := range line {
		switch r {
		case ' ':
			width++
		case '\t':
			width += 4
		default:
			return width
		}
	}
	return width
}

// ExtractCodeBlocks 提取围栏代码块和缩进代码块，替换为占位符
// 返回的 blocks 按出现顺序排列，还原完全按位置进行
// 必须先提取围栏块，防止其内容在第二阶段被误判为缩进代码。
// 提取没有失败路径：拿不准的内容一律不提取，宁可漏提也不误提
func ExtractCodeBlocks(text string) (string, []string) {
	registry := NewRegistry()

	content := extractFencedBlocks(text, registry)
	content = extractIndentedBlocks(content, registry)

	return content, registry.Payloads(CategoryCodeBlock)
}

// extractFencedBlocks 提取 ``` 和 ~~~ 围栏代码块
// 两种围栏的区段合并后按出现位置排序，blocks 的顺序与文档一致；
// 相互嵌套时外层区段优先，被覆盖的内层区段在拼接时跳过
func extractFencedBlocks(text string, registry *Registry) string {
	spans := backtickFenceRegex.FindAllStringIndex(text, -1)
	spans = append(spans, tildeFenceRegex.FindAllStringIndex(text, -1)...)
	sort.Slice(spans, func(i, j int) bool { return spans[i][0] < spans[j][0] })
	return spliceSpans(text, spans, registry, true)
}

// extractIndentedBlocks 单次前向扫描，把缩进行组成的连续区段提取为代码块
// 区段内部允许一个空行（其后必须还有缩进行）；第二个连续空行、
// 或空行之后的任何非缩进分类，都会在该空行之前关闭区段
func extractIndentedBlocks(text string, registry *Registry) string {
	lines := strings.SplitAfter(text, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}

	var spans [][]int
	offset := 0
	i := 0
	for i < len(lines) {
		if classifyLine(strings.TrimSuffix(lines[i], "\n")) != lineIndented {
			offset += len(lines[i])
			i++
			continue
		}

		// 区段从当前缩进行开始
		start := offset
		end := offset + len(lines[i])
		pos := end
		pendingBlank := false
		j := i + 1
		for j < len(lines) {
			switch classifyLine(strings.TrimSuffix(lines[j], "\n")) {
			case lineIndented:
				pos += len(lines[j])
				end = pos
				pendingBlank = false
				j++
				continue
			case lineBlank:
				if !pendingBlank {
					// 单个空行先挂起，等后续缩进行把它并入区段
					pendingBlank = true
					pos += len(lines[j])
					j++
					continue
				}
			}
			break
		}

		spans = append(spans, []int{start, end})
		offset = pos
		i = j
	}

	return spliceSpans(text, spans, registry, false)
}

// spliceSpans 把各区段替换为占位符加一个空行，保持块级分隔语义
// extendNewline 为真时把区段后紧随的换行并入保存的内容（围栏匹配止于收尾围栏行尾）
func spliceSpans(text string, spans [][]int, registry *Registry, extendNewline bool) string {
	if len(spans) == 0 {
		return text
	}

	var b strings.Builder
	last := 0
	for _, span := range spans {
		start, end := span[0], span[1]
		if start < last {
			continue
		}
		if extendNewline && end < len(text) && text[end] == '\n' {
			end++
		}
		b.WriteString(text[last:start])
		b.WriteString(registry.Allocate(CategoryCodeBlock, text[start:end]))
		b.WriteString("\n\n")
		last = end
	}
	b.WriteString(text[last:])
	return b.String()
}

// InsertCodeBlocks 按位置把代码块还原回文本
// 占位符连同其后的空行一起替换，使还原结果与原文逐字节一致；
// 序号超出 blocks 范围时返回 ErrUnresolvedToken（调用方的配对或顺序错误）
func InsertCodeBlocks(blocks []string, text string) (string, error) {
	var firstErr error

	result := codeTokenRegex.ReplaceAllStringFunc(text, func(match string) string {
		sub := codeTokenRegex.FindStringSubmatch(match)
		n, err := strconv.Atoi(sub[1])
		if err != nil || n < 1 || n > len(blocks) {
			if firstErr == nil {
				firstErr = fmt.Errorf("insert code blocks: ==CODE_BLOCK_ID_%s==: %w", sub[1], ErrUnresolvedToken)
			}
			return match
		}
		return blocks[n-1]
	})
	if firstErr != nil {
		return "", firstErr
	}

	return result, nil
}
