package shield

import (
	"fmt"
	"regexp"
)

var (
	tripleDirectiveRegex = regexp.MustCompile(`(?s)\{\{\{.*?\}\}\}`)
	doubleDirectiveRegex = regexp.MustCompile(`(?s)\{\{.*?\}\}`)
	directiveTokenRegex  = regexp.MustCompile(`==HANDLEBARS_ID_\d+==`)
)

// ExtractDirectives 提取双花括号和三花括号模板指令，替换为占位符
// 必须先匹配三花括号：否则 {{{raw}}} 的外层一对会被当作双花括号指令，
// 留下多余的花括号。未闭合的指令不匹配，原样保留
func ExtractDirectives(text string) (string, map[string]string) {
	registry := NewRegistry()

	content := tripleDirectiveRegex.ReplaceAllStringFunc(text, func(match string) string {
		return registry.Allocate(CategoryDirective, match)
	})
	content = doubleDirectiveRegex.ReplaceAllStringFunc(content, func(match string) string {
		return registry.Allocate(CategoryDirective, match)
	})

	return content, registry.Mapping()
}

// InsertDirectives 将占位符还原为原始指令
// 文本里的占位符在映射中不存在时立即返回 ErrUnresolvedToken，
// 避免把错配的还原结果悄悄交给调用方
func InsertDirectives(directives map[string]string, text string) (string, error) {
	var firstErr error

	result := directiveTokenRegex.ReplaceAllStringFunc(text, func(token string) string {
		original, ok := directives[token]
		if !ok {
			if firstErr == nil {
				firstErr = fmt.Errorf("insert directives: %s: %w", token, ErrUnresolvedToken)
			}
			return token
		}
		return original
	})
	if firstErr != nil {
		return "", firstErr
	}

	return result, nil
}
