package shield

import (
	"fmt"

	"go.uber.org/zap"
)

// RenderFunc 外部 Markdown 渲染器，文本进文本出，对流水线完全不透明
type RenderFunc func(text string) (string, error)

// State 一次屏蔽过程的全部副产物
// 由一次 Shield 调用创建并独占，只能被同一文档的配对 Restore 消费一次，
// 绝不能跨文档混用
type State struct {
	Directives map[string]string
	CodeBlocks []string
	Snippets   []string
}

// Pipeline 完整的屏蔽-渲染-还原流水线
// 渲染器和结构解析器由调用方注入；并发处理多个文档时每个文档
// 使用各自的 Shield/Restore 配对即可，Pipeline 本身无共享可变状态
type Pipeline struct {
	parser     NodeParser
	render     RenderFunc
	logger     *zap.Logger
	directives bool
	codeBlocks bool
	rawMarkup  bool
}

// Option 流水线配置选项
type Option func(*Pipeline)

// WithLogger 设置日志记录器
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithDirectives 开关模板指令屏蔽
func WithDirectives(enabled bool) Option {
	return func(p *Pipeline) { p.directives = enabled }
}

// WithCodeBlocks 开关代码块屏蔽
func WithCodeBlocks(enabled bool) Option {
	return func(p *Pipeline) { p.codeBlocks = enabled }
}

// WithRawMarkup 开关原始标记屏蔽
func WithRawMarkup(enabled bool) Option {
	return func(p *Pipeline) { p.rawMarkup = enabled }
}

// NewPipeline 创建流水线，默认开启全部三类屏蔽，日志为空实现
func NewPipeline(parser NodeParser, render RenderFunc, opts ...Option) *Pipeline {
	p := &Pipeline{
		parser:     parser,
		render:     render,
		logger:     zap.NewNop(),
		directives: true,
		codeBlocks: true,
		rawMarkup:  true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Shield 按固定顺序屏蔽：模板指令、代码块、原始标记
// 指令和代码块必须先于原始标记提取，渲染器才只会看到安全的 Markdown 正文
func (p *Pipeline) Shield(text string) (string, *State) {
	state := &State{}

	content := text
	if p.directives {
		content, state.Directives = ExtractDirectives(content)
	}
	if p.codeBlocks {
		content, state.CodeBlocks = ExtractCodeBlocks(content)
	}
	if p.rawMarkup {
		content, state.Snippets = ExtractHTMLSnippets(p.parser, content)
	}

	p.logger.Debug("content shielded",
		zap.Int("directives", len(state.Directives)),
		zap.Int("code_blocks", len(state.CodeBlocks)),
		zap.Int("html_snippets", len(state.Snippets)))

	return content, state
}

// Restore 按与屏蔽相反的顺序还原：原始标记、代码块、模板指令
// 原始标记必须最先还原，因为渲染器可能把其余占位符包进了自己的标记
func (p *Pipeline) Restore(state *State, text string) (string, error) {
	result := text
	var err error

	if p.rawMarkup {
		if result, err = InsertHTMLSnippets(state.Snippets, result); err != nil {
			return "", err
		}
	}
	if p.codeBlocks {
		if result, err = InsertCodeBlocks(state.CodeBlocks, result); err != nil {
			return "", err
		}
	}
	if p.directives {
		if result, err = InsertDirectives(state.Directives, result); err != nil {
			return "", err
		}
	}

	p.logger.Debug("content restored",
		zap.Int("length", len(result)))

	return result, nil
}

// Run 执行完整流程：屏蔽、渲染、再按相反顺序还原
func (p *Pipeline) Run(text string) (string, error) {
	content, state := p.Shield(text)

	rendered, err := p.render(content)
	if err != nil {
		return "", fmt.Errorf("failed to render content: %w", err)
	}

	return p.Restore(state, rendered)
}
