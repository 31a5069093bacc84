package renderer

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
)

// Renderer goldmark 封装的 Markdown 到 HTML 渲染器
// goldmark 对正文里的 = 和下划线不做转义，占位符可以原样穿过渲染；
// 单独成段的占位符会被包成 <p>占位符</p>，由还原步骤剥除
type Renderer struct {
	md goldmark.Markdown
}

// New 创建渲染器
func New() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(goldmarkhtml.WithUnsafe()),
		),
	}
}

// Render 将 Markdown 渲染为 HTML
func (r *Renderer) Render(text string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return buf.String(), nil
}
