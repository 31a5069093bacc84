package shield

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identityRender(text string) (string, error) {
	return text, nil
}

func TestPipeline(t *testing.T) {
	t.Run("Identity Render Round Trips", func(t *testing.T) {
		// 渲染器为恒等函数时，整条流水线必须逐字节还原输入
		text := "# Title\n\nHello {{name}}!\n\n    const x = 1;\n    return x;\n\nplain tail\n"
		pipeline := NewPipeline(stubParser{}, identityRender)

		result, err := pipeline.Run(text)
		require.NoError(t, err)
		assert.Equal(t, text, result)
	})

	t.Run("Shield Hides Directives And Code From Renderer", func(t *testing.T) {
		var seen string
		render := func(text string) (string, error) {
			seen = text
			return text, nil
		}
		pipeline := NewPipeline(stubParser{}, render)

		_, err := pipeline.Run("{{title}}\n\n    code line\n")
		require.NoError(t, err)

		assert.NotContains(t, seen, "{{title}}")
		assert.NotContains(t, seen, "code line")
		assert.Contains(t, seen, "==HANDLEBARS_ID_1==")
		assert.Contains(t, seen, "==CODE_BLOCK_ID_1==")
	})

	t.Run("Render Error Propagates", func(t *testing.T) {
		renderErr := errors.New("renderer exploded")
		pipeline := NewPipeline(stubParser{}, func(string) (string, error) {
			return "", renderErr
		})

		_, err := pipeline.Run("anything")
		assert.ErrorIs(t, err, renderErr)
	})

	t.Run("Mismatched State Fails Eagerly", func(t *testing.T) {
		pipeline := NewPipeline(stubParser{}, identityRender)

		contentB, _ := pipeline.Shield("{{b}}")

		// 跨文档混用映射是调用方错误，立即失败而不是部分还原
		_, err := pipeline.Restore(&State{}, contentB)
		assert.ErrorIs(t, err, ErrUnresolvedToken)
	})

	t.Run("Disabled Transforms Are Skipped", func(t *testing.T) {
		pipeline := NewPipeline(stubParser{}, identityRender,
			WithDirectives(false))

		content, state := pipeline.Shield("{{keep}}\n\n    code\n")
		assert.Contains(t, content, "{{keep}}")
		assert.Empty(t, state.Directives)
		assert.Len(t, state.CodeBlocks, 1)

		restored, err := pipeline.Restore(state, content)
		require.NoError(t, err)
		assert.Equal(t, "{{keep}}\n\n    code\n", restored)
	})

	t.Run("Shield Order Is Directives Code Markup", func(t *testing.T) {
		// 指令先于代码块提取：围栏里的花括号属于代码块，
		// 但正文里的花括号必须在代码扫描前消失
		text := "{{x}}\n\n    if a {{ b }} c\n"
		pipeline := NewPipeline(stubParser{}, identityRender)

		content, state := pipeline.Shield(text)
		assert.Len(t, state.Directives, 2)
		require.Len(t, state.CodeBlocks, 1)
		assert.Contains(t, state.CodeBlocks[0], "==HANDLEBARS_ID_2==")

		restored, err := pipeline.Restore(state, content)
		require.NoError(t, err)
		assert.Equal(t, text, restored)
	})
}

func TestPipelineLargeDocument(t *testing.T) {
	// 拼一个混合文档，验证整条流水线的往返不变式
	var b strings.Builder
	for i := 0; i < 50; i++ {
		b.WriteString("Paragraph {{var}} text.\n\n")
		b.WriteString("    indented code\n    more code\n\n")
		b.WriteString("```\nfenced {{not a directive? it is}} content\n```\n\n")
	}
	text := b.String()

	pipeline := NewPipeline(stubParser{}, identityRender)
	result, err := pipeline.Run(text)
	require.NoError(t, err)
	assert.Equal(t, text, result)
}
