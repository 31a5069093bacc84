package shield

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractDirectives(t *testing.T) {
	t.Run("Double Brace Directive", func(t *testing.T) {
		content, directives := ExtractDirectives("Hello {{name}}!")

		assert.Equal(t, "Hello ==HANDLEBARS_ID_1==!", content)
		assert.Equal(t, map[string]string{"==HANDLEBARS_ID_1==": "{{name}}"}, directives)
	})

	t.Run("Triple Before Double", func(t *testing.T) {
		// {{{raw}}} 必须整体成为一个占位符，不能剩下多余的花括号
		content, directives := ExtractDirectives("{{{raw}}}")

		assert.Equal(t, "==HANDLEBARS_ID_1==", content)
		assert.Len(t, directives, 1)
		assert.Equal(t, "{{{raw}}}", directives["==HANDLEBARS_ID_1=="])
	})

	t.Run("Mixed Directives", func(t *testing.T) {
		content, directives := ExtractDirectives("{{{html body}}} and {{title}} and {{author}}")

		assert.NotContains(t, content, "{")
		assert.NotContains(t, content, "}")
		assert.Len(t, directives, 3)
	})

	t.Run("Multiline Directive", func(t *testing.T) {
		text := "{{#each items}}\n- item\n{{/each}}"
		content, directives := ExtractDirectives(text)

		assert.Len(t, directives, 2)
		assert.Contains(t, content, "- item")
	})

	t.Run("Unterminated Directive Left Untouched", func(t *testing.T) {
		// 指令是机会性提取，不做校验
		content, directives := ExtractDirectives("broken {{directive with no close")

		assert.Equal(t, "broken {{directive with no close", content)
		assert.Empty(t, directives)
	})

	t.Run("Non Greedy Match", func(t *testing.T) {
		content, directives := ExtractDirectives("{{a}}{{b}}")

		assert.Equal(t, "==HANDLEBARS_ID_1====HANDLEBARS_ID_2==", content)
		assert.Equal(t, "{{a}}", directives["==HANDLEBARS_ID_1=="])
		assert.Equal(t, "{{b}}", directives["==HANDLEBARS_ID_2=="])
	})
}

func TestInsertDirectives(t *testing.T) {
	t.Run("Round Trip", func(t *testing.T) {
		inputs := []string{
			"Hello {{name}}!",
			"{{{raw}}}",
			"{{a}}{{b}} text {{{c}}}",
			"no directives at all",
			"broken {{open",
			"{{#if ok}}\nyes\n{{/if}}\n",
		}
		for _, input := range inputs {
			content, directives := ExtractDirectives(input)
			restored, err := InsertDirectives(directives, content)
			require.NoError(t, err)
			assert.Equal(t, input, restored)
		}
	})

	t.Run("Restore Is Idempotent", func(t *testing.T) {
		// 已经没有占位符的文本再还原一次是空操作
		restored, err := InsertDirectives(map[string]string{}, "Hello {{name}}!")
		require.NoError(t, err)
		assert.Equal(t, "Hello {{name}}!", restored)
	})

	t.Run("Unresolved Token", func(t *testing.T) {
		_, err := InsertDirectives(map[string]string{}, "Hello ==HANDLEBARS_ID_1==!")
		assert.ErrorIs(t, err, ErrUnresolvedToken)
	})

	t.Run("Payload Containing Token Text Is Not Rescanned", func(t *testing.T) {
		input := "{{a ==HANDLEBARS_ID_99== b}}"
		content, directives := ExtractDirectives(input)
		restored, err := InsertDirectives(directives, content)
		require.NoError(t, err)
		assert.Equal(t, input, restored)
	})
}
