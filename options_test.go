package codey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyOptions(t *testing.T) {
	t.Run("returns empty options when no options provided", func(t *testing.T) {
		opts := ApplyOptions()
		assert.NotNil(t, opts)
		assert.Empty(t, opts.Model)
		assert.Zero(t, opts.MaxTokens)
		assert.Nil(t, opts.Temperature)
		assert.Nil(t, opts.Tools)
		assert.Empty(t, opts.ToolChoice)
		assert.Zero(t, opts.ThinkingBudget)
		assert.False(t, opts.InterleavedThinking)
	})

	t.Run("applies multiple options", func(t *testing.T) {
		tools := []Tool{{Name: "test"}}
		opts := ApplyOptions(
			WithModel("claude-opus-4"),
			WithMaxTokens(1000),
			WithTemperature(0.7),
			WithTools(tools),
			WithToolChoice(ToolChoiceRequired),
			WithThinkingBudget(2048),
			WithInterleavedThinking(true),
		)

		assert.Equal(t, "claude-opus-4", opts.Model)
		assert.Equal(t, 1000, opts.MaxTokens)
		require.NotNil(t, opts.Temperature)
		assert.Equal(t, 0.7, *opts.Temperature)
		assert.Equal(t, tools, opts.Tools)
		assert.Equal(t, ToolChoiceRequired, opts.ToolChoice)
		assert.Equal(t, 2048, opts.ThinkingBudget)
		assert.True(t, opts.InterleavedThinking)
	})

	t.Run("later option overrides earlier", func(t *testing.T) {
		opts := ApplyOptions(
			WithModel("first"),
			WithModel("second"),
		)
		assert.Equal(t, "second", opts.Model)
	})
}

func TestWithMaxTokens(t *testing.T) {
	tests := []struct {
		name     string
		tokens   int
		expected int
	}{
		{"sets positive value", 1000, 1000},
		{"sets zero", 0, 0},
		{"sets large value", 100000, 100000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := ApplyOptions(WithMaxTokens(tt.tokens))
			assert.Equal(t, tt.expected, opts.MaxTokens)
		})
	}
}

func TestWithTemperature(t *testing.T) {
	tests := []struct {
		name     string
		temp     float64
		expected float64
	}{
		{"sets zero", 0.0, 0.0},
		{"sets mid value", 0.7, 0.7},
		{"sets max value", 2.0, 2.0},
		{"sets fractional", 0.123, 0.123},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := ApplyOptions(WithTemperature(tt.temp))
			require.NotNil(t, opts.Temperature)
			assert.Equal(t, tt.expected, *opts.Temperature)
		})
	}
}

func TestWithTools(t *testing.T) {
	t.Run("sets tools slice", func(t *testing.T) {
		tools := []Tool{
			{Name: "get_weather", Description: "Get weather"},
			{Name: "search", Description: "Search the web"},
		}
		opts := ApplyOptions(WithTools(tools))
		assert.Equal(t, tools, opts.Tools)
		assert.Len(t, opts.Tools, 2)
	})

	t.Run("sets empty slice", func(t *testing.T) {
		opts := ApplyOptions(WithTools([]Tool{}))
		assert.Empty(t, opts.Tools)
	})

	t.Run("sets nil slice", func(t *testing.T) {
		opts := ApplyOptions(WithTools(nil))
		assert.Nil(t, opts.Tools)
	})
}

func TestWithToolChoice(t *testing.T) {
	tests := []struct {
		name     string
		choice   ToolChoice
		expected ToolChoice
	}{
		{"sets auto", ToolChoiceAuto, ToolChoiceAuto},
		{"sets none", ToolChoiceNone, ToolChoiceNone},
		{"sets required", ToolChoiceRequired, ToolChoiceRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := ApplyOptions(WithToolChoice(tt.choice))
			assert.Equal(t, tt.expected, opts.ToolChoice)
		})
	}
}

func TestWithThinkingBudget(t *testing.T) {
	opts := ApplyOptions(WithThinkingBudget(4096))
	assert.Equal(t, 4096, opts.ThinkingBudget)
}

func TestWithInterleavedThinking(t *testing.T) {
	opts := ApplyOptions(WithInterleavedThinking(true))
	assert.True(t, opts.InterleavedThinking)
}
