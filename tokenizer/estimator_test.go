package tokenizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimator_CountTokens(t *testing.T) {
	e := NewEstimator("any", 0)

	count, err := e.CountTokens("")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// ASCII at ~4 chars per token.
	count, err = e.CountTokens(strings.Repeat("a", 400))
	require.NoError(t, err)
	assert.Equal(t, 100, count)

	// CJK at ~1.5 chars per token.
	count, err = e.CountTokens(strings.Repeat("中", 15))
	require.NoError(t, err)
	assert.Equal(t, 10, count)

	// Tiny non-empty input still counts as one token.
	count, err = e.CountTokens("a")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestEstimator_CountMessages(t *testing.T) {
	e := NewEstimator("any", 0)
	count, err := e.CountMessages([]Message{
		{Role: "user", Content: strings.Repeat("a", 40)},
		{Role: "assistant", Content: strings.Repeat("b", 80)},
	})
	require.NoError(t, err)
	// 10 + 20 content tokens, 4 overhead each, 3 at the end.
	assert.Equal(t, 41, count)
}

func TestEstimator_MaxTokensDefault(t *testing.T) {
	assert.Equal(t, 4096, NewEstimator("any", 0).MaxTokens())
	assert.Equal(t, 8000, NewEstimator("any", 8000).MaxTokens())
}

func TestRegistry(t *testing.T) {
	Register("test-model-7b", NewEstimator("test-model-7b", 2048))

	got, err := ForModel("test-model-7b")
	require.NoError(t, err)
	assert.Equal(t, 2048, got.MaxTokens())

	// Prefix match.
	got, err = ForModel("test-model-7b-instruct")
	require.NoError(t, err)
	assert.Equal(t, 2048, got.MaxTokens())

	_, err = ForModel("completely-unknown")
	assert.Error(t, err)

	fallback := ForModelOrEstimator("completely-unknown")
	assert.Equal(t, "estimator", fallback.Name())
}

func TestNewTiktoken_ModelMapping(t *testing.T) {
	assert.Equal(t, 8192, NewTiktoken("gpt-4").MaxTokens())
	assert.Equal(t, 128000, NewTiktoken("gpt-4o-2024-11-20").MaxTokens()) // prefix match
	assert.Equal(t, 8192, NewTiktoken("unknown-model").MaxTokens())      // fallback
	assert.Equal(t, "tiktoken[o200k_base]", NewTiktoken("gpt-4o").Name())
}
