package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
provider: textgen
textgen:
  base_url: http://gpu-box:8000
  model: local-13b
  context_window: 8192
completion:
  auto_slice: true
  max_tokens: 512
log:
  level: debug
  format: console
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "textgen", cfg.Provider)
	assert.Equal(t, "http://gpu-box:8000", cfg.TextGen.BaseURL)
	assert.Equal(t, 8192, cfg.TextGen.ContextWindow)
	require.NotNil(t, cfg.Completion.AutoSlice)
	assert.True(t, *cfg.Completion.AutoSlice)
	assert.Equal(t, 512, cfg.Completion.MaxTokens)
	assert.Equal(t, "debug", cfg.Log.Level)

	// Defaults survive for sections the file leaves out.
	assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
	assert.Equal(t, 30*time.Second, cfg.OpenAI.Timeout)
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_OPENAI_KEY", "sk-from-env")
	path := writeConfig(t, `
provider: openai
openai:
  api_key: ${TEST_OPENAI_KEY}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-from-env", cfg.OpenAI.APIKey)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "provider: [unclosed")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestBuildLogger(t *testing.T) {
	cfg := Default()
	logger, err := cfg.BuildLogger()
	require.NoError(t, err)
	assert.NotNil(t, logger)

	cfg.Log.Level = "not-a-level"
	_, err = cfg.BuildLogger()
	assert.Error(t, err)
}

func TestBuildProvider(t *testing.T) {
	cfg := Default()

	p, err := cfg.BuildProvider(nil)
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())
	assert.True(t, p.SupportsNativeFunctionCalling())

	cfg.Provider = "textgen"
	p, err = cfg.BuildProvider(nil)
	require.NoError(t, err)
	assert.Equal(t, "textgen", p.Name())
	assert.False(t, p.SupportsNativeFunctionCalling())

	cfg.Provider = "bogus"
	_, err = cfg.BuildProvider(nil)
	assert.Error(t, err)
}
