package config

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/BaSui01/schemaflow/llm"
	"github.com/BaSui01/schemaflow/providers"
	"github.com/BaSui01/schemaflow/providers/openai"
	"github.com/BaSui01/schemaflow/providers/textgen"
)

// Config is the full deployment configuration.
type Config struct {
	// Provider selects the adapter: "openai" or "textgen".
	Provider string `yaml:"provider"`

	OpenAI  providers.OpenAIConfig  `yaml:"openai"`
	TextGen providers.TextGenConfig `yaml:"textgen"`

	Completion CompletionConfig `yaml:"completion"`
	Log        LogConfig        `yaml:"log"`
}

// CompletionConfig holds client-wide completion defaults.
type CompletionConfig struct {
	AutoHeal    *bool   `yaml:"auto_heal,omitempty"`
	AutoSlice   *bool   `yaml:"auto_slice,omitempty"`
	MaxTokens   int      `yaml:"max_tokens,omitempty"`
	Temperature *float32 `yaml:"temperature,omitempty"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	// Level: debug, info, warn, error.
	Level string `yaml:"level"`
	// Format: json or console.
	Format string `yaml:"format"`
}

// Default returns the library defaults: OpenAI with a 30s timeout, info
// logging in JSON.
func Default() *Config {
	return &Config{
		Provider: "openai",
		OpenAI: providers.OpenAIConfig{
			BaseProviderConfig: providers.BaseProviderConfig{
				Model:   "gpt-4o",
				Timeout: 30 * time.Second,
			},
		},
		TextGen: providers.TextGenConfig{
			BaseProviderConfig: providers.BaseProviderConfig{
				BaseURL: "http://localhost:8000",
				Timeout: 60 * time.Second,
			},
			ContextWindow: 4096,
		},
		Log: LogConfig{Level: "info", Format: "json"},
	}
}

// Load reads a YAML file over the defaults. Values may reference
// environment variables with ${VAR} syntax.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// BuildLogger constructs a zap logger from the log section.
func (c *Config) BuildLogger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", c.Log.Level, err)
	}

	var zapCfg zap.Config
	if c.Log.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Level = level
	return zapCfg.Build()
}

// BuildProvider constructs the configured provider adapter.
func (c *Config) BuildProvider(logger *zap.Logger) (llm.Provider, error) {
	switch c.Provider {
	case "openai":
		return openai.New(c.OpenAI, logger), nil
	case "textgen":
		return textgen.New(c.TextGen, logger), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", c.Provider)
	}
}
