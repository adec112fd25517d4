package providers

import "time"

// BaseProviderConfig holds the fields every provider adapter shares. Embed
// it so each Config picks up APIKey, BaseURL, Model, and Timeout without
// redefining them.
type BaseProviderConfig struct {
	APIKey  string        `json:"api_key" yaml:"api_key"`
	BaseURL string        `json:"base_url" yaml:"base_url"`
	Model   string        `json:"model,omitempty" yaml:"model,omitempty"`
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// OpenAIConfig configures the OpenAI adapter.
type OpenAIConfig struct {
	BaseProviderConfig `yaml:",inline"`

	Organization string `json:"organization,omitempty" yaml:"organization,omitempty"`

	// RequestsPerSecond caps the outbound request rate. Zero disables the
	// limiter.
	RequestsPerSecond float64 `json:"requests_per_second,omitempty" yaml:"requests_per_second,omitempty"`

	// ContextWindow is the model's input limit in tokens, used to compute
	// the overflow count when the provider's error message does not state
	// it. Zero leaves the fallback estimate disabled.
	ContextWindow int `json:"context_window,omitempty" yaml:"context_window,omitempty"`
}

// TextGenConfig configures the text-generation adapter for
// OpenAI-compatible inference servers without native function calling
// (llama.cpp, vLLM in plain-completion setups, and similar).
type TextGenConfig struct {
	BaseProviderConfig `yaml:",inline"`

	// ContextWindow is the server's input limit in tokens.
	ContextWindow int `json:"context_window,omitempty" yaml:"context_window,omitempty"`
}
