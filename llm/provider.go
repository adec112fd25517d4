// Package llm defines the boundary with the underlying chat-completion
// providers: the Provider interface, the unified request/response types, and
// the token-overflow signal the completion driver recovers from.
package llm

import (
	"context"
	"encoding/json"
	"time"

	"github.com/BaSui01/schemaflow/types"
)

// ToolSchema describes a callable function exposed to the model.
// Parameters holds a JSON Schema document.
type ToolSchema struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters"`
}

// ChatRequest is the unified provider-facing request.
type ChatRequest struct {
	TraceID     string            `json:"trace_id,omitempty"`
	Model       string            `json:"model"`
	Messages    []types.Message   `json:"messages"`
	MaxTokens   int               `json:"max_tokens,omitempty"`
	Temperature float32           `json:"temperature,omitempty"`
	TopP        float32           `json:"top_p,omitempty"`
	Stop        []string          `json:"stop,omitempty"`
	Tools       []ToolSchema      `json:"tools,omitempty"`
	ToolChoice  string            `json:"tool_choice,omitempty"` // auto/none/<tool name>
	Metadata    map[string]string `json:"metadata,omitempty"`

	// ResponsePrefix is a priming string for providers without native
	// function calling: the adapter biases the model toward starting its
	// reply with this text (typically `{ "<firstProperty>": `).
	// Function-calling providers ignore it.
	ResponsePrefix string `json:"response_prefix,omitempty"`
}

// ChatUsage reports token consumption for a completion.
type ChatUsage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

// ChatChoice is a single completion alternative.
type ChatChoice struct {
	Index        int           `json:"index"`
	FinishReason string        `json:"finish_reason,omitempty"`
	Message      types.Message `json:"message"`
}

// ChatResponse is the provider's raw answer to a ChatRequest.
type ChatResponse struct {
	ID        string       `json:"id,omitempty"`
	Provider  string       `json:"provider,omitempty"`
	Model     string       `json:"model"`
	Choices   []ChatChoice `json:"choices"`
	Usage     ChatUsage    `json:"usage,omitempty"`
	CreatedAt time.Time    `json:"created_at,omitempty"`
}

// FirstMessage returns the first choice's message, or nil when the response
// carries no choices.
func (r *ChatResponse) FirstMessage() *types.Message {
	if r == nil || len(r.Choices) == 0 {
		return nil
	}
	return &r.Choices[0].Message
}

// HealthStatus is the result of a provider health probe.
type HealthStatus struct {
	Healthy bool          `json:"healthy"`
	Latency time.Duration `json:"latency"`
}

// Provider is the unified adapter interface for chat-completion backends.
//
// Implementations own transport, authentication, timeouts, and cancellation;
// the completion layer above never adds its own timeout and propagates
// provider errors unchanged except for the token-overflow signal.
type Provider interface {
	// Completion issues a synchronous chat request. A request rejected for
	// exceeding the provider's input limit must fail with *TokenOverflowError.
	Completion(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// HealthCheck performs a lightweight reachability probe.
	HealthCheck(ctx context.Context) (*HealthStatus, error)

	// Name returns the provider's unique identifier.
	Name() string

	// SupportsNativeFunctionCalling reports whether the provider can return
	// structured tool-call payloads. It selects the schema-delivery strategy:
	// a forced function call when true, system-message JSON instructions plus
	// response-prefix priming when false.
	SupportsNativeFunctionCalling() bool
}
