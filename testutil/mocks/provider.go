// Package mocks provides scripted test doubles for the llm boundary.
package mocks

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/BaSui01/schemaflow/llm"
	"github.com/BaSui01/schemaflow/types"
)

// Provider is a scripted llm.Provider: tests enqueue the outcome of each
// successive Completion call, and the provider records every request it
// receives so tests can assert on the outbound message sequence.
type Provider struct {
	mu    sync.Mutex
	name  string
	fc    bool
	steps []step
	reqs  []*llm.ChatRequest
}

type step struct {
	resp *llm.ChatResponse
	err  error
}

// Option configures a Provider.
type Option func(*Provider)

// WithName sets the provider name.
func WithName(name string) Option {
	return func(p *Provider) { p.name = name }
}

// WithFunctionCalling sets the native function-calling capability flag.
func WithFunctionCalling(enabled bool) Option {
	return func(p *Provider) { p.fc = enabled }
}

// NewProvider creates a scripted provider. By default it is named "mock" and
// reports no native function calling.
func NewProvider(opts ...Option) *Provider {
	p := &Provider{name: "mock"}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// EnqueueText scripts a plain assistant text reply.
func (p *Provider) EnqueueText(content string) {
	p.enqueue(step{resp: p.response(types.NewAssistantMessage(content))})
}

// EnqueueToolCall scripts an assistant reply invoking the named tool with the
// given JSON arguments.
func (p *Provider) EnqueueToolCall(toolName, arguments string) {
	msg := types.NewAssistantMessage("").WithToolCalls([]types.ToolCall{{
		ID:        fmt.Sprintf("call_%d", len(p.steps)),
		Name:      toolName,
		Arguments: json.RawMessage(arguments),
	}})
	p.enqueue(step{resp: p.response(msg)})
}

// EnqueueEmpty scripts a response carrying no choices.
func (p *Provider) EnqueueEmpty() {
	p.enqueue(step{resp: &llm.ChatResponse{
		ID:       fmt.Sprintf("resp_%d", len(p.steps)),
		Provider: p.name,
		Model:    "mock-model",
	}})
}

// EnqueueError scripts a failed call.
func (p *Provider) EnqueueError(err error) {
	p.enqueue(step{err: err})
}

func (p *Provider) enqueue(s step) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.steps = append(p.steps, s)
}

func (p *Provider) response(msg types.Message) *llm.ChatResponse {
	return &llm.ChatResponse{
		ID:        fmt.Sprintf("resp_%d", len(p.steps)),
		Provider:  p.name,
		Model:     "mock-model",
		Choices:   []llm.ChatChoice{{Index: 0, FinishReason: "stop", Message: msg}},
		CreatedAt: time.Now(),
	}
}

// Completion pops the next scripted step. Running out of steps is a test
// setup bug and fails loudly.
func (p *Provider) Completion(_ context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.reqs = append(p.reqs, req)
	if len(p.steps) == 0 {
		return nil, fmt.Errorf("mock: no scripted response for call %d", len(p.reqs))
	}
	next := p.steps[0]
	p.steps = p.steps[1:]
	return next.resp, next.err
}

// HealthCheck always reports healthy.
func (p *Provider) HealthCheck(context.Context) (*llm.HealthStatus, error) {
	return &llm.HealthStatus{Healthy: true, Latency: time.Millisecond}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string { return p.name }

// SupportsNativeFunctionCalling reports the configured capability flag.
func (p *Provider) SupportsNativeFunctionCalling() bool { return p.fc }

// Calls returns how many Completion calls were made.
func (p *Provider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.reqs)
}

// Request returns the i-th recorded request.
func (p *Provider) Request(i int) *llm.ChatRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reqs[i]
}

// LastRequest returns the most recent recorded request, or nil.
func (p *Provider) LastRequest() *llm.ChatRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.reqs) == 0 {
		return nil
	}
	return p.reqs[len(p.reqs)-1]
}
