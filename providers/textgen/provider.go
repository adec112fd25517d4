package textgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/schemaflow/llm"
	"github.com/BaSui01/schemaflow/providers"
	"github.com/BaSui01/schemaflow/tokenizer"
	"github.com/BaSui01/schemaflow/types"
)

const (
	completionsPath = "/v1/chat/completions"
	modelsPath      = "/v1/models"
)

// Provider is the adapter for text-only OpenAI-compatible servers.
type Provider struct {
	cfg     providers.TextGenConfig
	client  *http.Client
	logger  *zap.Logger
	counter tokenizer.Tokenizer
}

// New creates a textgen provider.
func New(cfg providers.TextGenConfig, logger *zap.Logger) *Provider {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		cfg:     cfg,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
		counter: tokenizer.NewEstimator(cfg.Model, cfg.ContextWindow),
	}
}

// Name returns the provider identifier.
func (p *Provider) Name() string { return "textgen" }

// SupportsNativeFunctionCalling reports false: these servers emit free text
// only, so schema delivery uses instructions and priming.
func (p *Provider) SupportsNativeFunctionCalling() bool { return false }

func (p *Provider) endpoint(path string) string {
	return strings.TrimRight(p.cfg.BaseURL, "/") + path
}

func (p *Provider) buildHeaders(req *http.Request) {
	if p.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	}
	req.Header.Set("Content-Type", "application/json")
}

// Completion performs a non-streaming chat completion. Oversized requests
// fail with the token-overflow signal before dispatch: local servers tend
// to truncate silently or crash rather than report a usable error.
func (p *Provider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	msgs := req.Messages
	if req.ResponsePrefix != "" {
		// Priming: an assistant turn holding the prefix biases the model
		// toward continuing the JSON object.
		msgs = append(types.CloneHistory(msgs), types.NewAssistantMessage(req.ResponsePrefix))
	}

	if p.cfg.ContextWindow > 0 {
		counted := make([]tokenizer.Message, 0, len(msgs))
		for _, m := range msgs {
			counted = append(counted, tokenizer.Message{Role: string(m.Role), Content: m.Content})
		}
		count, err := p.counter.CountMessages(counted)
		if err == nil && count > p.cfg.ContextWindow {
			p.logger.Debug("rejecting oversized request",
				zap.Int("counted", count),
				zap.Int("window", p.cfg.ContextWindow))
			return nil, llm.NewTokenOverflowError(count-p.cfg.ContextWindow, p.Name(),
				fmt.Sprintf("estimated %d tokens exceeds context window of %d", count, p.cfg.ContextWindow))
		}
	}

	// Tools are stripped: the server has no function calling.
	body := providers.OpenAICompatRequest{
		Model:       providers.ChooseModel(req, p.cfg.Model, "default"),
		Messages:    providers.ConvertMessagesToOpenAI(msgs),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		Stop:        req.Stop,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.endpoint(completionsPath), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	p.buildHeaders(httpReq)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, types.NewError(types.ErrUpstreamError, err.Error()).
			WithHTTPStatus(http.StatusBadGateway).WithRetryable(true).WithProvider(p.Name())
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg := providers.ReadErrorMessage(resp.Body)
		return nil, providers.MapHTTPError(resp.StatusCode, msg, p.Name())
	}

	var oaResp providers.OpenAICompatResponse
	if err := json.NewDecoder(resp.Body).Decode(&oaResp); err != nil {
		return nil, types.NewError(types.ErrUpstreamError, err.Error()).
			WithHTTPStatus(http.StatusBadGateway).WithRetryable(true).WithProvider(p.Name())
	}
	return providers.ToChatResponse(oaResp, p.Name()), nil
}

// HealthCheck probes the models endpoint.
func (p *Provider) HealthCheck(ctx context.Context) (*llm.HealthStatus, error) {
	start := time.Now()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint(modelsPath), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	p.buildHeaders(httpReq)

	resp, err := p.client.Do(httpReq)
	latency := time.Since(start)
	if err != nil {
		return &llm.HealthStatus{Healthy: false, Latency: latency}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg := providers.ReadErrorMessage(resp.Body)
		return &llm.HealthStatus{Healthy: false, Latency: latency},
			fmt.Errorf("textgen health check failed: status=%d msg=%s", resp.StatusCode, msg)
	}
	return &llm.HealthStatus{Healthy: true, Latency: latency}, nil
}
