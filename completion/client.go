package completion

import (
	"context"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/schemaflow/llm"
	"github.com/BaSui01/schemaflow/types"
)

// charsPerToken is the truncation heuristic for overflow retries: the
// message shrinks by four characters per reported overflow token.
const charsPerToken = 4

// Client drives schema-validated completions against a single provider.
// It is safe for concurrent use; every call carries its own option snapshot.
type Client struct {
	provider llm.Provider
	logger   *zap.Logger
	defaults Options
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger sets the diagnostic logger. The default discards everything.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// WithDefaults layers client-wide defaults over the library defaults.
// Per-call options still win over both.
func WithDefaults(defaults Options) ClientOption {
	return func(c *Client) { c.defaults = Merge(Defaults(), &defaults) }
}

// New creates a Client for the given provider.
func New(provider llm.Provider, opts ...ClientOption) *Client {
	c := &Client{
		provider: provider,
		logger:   zap.NewNop(),
		defaults: Defaults(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Provider returns the underlying provider.
func (c *Client) Provider() llm.Provider { return c.provider }

// Complete is the single entry point: it resolves the prompt, merges opts
// over the client defaults, and runs the full compose/dispatch/heal pipeline.
// On success the returned Response carries schema-conformant Data and a
// continuation for follow-up turns.
func (c *Client) Complete(ctx context.Context, model string, prompt Prompt, opts *Options) (*Response, error) {
	merged := Merge(c.defaults, opts)
	return c.complete(ctx, model, resolvePrompt(prompt), merged)
}

// complete runs one dispatch attempt, recursing with a truncated message on
// a recoverable token overflow.
func (c *Client) complete(ctx context.Context, model, message string, opts Options) (*Response, error) {
	comp, err := composeRequest(opts, c.provider.SupportsNativeFunctionCalling())
	if err != nil {
		return nil, err
	}

	var msgs []types.Message
	if comp.systemMessage != "" {
		msgs = append(msgs, types.NewSystemMessage(comp.systemMessage))
	}
	msgs = append(msgs, types.CloneHistory(opts.MessageHistory)...)
	msgs = append(msgs, types.NewUserMessage(message))

	req := &llm.ChatRequest{
		TraceID:        uuid.NewString(),
		Model:          model,
		Messages:       msgs,
		MaxTokens:      opts.MaxTokens,
		Temperature:    float32Value(opts.Temperature),
		TopP:           float32Value(opts.TopP),
		Stop:           opts.Stop,
		Metadata:       opts.Metadata,
		Tools:          comp.tools,
		ToolChoice:     comp.toolChoice,
		ResponsePrefix: comp.responsePrefix,
	}

	c.logger.Debug("dispatching completion",
		zap.String("trace_id", req.TraceID),
		zap.String("provider", c.provider.Name()),
		zap.String("model", model),
		zap.Int("message_chars", len(message)),
		zap.Bool("structured", opts.Schema != nil),
	)

	resp, err := c.provider.Completion(ctx, req)
	if err != nil {
		if overflow, ok := llm.AsTokenOverflow(err); ok && opts.sliceEnabled() && overflow.OverflowTokens > 0 {
			chunk := len(message) - overflow.OverflowTokens*charsPerToken
			if chunk < 0 {
				// The message cannot shrink far enough under the
				// heuristic; surface the overflow unchanged.
				return nil, err
			}
			// Never cut mid-rune: back off to the nearest boundary so the
			// retry sends valid UTF-8.
			for chunk > 0 && !utf8.RuneStart(message[chunk]) {
				chunk--
			}
			c.logger.Warn("token overflow, retrying with truncated message",
				zap.String("trace_id", req.TraceID),
				zap.Int("overflow_tokens", overflow.OverflowTokens),
				zap.Int("chunk_chars", chunk),
			)
			return c.complete(ctx, model, message[:chunk], opts)
		}
		return nil, err
	}

	msg := resp.FirstMessage()
	if msg == nil {
		return nil, types.NewError(types.ErrEmptyResponse, "provider returned no completion").
			WithProvider(c.provider.Name())
	}

	cv := &conversation{
		client:     c,
		model:      model,
		opts:       opts,
		comp:       comp,
		transcript: append(msgs, *msg),
	}
	return cv.healResponse(ctx, resp)
}
