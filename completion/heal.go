package completion

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/schemaflow/llm"
	"github.com/BaSui01/schemaflow/schema"
	"github.com/BaSui01/schemaflow/types"
)

// conversation is a live exchange with the provider: the transcript so far
// plus the option snapshot and composition captured at the original call
// site. Heal round-trips and continuation turns both go through it, so the
// schema contract rides along on every turn.
//
// A conversation is not safe for concurrent use; message ordering is
// significant and callers must not share one across goroutines.
type conversation struct {
	client     *Client
	model      string
	opts       Options
	comp       *composition
	transcript []types.Message
}

// send appends msg to the transcript, dispatches the whole conversation, and
// appends the provider's reply. The returned response always carries a
// first message.
func (cv *conversation) send(ctx context.Context, msg types.Message) (*llm.ChatResponse, error) {
	cv.transcript = append(cv.transcript, msg)

	req := &llm.ChatRequest{
		TraceID:        uuid.NewString(),
		Model:          cv.model,
		Messages:       cv.transcript,
		MaxTokens:      cv.opts.MaxTokens,
		Temperature:    float32Value(cv.opts.Temperature),
		TopP:           float32Value(cv.opts.TopP),
		Stop:           cv.opts.Stop,
		Metadata:       cv.opts.Metadata,
		Tools:          cv.comp.tools,
		ToolChoice:     cv.comp.toolChoice,
		ResponsePrefix: cv.comp.responsePrefix,
	}

	cv.client.logger.Debug("dispatching conversation turn",
		zap.String("trace_id", req.TraceID),
		zap.String("provider", cv.client.provider.Name()),
		zap.String("model", cv.model),
		zap.Int("transcript_len", len(cv.transcript)),
	)

	resp, err := cv.client.provider.Completion(ctx, req)
	if err != nil {
		return nil, err
	}
	reply := resp.FirstMessage()
	if reply == nil {
		return nil, types.NewError(types.ErrEmptyResponse, "provider returned no completion").
			WithProvider(cv.client.provider.Name())
	}
	cv.transcript = append(cv.transcript, *reply)
	return resp, nil
}

// healResponse validates resp against the conversation's schema and, when
// autoheal is on, spends at most one corrective round-trip. The assistant
// reply is expected to already be on the transcript.
func (cv *conversation) healResponse(ctx context.Context, resp *llm.ChatResponse) (*Response, error) {
	msg := resp.FirstMessage()
	if msg == nil {
		return nil, types.NewError(types.ErrEmptyResponse, "provider returned no completion").
			WithProvider(cv.client.provider.Name())
	}

	// Schemaless mode never validates: data is the raw text.
	if cv.opts.Schema == nil {
		return &Response{ChatResponse: resp, Data: msg.Content, conv: cv}, nil
	}

	var candidate []byte
	if cv.client.provider.SupportsNativeFunctionCalling() {
		call := msg.ToolCallNamed(structuredToolName)
		if call == nil {
			if !cv.opts.healEnabled() {
				return nil, types.NewError(types.ErrFunctionNotCalled,
					fmt.Sprintf("model did not call %s", structuredToolName))
			}
			return cv.healMissingCall(ctx)
		}
		candidate = call.Arguments
	} else {
		extracted, found := cv.extractContent(msg.Content)
		if !found {
			if !cv.opts.healEnabled() {
				return nil, types.NewError(types.ErrNoJSONFound,
					"response contained no extractable JSON object")
			}
			return cv.healCorrective(ctx, "The issue is: the response did not contain a JSON object.")
		}
		candidate = []byte(extracted)
	}

	value, verrs := cv.opts.Schema.SafeValidate(candidate)
	if verrs == nil {
		return &Response{ChatResponse: resp, Data: value, conv: cv}, nil
	}
	if !cv.opts.healEnabled() {
		return nil, types.NewError(types.ErrResponseParsing,
			"response failed schema validation").WithCause(verrs)
	}
	return cv.healCorrective(ctx, issueSummary(verrs))
}

// healMissingCall spends the single corrective round-trip asking a
// function-calling provider to actually invoke the structured function.
func (cv *conversation) healMissingCall(ctx context.Context) (*Response, error) {
	cv.client.logger.Debug("healing: function not called",
		zap.String("provider", cv.client.provider.Name()))

	corrective := fmt.Sprintf(
		"You must respond by calling the function %q with arguments conforming to its parameters schema.",
		structuredToolName)
	resp, err := cv.send(ctx, types.NewUserMessage(corrective))
	if err != nil {
		return nil, err
	}

	call := resp.FirstMessage().ToolCallNamed(structuredToolName)
	if call == nil {
		return nil, types.NewError(types.ErrAutoHealFailed,
			"corrective turn still produced no function call")
	}
	value, err := cv.opts.Schema.ParseStrict(call.Arguments)
	if err != nil {
		return nil, types.NewError(types.ErrAutoHealFailed,
			"corrective function call failed validation").WithCause(err)
	}
	return &Response{ChatResponse: resp, Data: value, conv: cv}, nil
}

// healCorrective spends the single corrective round-trip on an invalid or
// unparseable reply. The post-heal reply is validated strictly: a second
// failure terminates with AUTO_HEAL_FAILED, never a third round-trip.
func (cv *conversation) healCorrective(ctx context.Context, issues string) (*Response, error) {
	cv.client.logger.Debug("healing: response failed validation",
		zap.String("provider", cv.client.provider.Name()),
		zap.String("issues", issues))

	var instruction string
	if cv.client.provider.SupportsNativeFunctionCalling() {
		instruction = fmt.Sprintf("Call the function %q again with corrected arguments.", structuredToolName)
	} else {
		instruction = jsonInstructionPrefix + cv.comp.schemaInstructions
	}

	resp, err := cv.send(ctx, types.NewUserMessage(instruction+" "+issues))
	if err != nil {
		return nil, err
	}
	msg := resp.FirstMessage()

	var candidate []byte
	if cv.client.provider.SupportsNativeFunctionCalling() {
		call := msg.ToolCallNamed(structuredToolName)
		if call == nil {
			return nil, types.NewError(types.ErrAutoHealFailed,
				"corrective turn still produced no function call")
		}
		candidate = call.Arguments
	} else {
		extracted, found := cv.extractContent(msg.Content)
		if !found {
			return nil, types.NewError(types.ErrAutoHealFailed,
				"corrective turn still contained no JSON object")
		}
		candidate = []byte(extracted)
	}

	value, err := cv.opts.Schema.ParseStrict(candidate)
	if err != nil {
		return nil, types.NewError(types.ErrAutoHealFailed,
			"corrective response failed validation").WithCause(err)
	}
	return &Response{ChatResponse: resp, Data: value, conv: cv}, nil
}

// extractContent pulls a JSON object out of free text. When the request was
// primed with a response prefix the model may reply with only the object's
// continuation, so a failed extraction is retried with the prefix prepended.
func (cv *conversation) extractContent(content string) (string, bool) {
	if extracted, found := schema.ExtractJSON(content); found {
		return extracted, true
	}
	if cv.comp.responsePrefix != "" {
		return schema.ExtractJSON(cv.comp.responsePrefix + content)
	}
	return "", false
}

// issueSummary renders validation issues as one human-readable correction
// message for the model.
func issueSummary(verrs *schema.ValidationErrors) string {
	var b strings.Builder
	for _, issue := range verrs.Errors {
		if issue.Path != "" {
			fmt.Fprintf(&b, "The issue is at path %s: %s. ", issue.Path, issue.Message)
		} else {
			fmt.Fprintf(&b, "The issue is: %s. ", issue.Message)
		}
	}
	return strings.TrimSpace(b.String())
}
