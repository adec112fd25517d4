package completion

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/BaSui01/schemaflow/llm"
	"github.com/BaSui01/schemaflow/types"
)

// Response is the terminal artifact of a successful call: the provider's
// raw answer plus Data, which holds the schema-validated value (or the raw
// text when no schema was requested), and a continuation for the next turn.
type Response struct {
	*llm.ChatResponse

	// Data satisfies the requested schema exactly, or is the plain reply
	// string in schemaless mode.
	Data any

	conv *conversation
}

// Respond sends a follow-up turn in the same conversation. Override options
// are merged over the options captured at the original call site, override
// winning, and the reply goes through the full healing pipeline again, so
// the schema contract holds across every turn.
//
// Overflow auto-slicing is not reapplied on continuation turns; the turn is
// sent as-is regardless of AutoSlice.
func (r *Response) Respond(ctx context.Context, next Prompt, override *Options) (*Response, error) {
	merged := Merge(r.conv.opts, override)

	comp := r.conv.comp
	if override != nil && override.Schema != nil {
		// A new schema needs a fresh provider-facing rendering. The system
		// preamble is not resent; the updated tools travel on the request.
		recomposed, err := composeRequest(merged, r.conv.client.provider.SupportsNativeFunctionCalling())
		if err != nil {
			return nil, err
		}
		comp = recomposed
	}

	cv := &conversation{
		client:     r.conv.client,
		model:      r.conv.model,
		opts:       merged,
		comp:       comp,
		transcript: types.CloneHistory(r.conv.transcript),
	}

	resp, err := cv.send(ctx, types.NewUserMessage(resolvePrompt(next)))
	if err != nil {
		return nil, err
	}
	return cv.healResponse(ctx, resp)
}

// Transcript returns a copy of the conversation so far, including the
// latest assistant reply.
func (r *Response) Transcript() []types.Message {
	return types.CloneHistory(r.conv.transcript)
}

// Decode unmarshals a response's validated Data into T.
func Decode[T any](r *Response) (T, error) {
	var out T
	if r == nil || r.Data == nil {
		return out, fmt.Errorf("response carries no data")
	}
	raw, err := json.Marshal(r.Data)
	if err != nil {
		return out, fmt.Errorf("failed to encode response data: %w", err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("failed to decode response data: %w", err)
	}
	return out, nil
}
