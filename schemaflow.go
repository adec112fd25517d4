// Package schemaflow is a reliability layer between a caller and a remote
// chat-completion model: every structured request yields either a value
// conforming to the caller's schema or a well-defined failure, with one
// bounded corrective round-trip on invalid replies and optional
// truncation retries on token overflow.
//
// The core lives in the completion package; this package re-exports the
// common surface and offers a one-call entry point:
//
//	contract, _ := schema.For[Sentiment]()
//	resp, err := schemaflow.Completion(ctx, provider, "gpt-4o",
//	    schemaflow.Text("Classify: great product!"),
//	    &schemaflow.Options{Schema: contract})
package schemaflow

import (
	"context"

	"github.com/BaSui01/schemaflow/completion"
	"github.com/BaSui01/schemaflow/llm"
)

// Re-exported completion types.
type (
	Client   = completion.Client
	Options  = completion.Options
	Response = completion.Response
	Prompt   = completion.Prompt
	Text     = completion.Text
	TextFunc = completion.TextFunc
)

// Re-exported constructors and helpers.
var (
	NewClient   = completion.New
	WithLogger  = completion.WithLogger
	WithOptions = completion.WithDefaults
	Bool        = completion.Bool
	Float32     = completion.Float32
)

// Completion runs a single schema-validated call against provider with a
// fresh client. Callers issuing many requests should construct one Client
// and reuse it.
func Completion(ctx context.Context, provider llm.Provider, model string, prompt Prompt, opts *Options) (*Response, error) {
	return completion.New(provider).Complete(ctx, model, prompt, opts)
}
