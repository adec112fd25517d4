package completion

import (
	"github.com/BaSui01/schemaflow/schema"
	"github.com/BaSui01/schemaflow/types"
)

// Options is the caller-supplied configuration for one logical call. A call
// never mutates its options; retries and continuation turns derive merged
// copies instead.
//
// AutoHeal and AutoSlice are tri-state so an override can distinguish "not
// specified" from an explicit false. Use Bool to set them. Temperature and
// TopP are pointers for the same reason: an override can pin an explicit
// zero over a non-zero base. Use Float32 to set them.
type Options struct {
	// Schema enables structured mode. It must be object-shaped at the top
	// level; anything else fails before the first network call.
	Schema *schema.JSONSchema

	// SystemMessage is prepended to the conversation. In structured mode on
	// providers without function calling, the schema preamble is prepended
	// to it.
	SystemMessage Prompt

	// MessageHistory seeds the conversation with prior turns.
	MessageHistory []types.Message

	// AutoHeal enables the single corrective round-trip. Default true.
	AutoHeal *bool

	// AutoSlice enables overflow-driven truncation retries. Default false.
	AutoSlice *bool

	// Provider pass-through fields, forwarded verbatim. MaxTokens zero
	// means "provider default".
	MaxTokens   int
	Temperature *float32
	TopP        *float32
	Stop        []string
	Metadata    map[string]string
}

// Bool returns a pointer to v, for the tri-state option fields.
func Bool(v bool) *bool { return &v }

// Float32 returns a pointer to v, for the sampling option fields.
func Float32(v float32) *float32 { return &v }

func float32Value(p *float32) float32 {
	if p == nil {
		return 0
	}
	return *p
}

// Defaults returns the library defaults: autoheal on, autoslice off.
func Defaults() Options {
	return Options{AutoHeal: Bool(true), AutoSlice: Bool(false)}
}

// Merge layers override on top of base, override winning field by field
// wherever it is set. Neither input is mutated; the message history is
// copied so later appends never alias a caller's slice.
func Merge(base Options, override *Options) Options {
	merged := base
	merged.MessageHistory = types.CloneHistory(base.MessageHistory)
	if override == nil {
		return merged
	}
	if override.Schema != nil {
		merged.Schema = override.Schema
	}
	if override.SystemMessage != nil {
		merged.SystemMessage = override.SystemMessage
	}
	if override.MessageHistory != nil {
		merged.MessageHistory = types.CloneHistory(override.MessageHistory)
	}
	if override.AutoHeal != nil {
		merged.AutoHeal = override.AutoHeal
	}
	if override.AutoSlice != nil {
		merged.AutoSlice = override.AutoSlice
	}
	if override.MaxTokens != 0 {
		merged.MaxTokens = override.MaxTokens
	}
	if override.Temperature != nil {
		merged.Temperature = override.Temperature
	}
	if override.TopP != nil {
		merged.TopP = override.TopP
	}
	if override.Stop != nil {
		merged.Stop = override.Stop
	}
	if override.Metadata != nil {
		merged.Metadata = override.Metadata
	}
	return merged
}

func (o Options) healEnabled() bool {
	return o.AutoHeal == nil || *o.AutoHeal
}

func (o Options) sliceEnabled() bool {
	return o.AutoSlice != nil && *o.AutoSlice
}
