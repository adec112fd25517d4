// Package providers holds shared plumbing for concrete llm.Provider
// adapters: configuration, OpenAI-compatible wire types and converters,
// HTTP error mapping, and detection of the token-overflow signal in
// provider error messages.
package providers
