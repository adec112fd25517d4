// Package textgen implements the llm.Provider adapter for OpenAI-compatible
// inference servers without native function calling (llama.cpp server,
// plain-completion vLLM setups, and similar). Structured output rides on
// system-message instructions; the adapter applies response-prefix priming
// and rejects oversized requests with the token-overflow signal before
// dispatch.
package textgen
