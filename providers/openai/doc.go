// Package openai implements the llm.Provider adapter for the OpenAI chat
// completions API and compatible gateways. It supports native function
// calling, client-side rate limiting, and token-overflow detection from the
// API's context-length rejections.
package openai
