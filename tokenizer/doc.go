// Package tokenizer provides token counting for outbound requests: exact
// counts via tiktoken for OpenAI-family models, with a character-ratio
// estimator as the universal fallback. Provider adapters use it to size the
// overflow signal when the upstream error message does not state figures.
package tokenizer
