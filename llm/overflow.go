package llm

import (
	"errors"
	"fmt"
)

// TokenOverflowError signals that a provider rejected a request because the
// input exceeded its context limit. OverflowTokens is the number of tokens by
// which the request went over; the completion driver uses it to shrink the
// prompt and retry when auto-slicing is enabled.
type TokenOverflowError struct {
	OverflowTokens int
	Provider       string
	Message        string
}

func (e *TokenOverflowError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("token overflow (%d tokens over limit): %s", e.OverflowTokens, e.Message)
	}
	return fmt.Sprintf("token overflow (%d tokens over limit)", e.OverflowTokens)
}

// NewTokenOverflowError builds the overflow signal for a provider adapter.
func NewTokenOverflowError(overflowTokens int, provider, message string) *TokenOverflowError {
	return &TokenOverflowError{
		OverflowTokens: overflowTokens,
		Provider:       provider,
		Message:        message,
	}
}

// AsTokenOverflow unwraps err into a *TokenOverflowError if it carries one.
func AsTokenOverflow(err error) (*TokenOverflowError, bool) {
	var e *TokenOverflowError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
