package completion

// Prompt is a message source: either a literal string or a zero-argument
// producer evaluated at dispatch time.
type Prompt interface {
	Resolve() string
}

// Text is a literal prompt.
type Text string

// Resolve returns the literal string.
func (t Text) Resolve() string { return string(t) }

// TextFunc is a prompt produced lazily at dispatch time.
type TextFunc func() string

// Resolve invokes the producer.
func (f TextFunc) Resolve() string { return f() }

func resolvePrompt(p Prompt) string {
	if p == nil {
		return ""
	}
	return p.Resolve()
}
