// Package completion is the reliability layer between a caller and a chat
// provider: it guarantees that a structured request yields either a value
// conforming to the caller's schema or a well-defined failure.
//
// A call flows through three stages. The request composer decides how the
// schema reaches the provider (a forced function call on capable providers,
// JSON instructions plus response-prefix priming otherwise). The driver
// dispatches the request and, when auto-slicing is on, recovers from the
// provider's token-overflow signal by truncating the message and retrying.
// The healer validates the reply against the schema and, when auto-healing
// is on, spends exactly one corrective round-trip before giving up.
//
// Successful responses carry a Respond method that continues the same
// conversation with the schema contract still applied.
package completion
