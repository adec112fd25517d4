// Package schema provides the object-shaped validation contract used for
// structured output: a JSON Schema builder that preserves property declaration
// order, a non-throwing validator that reports per-field issues, a strict
// parse that fails on the first violation, a reflection-based generator for
// deriving schemas from Go types, and tolerant JSON extraction from free text.
package schema
