// Package pointers provides small nil-safety helpers for optional fields
// represented as pointers (filter.Limit, and similar optional wire fields).
package pointers

// Present reports whether an optional pointer field is set.
func Present[T any](p *T) bool { return p != nil }
