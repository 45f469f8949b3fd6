package domain

import "strings"

// Query describes a single flag lookup.
type Query struct {
	FlagKey string

	// TargetID identifies the evaluation subject (e.g. a user ID).
	// HasTarget distinguishes an absent target from an empty one.
	TargetID  string
	HasTarget bool

	// Default overrides the client-wide fallback when HasDefault is set.
	Default    bool
	HasDefault bool
}

// EmptyKey reports whether the flag key is blank.
func (q Query) EmptyKey() bool {
	return strings.TrimSpace(q.FlagKey) == ""
}

// Fallback resolves the value returned when no authoritative answer exists.
// A per-call default always wins over the configured one.
func (q Query) Fallback(configured bool) bool {
	if q.HasDefault {
		return q.Default
	}
	return configured
}
