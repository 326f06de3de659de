// Package utils provides shared helpers for the dialer: time handling,
// pointer conversion, and the constants the dispatch pipeline relies on.
package utils

// ToPtr returns a pointer to v. Used where filter and audit structs take
// optional fields as pointers.
func ToPtr[T any](v T) *T {
	return &v
}

// IsTrue reports whether an optional flag is set and true. Audit rows store
// Success as a pointer so an absent value stays distinguishable.
func IsTrue(b *bool) bool {
	return b != nil && *b
}
