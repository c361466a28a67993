// Package ptr provides helpers for optional values.
package ptr

// To creates a pointer to the given value.
func To[T any](v T) *T {
	return &v
}

// String creates a pointer to the given string value.
func String(s string) *string {
	return &s
}

// Bool creates a pointer to the given bool value.
func Bool(b bool) *bool {
	return &b
}

// Deref returns the value v points to, or fallback when v is nil.
func Deref[T any](v *T, fallback T) T {
	if v == nil {
		return fallback
	}
	return *v
}
