package utils

// Ptr returns a pointer to v, for inline use in option and request structs.
func Ptr[T any](v T) *T {
	return &v
}
