package utils

// Value dereferences v, giving the zero value for nil. Nullable JSON fields
// decode to pointers and are read through this.
func Value[T any](v *T) T {
	var zero T
	if v == nil {
		return zero
	}
	return *v
}

// Ptr returns a pointer to a copy of v, for filling nullable fields.
func Ptr[T any](v T) *T {
	return &v
}
