package domain

// Coalesce returns the first value that is not the zero value of T.
func Coalesce[T comparable](vals ...T) T {
	var zero T
	for _, v := range vals {
		if v != zero {
			return v
		}
	}
	return zero
}

// ValueOr dereferences the first non-nil pointer, or returns fallback.
// Optional catalog fields and request overrides are pointers so that an
// explicit zero differs from "not given".
func ValueOr[T any](fallback T, ptrs ...*T) T {
	for _, p := range ptrs {
		if p != nil {
			return *p
		}
	}
	return fallback
}
