// Package collection holds the generic slice helpers the services share.
//
//	names := collection.Map(failures, func(f stepFailure) string { return f.step })
//	soups := collection.Filter(menu, func(m models.MenuItem) bool { return m.Category == "soups" })
package collection

import "sort"

// Map transforms each element of s using fn. The result is never nil.
func Map[T, R any](s []T, fn func(T) R) []R {
	out := make([]R, len(s))
	for i, v := range s {
		out[i] = fn(v)
	}
	return out
}

// Filter returns the elements of s for which fn returns true. The result is
// never nil, so it encodes as [] rather than null.
func Filter[T any](s []T, fn func(T) bool) []T {
	out := make([]T, 0, len(s))
	for _, v := range s {
		if fn(v) {
			out = append(out, v)
		}
	}
	return out
}

// SortBy returns a stably sorted copy of s. s itself is untouched.
func SortBy[T any](s []T, less func(a, b T) bool) []T {
	out := append([]T(nil), s...)
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}
