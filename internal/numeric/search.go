// Package numeric holds the small sorted-slice and statistics helpers the
// study pipeline is built on.
package numeric

import "cmp"

// Number is any numeric type that supports subtraction.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~float32 | ~float64
}

// Compare orders x and y using < and >, returning -1, 0 or 1.
func Compare[T cmp.Ordered](x, y T) int {
	if x < y {
		return -1
	}
	if x > y {
		return 1
	}
	return 0
}

// CompareNumeric returns x - y. Besides ordering, callers use the result as
// a signed distance.
func CompareNumeric[T Number](x, y T) T {
	return x - y
}

func sign[T Number](v T) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	default:
		return 0
	}
}

// BinarySearch looks for target in the sorted slice s. It returns the
// matching index, or -(insertionPoint + 1) when target is absent.
//
// cmp is always called as cmp(element, target), so the element and target
// types may differ (e.g. a record compared against a bare day).
func BinarySearch[E, K any](s []E, target K, cmp func(E, K) int) int {
	low, high := 0, len(s)-1
	for low <= high {
		mid := int(uint(low+high) >> 1)
		c := cmp(s[mid], target)
		switch {
		case c < 0:
			low = mid + 1
		case c > 0:
			high = mid - 1
		default:
			return mid
		}
	}
	return -(low + 1)
}

// BinarySearchNumeric is BinarySearch with the CompareNumeric ordering.
func BinarySearchNumeric[T Number](s []T, target T) int {
	return BinarySearch(s, target, func(e, t T) int { return sign(CompareNumeric(e, t)) })
}

// InsertUnique inserts v at its sorted position unless an equal element is
// already present, and returns the resulting slice.
func InsertUnique[E any](s []E, v E, cmp func(E, E) int) []E {
	idx := BinarySearch(s, v, cmp)
	if idx >= 0 {
		return s
	}
	idx = -idx - 1
	s = append(s, v)
	copy(s[idx+1:], s[idx:])
	s[idx] = v
	return s
}

// InsertUniqueNumeric is InsertUnique with the CompareNumeric ordering.
func InsertUniqueNumeric[T Number](s []T, v T) []T {
	return InsertUnique(s, v, func(a, b T) int { return sign(CompareNumeric(a, b)) })
}

// InsertUniqueString is InsertUnique with the Compare ordering on strings.
func InsertUniqueString(s []string, v string) []string {
	return InsertUnique(s, v, Compare[string])
}
