// Package common contains the plain math and helper functions shared across the motion engine.
// Vectors are [3]float32, quaternions are [4]float32 in (x, y, z, w) order and matrices are
// column-major []float32 slices.
package common

// Coalesce returns the first non-zero value from the provided values, or the zero value if all are zero.
//
// Parameters:
//   - values: a variadic list of values to check for non-zero status
//
// Returns:
//   - T: the first non-zero value from the input, or the zero value if all are zero
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}
