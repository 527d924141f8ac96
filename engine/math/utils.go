package math

import "golang.org/x/exp/constraints"

/**
 * @brief Limits v to the closed interval [lo, hi]. Callers pass lo <= hi.
 */
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	}
	return v
}
