package memutils

import (
	cerrors "github.com/cockroachdb/errors"
)

type Number interface {
	~int | ~uint | ~int32 | ~uint32 | ~int64 | ~uint64
}

// CheckPow2 returns an error wrapping PowerOfTwoError if number is not a power of two. Zero
// is rejected as well, since no alignment can be built from it.
func CheckPow2[T Number](number T, name string) error {
	if number == 0 || number&(number-1) != 0 {
		return cerrors.Wrapf(PowerOfTwoError, "%s is %d", name, number)
	}
	return nil
}

// AlignUp rounds value up to the next multiple of alignment, which must be a power of two
func AlignUp[T Number](value T, alignment T) T {
	return (value + alignment - 1) & ^(alignment - 1)
}

// DivRoundUp divides numerator by denominator, rounding any remainder up
func DivRoundUp[T Number](numerator T, denominator T) T {
	return (numerator + denominator - 1) / denominator
}
