// SPDX-License-Identifier: MIT
/*
Package bitint provides power-of-two helpers for FFT and buffer sizing.

All operations are constant-time, allocation-free bit manipulation, safe to
call from real-time code paths.
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of 2 >= size.
// Powers of 2 are returned unchanged; zero and negative inputs return 1.
//
// The size-1 subtraction keeps exact powers of two from doubling:
// Len64(8-1)=3 so 1<<3=8, whereas Len64(8)=4 would yield 16.
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len64(uint64(size-1))
}

// PrevPowerOfTwo returns the largest power of 2 <= size.
// Zero and negative inputs return 1.
func PrevPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << (bits.Len64(uint64(size)) - 1)
}

// IsPowerOfTwo reports whether n is a positive power of 2.
// Powers of 2 have exactly one bit set, so n&(n-1) clears it to zero.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// ClampPowerOfTwo clamps n into [lo, hi] and rounds to the nearest power
// of 2 within that range. lo and hi must themselves be powers of 2 with
// lo <= hi; FFT window sizes are validated through this before use.
func ClampPowerOfTwo(n, lo, hi int) int {
	if n <= lo {
		return lo
	}
	if n >= hi {
		return hi
	}
	if IsPowerOfTwo(n) {
		return n
	}
	next := NextPowerOfTwo(n)
	prev := next >> 1
	// Round to whichever neighbor is closer; ties go up.
	if n-prev < next-n {
		return prev
	}
	return next
}
