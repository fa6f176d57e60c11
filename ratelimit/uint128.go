package ratelimit

import "math/bits"

// uint128 is a minimal unsigned 128-bit integer used by the decision
// engine's fixed-point arithmetic (bucket.go). spec.md §4.3 requires
// 128-bit intermediates for delta_ns·rate·S and missing_fp·1e9 so that
// neither overflows for any capacity, rate ≤ 2^32 and delta_ns ≤ 2^63;
// Go has no native int128 (unlike the original_source C++'s
// `unsigned __int128`), so bits.Mul64/Add64/Sub64 stand in for it.
type uint128 struct {
	hi, lo uint64
}

func mul64to128(a, b uint64) uint128 {
	hi, lo := bits.Mul64(a, b)
	return uint128{hi: hi, lo: lo}
}

// shl32 multiplies x by 2^32 (used to multiply by the Q32.32 scale S,
// which is itself 2^32 — a shift, not a second 128-bit multiply).
func (x uint128) shl32() uint128 {
	return uint128{hi: (x.hi << 32) | (x.lo >> 32), lo: x.lo << 32}
}

func (x uint128) cmp(y uint128) int {
	switch {
	case x.hi != y.hi:
		if x.hi < y.hi {
			return -1
		}
		return 1
	case x.lo != y.lo:
		if x.lo < y.lo {
			return -1
		}
		return 1
	default:
		return 0
	}
}

func (x uint128) sub(y uint128) uint128 {
	lo, borrow := bits.Sub64(x.lo, y.lo, 0)
	hi, _ := bits.Sub64(x.hi, y.hi, borrow)
	return uint128{hi: hi, lo: lo}
}

// add returns x+y and whether the 128-bit sum overflowed.
func (x uint128) add(y uint128) (uint128, bool) {
	lo, carry := bits.Add64(x.lo, y.lo, 0)
	hi, carry2 := bits.Add64(x.hi, y.hi, carry)
	return uint128{hi: hi, lo: lo}, carry2 != 0
}

func (x uint128) shl1() uint128 {
	return uint128{hi: (x.hi << 1) | (x.lo >> 63), lo: x.lo << 1}
}

func (x uint128) bit(i uint) uint64 {
	if i >= 64 {
		return (x.hi >> (i - 64)) & 1
	}
	return (x.lo >> i) & 1
}

func (x uint128) setBit(i uint) uint128 {
	if i >= 64 {
		x.hi |= 1 << (i - 64)
	} else {
		x.lo |= 1 << i
	}
	return x
}

// divmod128 computes floor(num/den) and num%den via restoring binary long
// division. den must be nonzero. Allocation-free, fixed 128 iterations.
func divmod128(num, den uint128) (quo, rem uint128) {
	for i := 127; i >= 0; i-- {
		rem = rem.shl1()
		if num.bit(uint(i)) == 1 {
			rem.lo |= 1
		}
		if rem.cmp(den) >= 0 {
			rem = rem.sub(den)
			quo = quo.setBit(uint(i))
		}
	}
	return quo, rem
}

// saturateU64 converts a uint128 to uint64, saturating to the maximum
// representable value if the high word is non-zero.
func (x uint128) saturateU64() uint64 {
	if x.hi != 0 {
		return ^uint64(0)
	}
	return x.lo
}
