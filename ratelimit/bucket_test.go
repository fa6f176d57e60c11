package ratelimit

import "testing"

func TestRefillFP_Basic(t *testing.T) {
	// 1 second at 1 token/sec should refill exactly 1*S.
	got := refillFP(nanosPerSecond, 1)
	if got != fpScale {
		t.Fatalf("refillFP(1s, 1/s) = %d, want %d", got, fpScale)
	}
}

func TestRefillFP_ZeroDelta(t *testing.T) {
	if got := refillFP(0, 1_000_000); got != 0 {
		t.Fatalf("refillFP(0, rate) = %d, want 0", got)
	}
}

// refillFP must not overflow for the spec's stated bounds
// (rate <= 2^32, delta_ns <= 2^63): the 128-bit intermediate absorbs
// delta_ns*rate*S before it is divided back down by 1e9.
func TestRefillFP_NoOverflowAtStatedBounds(t *testing.T) {
	const maxRate = uint64(1) << 32
	const bigDelta = uint64(1) << 62

	got := refillFP(bigDelta, maxRate)
	// Sanity: result should be strictly positive and not wrap to a tiny
	// value the way a naive 64-bit multiply would.
	if got == 0 {
		t.Fatal("refillFP should not be zero for large delta/rate")
	}
}

func TestResetMillis_ExactDivision(t *testing.T) {
	// capacity 1, rate 1: missing a whole token takes exactly 1000ms.
	got := resetMillis(0, 1)
	if got != 1000 {
		t.Fatalf("resetMillis(0, 1) = %d, want 1000", got)
	}
}

func TestResetMillis_CeilsPartialMillisecond(t *testing.T) {
	// rate 7: 1e9/7 ns = 142857142.857ns -> ceil to 142857143ns -> 143ms.
	got := resetMillis(0, 7)
	if got != 143 {
		t.Fatalf("resetMillis(0, 7) = %d, want 143", got)
	}
}

func TestResetMillis_ZeroWhenAlreadyFull(t *testing.T) {
	if got := resetMillis(fpScale, 5); got != 0 {
		t.Fatalf("resetMillis at full scale = %d, want 0", got)
	}
}

func TestDivmod128_MatchesNativeDivisionForSmallValues(t *testing.T) {
	cases := []struct{ num, den uint64 }{
		{7, 3}, {1000, 7}, {0, 9}, {9, 9}, {1, 1000000},
	}
	for _, c := range cases {
		quo, rem := divmod128(uint128{lo: c.num}, uint128{lo: c.den})
		if quo.hi != 0 || quo.lo != c.num/c.den {
			t.Fatalf("divmod128(%d,%d) quo = %+v, want %d", c.num, c.den, quo, c.num/c.den)
		}
		if rem.hi != 0 || rem.lo != c.num%c.den {
			t.Fatalf("divmod128(%d,%d) rem = %+v, want %d", c.num, c.den, rem, c.num%c.den)
		}
	}
}

func TestUint128_SaturateU64(t *testing.T) {
	if (uint128{hi: 0, lo: 42}).saturateU64() != 42 {
		t.Fatal("no-overflow case should pass through lo")
	}
	if (uint128{hi: 1, lo: 0}).saturateU64() != maxU64 {
		t.Fatal("nonzero hi should saturate to max uint64")
	}
}

func TestDecide_CapacityZeroShortCircuits(t *testing.T) {
	e := newFullEntry(0, 0)
	d := decide(e, Limit{Capacity: 0, RefillPerSec: 1_000_000}, 10_000_000_000)
	if d.Allowed || d.ResetMS != 0 || d.Remaining != 0 {
		t.Fatalf("got %+v, want denied/0/0", d)
	}
}

func TestDecide_ClockRegressionTreatedAsNoDelta(t *testing.T) {
	e := newFullEntry(1, 1_000_000_000) // last_ns = 1s
	// nowNS < last_ns: the stale/anomalous clock read must not panic or
	// corrupt state; spec.md §9 requires delta_ns treated as 0.
	d := decide(e, Limit{Capacity: 1, RefillPerSec: 10}, 0)
	if !d.Allowed {
		t.Fatalf("first draw of a full bucket should still succeed: %+v", d)
	}
	if got := e.lastNS.Load(); got != 1_000_000_000 {
		t.Fatalf("last_ns must not regress: got %d", got)
	}
}
