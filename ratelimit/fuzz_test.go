//go:build go1.18

package ratelimit

import "testing"

// FuzzAllow guards against panics and checks the two invariants that
// hold for any capacity/rate/key combination: capacity-cap and
// zero-capacity-always-denies. Mirrors the teacher's
// FuzzCache_SetGetRemove in spirit (cap lengths, seed corpus, no
// reliance on timing).
func FuzzAllow(f *testing.F) {
	f.Add("", uint64(0), uint64(0))
	f.Add("a", uint64(1), uint64(1))
	f.Add("αβγ", uint64(5), uint64(10))
	f.Add("long-key-ish", uint64(1_000_000), uint64(1_000_000))

	f.Fuzz(func(t *testing.T, key string, capacity, rate uint64) {
		const keyLimit = 1 << 10
		if len(key) > keyLimit {
			key = key[:keyLimit]
		}
		const boundLimit = 1 << 32
		capacity %= boundLimit
		rate %= boundLimit

		l := New(Config{}, NewVirtualClock(0))
		limit := Limit{Capacity: capacity, RefillPerSec: rate}

		d := l.Allow(key, limit)

		if capacity == 0 {
			if d.Allowed || d.ResetMS != 0 {
				t.Fatalf("capacity=0 must always deny with reset_ms=0, got %+v", d)
			}
		}
		if d.Remaining > capacity {
			t.Fatalf("remaining=%d exceeds capacity=%d", d.Remaining, capacity)
		}
	})
}
