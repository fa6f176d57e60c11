package ratelimit

import "math/bits"

const (
	nanosPerSecond = 1_000_000_000
	nanosPerMilli  = 1_000_000
	maxU64         = ^uint64(0)
)

// decide runs the token-bucket admission algorithm against e for limit,
// observing nowNS (captured once by the caller — the engine never reads
// the clock itself). It is a compare-and-swap retry loop: every
// iteration either commits or loses a race to a concurrent decide call
// on the same entry and restarts from a freshly loaded state, per
// spec.md §4.3 and original_source's Impl::decide.
func decide(e *entry, limit Limit, nowNS uint64) Decision {
	capFP := limit.Capacity * fpScale
	rate := limit.RefillPerSec
	noRefill := rate == 0

	// capacity == 0 means the bucket can never hold a token regardless
	// of refill rate (every tokens1 is clamped to 0): there is no future
	// tick at which it would admit, so reset_ms is 0 ("impossible"),
	// same as the no-refill signal — spec.md §8 invariant 6.
	if capFP == 0 {
		return Decision{Allowed: false, Remaining: 0, ResetMS: 0}
	}

	for {
		last := e.lastNS.Load()
		tokens0 := e.tokensFP.Load()

		var deltaNS uint64
		if nowNS > last {
			deltaNS = nowNS - last
		}

		var addFP uint64
		if !noRefill && deltaNS > 0 {
			addFP = refillFP(deltaNS, rate)
		}

		tokens1, overflowed := bits.Add64(tokens0, addFP, 0)
		if overflowed != 0 {
			tokens1 = maxU64
		}
		if tokens1 > capFP {
			tokens1 = capFP
		}

		if tokens1 >= fpScale {
			tokens2 := tokens1 - fpScale

			if deltaNS > 0 {
				if !e.lastNS.CompareAndSwap(last, nowNS) {
					continue
				}
			}
			if !e.tokensFP.CompareAndSwap(tokens0, tokens2) {
				continue
			}
			return Decision{Allowed: true, Remaining: tokens2 / fpScale, ResetMS: 0}
		}

		if deltaNS > 0 {
			if !e.lastNS.CompareAndSwap(last, nowNS) {
				continue
			}
			e.tokensFP.Store(tokens1)
		}

		var resetMS uint64
		if !noRefill {
			resetMS = resetMillis(tokens1, rate)
		}
		return Decision{Allowed: false, Remaining: tokens1 / fpScale, ResetMS: resetMS}
	}
}

// refillFP computes delta_ns·rate·S/1e9 (integer division, truncating),
// using 128-bit intermediates: delta_ns and rate can each reach 2^63 and
// 2^32 respectively (spec.md §4.3's stated bounds), so their product
// alone can exceed 64 bits before the division brings it back down.
func refillFP(deltaNS, rate uint64) uint64 {
	product := mul64to128(deltaNS, rate).shl32() // ·S, S=2^32 is a shift
	quo, _ := divmod128(product, uint128{lo: nanosPerSecond})
	return quo.saturateU64()
}

// resetMillis computes ceil(ns_needed/1e6) where
// ns_needed = ceil(missing_fp·1e9 / (rate·S)), both using 128-bit
// intermediates (rate·S alone can reach 2^64 when rate is at its
// stated upper bound of 2^32). rate > 0 is assumed by the caller.
func resetMillis(tokens1, rate uint64) uint64 {
	missingFP := uint64(0)
	if fpScale > tokens1 {
		missingFP = fpScale - tokens1
	}
	if missingFP == 0 {
		return 0
	}

	num := mul64to128(missingFP, nanosPerSecond)
	den := mul64to128(rate, fpScale)

	numCeil, overflowed := num.add(den.sub(uint128{lo: 1}))
	if overflowed {
		return maxU64
	}
	quo, rem := divmod128(numCeil, den)
	_ = rem
	nsNeeded := quo.saturateU64()
	if nsNeeded == maxU64 {
		return maxU64
	}
	return ceilDivU64(nsNeeded, nanosPerMilli)
}

func ceilDivU64(a, b uint64) uint64 {
	q := a / b
	if a%b != 0 {
		if q == maxU64 {
			return maxU64
		}
		q++
	}
	return q
}
