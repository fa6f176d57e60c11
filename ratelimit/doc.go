// Package ratelimit provides a concurrent, sharded, in-process token-bucket
// rate limiter. It answers, for a textual key and a (capacity, refill-rate)
// policy, whether an event is admitted now, how many whole tokens remain,
// and — when denied — how many milliseconds until the next token arrives.
//
// Design
//
//   - Concurrency: the limiter is split into a fixed, power-of-two number
//     of shards, each protected by a sync.RWMutex. Shard selection hashes
//     the key with 64-bit FNV-1a and masks to the shard count. This keeps
//     unrelated keys from contending on the same lock.
//
//   - Storage: each shard keeps a map[string]*entry. Entries are allocated
//     once on first sight and never relocated, so a reference obtained
//     under the shard's read lock stays valid after the lock is released
//     (until Clear wipes the shard).
//
//   - Decision: per-entry state (current tokens in Q32.32 fixed-point,
//     last refill timestamp in nanoseconds) is mutated only through an
//     atomic compare-and-swap retry loop — no per-entry lock. This keeps
//     the dominant "same key, unchanged refill window" path lock-free.
//
//   - Clock: Allow reads the clock at most once per call; the decision
//     engine never re-reads it across retries. A Clock is injected at
//     construction (SteadyClock by default, VirtualClock for tests).
//
//   - No eviction: entries live until Clear() wipes every shard. This is
//     deliberate — see the Open Questions resolution in DESIGN.md. A
//     high-cardinality key space grows the limiter's memory unbounded;
//     callers needing eviction must layer it on top (e.g. periodic Clear,
//     or an external LRU of keys worth rate-limiting).
//
// Basic usage
//
//	l := ratelimit.New(ratelimit.Config{}, nil) // defaults: 128 shards
//	d := l.Allow("user:42", ratelimit.Limit{Capacity: 10, RefillPerSec: 5})
//	if !d.Allowed {
//	    // d.ResetMS milliseconds until the next token
//	}
//
// Metrics
//
//	m := prom.New(nil, "svc", "ratelimit", nil) // implements ratelimit.Metrics
//	l := ratelimit.New(ratelimit.Config{Metrics: m}, nil)
package ratelimit
