package ratelimit

import "github.com/ratekit/ratekit/internal/util"

// DefaultShards is the shard count used when Config.Shards is 0,
// matching spec.md §4.2 and original_source's RateLimiterInProc::Config.
const DefaultShards = 128

// DefaultCapacityHintPerShard is the per-shard map allocation hint used
// when Config.CapacityHintPerShard is 0. It affects allocation only,
// never semantics.
const DefaultCapacityHintPerShard = 1024

// Config configures a Limiter. The zero value is valid: Shards
// resolves to DefaultShards and CapacityHintPerShard to
// DefaultCapacityHintPerShard.
type Config struct {
	// Shards is the number of shards. If not a power of two, it is
	// rounded up to the next one. 0 => DefaultShards.
	Shards int

	// CapacityHintPerShard is an initial reservation hint passed to
	// each shard's map. 0 => DefaultCapacityHintPerShard.
	CapacityHintPerShard int

	// Metrics receives Allowed/Denied/Size signals. nil => NoopMetrics.
	Metrics Metrics
}

// Limiter is a concurrent, sharded, in-process token-bucket rate
// limiter. All methods are safe for concurrent use by any number of
// goroutines.
type Limiter struct {
	shards []*shard
	mask   uint64
	clock  Clock
	metric Metrics
}

// New constructs a Limiter from cfg. A nil clock defaults to a fresh
// SteadyClock.
func New(cfg Config, clock Clock) *Limiter {
	shards := cfg.Shards
	if shards <= 0 {
		shards = DefaultShards
	}
	shards = int(util.NextPow2(uint64(shards)))

	capHint := cfg.CapacityHintPerShard
	if capHint <= 0 {
		capHint = DefaultCapacityHintPerShard
	}

	if clock == nil {
		clock = NewSteadyClock()
	}
	metric := cfg.Metrics
	if metric == nil {
		metric = NoopMetrics{}
	}

	ss := make([]*shard, shards)
	for i := range ss {
		ss[i] = newShard(capHint)
	}

	return &Limiter{
		shards: ss,
		mask:   uint64(shards - 1),
		clock:  clock,
		metric: metric,
	}
}

// Allow decides whether an event for key is admitted under limit.
// It hashes key once, resolves (or creates) the key's shard entry, and
// runs the decision engine against it with a single clock reading.
func (l *Limiter) Allow(key string, limit Limit) Decision {
	now := l.clock.NowNS()
	s := l.shards[util.Fnv64a(key)&l.mask]
	e := s.lookup(key, limit, now)
	d := decide(e, limit, now)

	if d.Allowed {
		l.metric.Allowed()
	} else {
		l.metric.Denied(d.ResetMS)
	}
	return d
}

// Clear releases every entry in every shard. Individual keys are never
// evicted otherwise — this is the only way an entry's lifetime ends.
func (l *Limiter) Clear() {
	for _, s := range l.shards {
		s.clear()
	}
	l.metric.Size(0)
}

// Size returns the approximate total entry count across all shards.
// It is a snapshot: concurrent inserts may not yet be reflected. The
// snapshot is also reported to Metrics.Size.
func (l *Limiter) Size() int {
	total := 0
	for _, s := range l.shards {
		total += s.approxSize()
	}
	l.metric.Size(total)
	return total
}
