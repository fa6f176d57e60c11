package ratelimit

import (
	"sync"

	"github.com/ratekit/ratekit/internal/util"
)

// shard is an independent partition of the key space: a map from owned
// key string to exclusively-owned *entry, guarded by a reader/writer
// lock that permits concurrent lookups and serialises insertions.
type shard struct {
	mu   sync.RWMutex
	m    map[string]*entry
	size util.PaddedAtomicInt64 // approximate; separated to its own cache line
}

func newShard(capacityHint int) *shard {
	return &shard{m: make(map[string]*entry, capacityHint)}
}

// lookup implements spec.md §4.2's lookup protocol: a shared-lock probe,
// and on miss an exclusive-lock double-checked insert of a full bucket.
func (s *shard) lookup(key string, limit Limit, nowNS uint64) *entry {
	s.mu.RLock()
	if e, ok := s.m[key]; ok {
		s.mu.RUnlock()
		return e
	}
	s.mu.RUnlock()

	s.mu.Lock()
	e, ok := s.m[key]
	if !ok {
		e = newFullEntry(limit.Capacity, nowNS)
		s.m[key] = e
		s.size.Add(1)
	}
	s.mu.Unlock()
	return e
}

func (s *shard) clear() {
	s.mu.Lock()
	s.m = make(map[string]*entry)
	s.size.Store(0)
	s.mu.Unlock()
}

// approxSize returns this shard's approximate resident entry count.
func (s *shard) approxSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int(s.size.Load())
}
