// Package cache provides the in-process tiered result cache used by the
// tool wrappers. Results live either in a permanent LRU tier or in one of
// the bounded, time-expiring tiers created lazily per distinct TTL value.
package cache

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Store partitions cached results into a permanent capacity-bounded tier
// and any number of lazily created TTL tiers, one per exact expiry
// duration. Two numerically close durations never share a tier: different
// operations have structurally different freshness requirements, and a
// shared clock would over-cache volatile data or under-cache stable data.
type Store struct {
	mu        sync.RWMutex
	permanent *tier
	ttlTiers  map[time.Duration]*tier

	maxEntries int
	now        func() time.Time
	logger     *zap.Logger
	stats      Stats
	statsMu    sync.Mutex
}

// Stats tracks cache performance counters.
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Tiers     int   `json:"tiers"`
}

// Config configures the store.
type Config struct {
	// MaxEntries caps each tier independently. 0 falls back to 1000.
	MaxEntries int

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// New creates a tiered store with an empty permanent tier and no TTL tiers.
func New(cfg Config, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 1000
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Store{
		permanent:  newTier(cfg.MaxEntries, 0, now),
		ttlTiers:   make(map[time.Duration]*tier),
		maxEntries: cfg.MaxEntries,
		now:        now,
		logger:     logger.With(zap.String("component", "result_cache")),
	}
}

// Get returns the cached value for key, checking the permanent tier first
// and then each active TTL tier. Expired entries are treated as absent;
// the owning tier drops them on access. A hit refreshes recency in its
// tier. The second return is false on a miss — absence is a valid result,
// never an error.
func (s *Store) Get(key string) ([]byte, bool) {
	if v, ok := s.permanent.get(key); ok {
		s.recordHit()
		return v, true
	}

	s.mu.RLock()
	tiers := make([]*tier, 0, len(s.ttlTiers))
	for _, t := range s.ttlTiers {
		tiers = append(tiers, t)
	}
	s.mu.RUnlock()

	for _, t := range tiers {
		if v, ok := t.get(key); ok {
			s.recordHit()
			return v, true
		}
	}
	s.recordMiss()
	return nil, false
}

// Set stores value under key. A zero ttl targets the permanent tier;
// a positive ttl targets the tier bound to exactly that duration,
// creating it on first use with its own capacity bound and clock.
// The key is removed from every other tier so a fingerprint maps to at
// most one live value. Concurrent writes to one key are last-write-wins.
func (s *Store) Set(key string, value []byte, ttl time.Duration) {
	target := s.permanent
	if ttl > 0 {
		target = s.tierFor(ttl)
	}

	if evicted := target.set(key, value); evicted {
		s.recordEviction()
	}
	s.dropElsewhere(key, target)

	s.logger.Debug("cache set",
		zap.String("key", key),
		zap.Duration("ttl", ttl))
}

// Clear empties every tier, including all dynamically created ones.
// The tier set itself survives so callers keep their expiry routing.
func (s *Store) Clear() {
	s.permanent.clear()

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.ttlTiers {
		t.clear()
	}
	s.logger.Info("cache cleared", zap.Int("ttl_tiers", len(s.ttlTiers)))
}

// Stats returns a snapshot of the performance counters.
func (s *Store) Stats() Stats {
	s.statsMu.Lock()
	st := s.stats
	s.statsMu.Unlock()

	s.mu.RLock()
	st.Tiers = len(s.ttlTiers) + 1
	s.mu.RUnlock()
	return st
}

// Len reports the total number of live entries across tiers.
func (s *Store) Len() int {
	n := s.permanent.len()
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.ttlTiers {
		n += t.len()
	}
	return n
}

// tierFor returns the tier for ttl, creating it on first use.
func (s *Store) tierFor(ttl time.Duration) *tier {
	s.mu.RLock()
	t, ok := s.ttlTiers[ttl]
	s.mu.RUnlock()
	if ok {
		return t
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok = s.ttlTiers[ttl]; ok {
		return t
	}
	t = newTier(s.maxEntries, ttl, s.now)
	s.ttlTiers[ttl] = t
	s.logger.Debug("ttl tier created", zap.Duration("ttl", ttl))
	return t
}

// dropElsewhere removes key from every tier except keep.
func (s *Store) dropElsewhere(key string, keep *tier) {
	if s.permanent != keep {
		s.permanent.delete(key)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.ttlTiers {
		if t != keep {
			t.delete(key)
		}
	}
}

func (s *Store) recordHit() {
	s.statsMu.Lock()
	s.stats.Hits++
	s.statsMu.Unlock()
}

func (s *Store) recordMiss() {
	s.statsMu.Lock()
	s.stats.Misses++
	s.statsMu.Unlock()
}

func (s *Store) recordEviction() {
	s.statsMu.Lock()
	s.stats.Evictions++
	s.statsMu.Unlock()
}
