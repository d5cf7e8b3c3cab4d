// Package cache implements the in-process statistic cache: a generic TTL
// store with per-kind shards, LRU eviction under capacity pressure, and a
// background sweep that removes expired entries.
//
// Each named kind ("student-average", "subject-average", ...) gets its own
// shard with its own lock, so one kind's traffic never blocks another's.
// An entry moves ABSENT -> PRESENT on put, becomes observably EXPIRED once
// its TTL elapses (reads treat it as absent but leave removal to the sweep),
// and returns to ABSENT on sweep or explicit invalidation.
package cache

import (
	"container/list"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Default tuning values.
const (
	DefaultTTL            = 5 * time.Minute
	DefaultCapacity       = 1024
	DefaultHighWaterRatio = 0.8
)

// Config holds cache tuning parameters.
type Config struct {
	// TTL is the time after which an entry is considered stale.
	TTL time.Duration

	// Capacity is the total tracked entry count across all kinds. Eviction on
	// insert trims only the written kind's LRU tail, so when that kind is
	// near-empty the global count can overshoot Capacity by up to the number
	// of kinds until the sweeper catches up.
	Capacity int

	// HighWaterRatio is the fill fraction at which a put triggers a
	// synchronous expired-entry sweep before inserting. This is soft
	// backpressure, not an admission gate.
	HighWaterRatio float64

	// SweepInterval is the background sweep period. Zero means TTL/2.
	SweepInterval time.Duration

	// Logger for sweep diagnostics.
	Logger *slog.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		TTL:            DefaultTTL,
		Capacity:       DefaultCapacity,
		HighWaterRatio: DefaultHighWaterRatio,
	}
}

// Stats is a snapshot of the cache counters. Reading it never mutates them.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Entries   map[string]int // per-kind tracked entry count, expired included
}

// entry is one cached value with its bookkeeping.
type entry[V any] struct {
	key       string
	value     V
	createdAt time.Time
	accesses  int64
}

// shard holds one kind's entries. Each shard is locked independently.
type shard[V any] struct {
	mu    sync.Mutex
	byKey map[string]*list.Element
	lru   *list.List // front = most recently used
}

func newShard[V any]() *shard[V] {
	return &shard[V]{
		byKey: make(map[string]*list.Element),
		lru:   list.New(),
	}
}

// Cache is a TTL+LRU cache shared across named statistic kinds.
type Cache[V any] struct {
	cfg Config

	mu     sync.RWMutex // guards the shards map only
	shards map[string]*shard[V]

	size      atomic.Int64
	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64

	sweepMu      sync.Mutex
	sweepStop    chan struct{}
	sweepRunning bool
	wg           sync.WaitGroup
}

// New creates a cache with the given configuration.
func New[V any](cfg Config) *Cache[V] {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}
	if cfg.HighWaterRatio <= 0 || cfg.HighWaterRatio > 1 {
		cfg.HighWaterRatio = DefaultHighWaterRatio
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = cfg.TTL / 2
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Cache[V]{
		cfg:    cfg,
		shards: make(map[string]*shard[V]),
	}
}

// shardFor returns the shard for a kind, creating it on first use.
func (c *Cache[V]) shardFor(kind string) *shard[V] {
	c.mu.RLock()
	s, ok := c.shards[kind]
	c.mu.RUnlock()
	if ok {
		return s
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok = c.shards[kind]; ok {
		return s
	}
	s = newShard[V]()
	c.shards[kind] = s
	return s
}

// snapshot returns the current shards for lock-free iteration. The slice is a
// copy; shards themselves are locked individually as they are visited.
func (c *Cache[V]) snapshot() []*shard[V] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*shard[V], 0, len(c.shards))
	for _, s := range c.shards {
		out = append(out, s)
	}
	return out
}

// Get returns the cached value if present and fresh. An expired entry counts
// as a miss and is left in place; removal is the sweep's job, keeping the
// read path to a single shard lock.
func (c *Cache[V]) Get(kind, key string) (V, bool) {
	var zero V

	s := c.shardFor(kind)
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.byKey[key]
	if !ok {
		c.misses.Add(1)
		return zero, false
	}

	e := el.Value.(*entry[V])
	if time.Since(e.createdAt) >= c.cfg.TTL {
		c.misses.Add(1)
		return zero, false
	}

	e.accesses++
	s.lru.MoveToFront(el)
	c.hits.Add(1)
	return e.value, true
}

// Put inserts or overwrites an entry. At or above the high-water mark it
// first runs a synchronous expired-entry sweep; if the cache is still full
// afterwards, the target shard's least-recently-used entry is evicted.
func (c *Cache[V]) Put(kind, key string, value V) {
	if int(c.size.Load()) >= c.highWater() {
		c.sweepExpired()
	}

	s := c.shardFor(kind)
	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.byKey[key]; ok {
		e := el.Value.(*entry[V])
		e.value = value
		e.createdAt = time.Now()
		s.lru.MoveToFront(el)
		return
	}

	if int(c.size.Load()) >= c.cfg.Capacity {
		c.evictOldestLocked(s)
	}

	el := s.lru.PushFront(&entry[V]{
		key:       key,
		value:     value,
		createdAt: time.Now(),
	})
	s.byKey[key] = el
	c.size.Add(1)
}

// Invalidate removes all entries for a key across every kind. Used whenever
// the underlying record state for that key changes.
func (c *Cache[V]) Invalidate(key string) {
	for _, s := range c.snapshot() {
		s.mu.Lock()
		if el, ok := s.byKey[key]; ok {
			s.lru.Remove(el)
			delete(s.byKey, key)
			c.size.Add(-1)
		}
		s.mu.Unlock()
	}
}

// InvalidateAll clears every kind. Used on bulk mutation.
func (c *Cache[V]) InvalidateAll() {
	for _, s := range c.snapshot() {
		s.mu.Lock()
		removed := len(s.byKey)
		s.byKey = make(map[string]*list.Element)
		s.lru.Init()
		s.mu.Unlock()
		c.size.Add(int64(-removed))
	}
}

// Stats returns a snapshot of the counters and per-kind sizes.
func (c *Cache[V]) Stats() Stats {
	st := Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Entries:   make(map[string]int),
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	for kind, s := range c.shards {
		s.mu.Lock()
		st.Entries[kind] = len(s.byKey)
		s.mu.Unlock()
	}
	return st
}

// StartSweeper launches the background sweep goroutine. The sweep is the only
// path that performs unbounded shrink; it runs every SweepInterval and holds
// each shard lock only long enough to scan that shard.
func (c *Cache[V]) StartSweeper() {
	c.sweepMu.Lock()
	defer c.sweepMu.Unlock()
	if c.sweepRunning {
		return
	}
	c.sweepRunning = true
	c.sweepStop = make(chan struct{})

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.cfg.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-c.sweepStop:
				return
			case <-ticker.C:
				removed := c.sweepExpired()
				if removed > 0 {
					c.cfg.Logger.Debug("cache sweep completed",
						"removed", removed,
						"size", c.size.Load(),
					)
				}
			}
		}
	}()
}

// StopSweeper stops the background sweep and waits for it to exit. Counters
// already committed are retained.
func (c *Cache[V]) StopSweeper() {
	c.sweepMu.Lock()
	if !c.sweepRunning {
		c.sweepMu.Unlock()
		return
	}
	c.sweepRunning = false
	close(c.sweepStop)
	c.sweepMu.Unlock()

	c.wg.Wait()
}

// sweepExpired removes every expired entry across all kinds and bumps the
// eviction counter. Returns the number of entries removed.
func (c *Cache[V]) sweepExpired() int {
	removed := 0
	for _, s := range c.snapshot() {
		s.mu.Lock()
		for key, el := range s.byKey {
			e := el.Value.(*entry[V])
			if time.Since(e.createdAt) >= c.cfg.TTL {
				s.lru.Remove(el)
				delete(s.byKey, key)
				c.size.Add(-1)
				c.evictions.Add(1)
				removed++
			}
		}
		s.mu.Unlock()
	}
	return removed
}

// evictOldestLocked drops the shard's LRU tail. Caller holds the shard lock.
func (c *Cache[V]) evictOldestLocked(s *shard[V]) {
	el := s.lru.Back()
	if el == nil {
		return
	}
	e := el.Value.(*entry[V])
	s.lru.Remove(el)
	delete(s.byKey, e.key)
	c.size.Add(-1)
	c.evictions.Add(1)
}

func (c *Cache[V]) highWater() int {
	return int(float64(c.cfg.Capacity) * c.cfg.HighWaterRatio)
}
