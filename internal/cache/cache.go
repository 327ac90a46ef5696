package cache

import (
	"context"
	"encoding/hex"
	"sync"
	"time"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/singleflight"

	"growthdash/pkg/contracts/domain"
)

// Eviction reasons passed to Options.OnEvict
const (
	EvictExpired  = "expired"
	EvictCapacity = "capacity"
	EvictRemoved  = "removed"
)

// LoadFunc parses workbook bytes into a dataset
type LoadFunc func(ctx context.Context, data []byte) (*domain.Dataset, error)

// Options configures a DatasetCache
type Options struct {
	TTL             time.Duration
	MaxEntries      int
	CleanupInterval time.Duration
	// OnEvict is called without the cache lock held
	OnEvict func(id, reason string)
}

// Entry is a cached dataset
type Entry struct {
	Dataset    *domain.Dataset
	CachedAt   time.Time
	ExpiresAt  time.Time
	LastAccess time.Time
	HitCount   int
}

// Stats is a snapshot of cache counters
type Stats struct {
	Entries    int     `json:"entries"`
	MaxEntries int     `json:"max_entries"`
	Hits       int64   `json:"hits"`
	Misses     int64   `json:"misses"`
	Evictions  int64   `json:"evictions"`
	HitRatio   float64 `json:"hit_ratio"`
	TTLSeconds float64 `json:"ttl_seconds"`
}

// DatasetCache memoizes workbook loads by the BLAKE2b-256 hash of the uploaded
// bytes. Concurrent loads of the same content share one parse.
type DatasetCache struct {
	entries   map[string]*Entry
	mutex     sync.RWMutex
	ttl       time.Duration
	maxSize   int
	hitCount  int64
	missCount int64
	evictions int64
	group     singleflight.Group
	onEvict   func(id, reason string)
	now       func() time.Time
	stopChan  chan struct{}
	stopOnce  sync.Once
}

// Key returns the content address of data
func Key(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// New creates a dataset cache. A positive CleanupInterval starts a background
// sweep of expired entries that runs until Stop.
func New(opts Options) *DatasetCache {
	c := &DatasetCache{
		entries:  make(map[string]*Entry),
		ttl:      opts.TTL,
		maxSize:  opts.MaxEntries,
		onEvict:  opts.OnEvict,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}

	if opts.CleanupInterval > 0 {
		go c.cleanup(opts.CleanupInterval)
	}

	return c
}

// GetOrLoad returns the dataset for data, loading and caching it on a miss.
// The boolean reports a cache hit. Failed loads are not cached.
func (c *DatasetCache) GetOrLoad(ctx context.Context, data []byte, load LoadFunc) (*domain.Dataset, bool, error) {
	id := Key(data)
	if ds, ok := c.Get(id); ok {
		return ds, true, nil
	}

	v, err, _ := c.group.Do(id, func() (interface{}, error) {
		if ds, ok := c.peek(id); ok {
			return ds, nil
		}

		ds, err := load(ctx, data)
		if err != nil {
			return nil, err
		}
		ds.ID = id
		ds.SizeBytes = int64(len(data))
		ds.LoadedAt = c.now()

		c.store(id, ds)
		return ds, nil
	})
	if err != nil {
		return nil, false, err
	}

	return v.(*domain.Dataset), false, nil
}

// Get retrieves a dataset by ID
func (c *DatasetCache) Get(id string) (*domain.Dataset, bool) {
	c.mutex.Lock()
	entry, exists := c.entries[id]
	if !exists {
		c.missCount++
		c.mutex.Unlock()
		return nil, false
	}

	now := c.now()
	if now.After(entry.ExpiresAt) {
		delete(c.entries, id)
		c.missCount++
		c.evictions++
		c.mutex.Unlock()
		c.notify(id, EvictExpired)
		return nil, false
	}

	entry.HitCount++
	entry.LastAccess = now
	c.hitCount++
	c.mutex.Unlock()

	return entry.Dataset, true
}

// peek looks up a live entry without touching counters
func (c *DatasetCache) peek(id string) (*domain.Dataset, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, exists := c.entries[id]
	if !exists || c.now().After(entry.ExpiresAt) {
		return nil, false
	}
	return entry.Dataset, true
}

func (c *DatasetCache) store(id string, ds *domain.Dataset) {
	c.mutex.Lock()

	if c.maxSize <= 0 {
		c.mutex.Unlock()
		return
	}

	var evicted string
	if _, exists := c.entries[id]; !exists && len(c.entries) >= c.maxSize {
		evicted = c.evictLeastRecent()
	}

	now := c.now()
	c.entries[id] = &Entry{
		Dataset:    ds,
		CachedAt:   now,
		ExpiresAt:  now.Add(c.ttl),
		LastAccess: now,
	}
	c.mutex.Unlock()

	if evicted != "" {
		c.notify(evicted, EvictCapacity)
	}
}

// Remove evicts a dataset. It reports whether the dataset was cached.
func (c *DatasetCache) Remove(id string) bool {
	c.mutex.Lock()
	_, exists := c.entries[id]
	if exists {
		delete(c.entries, id)
		c.evictions++
	}
	c.mutex.Unlock()

	if exists {
		c.notify(id, EvictRemoved)
	}
	return exists
}

// Stats returns cache statistics
func (c *DatasetCache) Stats() Stats {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	total := c.hitCount + c.missCount
	ratio := float64(0)
	if total > 0 {
		ratio = float64(c.hitCount) / float64(total)
	}

	return Stats{
		Entries:    len(c.entries),
		MaxEntries: c.maxSize,
		Hits:       c.hitCount,
		Misses:     c.missCount,
		Evictions:  c.evictions,
		HitRatio:   ratio,
		TTLSeconds: c.ttl.Seconds(),
	}
}

// evictLeastRecent drops the entry accessed longest ago. Caller holds the lock.
func (c *DatasetCache) evictLeastRecent() string {
	var oldestKey string
	var oldestTime time.Time

	for key, entry := range c.entries {
		if oldestKey == "" || entry.LastAccess.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.LastAccess
		}
	}

	if oldestKey != "" {
		delete(c.entries, oldestKey)
		c.evictions++
	}
	return oldestKey
}

// Sweep removes expired entries and returns how many were removed
func (c *DatasetCache) Sweep() int {
	c.mutex.Lock()
	now := c.now()
	var expired []string
	for key, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			delete(c.entries, key)
			expired = append(expired, key)
		}
	}
	c.evictions += int64(len(expired))
	c.mutex.Unlock()

	for _, key := range expired {
		c.notify(key, EvictExpired)
	}
	return len(expired)
}

// Stop gracefully stops the cleanup goroutine
func (c *DatasetCache) Stop() {
	c.stopOnce.Do(func() { close(c.stopChan) })
}

func (c *DatasetCache) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Sweep()
		case <-c.stopChan:
			return
		}
	}
}

func (c *DatasetCache) notify(id, reason string) {
	if c.onEvict != nil {
		c.onEvict(id, reason)
	}
}
