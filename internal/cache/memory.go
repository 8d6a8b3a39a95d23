package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	writtenAt time.Time
}

type MemoryConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration

	// Now replaces time.Now, for tests.
	Now func() time.Time
	// OnEvict is called outside the lock after stale entries are removed.
	OnEvict func(path EvictionPath, removed, remaining int)
	// DisableSweepLoop skips the background goroutine; Sweep can still be called directly.
	DisableSweepLoop bool
}

type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]memoryEntry

	ttl           time.Duration
	sweepInterval time.Duration
	now           func() time.Time
	onEvict       func(path EvictionPath, removed, remaining int)

	stopSweep chan struct{}
	sweepDone chan struct{}
	closeOnce sync.Once
}

// NewMemoryStore creates an unbounded in-process cache.
// Non-positive TTL or sweep interval fall back to the package defaults.
func NewMemoryStore(cfg MemoryConfig) *MemoryStore {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultSweepInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	c := &MemoryStore{
		items:         make(map[string]memoryEntry),
		ttl:           cfg.TTL,
		sweepInterval: cfg.SweepInterval,
		now:           cfg.Now,
		onEvict:       cfg.OnEvict,
		stopSweep:     make(chan struct{}),
		sweepDone:     make(chan struct{}),
	}

	if cfg.DisableSweepLoop {
		close(c.sweepDone)
	} else {
		go c.sweepLoop()
	}

	return c
}

// TTL returns the lifetime applied to every entry.
func (c *MemoryStore) TTL() time.Duration { return c.ttl }

// SweepInterval returns the period of the background sweep.
func (c *MemoryStore) SweepInterval() time.Duration { return c.sweepInterval }

func (c *MemoryStore) stale(e memoryEntry, now time.Time) bool {
	return now.Sub(e.writtenAt) >= c.ttl
}

// Get returns the value for key. A stale entry is deleted and reported as a miss.
func (c *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	entry, ok := c.items[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}

	now := c.now()
	if !c.stale(entry, now) {
		out := make([]byte, len(entry.value))
		copy(out, entry.value)
		return out, true, nil
	}

	removed := 0
	c.mu.Lock()
	// A concurrent Set may have replaced the entry since the read lock was released.
	if e, exists := c.items[key]; exists && c.stale(e, now) {
		delete(c.items, key)
		removed = 1
	}
	remaining := len(c.items)
	c.mu.Unlock()

	if removed > 0 && c.onEvict != nil {
		c.onEvict(EvictionLazy, removed, remaining)
	}
	return nil, false, nil
}

// Set stores value under key, replacing any previous entry.
func (c *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)

	entry := memoryEntry{value: valueCopy, writtenAt: c.now()}

	c.mu.Lock()
	c.items[key] = entry
	c.mu.Unlock()

	return nil
}

// Sweep deletes every stale entry and returns how many were removed.
func (c *MemoryStore) Sweep() int {
	now := c.now()

	c.mu.Lock()
	removed := 0
	for k, v := range c.items {
		if c.stale(v, now) {
			delete(c.items, k)
			removed++
		}
	}
	remaining := len(c.items)
	c.mu.Unlock()

	if c.onEvict != nil {
		c.onEvict(EvictionSweep, removed, remaining)
	}
	return removed
}

func (c *MemoryStore) sweepLoop() {
	defer close(c.sweepDone)

	ticker := time.NewTicker(c.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Sweep()
		case <-c.stopSweep:
			return
		}
	}
}

// Close stops the sweep goroutine and waits for it to exit.
func (c *MemoryStore) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopSweep)
	})
	<-c.sweepDone
	return nil
}

// Len returns the number of entries currently held, stale or not.
func (c *MemoryStore) Len(_ context.Context) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items), nil
}

// Clear removes all entries.
func (c *MemoryStore) Clear() {
	c.mu.Lock()
	c.items = make(map[string]memoryEntry)
	c.mu.Unlock()
}
