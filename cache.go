package issuecache

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
)

// DefaultCapacity is the number of files kept in memory when no capacity is
// configured.
const DefaultCapacity = 10_000

// LiveIssueCache keeps the most recently used per-file issue snapshots in
// memory and spills evicted ones to a Store.
//
// Every method takes the same exclusive lock, reads included, because reads
// reorder the recency list. Store calls run synchronously under that lock:
// a slow store stalls every caller until it returns.
type LiveIssueCache struct {
	mu       sync.Mutex
	entries  *lru[FileHandle, Issues]
	resolver KeyResolver
	store    Store
	logger   *slog.Logger
	stats    CacheStats
}

// CacheStats holds counters describing cache activity
type CacheStats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64 // entries dropped because the cache was over capacity
	Persisted uint64 // successful Store.Save calls
	Discarded uint64 // evicted entries dropped without persisting
}

type cacheOptions struct {
	capacity int
	logger   *slog.Logger
}

// Option is a functional option for LiveIssueCache
type Option func(*cacheOptions) error

// WithCapacity sets the maximum number of files held in memory
func WithCapacity(capacity int) Option {
	return func(o *cacheOptions) error {
		if capacity < 1 {
			return fmt.Errorf("capacity must be at least 1, got %d", capacity)
		}
		o.capacity = capacity
		return nil
	}
}

// WithLogger sets the logger used for persistence events
func WithLogger(logger *slog.Logger) Option {
	return func(o *cacheOptions) error {
		o.logger = logger
		return nil
	}
}

// New creates a cache that derives store keys with resolver and spills to
// store.
func New(resolver KeyResolver, store Store, opts ...Option) (*LiveIssueCache, error) {
	if resolver == nil {
		return nil, NewConfigError("key resolver is required", nil)
	}
	if store == nil {
		return nil, NewConfigError("store is required", nil)
	}

	o := cacheOptions{capacity: DefaultCapacity}
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, NewConfigError("invalid cache option", err)
		}
	}

	return &LiveIssueCache{
		entries:  newLRU[FileHandle, Issues](o.capacity),
		resolver: resolver,
		store:    store,
		logger:   ensureLogger(o.logger),
	}, nil
}

// ensureLogger creates a default logger if none is provided
func ensureLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}
	return logger
}

// GetLive returns the issues cached for h. A miss never falls back to the
// store.
func (c *LiveIssueCache) GetLive(h FileHandle) (Issues, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.getLocked(h)
}

func (c *LiveIssueCache) getLocked(h FileHandle) (Issues, bool) {
	issues, ok := c.entries.get(h)
	if ok {
		c.stats.Hits++
	} else {
		c.stats.Misses++
	}
	return issues, ok
}

// Contains reports whether h has a live entry. Like GetLive it marks the
// entry as most recently used.
func (c *LiveIssueCache) Contains(h FileHandle) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.getLocked(h)
	return ok
}

// Save replaces the issues cached for h with a snapshot of issues.
//
// If the cache is over capacity afterwards, least recently used entries are
// persisted and dropped. When persisting fails the error is returned, the
// snapshot for h stays stored and the victim stays in memory, leaving the
// cache above capacity until a later eviction succeeds.
func (c *LiveIssueCache) Save(h FileHandle, issues []Issue) error {
	if h == nil {
		return NewAnalysisError("cannot save issues", errNilHandle)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries.put(h, NewIssues(issues))

	for {
		victim, victimIssues, over := c.entries.overflow()
		if !over {
			return nil
		}
		if err := c.evictLocked(victim, victimIssues); err != nil {
			return err
		}
	}
}

// evictLocked persists victim if it can be addressed and removes it from
// memory only after that succeeded.
func (c *LiveIssueCache) evictLocked(victim FileHandle, issues Issues) error {
	key, ok := c.persistableKey(victim)
	if ok {
		c.logger.Debug("Persisting issues", "key", key, "count", issues.Len())
		if err := c.store.Save(key, issues); err != nil {
			c.logger.Error("Failed to persist evicted issues", "key", key, "error", err)
			return WithFile(NewStoreError(fmt.Sprintf("error persisting issues for %s", key), err), victim.Path())
		}
		c.stats.Persisted++
	} else {
		c.logger.Debug("Discarding evicted issues", "path", victim.Path())
		c.stats.Discarded++
	}

	c.entries.remove(victim)
	c.stats.Evictions++
	return nil
}

// persistableKey returns the store key for h when h is still valid and
// resolvable.
func (c *LiveIssueCache) persistableKey(h FileHandle) (string, bool) {
	if !h.IsValid() {
		return "", false
	}
	return c.resolver.ResolveKey(h)
}

// FlushAll writes every live entry with a valid, resolvable handle to the
// store. No entry is removed and recency is left untouched.
//
// The first store failure aborts the flush and is returned; entries visited
// before it have already been written.
func (c *LiveIssueCache) FlushAll() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.logger.Debug("Persisting all issues", "entries", c.entries.len())

	return c.entries.each(func(h FileHandle, issues Issues) error {
		key, ok := c.persistableKey(h)
		if !ok {
			return nil
		}
		if err := c.store.Save(key, issues); err != nil {
			return WithFile(NewStoreError("failed to flush cache", err), h.Path())
		}
		c.stats.Persisted++
		return nil
	})
}

// Clear empties the store and then the in-memory cache. If the store could
// not be cleared, memory is left as it was.
func (c *LiveIssueCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.ClearAll(); err != nil {
		return NewStoreError("failed to clear store", err)
	}
	c.entries.clear()
	c.logger.Info("Cleared all issues")
	return nil
}

// ClearFile drops the entry for h. The stored copy is cleared as well when a
// key can be derived for h; otherwise that step is skipped. The in-memory
// entry is removed even if clearing the store fails.
func (c *LiveIssueCache) ClearFile(h FileHandle) error {
	if h == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries.remove(h)

	key, ok := c.resolver.ResolveKey(h)
	if !ok {
		c.logger.Debug("Skipping store clear for unresolvable file", "path", h.Path())
		return nil
	}
	if err := c.store.Clear(key); err != nil {
		return WithFile(NewStoreError(fmt.Sprintf("failed to clear issues for %s", key), err), h.Path())
	}
	return nil
}

// Len returns the number of live entries.
func (c *LiveIssueCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.entries.len()
}

// Capacity returns the configured maximum number of live entries.
func (c *LiveIssueCache) Capacity() int {
	return c.entries.capacity
}

// Handles returns the live handles from least to most recently used without
// changing their order.
func (c *LiveIssueCache) Handles() []FileHandle {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.entries.keys()
}

// Stats returns a copy of the activity counters.
func (c *LiveIssueCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.stats
}

var errNilHandle = errors.New("nil file handle")
