// Package resultcache memoizes per-position analysis results so redundant
// requests never reach the analysis server.
package resultcache

import (
	"strings"
	"sync"
	"time"

	"github.com/a793181018/omnisharp-intellij/src/omnisharp/internal/clock"
	"github.com/a793181018/omnisharp-intellij/src/omnisharp/internal/errors"
	"github.com/a793181018/omnisharp-intellij/src/omnisharp/model"
	tally "github.com/uber-go/tally/v4"
	"go.lsp.dev/uri"
	"go.uber.org/atomic"
	"go.uber.org/config"
	"go.uber.org/fx"
)

const (
	_configKeyDefaultTTL = "cache.defaultTTLSeconds"

	_defaultTTL = 60 * time.Second
)

// Module is the Fx module for this package.
var Module = fx.Provide(NewCache)

// Key identifies one cached result. Fingerprint is caller-supplied and must
// cover enough of the request's input state that two textually different
// edits at the same position never collide.
type Key struct {
	File        uri.URI
	Line        int
	Column      int
	Fingerprint string
}

// valid reports whether the key can ever name an entry. The zero key is
// guaranteed absent.
func (k Key) valid() bool {
	return k.File != ""
}

// inScope reports whether the key's file falls under a path-prefix scope.
func (k Key) inScope(scope string) bool {
	return strings.HasPrefix(k.File.Filename(), scope)
}

// Cache is a per-workspace memoization store with per-entry expiration and
// hit-rate accounting. Safe for concurrent readers and writers; a get/put
// race on the same key is last-write-wins.
type Cache interface {
	// Get returns the value only while present and unexpired. Every call
	// counts as a lookup; only a returned value counts as a hit. Never
	// errors, including for the zero key.
	Get(key Key) (interface{}, bool)
	// Put stores value under key with the default TTL.
	Put(key Key, value interface{}) error
	// PutTTL stores value under key, expiring ttl from now.
	PutTTL(key Key, value interface{}, ttl time.Duration) error
	// Remove drops the entry for key, if any.
	Remove(key Key)
	// Clear drops every entry and resets the hit/lookup counters.
	Clear()
	// ClearScope drops only entries whose file path falls under scope.
	ClearScope(scope string)
	// ClearExpired physically removes every entry whose expiration has
	// passed, using the same clock and comparison as the lazy path in Get.
	ClearExpired()
	// Size returns the count of unexpired entries.
	Size() int
	// SizeScope returns the count of unexpired entries under scope.
	SizeScope(scope string) int
	// Hits and Lookups expose the accounting counters.
	Hits() uint64
	Lookups() uint64
	// HitRate returns hits/lookups, or 0 when there have been no lookups.
	HitRate() float64
}

type cache struct {
	mu      sync.RWMutex
	entries map[Key]model.CacheEntry

	defaultTTL time.Duration
	clock      clock.Clock

	hits    atomic.Uint64
	lookups atomic.Uint64
	stats   tally.Scope
}

// Params are inbound parameters to construct a Cache.
type Params struct {
	fx.In

	Config config.Provider
	Stats  tally.Scope
	Clock  clock.Clock
}

// NewCache returns a Cache configured from the cache config block.
func NewCache(p Params) (Cache, error) {
	var ttlSeconds int
	if err := p.Config.Get(_configKeyDefaultTTL).Populate(&ttlSeconds); err != nil {
		return nil, err
	}
	ttl := _defaultTTL
	if ttlSeconds > 0 {
		ttl = time.Duration(ttlSeconds) * time.Second
	}
	return New(ttl, p.Clock, p.Stats), nil
}

// New returns a Cache with the given default TTL.
func New(defaultTTL time.Duration, clk clock.Clock, stats tally.Scope) Cache {
	return &cache{
		entries:    make(map[Key]model.CacheEntry),
		defaultTTL: defaultTTL,
		clock:      clk,
		stats:      stats,
	}
}

func (c *cache) Get(key Key) (interface{}, bool) {
	c.lookups.Inc()
	c.stats.Counter("cache_lookups").Inc(1)

	if !key.valid() {
		return nil, false
	}

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || entry.Expired(c.clock.Now()) {
		return nil, false
	}

	c.hits.Inc()
	c.stats.Counter("cache_hits").Inc(1)
	return entry.Value, true
}

func (c *cache) Put(key Key, value interface{}) error {
	return c.PutTTL(key, value, c.defaultTTL)
}

func (c *cache) PutTTL(key Key, value interface{}, ttl time.Duration) error {
	if ttl <= 0 {
		return &errors.InvalidTTLError{TTL: ttl}
	}
	if !key.valid() {
		return nil
	}

	now := c.clock.Now()
	c.mu.Lock()
	c.entries[key] = model.CacheEntry{
		Value:     value,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	c.stats.Gauge("cache_entries").Update(float64(len(c.entries)))
	c.mu.Unlock()
	return nil
}

func (c *cache) Remove(key Key) {
	c.mu.Lock()
	delete(c.entries, key)
	c.stats.Gauge("cache_entries").Update(float64(len(c.entries)))
	c.mu.Unlock()
}

func (c *cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[Key]model.CacheEntry)
	c.hits.Store(0)
	c.lookups.Store(0)
	c.stats.Gauge("cache_entries").Update(0)
	c.mu.Unlock()
}

func (c *cache) ClearScope(scope string) {
	c.mu.Lock()
	for key := range c.entries {
		if key.inScope(scope) {
			delete(c.entries, key)
		}
	}
	c.stats.Gauge("cache_entries").Update(float64(len(c.entries)))
	c.mu.Unlock()
}

func (c *cache) ClearExpired() {
	now := c.clock.Now()
	c.mu.Lock()
	for key, entry := range c.entries {
		if entry.Expired(now) {
			delete(c.entries, key)
		}
	}
	c.stats.Gauge("cache_entries").Update(float64(len(c.entries)))
	c.mu.Unlock()
}

func (c *cache) Size() int {
	return c.count(func(Key) bool { return true })
}

func (c *cache) SizeScope(scope string) int {
	return c.count(func(k Key) bool { return k.inScope(scope) })
}

func (c *cache) count(match func(Key) bool) int {
	now := c.clock.Now()
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for key, entry := range c.entries {
		if match(key) && !entry.Expired(now) {
			n++
		}
	}
	return n
}

func (c *cache) Hits() uint64 {
	return c.hits.Load()
}

func (c *cache) Lookups() uint64 {
	return c.lookups.Load()
}

func (c *cache) HitRate() float64 {
	lookups := c.lookups.Load()
	if lookups == 0 {
		return 0
	}
	return float64(c.hits.Load()) / float64(lookups)
}
