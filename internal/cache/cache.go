package cache

import (
	"container/list"
	"encoding/json"
	"sync"
	"time"

	"github.com/ShayCichocki/maestro/pkg/models"
)

// Default capacity limits, applied when an Options field is zero.
const (
	DefaultTTL      = time.Hour
	DefaultMaxItems = 1024
	DefaultMaxBytes = 64 << 20 // 64 MiB
)

// Options configures a Cache.
type Options struct {
	// TTL is how long an entry stays valid after insertion.
	TTL time.Duration
	// MaxItems bounds the number of entries.
	MaxItems int
	// MaxBytes bounds the estimated memory footprint of stored results.
	MaxBytes int64
}

// entry is a single cached result plus its bookkeeping.
type entry struct {
	key      string
	result   *models.TaskResult
	size     int64
	storedAt time.Time
}

// Cache is a TTL-expiring, LRU-evicting memo of completed task results.
//
// It is the only state shared across concurrent workers within a run, so
// all access is serialized internally. Concurrent writers for the same
// fingerprint are last-writer-wins.
type Cache struct {
	mu sync.Mutex
	// order holds entries most-recently-used first.
	order *list.List
	// index maps fingerprint to its list element.
	index map[string]*list.Element
	// bytes is the current estimated footprint.
	bytes int64
	opts  Options

	// now is the clock, overridable in tests.
	now func() time.Time
}

// New creates a Cache with the given options, filling in defaults for any
// zero field.
func New(opts Options) *Cache {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.MaxItems <= 0 {
		opts.MaxItems = DefaultMaxItems
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	return &Cache{
		order: list.New(),
		index: make(map[string]*list.Element),
		opts:  opts,
		now:   time.Now,
	}
}

// Get returns the cached result for the fingerprint, if present and fresh.
// A hit promotes the entry to most-recently-used. A stale entry is removed
// as a side effect and reported as absent.
func (c *Cache) Get(fingerprint string) (*models.TaskResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.index[fingerprint]
	if !ok {
		return nil, false
	}

	ent := elem.Value.(*entry)
	if c.now().Sub(ent.storedAt) >= c.opts.TTL {
		c.removeLocked(elem)
		return nil, false
	}

	c.order.MoveToFront(elem)
	return ent.result, true
}

// Set stores a result under the fingerprint, overwriting any existing
// entry, then evicts least-recently-used entries until both the item-count
// and memory bounds hold.
func (c *Cache) Set(fingerprint string, result *models.TaskResult) {
	size := estimateSize(fingerprint, result)

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.index[fingerprint]; ok {
		c.removeLocked(elem)
	}

	ent := &entry{
		key:      fingerprint,
		result:   result,
		size:     size,
		storedAt: c.now(),
	}
	c.index[fingerprint] = c.order.PushFront(ent)
	c.bytes += size

	for c.order.Len() > c.opts.MaxItems || c.bytes > c.opts.MaxBytes {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.removeLocked(oldest)
	}
}

// Resize applies new capacity limits, filling in defaults for any zero
// field, then evicts least-recently-used entries until the new bounds hold.
// Existing entries keep their insertion times, so a shortened TTL takes
// effect on their next lookup.
func (c *Cache) Resize(opts Options) {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.MaxItems <= 0 {
		opts.MaxItems = DefaultMaxItems
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.opts = opts
	for c.order.Len() > c.opts.MaxItems || c.bytes > c.opts.MaxBytes {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.removeLocked(oldest)
	}
}

// Len returns the current number of entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Bytes returns the current estimated memory footprint.
func (c *Cache) Bytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bytes
}

// Contains reports whether a fresh entry exists without promoting it.
func (c *Cache) Contains(fingerprint string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.index[fingerprint]
	if !ok {
		return false
	}
	return c.now().Sub(elem.Value.(*entry).storedAt) < c.opts.TTL
}

// removeLocked drops an entry. Caller must hold c.mu.
func (c *Cache) removeLocked(elem *list.Element) {
	ent := elem.Value.(*entry)
	c.order.Remove(elem)
	delete(c.index, ent.key)
	c.bytes -= ent.size
}

// estimateSize approximates an entry's footprint as the key length plus the
// JSON-encoded result length.
func estimateSize(key string, result *models.TaskResult) int64 {
	size := int64(len(key))
	if encoded, err := json.Marshal(result); err == nil {
		size += int64(len(encoded))
	}
	return size
}
