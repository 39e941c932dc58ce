// Package hostcache remembers resolved host addresses so address-gated rules can
// evaluate URLs whose candidate carries no address of its own.
package hostcache

import (
	"net/netip"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/haukened/rr-scope/internal/scope/common/clock"
	"github.com/haukened/rr-scope/internal/scope/common/utils"
)

// DefaultTTL is used by Put when ttl <= 0.
const DefaultTTL = 6 * time.Hour

// Stats reports lightweight cache metrics.
// All fields are best-effort snapshots and may be updated concurrently.
type Stats struct {
	Capacity  int    // configured capacity (0 for disabled cache)
	Size      int    // current number of entries
	Hits      uint64 // lookups answered from the cache
	Misses    uint64 // lookups with no live entry
	Evictions uint64 // entries pushed out by capacity or purge
}

// Cache maps canonical host names to their last resolved address.
type Cache interface {
	AddressFor(host string) (netip.Addr, error)
	Put(host string, addr netip.Addr, ttl time.Duration)
	Len() int
	Purge()
	Stats() Stats
}

type entry struct {
	addr    netip.Addr
	expires time.Time
}

// hostCache is an LRU-backed Cache with per-entry expiry.
type hostCache struct {
	lru       *lru.Cache[string, entry]
	clk       clock.Clock
	capacity  int
	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// disabledCache is a no-op Cache used when size <= 0.
type disabledCache struct{}

// New creates a Cache with the given capacity. If size <= 0, a disabled cache is
// returned that stores nothing and always misses. A nil clk uses wall time.
func New(size int, clk clock.Clock) (Cache, error) {
	if size <= 0 {
		return &disabledCache{}, nil
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	hc := &hostCache{clk: clk, capacity: size}
	// NewWithEvict observes evictions, including Purge-induced ones.
	cache, err := lru.NewWithEvict(size, func(string, entry) {
		hc.evictions.Add(1)
	})
	if err != nil {
		return nil, err
	}
	hc.lru = cache
	return hc, nil
}

// AddressFor returns the cached address for host. A miss or an expired entry
// yields the zero Addr and a nil error: the address is simply unknown.
func (c *hostCache) AddressFor(host string) (netip.Addr, error) {
	key := utils.CanonicalHost(host)
	if e, ok := c.lru.Get(key); ok {
		if c.clk.Now().Before(e.expires) {
			c.hits.Add(1)
			return e.addr, nil
		}
		c.lru.Remove(key)
	}
	c.misses.Add(1)
	return netip.Addr{}, nil
}

// Put records addr for host. Invalid addresses and empty hosts are ignored.
func (c *hostCache) Put(host string, addr netip.Addr, ttl time.Duration) {
	key := utils.CanonicalHost(host)
	if key == "" || !addr.IsValid() {
		return
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c.lru.Add(key, entry{addr: addr, expires: c.clk.Now().Add(ttl)})
}

// Len returns the number of entries, expired ones included until they are looked up.
func (c *hostCache) Len() int { return c.lru.Len() }

// Purge clears all entries. Evictions are counted via the eviction callback.
func (c *hostCache) Purge() { c.lru.Purge() }

func (c *hostCache) Stats() Stats {
	return Stats{
		Capacity:  c.capacity,
		Size:      c.lru.Len(),
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}

// disabledCache implementation

func (d *disabledCache) AddressFor(string) (netip.Addr, error) { return netip.Addr{}, nil }

func (d *disabledCache) Put(string, netip.Addr, time.Duration) {}

func (d *disabledCache) Len() int { return 0 }

func (d *disabledCache) Purge() {}

func (d *disabledCache) Stats() Stats { return Stats{} }

var _ Cache = (*hostCache)(nil)
var _ Cache = (*disabledCache)(nil)
