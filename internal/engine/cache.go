package engine

import (
	"encoding/binary"
	"sync"
	"sync/atomic"

	"github.com/operator-framework/wfc/pkg/wfc"
)

// DefaultCacheSize bounds the number of memoized constraints.
const DefaultCacheSize = 4096

// ConstraintCache memoizes Rules.Constraint by direction and the set of
// labels possible at the source; source weights do not affect the
// result. Results are shared, so callers must not modify them. A cache
// may be shared between attempts, including concurrent ones, as long as
// they use the same rules.
type ConstraintCache struct {
	rules   wfc.Rules
	limit   int
	entries map[string]wfc.Domain
	mu      sync.RWMutex

	hits, misses atomic.Uint64
}

// NewConstraintCache returns a cache over rules holding at most limit
// entries. A limit of zero or less disables memoization.
func NewConstraintCache(rules wfc.Rules, limit int) *ConstraintCache {
	return &ConstraintCache{
		rules:   rules,
		limit:   limit,
		entries: make(map[string]wfc.Domain),
	}
}

// Rules returns the rules the cache was built over.
func (c *ConstraintCache) Rules() wfc.Rules {
	return c.rules
}

// Constraint returns the constraint that a vertex with domain from
// places on its neighbor in direction d.
func (c *ConstraintCache) Constraint(from wfc.Domain, d wfc.Direction) wfc.Domain {
	if c.limit <= 0 {
		return c.rules.Constraint(from, d)
	}

	key := constraintKey(from, d)
	c.mu.RLock()
	result, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
		return result
	}
	c.misses.Add(1)

	result = c.rules.Constraint(from, d)

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) < c.limit {
		c.entries[key] = result
	}
	return result
}

// Stats returns the number of cache hits and misses so far.
func (c *ConstraintCache) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

// constraintKey encodes d followed by a bitset of the labels possible
// in from.
func constraintKey(from wfc.Domain, d wfc.Direction) string {
	buf := make([]byte, 2, 2+(len(from)+7)/8)
	binary.LittleEndian.PutUint16(buf, uint16(d))
	var bits byte
	for i, w := range from {
		if w > 0 {
			bits |= 1 << (i % 8)
		}
		if i%8 == 7 {
			buf = append(buf, bits)
			bits = 0
		}
	}
	if len(from)%8 != 0 {
		buf = append(buf, bits)
	}
	return string(buf)
}
