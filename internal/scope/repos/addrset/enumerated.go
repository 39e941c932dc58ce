package addrset

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// DefaultMaxEnumerated caps how many addresses the enumerated strategy will expand
// across all entries (a /16 worth). Larger ranges belong to the cidr strategy.
const DefaultMaxEnumerated = 1 << 16

// defaultFPRate is the bloom prefilter's target false-positive rate.
const defaultFPRate = 0.01

// ErrExpansionLimit is returned for an entry whose expansion would exceed the remaining budget.
var ErrExpansionLimit = errors.New("address range expansion exceeds limit")

// enumeratedMatcher is the expanded-set strategy with an optional bloom prefilter.
type enumeratedMatcher struct {
	addrs map[uint32]struct{}
	bloom BloomFilter
}

func (m *enumeratedMatcher) contains(addr uint32) bool {
	if m.bloom != nil && !m.bloom.MightContain(bloomKey(addr)) {
		return false
	}
	_, ok := m.addrs[addr]
	return ok
}

func (m *enumeratedMatcher) size() int { return len(m.addrs) }

// expander accumulates addresses under a global budget.
type expander struct {
	limit uint64
	addrs map[uint32]struct{}
}

func newExpander(limit int) *expander {
	if limit <= 0 {
		limit = DefaultMaxEnumerated
	}
	return &expander{limit: uint64(limit), addrs: make(map[uint32]struct{})}
}

// add expands r into the set. The whole entry is refused when it does not fit,
// counting only addresses not already present.
func (e *expander) add(r ipRange) error {
	n := r.count()
	if n > e.limit {
		return fmt.Errorf("%w: %d addresses, limit %d", ErrExpansionLimit, n, e.limit)
	}
	fresh := uint64(0)
	for i := uint64(0); i < n; i++ {
		if _, ok := e.addrs[r.network+uint32(i)]; !ok {
			fresh++
		}
	}
	if uint64(len(e.addrs))+fresh > e.limit {
		return fmt.Errorf("%w: %d new addresses, %d of %d used", ErrExpansionLimit, fresh, len(e.addrs), e.limit)
	}
	for i := uint64(0); i < n; i++ {
		e.addrs[r.network+uint32(i)] = struct{}{}
	}
	return nil
}

func (e *expander) matcher(factory BloomFactory, fpRate float64) *enumeratedMatcher {
	m := &enumeratedMatcher{addrs: e.addrs}
	if factory != nil && len(e.addrs) > 0 {
		bf := factory.New(uint64(len(e.addrs)), fpRate)
		for a := range e.addrs {
			bf.Add(bloomKey(a))
		}
		m.bloom = bf
	}
	return m
}

func bloomKey(addr uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], addr)
	return b[:]
}
