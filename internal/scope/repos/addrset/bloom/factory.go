// Package bloom adapts bits-and-blooms Bloom filters to the addrset prefilter interfaces.
package bloom

import (
	bitsbloom "github.com/bits-and-blooms/bloom/v3"

	"github.com/haukened/rr-scope/internal/scope/repos/addrset"
)

// factory implements addrset.BloomFactory using the sizing formulas in sizer.go.
type factory struct{}

// NewFactory returns a BloomFactory that sizes filters from capacity and FP rate.
func NewFactory() addrset.BloomFactory { return factory{} }

// New constructs a filter sized for capacity keys at the target false-positive rate.
func (factory) New(capacity uint64, fpRate float64) addrset.BloomFilter {
	m, k := sizer{}.Size(capacity, fpRate)
	return &filter{bf: bitsbloom.New(uint(m), uint(k))}
}
