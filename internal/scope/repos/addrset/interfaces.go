package addrset

// BloomFilter is the minimal interface the enumerated strategy needs from a Bloom filter.
// It is used as a definitely-not-present prefilter in front of the exact address set.
type BloomFilter interface {
	Add(key []byte)
	MightContain(key []byte) bool
}

// BloomFactory builds filters sized for a capacity and target false-positive rate.
type BloomFactory interface {
	New(capacity uint64, fpRate float64) BloomFilter
}

// matcher is one built, immutable view of the configured ranges.
type matcher interface {
	contains(addr uint32) bool
	// size is the number of ranges (cidr) or addresses (enumerated) held.
	size() int
}
