package addrset

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"
)

var (
	// ErrMalformedEntry is returned for entries that are neither an IPv4 address nor an IPv4 CIDR.
	ErrMalformedEntry = errors.New("malformed address range")
	// ErrNotIPv4 is returned for well-formed IPv6 entries, which this set does not serve.
	ErrNotIPv4 = errors.New("address range is not IPv4")
)

// ipRange is an IPv4 network in integer form.
type ipRange struct {
	network uint32
	mask    uint32
	bits    int
}

// parseRange parses "a.b.c.d/n" or a bare "a.b.c.d" (treated as /32).
// Host bits set in the address are masked off, so "10.0.0.7/24" is 10.0.0.0/24.
func parseRange(entry string) (ipRange, error) {
	entry = strings.TrimSpace(entry)
	var (
		addr netip.Addr
		bits = 32
	)
	if strings.Contains(entry, "/") {
		p, err := netip.ParsePrefix(entry)
		if err != nil {
			return ipRange{}, fmt.Errorf("%w: %q: %v", ErrMalformedEntry, entry, err)
		}
		addr, bits = p.Addr(), p.Bits()
	} else {
		a, err := netip.ParseAddr(entry)
		if err != nil {
			return ipRange{}, fmt.Errorf("%w: %q: %v", ErrMalformedEntry, entry, err)
		}
		addr = a
	}
	if !addr.Is4() {
		return ipRange{}, fmt.Errorf("%w: %q", ErrNotIPv4, entry)
	}
	mask := prefixMask(bits)
	return ipRange{network: toUint32(addr) & mask, mask: mask, bits: bits}, nil
}

// prefixMask returns the netmask for a prefix length in [0,32].
func prefixMask(bits int) uint32 {
	if bits <= 0 {
		return 0
	}
	return ^uint32(0) << (32 - bits)
}

// contains reports whether addr falls inside the range.
func (r ipRange) contains(addr uint32) bool {
	return addr&r.mask == r.network
}

// count is the number of addresses covered by the range, network and broadcast included.
func (r ipRange) count() uint64 {
	return uint64(1) << (32 - r.bits)
}

// String renders the range in CIDR notation.
func (r ipRange) String() string {
	var b [4]byte
	b[0], b[1], b[2], b[3] = byte(r.network>>24), byte(r.network>>16), byte(r.network>>8), byte(r.network)
	return netip.PrefixFrom(netip.AddrFrom4(b), r.bits).String()
}

func toUint32(a netip.Addr) uint32 {
	b := a.As4()
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// cidrMatcher is the range-arithmetic strategy.
type cidrMatcher struct {
	ranges []ipRange
}

func (m *cidrMatcher) contains(addr uint32) bool {
	for _, r := range m.ranges {
		if r.contains(addr) {
			return true
		}
	}
	return false
}

func (m *cidrMatcher) size() int { return len(m.ranges) }
