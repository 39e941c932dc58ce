// Package addrset matches resolved IPv4 addresses against configured CIDR ranges.
//
// A Set is configured with address/CIDR entries, built lazily into an immutable
// matcher and then served lock-free to any number of evaluating goroutines.
// Reconfiguring with different entries drops the built matcher; the next lookup
// rebuilds it and publishes the new one atomically.
package addrset

import (
	"net/netip"
	"slices"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	logpkg "github.com/haukened/rr-scope/internal/scope/common/log"
)

// Options configures a Set.
type Options struct {
	Strategy Strategy
	// MaxEnumerated caps expanded addresses for StrategyEnumerated; <= 0 means DefaultMaxEnumerated.
	MaxEnumerated int
	// Bloom builds the enumerated prefilter; nil disables it.
	Bloom BloomFactory
	// FPRate is the prefilter's target false-positive rate; invalid values use 1%.
	FPRate float64
	Logger logpkg.Logger
}

// Set is a reconfigurable collection of IPv4 ranges.
type Set struct {
	mu      sync.Mutex // serializes configuration and builds
	entries []string   // normalized: trimmed, de-duplicated, sorted
	built   atomic.Pointer[built]

	strategy Strategy
	max      int
	bloom    BloomFactory
	fpRate   float64
	logger   logpkg.Logger
}

// built pairs a matcher with the entries it was built from.
type built struct {
	m       matcher
	skipped int
}

// New constructs an empty Set.
func New(opts Options) *Set {
	fp := opts.FPRate
	if !(fp > 0 && fp < 1) {
		fp = defaultFPRate
	}
	return &Set{
		strategy: opts.Strategy,
		max:      opts.MaxEnumerated,
		bloom:    opts.Bloom,
		fpRate:   fp,
		logger:   logpkg.OrGlobal(opts.Logger),
	}
}

// Strategy returns the configured matching strategy.
func (s *Set) Strategy() Strategy { return s.strategy }

// Configure replaces the configured entries. Supplying the same entries again, in
// any order, is a no-op and keeps the built matcher. Returns true when the set changed.
func (s *Set) Configure(entries []string) bool {
	norm := normalize(entries)
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.Equal(s.entries, norm) {
		return false
	}
	s.entries = norm
	s.built.Store(nil)
	return true
}

// Add appends a single entry. Adding an entry that is already configured is a no-op.
// Returns true when the set changed.
func (s *Set) Add(entry string) bool {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := sort.SearchStrings(s.entries, entry)
	if i < len(s.entries) && s.entries[i] == entry {
		return false
	}
	next := make([]string, 0, len(s.entries)+1)
	next = append(next, s.entries[:i]...)
	next = append(next, entry)
	next = append(next, s.entries[i:]...)
	s.entries = next
	s.built.Store(nil)
	return true
}

// Entries returns a copy of the configured entries in sorted order.
func (s *Set) Entries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.entries))
	copy(out, s.entries)
	return out
}

// Matches is the rule-facing lookup: an unknown (zero) address is treated as in
// range so that address-gated rules wait for resolution instead of rejecting.
func (s *Set) Matches(addr netip.Addr) bool {
	if !addr.IsValid() {
		return true
	}
	return s.Contains(addr)
}

// Contains reports whether addr lies in any configured range.
// IPv4-mapped IPv6 addresses are unmapped first; other IPv6 addresses never match.
func (s *Set) Contains(addr netip.Addr) bool {
	addr = addr.Unmap()
	if !addr.Is4() {
		return false
	}
	return s.current().m.contains(toUint32(addr))
}

// Build forces the matcher to be built now rather than on first lookup. It returns
// the matcher size (ranges for cidr, addresses for enumerated) and the number of
// entries that were skipped as malformed or over the expansion limit.
func (s *Set) Build() (size, skipped int) {
	b := s.current()
	return b.m.size(), b.skipped
}

// current returns the published matcher, building it under the lock when absent.
func (s *Set) current() *built {
	if b := s.built.Load(); b != nil {
		return b
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if b := s.built.Load(); b != nil {
		return b
	}
	b := s.build(s.entries)
	s.built.Store(b)
	return b
}

// build compiles entries into a matcher. Malformed entries are logged and skipped.
func (s *Set) build(entries []string) *built {
	var (
		ranges  = make([]ipRange, 0, len(entries))
		skipped int
	)
	for _, e := range entries {
		r, err := parseRange(e)
		if err != nil {
			skipped++
			s.logger.Warn(map[string]any{"entry": e, "error": err}, "address_range_invalid")
			continue
		}
		ranges = append(ranges, r)
	}

	var m matcher
	switch s.strategy {
	case StrategyEnumerated:
		ex := newExpander(s.max)
		for _, r := range ranges {
			if err := ex.add(r); err != nil {
				skipped++
				s.logger.Error(map[string]any{"entry": r.String(), "error": err}, "address_range_expansion_refused")
			}
		}
		m = ex.matcher(s.bloom, s.fpRate)
	default:
		m = &cidrMatcher{ranges: ranges}
	}

	s.logger.Info(map[string]any{
		"strategy": s.strategy.String(),
		"entries":  len(entries),
		"skipped":  skipped,
		"size":     m.size(),
	}, "address_set_built")
	return &built{m: m, skipped: skipped}
}

func normalize(entries []string) []string {
	seen := make(map[string]struct{}, len(entries))
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}
