package addrset

import (
	"fmt"
	"strings"
)

// Strategy selects how configured ranges are matched.
//
// cidr       - network/mask arithmetic per range; O(ranges) per lookup, tiny memory
// enumerated - every address expanded into a hash set; O(1) lookup, memory grows with range size
type Strategy uint8

const (
	// StrategyCIDR tests each configured range with mask arithmetic.
	StrategyCIDR Strategy = iota
	// StrategyEnumerated expands ranges into individual addresses at build time.
	StrategyEnumerated
)

// String returns a stable string representation of the strategy.
func (s Strategy) String() string {
	switch s {
	case StrategyCIDR:
		return "cidr"
	case StrategyEnumerated:
		return "enumerated"
	default:
		return fmt.Sprintf("Strategy(%d)", s)
	}
}

// ParseStrategy converts a string into a Strategy.
// Accepts: "cidr", "enumerated" (case-insensitive).
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cidr":
		return StrategyCIDR, nil
	case "enumerated":
		return StrategyEnumerated, nil
	default:
		return 0, fmt.Errorf("unsupported Strategy: %q", s)
	}
}
