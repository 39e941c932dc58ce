package patterns

import (
	"fmt"
	"strings"
)

// Logic selects how the patterns of a List are combined.
type Logic uint8

const (
	// LogicOr succeeds on the first matching pattern.
	LogicOr Logic = iota
	// LogicAnd fails on the first pattern that does not match.
	LogicAnd
)

func (l Logic) String() string {
	switch l {
	case LogicOr:
		return "or"
	case LogicAnd:
		return "and"
	default:
		return fmt.Sprintf("Logic(%d)", uint8(l))
	}
}

// ParseLogic accepts "or" and "and" in any case. An empty string is LogicOr.
func ParseLogic(s string) (Logic, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "or":
		return LogicOr, nil
	case "and":
		return LogicAnd, nil
	default:
		return LogicOr, fmt.Errorf("unknown pattern logic %q", s)
	}
}
