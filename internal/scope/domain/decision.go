package domain

import (
	"fmt"
	"strings"
)

// Decision is the ternary outcome a rule contributes to the admission pipeline.
//
// none   - the rule has no opinion; never overrides another rule
// accept - admit the URL
// reject - drop the URL
type Decision uint8

const (
	// DecisionNone abstains.
	DecisionNone Decision = iota
	// DecisionAccept admits the candidate.
	DecisionAccept
	// DecisionReject drops the candidate.
	DecisionReject
)

// String returns a stable string representation of the decision.
func (d Decision) String() string {
	switch d {
	case DecisionNone:
		return "NONE"
	case DecisionAccept:
		return "ACCEPT"
	case DecisionReject:
		return "REJECT"
	default:
		return fmt.Sprintf("Decision(%d)", d)
	}
}

// ParseDecision converts a string into a Decision.
// Accepts: "none", "abstain", "accept", "reject" (case-insensitive).
func ParseDecision(s string) (Decision, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "abstain":
		return DecisionNone, nil
	case "accept":
		return DecisionAccept, nil
	case "reject":
		return DecisionReject, nil
	default:
		return 0, fmt.Errorf("unsupported Decision: %q", s)
	}
}

// Verdict is what a single rule returns for a single candidate.
// A non-nil Err always carries DecisionNone: a faulted rule abstains.
type Verdict struct {
	Decision Decision
	Rule     string // name of the rule that issued the verdict, filled by the sequence
	Err      error
}

// Abstain returns a verdict with no opinion.
func Abstain() Verdict { return Verdict{Decision: DecisionNone} }

// Decide returns a verdict carrying d.
func Decide(d Decision) Verdict { return Verdict{Decision: d} }

// Failed returns an abstaining verdict that records an internal fault.
func Failed(err error) Verdict { return Verdict{Decision: DecisionNone, Err: err} }

// Authoritative reports whether the verdict is ACCEPT or REJECT.
func (v Verdict) Authoritative() bool {
	return v.Err == nil && (v.Decision == DecisionAccept || v.Decision == DecisionReject)
}

// Accepted is a convenience accessor.
func (v Verdict) Accepted() bool { return v.Authoritative() && v.Decision == DecisionAccept }
