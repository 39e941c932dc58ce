// Package rules implements the URL admission rules and their composition.
package rules

import (
	"github.com/haukened/rr-scope/internal/scope/domain"
)

// Predicate reports whether a rule applies to a candidate.
type Predicate func(c domain.Candidate) bool

// Predicated issues a fixed decision whenever its predicate holds and
// abstains otherwise.
type Predicated struct {
	name     string
	decision domain.Decision
	pred     Predicate
}

// NewPredicated returns a Predicated rule. A NONE decision makes the rule inert.
func NewPredicated(name string, decision domain.Decision, pred Predicate) *Predicated {
	return &Predicated{name: name, decision: decision, pred: pred}
}

// Name returns the rule name.
func (p *Predicated) Name() string { return p.name }

// Decide issues the fixed decision when the predicate holds.
func (p *Predicated) Decide(c domain.Candidate) domain.Verdict {
	if p.pred(c) {
		return domain.Verdict{Decision: p.decision, Rule: p.name}
	}
	return domain.Abstain()
}

// NewAcceptRule returns a rule that accepts everything.
func NewAcceptRule(name string) *Predicated {
	return NewPredicated(name, domain.DecisionAccept, func(domain.Candidate) bool { return true })
}

// NewRejectRule returns a rule that rejects everything.
func NewRejectRule(name string) *Predicated {
	return NewPredicated(name, domain.DecisionReject, func(domain.Candidate) bool { return true })
}

// NewRevisitRule issues decision for candidates that carry a revisit profile.
func NewRevisitRule(name string, decision domain.Decision) *Predicated {
	return NewPredicated(name, decision, func(c domain.Candidate) bool { return c.Revisit })
}

var _ Rule = (*Predicated)(nil)
