package rules

import (
	"context"
	"fmt"

	logpkg "github.com/haukened/rr-scope/internal/scope/common/log"
	"github.com/haukened/rr-scope/internal/scope/domain"
)

// Sequence runs rules in order. The last authoritative verdict wins; NONE
// never overrides an earlier decision. Faulted verdicts are logged and skipped.
type Sequence struct {
	name   string
	rules  []Rule
	logger logpkg.Logger
}

// SequenceOptions configures a Sequence.
type SequenceOptions struct {
	Name   string
	Rules  []Rule
	Logger logpkg.Logger
}

// NewSequence builds a Sequence over opts.Rules in the given order.
func NewSequence(opts SequenceOptions) *Sequence {
	name := opts.Name
	if name == "" {
		name = "sequence"
	}
	rules := make([]Rule, len(opts.Rules))
	copy(rules, opts.Rules)
	return &Sequence{name: name, rules: rules, logger: logpkg.OrGlobal(opts.Logger)}
}

// Name returns the sequence name.
func (s *Sequence) Name() string { return s.name }

// Rules returns the rules in evaluation order.
func (s *Sequence) Rules() []Rule {
	out := make([]Rule, len(s.rules))
	copy(out, s.rules)
	return out
}

// Prepare calls every Preparer once, in order, and stops at the first error.
func (s *Sequence) Prepare(ctx context.Context) error {
	for _, r := range s.rules {
		p, ok := r.(Preparer)
		if !ok {
			continue
		}
		if err := p.Prepare(ctx); err != nil {
			return fmt.Errorf("preparing %s: %w", r.Name(), err)
		}
		s.logger.Debug(map[string]any{"rule": r.Name()}, "rule_prepared")
	}
	return nil
}

// Decide returns the final verdict for c. The verdict's Rule names the rule
// that made the decision.
func (s *Sequence) Decide(c domain.Candidate) domain.Verdict {
	final := domain.Abstain()
	for _, r := range s.rules {
		v := Evaluate(r, c)
		if v.Err != nil {
			s.logger.Warn(map[string]any{"rule": r.Name(), "url": c.URL, "error": v.Err}, "rule_evaluation_failed")
			continue
		}
		if !v.Authoritative() {
			continue
		}
		if v.Rule == "" {
			v.Rule = r.Name()
		}
		final = v
	}
	return final
}

// Evaluate runs r against c, turning a panic into a faulted verdict.
func Evaluate(r Rule, c domain.Candidate) (v domain.Verdict) {
	defer func() {
		if p := recover(); p != nil {
			v = domain.Failed(fmt.Errorf("rule %s panicked: %v", r.Name(), p))
		}
	}()
	return r.Decide(c)
}

var (
	_ Rule     = (*Sequence)(nil)
	_ Preparer = (*Sequence)(nil)
)
