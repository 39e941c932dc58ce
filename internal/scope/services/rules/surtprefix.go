package rules

import (
	"context"
	"fmt"
	"sync"

	logpkg "github.com/haukened/rr-scope/internal/scope/common/log"
	"github.com/haukened/rr-scope/internal/scope/domain"
	"github.com/haukened/rr-scope/internal/scope/gateways/source"
	"github.com/haukened/rr-scope/internal/scope/repos/surtprefix"
)

// SurtPrefixOptions configures a SurtPrefixRule.
type SurtPrefixOptions struct {
	Name     string
	Decision domain.Decision
	Prefixes *surtprefix.Set // nil creates an empty set
	Source   source.Source   // optional; merged into Prefixes by Prepare
	Logger   logpkg.Logger
}

// SurtPrefixRule issues its decision for URLs whose SURT form starts with one
// of the configured prefixes.
type SurtPrefixRule struct {
	name     string
	decision domain.Decision
	prefixes *surtprefix.Set
	src      source.Source
	logger   logpkg.Logger

	once    sync.Once
	prepErr error
}

// NewSurtPrefixRule builds a SurtPrefixRule; an empty name becomes "surt-prefixes".
func NewSurtPrefixRule(opts SurtPrefixOptions) *SurtPrefixRule {
	name := opts.Name
	if name == "" {
		name = "surt-prefixes"
	}
	logger := logpkg.OrGlobal(opts.Logger)
	set := opts.Prefixes
	if set == nil {
		set = surtprefix.New(logger)
	}
	return &SurtPrefixRule{
		name:     name,
		decision: opts.Decision,
		prefixes: set,
		src:      opts.Source,
		logger:   logger,
	}
}

// Name returns the rule name.
func (r *SurtPrefixRule) Name() string { return r.name }

// Prefixes exposes the prefix set.
func (r *SurtPrefixRule) Prefixes() *surtprefix.Set { return r.prefixes }

// Prepare loads the source, if any, once.
func (r *SurtPrefixRule) Prepare(ctx context.Context) error {
	r.once.Do(func() {
		if r.src == nil {
			return
		}
		if err := ctx.Err(); err != nil {
			r.prepErr = err
			return
		}
		rc, err := r.src.Open()
		if err != nil {
			r.prepErr = fmt.Errorf("rule %s: %w", r.name, err)
			return
		}
		defer rc.Close()
		if _, err := r.prefixes.Load(rc, r.src.Name()); err != nil {
			r.prepErr = fmt.Errorf("rule %s: %w", r.name, err)
		}
	})
	return r.prepErr
}

// Decide issues the configured decision when a prefix matches the URL.
func (r *SurtPrefixRule) Decide(c domain.Candidate) domain.Verdict {
	prefix, ok := r.prefixes.MatchURL(c.URL)
	if !ok {
		return domain.Abstain()
	}
	r.logger.Debug(map[string]any{"rule": r.name, "url": c.URL, "prefix": prefix}, "surt_prefix_matched")
	return domain.Verdict{Decision: r.decision, Rule: r.name}
}

var (
	_ Rule     = (*SurtPrefixRule)(nil)
	_ Preparer = (*SurtPrefixRule)(nil)
)
