package rules

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	logpkg "github.com/haukened/rr-scope/internal/scope/common/log"
	"github.com/haukened/rr-scope/internal/scope/domain"
	"github.com/haukened/rr-scope/internal/scope/gateways/source"
	"github.com/haukened/rr-scope/internal/scope/repos/patterns"
)

// ErrMissingSource is returned by Prepare when a rule requires an external
// list but none is configured.
var ErrMissingSource = errors.New("missing source")

// PatternOptions configures a PatternRule.
type PatternOptions struct {
	Name     string
	Decision domain.Decision
	List     *patterns.List // nil creates an empty LogicOr list
	Source   source.Source
	Logger   logpkg.Logger
}

// PatternRule issues its decision when the candidate URL satisfies List.
type PatternRule struct {
	name     string
	decision domain.Decision
	list     *patterns.List
	src      source.Source
	logger   logpkg.Logger

	once    sync.Once
	prepErr error
}

// NewPatternRule builds a PatternRule; an empty name becomes "patterns" and a
// nil List starts empty.
func NewPatternRule(opts PatternOptions) *PatternRule {
	name := opts.Name
	if name == "" {
		name = "patterns"
	}
	logger := logpkg.OrGlobal(opts.Logger)
	list := opts.List
	if list == nil {
		list = patterns.New(patterns.Options{Logger: logger})
	}
	return &PatternRule{
		name:     name,
		decision: opts.Decision,
		list:     list,
		src:      opts.Source,
		logger:   logger,
	}
}

// Name returns the rule name.
func (r *PatternRule) Name() string { return r.name }

// List exposes the underlying list for reporting and live edits.
func (r *PatternRule) List() *patterns.List { return r.list }

// Prepare imports the configured source into the list. Only the first call
// does any work; later calls return its result.
func (r *PatternRule) Prepare(ctx context.Context) error {
	r.once.Do(func() {
		r.prepErr = r.importSource(ctx)
	})
	return r.prepErr
}

func (r *PatternRule) importSource(ctx context.Context) error {
	if r.src == nil {
		return fmt.Errorf("rule %s: %w for regular expressions", r.name, ErrMissingSource)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	rc, err := r.src.Open()
	if err != nil {
		return fmt.Errorf("rule %s: %w", r.name, err)
	}
	defer rc.Close()
	if _, err := r.list.Load(rc, r.src.Name()); err != nil {
		return fmt.Errorf("rule %s: %w", r.name, err)
	}
	return nil
}

// Decide issues the configured decision when the URL satisfies the list.
func (r *PatternRule) Decide(c domain.Candidate) domain.Verdict {
	if r.list.Evaluate(c.URL) {
		return domain.Verdict{Decision: r.decision, Rule: r.name}
	}
	return domain.Abstain()
}

// WriteReport writes the per-pattern hit report.
func (r *PatternRule) WriteReport(w io.Writer) error { return r.list.WriteReport(w) }

// ReportName is the conventional file name for this rule's report.
func (r *PatternRule) ReportName() string { return r.name + "-report.txt" }

var (
	_ Rule     = (*PatternRule)(nil)
	_ Preparer = (*PatternRule)(nil)
)
