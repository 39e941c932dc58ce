package rules

import (
	"fmt"
	"strings"

	logpkg "github.com/haukened/rr-scope/internal/scope/common/log"
	"github.com/haukened/rr-scope/internal/scope/domain"
)

// Stock thresholds: a segment may occur three times in a path, at most twice in a row.
const (
	DefaultMaxIdenticalSegments   = 3
	DefaultMaxConsecutiveSegments = 2
)

// PathSegmentOptions configures a PathSegmentRule. A threshold <= 0 disables
// that check; with both disabled the rule always abstains.
type PathSegmentOptions struct {
	Name           string
	MaxIdentical   int
	MaxConsecutive int
	Logger         logpkg.Logger
}

// DefaultPathSegmentOptions returns the stock thresholds.
func DefaultPathSegmentOptions() PathSegmentOptions {
	return PathSegmentOptions{
		Name:           "path-segments",
		MaxIdentical:   DefaultMaxIdenticalSegments,
		MaxConsecutive: DefaultMaxConsecutiveSegments,
	}
}

// PathSegmentRule rejects URLs whose path repeats a segment too often, a common
// shape of crawler traps.
type PathSegmentRule struct {
	name           string
	maxIdentical   int
	maxConsecutive int
	split          func(string) []string
	logger         logpkg.Logger
}

// NewPathSegmentRule builds a PathSegmentRule; an empty name becomes "path-segments".
func NewPathSegmentRule(opts PathSegmentOptions) *PathSegmentRule {
	name := opts.Name
	if name == "" {
		name = "path-segments"
	}
	return &PathSegmentRule{
		name:           name,
		maxIdentical:   opts.MaxIdentical,
		maxConsecutive: opts.MaxConsecutive,
		split:          SplitSegments,
		logger:         logpkg.OrGlobal(opts.Logger),
	}
}

// Name returns the rule name.
func (r *PathSegmentRule) Name() string { return r.name }

// Decide recovers faults while splitting the URL into a NONE verdict carrying the error.
func (r *PathSegmentRule) Decide(c domain.Candidate) (v domain.Verdict) {
	if r.maxIdentical <= 0 && r.maxConsecutive <= 0 {
		return domain.Abstain()
	}
	defer func() {
		if p := recover(); p != nil {
			v = domain.Failed(fmt.Errorf("splitting %q: %v", c.URL, p))
		}
	}()
	d := EvaluateSegments(r.split(c.URL), r.maxIdentical, r.maxConsecutive)
	if d != domain.DecisionReject {
		return domain.Abstain()
	}
	r.logger.Debug(map[string]any{"rule": r.name, "url": c.URL}, "path_segments_repeated")
	return domain.Verdict{Decision: d, Rule: r.name}
}

// SplitSegments returns the path segments of a URL.
//
// Behavior:
// - Everything up to and including the third '/' (scheme and authority) is dropped
// - Remaining leading '/' are dropped
// - The first '?' ends the path; it and everything after it are appended to the last segment
// - Runs of '/' count as one separator
// - Trailing empty segments are dropped, but the result always has at least one element
func SplitSegments(raw string) []string {
	s := raw
	for i := 0; i < 3; i++ {
		idx := strings.IndexByte(s, '/')
		if idx < 0 {
			break
		}
		s = s[idx+1:]
	}
	s = strings.TrimLeft(s, "/")

	params := ""
	if q := strings.IndexByte(s, '?'); q >= 0 {
		params = s[q+1:]
		s = s[:q+1]
	}
	for strings.Contains(s, "//") {
		s = strings.ReplaceAll(s, "//", "/")
	}

	segs := strings.Split(s, "/")
	for len(segs) > 1 && segs[len(segs)-1] == "" {
		segs = segs[:len(segs)-1]
	}
	segs[len(segs)-1] += params
	return segs
}

// EvaluateSegments returns REJECT as soon as a segment repeats more than
// maxConsecutive times in a row or occurs more than maxIdentical times in
// total, and NONE otherwise. Thresholds <= 0 are not checked.
func EvaluateSegments(segments []string, maxIdentical, maxConsecutive int) domain.Decision {
	counts := make(map[string]int, len(segments))
	last := ""
	run := 0
	for _, seg := range segments {
		if seg == last {
			run++
		} else {
			run = 1
		}
		if maxConsecutive > 0 && run > maxConsecutive {
			return domain.DecisionReject
		}
		counts[seg]++
		if maxIdentical > 0 && counts[seg] > maxIdentical {
			return domain.DecisionReject
		}
		last = seg
	}
	return domain.DecisionNone
}

var _ Rule = (*PathSegmentRule)(nil)
