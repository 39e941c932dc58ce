// Package patterns holds ordered regular expression lists evaluated against URLs.
package patterns

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"

	logpkg "github.com/haukened/rr-scope/internal/scope/common/log"
	"github.com/haukened/rr-scope/internal/scope/repos/parsers"
)

// ErrInvalidPattern wraps regular expression compile failures.
var ErrInvalidPattern = errors.New("invalid pattern")

// entry is one compiled pattern. text is the pattern as configured.
type entry struct {
	text string
	re   *regexp.Regexp
	hits *atomic.Int64
}

// Options configures a List.
type Options struct {
	Logic  Logic
	Logger logpkg.Logger
}

// List is an ordered, de-duplicated set of patterns with per-pattern hit counters.
//
// Evaluate reads an immutable snapshot and is safe for any number of concurrent
// callers. Add, Remove and Load publish a new snapshot; they are serialized
// against each other but not against in-flight evaluations, which finish on the
// snapshot they started with.
type List struct {
	mu     sync.Mutex
	snap   atomic.Pointer[[]entry]
	hits   sync.Map // pattern text -> *atomic.Int64
	logic  Logic
	logger logpkg.Logger
}

// New returns an empty List.
func New(opts Options) *List {
	l := &List{logic: opts.Logic, logger: logpkg.OrGlobal(opts.Logger)}
	empty := []entry{}
	l.snap.Store(&empty)
	return l
}

// Compile compiles text with whole-string match semantics. text must parse on
// its own, so it cannot close the anchoring group.
func Compile(text string) (*regexp.Regexp, error) {
	if _, err := regexp.Compile(text); err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidPattern, text, err)
	}
	re, err := regexp.Compile("^(?:" + text + ")$")
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidPattern, text, err)
	}
	return re, nil
}

// Logic returns the combination mode.
func (l *List) Logic() Logic { return l.logic }

// Add appends text unless an equal pattern is already present. It reports
// whether the list changed.
func (l *List) Add(text string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.addLocked(text)
}

func (l *List) addLocked(text string) (bool, error) {
	cur := *l.snap.Load()
	for _, e := range cur {
		if e.text == text {
			return false, nil
		}
	}
	re, err := Compile(text)
	if err != nil {
		return false, err
	}
	next := make([]entry, len(cur), len(cur)+1)
	copy(next, cur)
	next = append(next, entry{text: text, re: re, hits: l.counter(text)})
	l.snap.Store(&next)
	return true, nil
}

// Remove deletes every pattern equal to text and reports whether any was found.
// Hit counts are kept so a re-added pattern continues its tally.
func (l *List) Remove(text string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	cur := *l.snap.Load()
	next := make([]entry, 0, len(cur))
	for _, e := range cur {
		if e.text != text {
			next = append(next, e)
		}
	}
	if len(next) == len(cur) {
		return false
	}
	l.snap.Store(&next)
	return true
}

// Load adds every significant line of r as a pattern. Lines that fail to compile
// are logged and skipped. It returns the number of patterns added.
func (l *List) Load(r io.Reader, source string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	added := 0
	_, err := parsers.ScanLines(r, source, l.logger, func(_ int, line string) error {
		ok, err := l.addLocked(line)
		if ok {
			added++
		}
		return err
	})
	l.logger.Info(map[string]any{"source": source, "added": added, "total": len(*l.snap.Load())}, "pattern_list_loaded")
	if err != nil {
		return added, fmt.Errorf("reading patterns from %s: %w", source, err)
	}
	return added, nil
}

// Patterns returns the pattern texts in list order.
func (l *List) Patterns() []string {
	cur := *l.snap.Load()
	out := make([]string, len(cur))
	for i, e := range cur {
		out[i] = e.text
	}
	return out
}

// Len returns the number of patterns.
func (l *List) Len() int { return len(*l.snap.Load()) }

// String lists the patterns one per line.
func (l *List) String() string {
	var b strings.Builder
	for _, e := range *l.snap.Load() {
		b.WriteString(e.text)
		b.WriteByte('\n')
	}
	return b.String()
}

// Evaluate tests text against the list.
//
// With LogicOr the first matching pattern is counted and the result is true.
// With LogicAnd the first pattern that does not match is counted and the result
// is false. An empty list is always false.
func (l *List) Evaluate(text string) bool {
	cur := *l.snap.Load()
	if len(cur) == 0 {
		return false
	}
	for _, e := range cur {
		matched := e.re.MatchString(text)
		l.logger.Debug(map[string]any{"pattern": e.text, "input": text, "matched": matched}, "pattern_tested")
		switch {
		case matched && l.logic == LogicOr:
			e.hits.Add(1)
			return true
		case !matched && l.logic == LogicAnd:
			e.hits.Add(1)
			return false
		}
	}
	return l.logic == LogicAnd
}

// Hits returns how often pattern decided an evaluation.
func (l *List) Hits(pattern string) int64 {
	if v, ok := l.hits.Load(pattern); ok {
		return v.(*atomic.Int64).Load()
	}
	return 0
}

// Report renders "<pattern>\t<hits>" lines in list order.
func (l *List) Report() string {
	var b strings.Builder
	_ = l.WriteReport(&b)
	return b.String()
}

// WriteReport writes Report to w.
func (l *List) WriteReport(w io.Writer) error {
	for _, e := range *l.snap.Load() {
		if _, err := fmt.Fprintf(w, "%s\t%d\n", e.text, e.hits.Load()); err != nil {
			return err
		}
	}
	return nil
}

func (l *List) counter(text string) *atomic.Int64 {
	v, _ := l.hits.LoadOrStore(text, new(atomic.Int64))
	return v.(*atomic.Int64)
}
