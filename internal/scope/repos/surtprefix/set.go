// Package surtprefix keeps a set of SURT prefixes and answers longest-prefix
// queries for URLs in SURT form.
package surtprefix

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/armon/go-radix"

	logpkg "github.com/haukened/rr-scope/internal/scope/common/log"
	"github.com/haukened/rr-scope/internal/scope/common/utils"
	"github.com/haukened/rr-scope/internal/scope/repos/parsers"
)

// ErrInvalidPrefix is returned for entries that cannot be turned into a SURT prefix.
var ErrInvalidPrefix = errors.New("invalid surt prefix")

// Set is a radix tree of SURT prefixes. Lookups take a read lock only.
type Set struct {
	mu     sync.RWMutex
	tree   *radix.Tree
	logger logpkg.Logger
}

// New returns an empty Set. A nil logger uses the global logger.
func New(logger logpkg.Logger) *Set {
	return &Set{tree: radix.New(), logger: logpkg.OrGlobal(logger)}
}

// Add inserts entry and reports whether the set changed.
//
// Entry forms:
//   - "+http://(com,example," is a literal SURT prefix (the '+' is dropped)
//   - "http://(com,example,)/a" contains "(" and is taken literally
//   - anything else is a plain URL or host and is converted, e.g.
//     "example.com" -> "http://(com,example,"
func (s *Set) Add(entry string) (bool, error) {
	prefix, err := ToPrefix(entry)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, updated := s.tree.Insert(prefix, struct{}{})
	return !updated, nil
}

// ToPrefix converts one configuration entry to a SURT prefix.
func ToPrefix(entry string) (string, error) {
	e := strings.TrimSpace(entry)
	switch {
	case e == "" || e == "+":
		return "", fmt.Errorf("%w: empty entry", ErrInvalidPrefix)
	case strings.HasPrefix(e, "+"):
		return strings.ToLower(strings.TrimPrefix(e, "+")), nil
	case strings.Contains(e, "("):
		return strings.ToLower(e), nil
	}
	p, ok := utils.SURTPrefixFromPlain(e)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidPrefix, entry)
	}
	return p, nil
}

// Load adds every significant line of r. Invalid lines are logged and skipped.
func (s *Set) Load(r io.Reader, source string) (int, error) {
	added := 0
	_, err := parsers.ScanLines(r, source, s.logger, func(_ int, line string) error {
		ok, err := s.Add(line)
		if ok {
			added++
		}
		return err
	})
	s.logger.Info(map[string]any{"source": source, "added": added, "total": s.Len()}, "surt_prefixes_loaded")
	if err != nil {
		return added, fmt.Errorf("reading surt prefixes from %s: %w", source, err)
	}
	return added, nil
}

// Match returns the longest prefix of surt held by the set.
func (s *Set) Match(surt string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	prefix, _, ok := s.tree.LongestPrefix(surt)
	return prefix, ok
}

// MatchURL converts raw to SURT form and matches it.
func (s *Set) MatchURL(raw string) (string, bool) {
	surt, ok := utils.SURTForm(raw)
	if !ok {
		return "", false
	}
	return s.Match(surt)
}

// Len returns the number of prefixes.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.Len()
}

// Prefixes returns every prefix in lexical order.
func (s *Set) Prefixes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, s.tree.Len())
	s.tree.Walk(func(k string, _ interface{}) bool {
		out = append(out, k)
		return false
	})
	return out
}
