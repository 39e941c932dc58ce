package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/haukened/rr-scope/internal/scope/common/log"
	"github.com/haukened/rr-scope/internal/scope/domain"
)

func TestSplitSegments(t *testing.T) {
	tests := []struct {
		url  string
		want []string
	}{
		{"http://example.com/path1/path2/index.html", []string{"path1", "path2", "index.html"}},
		{"http://example.com/path1///path2/index.html", []string{"path1", "path2", "index.html"}},
		{"http://example.com/path1/path2/index.php?stuff=cool/stuff", []string{"path1", "path2", "index.php?stuff=cool/stuff"}},
		{"http://example.com/path1/path2/?stuff=cool/stuff", []string{"path1", "path2", "?stuff=cool/stuff"}},
		{"http://example.com/a//b?x=//y", []string{"a", "b?x=//y"}},
		{"http://example.com/index.html?", []string{"index.html?"}},
		{"http://example.com//", []string{""}},
		{"http://example.com", []string{"example.com"}},
		{"http://example.com/a/b/", []string{"a", "b"}},
		{"example.com", []string{"example.com"}},
		{"", []string{""}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SplitSegments(tt.url), tt.url)
	}
}

func TestEvaluateSegments(t *testing.T) {
	tests := []struct {
		name           string
		segments       []string
		maxIdentical   int
		maxConsecutive int
		want           domain.Decision
	}{
		{"distinct", []string{"path1", "path2", "index.html"}, 3, 2, domain.DecisionNone},
		{"consecutive", []string{"path1", "path1", "path1", "index.html"}, 3, 2, domain.DecisionReject},
		{"total", []string{"path1", "path2", "path1", "path1", "path2", "path1", "index.html"}, 3, 2, domain.DecisionReject},
		{"at consecutive limit", []string{"a", "a", "b"}, 3, 2, domain.DecisionNone},
		{"at total limit", []string{"a", "b", "a", "c", "a"}, 3, 2, domain.DecisionNone},
		{"consecutive disabled", []string{"a", "a", "a"}, 3, 0, domain.DecisionNone},
		{"total disabled", []string{"a", "b", "a", "b", "a", "b", "a"}, 0, 2, domain.DecisionNone},
		{"both disabled", []string{"a", "a", "a", "a", "a"}, 0, 0, domain.DecisionNone},
		{"empty", nil, 3, 2, domain.DecisionNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EvaluateSegments(tt.segments, tt.maxIdentical, tt.maxConsecutive))
		})
	}
}

func TestPathSegmentRule_Decide(t *testing.T) {
	opts := DefaultPathSegmentOptions()
	opts.Logger = log.NewNoopLogger()
	r := NewPathSegmentRule(opts)
	assert.Equal(t, "path-segments", r.Name())

	v := r.Decide(domain.NewCandidate("http://example.com/a/a/a/index.html"))
	assert.Equal(t, domain.DecisionReject, v.Decision)
	assert.Equal(t, "path-segments", v.Rule)

	v = r.Decide(domain.NewCandidate("http://example.com/a/b/a/index.html"))
	assert.False(t, v.Authoritative())

	off := NewPathSegmentRule(PathSegmentOptions{Logger: log.NewNoopLogger()})
	v = off.Decide(domain.NewCandidate("http://example.com/a/a/a/a/a/"))
	assert.Equal(t, domain.DecisionNone, v.Decision)
}

func TestPathSegmentRule_DecideRecoversSplitFault(t *testing.T) {
	r := NewPathSegmentRule(PathSegmentOptions{MaxIdentical: 3, MaxConsecutive: 2, Logger: log.NewNoopLogger()})
	r.split = func(string) []string { panic("index out of range") }

	var v domain.Verdict
	assert.NotPanics(t, func() { v = r.Decide(domain.NewCandidate("http://example.com/a/b")) })
	assert.Equal(t, domain.DecisionNone, v.Decision)
	assert.Error(t, v.Err)
	assert.Contains(t, v.Err.Error(), "http://example.com/a/b")
	assert.False(t, v.Authoritative())

	seq := NewSequence(SequenceOptions{
		Rules:  []Rule{NewAcceptRule("default"), r},
		Logger: log.NewNoopLogger(),
	})
	got := seq.Decide(domain.NewCandidate("http://example.com/a/b"))
	assert.Equal(t, domain.DecisionAccept, got.Decision)
	assert.Equal(t, "default", got.Rule)
}

func TestPathSegmentRule_DisabledSkipsSplit(t *testing.T) {
	r := NewPathSegmentRule(PathSegmentOptions{Logger: log.NewNoopLogger()})
	r.split = func(string) []string { panic("must not split") }
	v := r.Decide(domain.NewCandidate("http://example.com/a/a/a/a"))
	assert.Equal(t, domain.DecisionNone, v.Decision)
	assert.NoError(t, v.Err)
}
