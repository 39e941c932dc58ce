package rules

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/rr-scope/internal/scope/common/log"
	"github.com/haukened/rr-scope/internal/scope/domain"
	"github.com/haukened/rr-scope/internal/scope/gateways/source"
	"github.com/haukened/rr-scope/internal/scope/repos/surtprefix"
)

// stubRule returns a fixed verdict or panics.
type stubRule struct {
	name    string
	verdict domain.Verdict
	panics  bool
}

func (s *stubRule) Name() string { return s.name }

func (s *stubRule) Decide(domain.Candidate) domain.Verdict {
	if s.panics {
		panic("boom")
	}
	return s.verdict
}

// stubPreparer records Prepare calls.
type stubPreparer struct {
	stubRule
	calls *[]string
	err   error
}

func (s *stubPreparer) Prepare(context.Context) error {
	*s.calls = append(*s.calls, s.name)
	return s.err
}

func TestSequence_LastAuthoritativeWins(t *testing.T) {
	seq := NewSequence(SequenceOptions{
		Logger: log.NewNoopLogger(),
		Rules: []Rule{
			NewRejectRule("reject-all"),
			NewRevisitRule("revisits", domain.DecisionAccept),
			&stubRule{name: "abstains", verdict: domain.Abstain()},
		},
	})

	v := seq.Decide(domain.NewCandidate("http://example.com/"))
	assert.Equal(t, domain.DecisionReject, v.Decision)
	assert.Equal(t, "reject-all", v.Rule)

	v = seq.Decide(domain.NewCandidate("http://example.com/").WithRevisit(true))
	assert.Equal(t, domain.DecisionAccept, v.Decision)
	assert.Equal(t, "revisits", v.Rule)
}

func TestSequence_StampsRuleName(t *testing.T) {
	seq := NewSequence(SequenceOptions{
		Logger: log.NewNoopLogger(),
		Rules:  []Rule{&stubRule{name: "anon", verdict: domain.Decide(domain.DecisionAccept)}},
	})
	assert.Equal(t, "anon", seq.Decide(domain.NewCandidate("http://x/")).Rule)
}

func TestSequence_FaultsAreSkipped(t *testing.T) {
	seq := NewSequence(SequenceOptions{
		Logger: log.NewNoopLogger(),
		Rules: []Rule{
			NewAcceptRule("accept-all"),
			&stubRule{name: "panics", panics: true},
			&stubRule{name: "fails", verdict: domain.Failed(errors.New("lookup broke"))},
		},
	})
	v := seq.Decide(domain.NewCandidate("http://example.com/"))
	assert.Equal(t, domain.DecisionAccept, v.Decision)
	assert.Equal(t, "accept-all", v.Rule)
	assert.NoError(t, v.Err)
}

func TestEvaluate_RecoversPanic(t *testing.T) {
	v := Evaluate(&stubRule{name: "panics", panics: true}, domain.NewCandidate("http://x/"))
	require.Error(t, v.Err)
	assert.Equal(t, domain.DecisionNone, v.Decision)
	assert.Contains(t, v.Err.Error(), "panics")
}

func TestSequence_Prepare(t *testing.T) {
	var calls []string
	seq := NewSequence(SequenceOptions{
		Logger: log.NewNoopLogger(),
		Rules: []Rule{
			&stubPreparer{stubRule: stubRule{name: "first"}, calls: &calls},
			NewAcceptRule("plain"),
			&stubPreparer{stubRule: stubRule{name: "second"}, calls: &calls},
		},
	})
	require.NoError(t, seq.Prepare(context.Background()))
	assert.Equal(t, []string{"first", "second"}, calls)

	calls = nil
	failing := NewSequence(SequenceOptions{
		Logger: log.NewNoopLogger(),
		Rules: []Rule{
			&stubPreparer{stubRule: stubRule{name: "broken"}, calls: &calls, err: ErrMissingSource},
			&stubPreparer{stubRule: stubRule{name: "never"}, calls: &calls},
		},
	})
	err := failing.Prepare(context.Background())
	assert.ErrorIs(t, err, ErrMissingSource)
	assert.Equal(t, []string{"broken"}, calls)
}

func TestSequence_Concurrent(t *testing.T) {
	segs := DefaultPathSegmentOptions()
	segs.Logger = log.NewNoopLogger()
	seq := NewSequence(SequenceOptions{
		Logger: log.NewNoopLogger(),
		Rules:  []Rule{NewAcceptRule("accept-all"), NewPathSegmentRule(segs)},
	})

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				if v := seq.Decide(domain.NewCandidate("http://example.com/a/a/a/")); v.Decision != domain.DecisionReject {
					t.Errorf("unexpected verdict %v", v.Decision)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestSurtPrefixRule(t *testing.T) {
	set := surtprefix.New(log.NewNoopLogger())
	_, err := set.Add("example.com")
	require.NoError(t, err)

	r := NewSurtPrefixRule(SurtPrefixOptions{
		Decision: domain.DecisionAccept,
		Prefixes: set,
		Source:   &source.StringSource{Text: "# extra\nhttp://www.vedur.is/\n"},
		Logger:   log.NewNoopLogger(),
	})
	require.NoError(t, r.Prepare(context.Background()))
	assert.Equal(t, 2, r.Prefixes().Len())

	assert.True(t, r.Decide(domain.NewCandidate("https://sub.example.com/a")).Accepted())
	assert.True(t, r.Decide(domain.NewCandidate("http://www.vedur.is/forecast")).Accepted())
	assert.False(t, r.Decide(domain.NewCandidate("http://vedur.is/")).Authoritative())

	noSource := NewSurtPrefixRule(SurtPrefixOptions{Logger: log.NewNoopLogger()})
	assert.NoError(t, noSource.Prepare(context.Background()))
	assert.False(t, noSource.Decide(domain.NewCandidate("http://example.com/")).Authoritative())
}
