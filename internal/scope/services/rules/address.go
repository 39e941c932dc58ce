package rules

import (
	"net/netip"

	logpkg "github.com/haukened/rr-scope/internal/scope/common/log"
	"github.com/haukened/rr-scope/internal/scope/domain"
	"github.com/haukened/rr-scope/internal/scope/repos/addrset"
)

// AddressOptions configures an AddressRule.
type AddressOptions struct {
	Name     string
	Decision domain.Decision
	Ranges   *addrset.Set
	Hosts    HostAddresses // optional
	Logger   logpkg.Logger
}

// AddressRule issues its decision when the candidate's address lies in Ranges.
// A candidate whose address cannot be established counts as in range; callers
// that need a firm answer re-evaluate once the host is resolved.
type AddressRule struct {
	name     string
	decision domain.Decision
	ranges   *addrset.Set
	hosts    HostAddresses
	logger   logpkg.Logger
}

// NewAddressRule builds an AddressRule; an empty name becomes "address".
func NewAddressRule(opts AddressOptions) *AddressRule {
	name := opts.Name
	if name == "" {
		name = "address"
	}
	return &AddressRule{
		name:     name,
		decision: opts.Decision,
		ranges:   opts.Ranges,
		hosts:    opts.Hosts,
		logger:   logpkg.OrGlobal(opts.Logger),
	}
}

// Name returns the rule name.
func (r *AddressRule) Name() string { return r.name }

// Decide issues the configured decision when the candidate is in range.
func (r *AddressRule) Decide(c domain.Candidate) domain.Verdict {
	if r.Matches(c) {
		return domain.Verdict{Decision: r.decision, Rule: r.name}
	}
	return domain.Abstain()
}

// Matches reports whether c is in range.
func (r *AddressRule) Matches(c domain.Candidate) bool {
	return r.ranges.Matches(r.addressOf(c))
}

// addressOf prefers the address attached to the candidate and falls back to
// the host lookup. Lookup failures yield the zero Addr.
func (r *AddressRule) addressOf(c domain.Candidate) netip.Addr {
	if c.HasAddr() {
		return c.Addr
	}
	if r.hosts == nil || c.Host() == "" {
		return netip.Addr{}
	}
	addr, err := r.hosts.AddressFor(c.Host())
	if err != nil {
		r.logger.Warn(map[string]any{"rule": r.name, "url": c.URL, "host": c.Host(), "error": err}, "address_lookup_failed")
		return netip.Addr{}
	}
	return addr
}

var _ Rule = (*AddressRule)(nil)
