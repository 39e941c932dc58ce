package rules

import (
	"context"
	"net/netip"

	"github.com/haukened/rr-scope/internal/scope/domain"
)

// Rule contributes a verdict about one candidate URL.
type Rule interface {
	// Name identifies the rule in verdicts and logs.
	Name() string

	// Decide must not block. Internal faults are reported through Verdict.Err
	// with a NONE decision.
	Decide(c domain.Candidate) domain.Verdict
}

// Preparer is implemented by rules that import external state before serving.
// Prepare is called once, before any Decide.
type Preparer interface {
	Prepare(ctx context.Context) error
}

// HostAddresses looks up the last known address of a host.
// A zero Addr with a nil error means the address is not known.
type HostAddresses interface {
	AddressFor(host string) (netip.Addr, error)
}
