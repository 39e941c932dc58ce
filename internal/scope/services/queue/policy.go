// Package queue derives work-queue keys for admitted URLs.
package queue

import (
	"fmt"
	"net/netip"
	"strings"

	"github.com/haukened/rr-scope/internal/scope/common/utils"
	"github.com/haukened/rr-scope/internal/scope/domain"
)

// DefaultClassKey is used for URLs without a usable authority.
const DefaultClassKey = "default..."

// Policy assigns a queue key to a candidate URL. Policies are stateless apart
// from their configuration and safe for concurrent use.
type Policy interface {
	QueueKey(c domain.Candidate) string
}

// HostnamePolicy keys queues by host name. Explicit non-default ports are
// appended as "#port"; https URLs without a port get "#443". IP literal hosts
// are never truncated.
type HostnamePolicy struct {
	Limit int
}

// QueueKey returns the host key, truncated to the last Limit labels.
func (p HostnamePolicy) QueueKey(c domain.Candidate) string {
	host := utils.CanonicalHost(c.Host())
	if host == "" {
		return DefaultClassKey
	}
	key := host
	switch port := c.Port(); {
	case port != "" && !(c.Scheme() == "http" && port == "80"):
		key += "#" + port
	case port == "" && c.Scheme() == "https":
		key += "#443"
	}
	if isIPLiteral(host) {
		return key
	}
	return TruncateHostname(key, p.Limit)
}

// SurtAuthorityPolicy keys queues by SURT authority, e.g. "com,example,www,".
// Explicit non-default ports are appended as "#port".
type SurtAuthorityPolicy struct {
	Limit int
}

// QueueKey returns the SURT authority key, truncated to the first Limit components.
func (p SurtAuthorityPolicy) QueueKey(c domain.Candidate) string {
	if c.Host() == "" {
		return DefaultClassKey
	}
	key := utils.SURTAuthority(c.Host(), "")
	if port := c.Port(); !utils.IsDefaultPort(c.Scheme(), port) {
		key += "#" + port
	}
	return TruncateSURTAuthority(key, p.Limit)
}

// ApexPolicy keys queues by registrable domain, so every subdomain of a site
// shares one queue.
type ApexPolicy struct{}

// QueueKey returns the registrable domain of the host, or the host itself for
// IP literals.
func (ApexPolicy) QueueKey(c domain.Candidate) string {
	host := c.Host()
	if host == "" {
		return DefaultClassKey
	}
	if addr, err := netip.ParseAddr(strings.Trim(host, "[]")); err == nil {
		return addr.String()
	}
	return utils.ApexDomain(host)
}

func isIPLiteral(host string) bool {
	_, err := netip.ParseAddr(strings.Trim(host, "[]"))
	return err == nil
}

// NewPolicy returns the policy called name ("hostname", "surt" or "apex").
// limit applies to the hostname and surt policies.
func NewPolicy(name string, limit int) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "hostname":
		return HostnamePolicy{Limit: limit}, nil
	case "surt":
		return SurtAuthorityPolicy{Limit: limit}, nil
	case "apex":
		return ApexPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown queue policy %q", name)
	}
}

var (
	_ Policy = HostnamePolicy{}
	_ Policy = SurtAuthorityPolicy{}
	_ Policy = ApexPolicy{}
)
