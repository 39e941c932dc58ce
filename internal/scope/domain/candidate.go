package domain

import (
	"net/netip"
	"net/url"
	"strings"
)

// Candidate is the read-only view of one URL for one evaluation.
//
// Notes:
// - URL is kept verbatim; rules that tokenize it work on the raw string.
// - Addr is the zero netip.Addr when the host has not been resolved yet.
// - Revisit marks URLs that carry a revisit profile from a previous crawl.
type Candidate struct {
	URL     string
	Addr    netip.Addr
	Revisit bool

	host   string
	port   string
	scheme string
}

// NewCandidate builds a Candidate from a raw URL. Host and port are derived
// best-effort; an unparseable URL yields an empty host rather than an error
// so that string-based rules can still run against it.
func NewCandidate(raw string) Candidate {
	c := Candidate{URL: raw}
	if u, err := url.Parse(strings.TrimSpace(raw)); err == nil {
		c.scheme = strings.ToLower(u.Scheme)
		c.host = strings.ToLower(u.Hostname())
		c.port = u.Port()
		if c.host == "" && u.Opaque != "" {
			// dns:example.com style URIs carry the host in the opaque part.
			c.host = strings.ToLower(u.Opaque)
		}
	}
	return c
}

// WithAddr returns a copy of c carrying the resolved address.
func (c Candidate) WithAddr(addr netip.Addr) Candidate {
	c.Addr = addr
	return c
}

// WithRevisit returns a copy of c with the revisit flag set to v.
func (c Candidate) WithRevisit(v bool) Candidate {
	c.Revisit = v
	return c
}

// Host returns the lower-cased host name, or "" when the URL has none.
func (c Candidate) Host() string { return c.host }

// Port returns the explicit port from the URL, or "".
func (c Candidate) Port() string { return c.port }

// Scheme returns the lower-cased URL scheme.
func (c Candidate) Scheme() string { return c.scheme }

// HasAddr reports whether a resolved address is attached.
func (c Candidate) HasAddr() bool { return c.Addr.IsValid() }

// String returns the raw URL.
func (c Candidate) String() string { return c.URL }
