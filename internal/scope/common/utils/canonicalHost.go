package utils

import (
	"strings"

	"golang.org/x/net/idna"
)

// CanonicalHost returns a host name in canonical form:
// - Trimmed of surrounding whitespace
// - Lowercased, with internationalized labels converted to their ASCII (punycode) form
// - No trailing dot
//
// Hosts that idna rejects (underscores, raw IPv6 and such) are only lowercased.
func CanonicalHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	for strings.HasSuffix(host, ".") {
		host = strings.TrimSuffix(host, ".")
	}
	if host == "" {
		return host
	}
	if ascii, err := idna.Lookup.ToASCII(host); err == nil && ascii != "" {
		return ascii
	}
	return host
}
