package utils

import (
	"net/netip"
	"net/url"
	"strings"
)

// SURTAuthority renders host (and an optional port) in SURT authority order:
// labels reversed, comma separated, with a trailing comma, e.g.
// "www.example.com" -> "com,example,www,". IP literals are not reversed.
// A non-empty port is appended as ":port".
func SURTAuthority(host, port string) string {
	host = CanonicalHost(host)
	var b strings.Builder
	if _, err := netip.ParseAddr(strings.Trim(host, "[]")); err == nil {
		b.WriteString(host)
	} else {
		labels := strings.Split(host, ".")
		for i := len(labels) - 1; i >= 0; i-- {
			b.WriteString(labels[i])
			b.WriteByte(',')
		}
	}
	if port != "" {
		b.WriteByte(':')
		b.WriteString(port)
	}
	return b.String()
}

// SURTForm converts an absolute URL into its SURT form, e.g.
// "http://www.example.com/a?b" -> "http://(com,example,www,)/a?b".
// https is coerced to http so that both schemes compare equal against prefixes.
// Default ports and userinfo are dropped. The second return is false when the URL has no host.
func SURTForm(raw string) (string, bool) {
	u, err := url.Parse(addImpliedHTTP(strings.TrimSpace(raw)))
	if err != nil || u.Hostname() == "" {
		return "", false
	}
	scheme := strings.ToLower(u.Scheme)
	port := u.Port()
	if IsDefaultPort(scheme, port) {
		port = ""
	}
	if scheme == "https" {
		scheme = "http"
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	var b strings.Builder
	b.WriteString(scheme)
	b.WriteString("://(")
	b.WriteString(SURTAuthority(u.Hostname(), port))
	b.WriteByte(')')
	b.WriteString(path)
	if u.RawQuery != "" || u.ForceQuery {
		b.WriteByte('?')
		b.WriteString(u.RawQuery)
	}
	return b.String(), true
}

// SURTPrefixFromPlain turns a plain URL or host into a SURT prefix.
// Without a path the authority is left open so that subdomains also match:
// "example.com" -> "http://(com,example,". A trailing slash or a path closes it:
// "http://example.com/" -> "http://(com,example,)/".
func SURTPrefixFromPlain(raw string) (string, bool) {
	raw = addImpliedHTTP(strings.TrimSpace(raw))
	s, ok := SURTForm(raw)
	if !ok {
		return "", false
	}
	if strings.HasSuffix(s, ")/") && !strings.HasSuffix(raw, "/") {
		s = strings.TrimSuffix(s, ")/")
	}
	return s, true
}

// IsDefaultPort reports whether port is empty or the scheme's default port.
func IsDefaultPort(scheme, port string) bool {
	switch {
	case port == "":
		return true
	case scheme == "http" && port == "80":
		return true
	case scheme == "https" && port == "443":
		return true
	default:
		return false
	}
}

func addImpliedHTTP(raw string) string {
	if strings.Contains(raw, "://") || strings.HasPrefix(raw, "dns:") {
		return raw
	}
	return "http://" + raw
}
