package queue

import "strings"

// TruncateHostname keeps the last limit dot-separated labels of key, e.g.
// "www.sub.example.com" with limit 2 is "example.com". A "#port" suffix rides
// along with the last label. limit <= 0 or limit >= label count returns key.
func TruncateHostname(key string, limit int) string {
	if limit <= 0 {
		return key
	}
	labels := splitTrimmed(key, ".")
	if limit >= len(labels) {
		return key
	}
	return strings.Join(labels[len(labels)-limit:], ".")
}

// TruncateSURTAuthority keeps the first limit comma-terminated components of a
// SURT authority, e.g. "com,example,sub,www," with limit 2 is "com,example,".
// A "#port" suffix is preserved. limit <= 0 or limit >= component count returns key.
func TruncateSURTAuthority(key string, limit int) string {
	if limit <= 0 {
		return key
	}
	domainPart, portPart := key, ""
	if i := strings.IndexByte(key, '#'); i >= 0 {
		domainPart, portPart = key[:i], key[i:]
	}
	parts := splitTrimmed(domainPart, ",")
	if limit >= len(parts) {
		return key
	}
	var b strings.Builder
	for _, p := range parts[:limit] {
		b.WriteString(p)
		b.WriteByte(',')
	}
	b.WriteString(portPart)
	return b.String()
}

// splitTrimmed splits s on sep and drops trailing empty fields.
func splitTrimmed(s, sep string) []string {
	parts := strings.Split(s, sep)
	for len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}
