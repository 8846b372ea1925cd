package security

import (
	"net"
	"net/url"
	"strings"
)

// OriginAllowed reports whether a browser Origin may reach the endpoint.
// Loopback origins are always allowed; anything else must appear in allowed,
// compared case-insensitively as scheme://host[:port]. "*" allows all.
func OriginAllowed(origin string, allowed []string) bool {
	u, err := url.Parse(origin)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return false
	}
	if isLoopbackHost(u.Hostname()) {
		return true
	}
	for _, a := range allowed {
		if a == "*" || strings.EqualFold(strings.TrimSuffix(a, "/"), origin) {
			return true
		}
	}
	return false
}

func isLoopbackHost(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
