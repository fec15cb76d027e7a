package clientip

import (
	"net"
	"net/http"
	"strings"
)

// GetIP extracts the requesting client's IP for the gate's audit log.
// Proxy headers are consulted before RemoteAddr, first valid wins:
// CF-Connecting-IP, X-Forwarded-For (leftmost entry), X-Real-IP.
func GetIP(r *http.Request) string {
	if ip := parseIP(r.Header.Get("CF-Connecting-IP")); ip != "" {
		return ip
	}

	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		for entry := range strings.SplitSeq(forwarded, ",") {
			if ip := parseIP(strings.TrimSpace(entry)); ip != "" {
				return ip
			}
		}
	}

	if ip := parseIP(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return parseIP(r.RemoteAddr)
	}
	return parseIP(host)
}

// parseIP validates and canonicalizes an IP string, tolerating the
// bracketed IPv6 form proxies sometimes forward. Returns "" if invalid.
func parseIP(s string) string {
	if s == "" {
		return ""
	}
	s = strings.TrimPrefix(strings.TrimSuffix(s, "]"), "[")
	ip := net.ParseIP(s)
	if ip == nil {
		return ""
	}
	return ip.String()
}
