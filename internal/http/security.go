package http

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

// defaultTrustedProxies are allowed to set forwarding headers when no list
// is configured.
var defaultTrustedProxies = []string{
	"127.0.0.0/8",
	"::1/128",
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
}

// ClientIPExtractor resolves the client address, honouring forwarding
// headers only from trusted proxies.
type ClientIPExtractor struct {
	trusted []*net.IPNet
}

// NewClientIPExtractor accepts CIDRs or bare IPs.
func NewClientIPExtractor(proxies []string) (*ClientIPExtractor, error) {
	if len(proxies) == 0 {
		proxies = defaultTrustedProxies
	}
	e := &ClientIPExtractor{}
	for _, p := range proxies {
		p = strings.TrimSpace(p)
		if !strings.Contains(p, "/") {
			if ip := net.ParseIP(p); ip != nil && ip.To4() != nil {
				p += "/32"
			} else {
				p += "/128"
			}
		}
		_, network, err := net.ParseCIDR(p)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", p, err)
		}
		e.trusted = append(e.trusted, network)
	}
	return e, nil
}

func (e *ClientIPExtractor) isTrusted(ip net.IP) bool {
	for _, network := range e.trusted {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// ClientIP extracts the real client IP, validating forwarded headers.
func (e *ClientIPExtractor) ClientIP(r *http.Request) string {
	directIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		directIP = r.RemoteAddr
	}

	parsed := net.ParseIP(directIP)
	if parsed == nil || !e.isTrusted(parsed) {
		return directIP
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if net.ParseIP(first) != nil {
			return first
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(xri) != nil {
		return xri
	}
	return directIP
}
