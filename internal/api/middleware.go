// Package api implements the folio HTTP API using chi.
package api

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
)

// DefaultRealm is announced in WWW-Authenticate when none is configured.
const DefaultRealm = "Secure Area"

const robotsTag = "noindex, nofollow, noarchive, nosnippet"

// AuthConfig configures the Basic-Auth gate.
type AuthConfig struct {
	Enabled  bool
	Realm    string
	Username string
	Password string
}

// BasicAuth returns middleware that gates a route group behind HTTP Basic
// credentials. Every response from the group carries X-Robots-Tag. When
// the gate is disabled requests pass through.
func BasicAuth(cfg AuthConfig) func(http.Handler) http.Handler {
	realm := cfg.Realm
	if realm == "" {
		realm = DefaultRealm
	}
	wantUser := sha256.Sum256([]byte(cfg.Username))
	wantPass := sha256.Sum256([]byte(cfg.Password))
	challenge := fmt.Sprintf("Basic realm=%q", realm)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Robots-Tag", robotsTag)
			if !cfg.Enabled {
				next.ServeHTTP(w, r)
				return
			}
			user, pass, ok := r.BasicAuth()
			if ok {
				gotUser := sha256.Sum256([]byte(user))
				gotPass := sha256.Sum256([]byte(pass))
				userOK := subtle.ConstantTimeCompare(gotUser[:], wantUser[:]) == 1
				passOK := subtle.ConstantTimeCompare(gotPass[:], wantPass[:]) == 1
				if userOK && passOK {
					next.ServeHTTP(w, r)
					return
				}
			}
			w.Header().Set("WWW-Authenticate", challenge)
			w.WriteHeader(http.StatusUnauthorized)
		})
	}
}

// refererAllowed reports whether the Referer header names an allowed host.
// An entry beginning with "." matches that domain and any subdomain. An
// empty allow list accepts every request.
func refererAllowed(r *http.Request, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	ref := r.Header.Get("Referer")
	if ref == "" {
		return false
	}
	u, err := url.Parse(ref)
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, a := range allowed {
		a = strings.ToLower(strings.TrimSpace(a))
		switch {
		case a == "":
		case strings.HasPrefix(a, "."):
			if host == a[1:] || strings.HasSuffix(host, a) {
				return true
			}
		case host == a:
			return true
		}
	}
	return false
}

type peerKey struct{}

// PeerAddr records the connection's RemoteAddr before middleware such as
// chi's RealIP rewrites it from forwarding headers, so it must run ahead of
// them. An address recorded by an outer PeerAddr is kept.
func PeerAddr(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Context().Value(peerKey{}).(string); !ok {
			r = r.WithContext(context.WithValue(r.Context(), peerKey{}, r.RemoteAddr))
		}
		next.ServeHTTP(w, r)
	})
}

// ParseTrustedProxies parses IP addresses and CIDR ranges.
func ParseTrustedProxies(entries []string) ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if strings.Contains(e, "/") {
			p, err := netip.ParsePrefix(e)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", e, err)
			}
			out = append(out, p.Masked())
			continue
		}
		a, err := netip.ParseAddr(e)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", e, err)
		}
		a = a.Unmap()
		out = append(out, netip.PrefixFrom(a, a.BitLen()))
	}
	return out, nil
}

// clientHost returns the address a request is attributed to. That is the
// socket peer, unless the peer is a trusted proxy, in which case the
// forwarded address left in RemoteAddr is used.
func clientHost(r *http.Request, trusted []netip.Prefix) string {
	peer, ok := r.Context().Value(peerKey{}).(string)
	if !ok {
		peer = r.RemoteAddr
	}
	host := hostOnly(peer)
	if addr, err := netip.ParseAddr(host); err == nil {
		addr = addr.Unmap()
		for _, p := range trusted {
			if p.Contains(addr) {
				return hostOnly(r.RemoteAddr)
			}
		}
	}
	return host
}

func hostOnly(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
