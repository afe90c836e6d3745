package fetcher

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"strings"
	"syscall"
)

// Errors returned by the URL gates.
var (
	ErrUnsafeURL   = errors.New("url not allowed")
	ErrCrossOrigin = errors.New("cross-origin fetch not allowed")
)

var blockedHostnames = map[string]bool{
	"localhost":                true,
	"metadata.google.internal": true,
	"metadata.google":          true,
}

// CheckURL parses rawURL and rejects anything that is not http(s) or that
// names a loopback, private, link-local or metadata host.
func CheckURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsafeURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: scheme %q", ErrUnsafeURL, u.Scheme)
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return nil, fmt.Errorf("%w: empty host", ErrUnsafeURL)
	}
	if blockedHostnames[host] || strings.HasSuffix(host, ".localhost") {
		return nil, fmt.Errorf("%w: host %s", ErrUnsafeURL, host)
	}
	if addr, parseErr := netip.ParseAddr(host); parseErr == nil && isInternal(addr) {
		return nil, fmt.Errorf("%w: address %s", ErrUnsafeURL, host)
	}

	return u, nil
}

// IsSafeURL reports whether CheckURL accepts rawURL.
func IsSafeURL(rawURL string) bool {
	_, err := CheckURL(rawURL)
	return err == nil
}

func isInternal(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsLoopback() ||
		addr.IsPrivate() ||
		addr.IsLinkLocalUnicast() ||
		addr.IsLinkLocalMulticast() ||
		addr.IsUnspecified() ||
		(addr.Is4() && addr.As4()[0] == 0)
}

// DenyInternalDial is a net.Dialer Control hook that refuses connections to
// internal addresses after DNS resolution. A public name that resolves to a
// private IP is still blocked.
func DenyInternalDial(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnsafeURL, err)
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnsafeURL, err)
	}
	if isInternal(addr) {
		return fmt.Errorf("%w: dial %s", ErrUnsafeURL, addr)
	}
	return nil
}

// SameOrigin reports whether a and b share scheme, host and effective port.
func SameOrigin(a, b *url.URL) bool {
	return strings.EqualFold(a.Scheme, b.Scheme) &&
		strings.EqualFold(a.Hostname(), b.Hostname()) &&
		effectivePort(a) == effectivePort(b)
}

func effectivePort(u *url.URL) string {
	if p := u.Port(); p != "" {
		return p
	}
	if strings.EqualFold(u.Scheme, "https") {
		return "443"
	}
	return "80"
}
