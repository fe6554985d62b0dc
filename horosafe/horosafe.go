// CLAUDE:SUMMARY Outbound URL checks (http/https only, no private or loopback targets) and capped body reads.
// Package horosafe guards the outbound requests made while researching:
// every URL coming from a search result is checked before it is fetched,
// and response bodies are read under a cap.
package horosafe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/netip"
	"net/url"
	"strings"
	"time"
)

// MaxResponseBody is the default body cap (5 MiB).
const MaxResponseBody int64 = 5 << 20

var (
	// ErrSSRF is returned for URLs that target a private, loopback or
	// link-local address.
	ErrSSRF = errors.New("horosafe: URL targets a private or loopback address")
	// ErrUnsafeScheme is returned for anything but http and https.
	ErrUnsafeScheme = errors.New("horosafe: only http and https schemes are allowed")
	// ErrResponseTooLarge is returned by LimitedReadAll past its cap.
	ErrResponseTooLarge = errors.New("horosafe: response too large")
)

// Shared, carrier-grade NAT and unique-local ranges not covered by
// netip.Addr's own predicates.
var blocked = []netip.Prefix{
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("100.64.0.0/10"),
	netip.MustParsePrefix("fc00::/7"),
}

// LookupTimeout bounds the DNS resolution done by ValidateURL.
var LookupTimeout = 3 * time.Second

// ValidateScheme checks that rawURL is an absolute http(s) URL with a host.
// It does not look at the address; see ValidateURL.
func ValidateScheme(rawURL string) error {
	_, err := httpURL(rawURL)
	return err
}

// ValidateURL is ValidateScheme plus an address check: literal IPs and
// every address the host resolves to must be public. Hosts that do not
// resolve pass; the fetch fails on its own.
func ValidateURL(rawURL string) error {
	u, err := httpURL(rawURL)
	if err != nil {
		return err
	}
	host := u.Hostname()
	if addr, err := netip.ParseAddr(host); err == nil {
		return checkAddr(addr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), LookupTimeout)
	defer cancel()
	addrs, err := net.DefaultResolver.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return nil
	}
	for _, a := range addrs {
		if err := checkAddr(a); err != nil {
			return err
		}
	}
	return nil
}

func httpURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("horosafe: invalid URL: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return nil, ErrUnsafeScheme
	}
	if u.Hostname() == "" {
		return nil, errors.New("horosafe: URL has no host")
	}
	return u, nil
}

func checkAddr(a netip.Addr) error {
	if isPrivate(a) {
		return fmt.Errorf("%w: %s", ErrSSRF, a)
	}
	return nil
}

func isPrivate(a netip.Addr) bool {
	a = a.Unmap()
	if a.IsLoopback() || a.IsPrivate() || a.IsUnspecified() ||
		a.IsLinkLocalUnicast() || a.IsLinkLocalMulticast() || a.IsInterfaceLocalMulticast() {
		return true
	}
	for _, p := range blocked {
		if p.Contains(a) {
			return true
		}
	}
	return false
}

// LimitedReadAll reads r to the end, failing with ErrResponseTooLarge
// once more than maxBytes have been read.
func LimitedReadAll(r io.Reader, maxBytes int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: over %d bytes", ErrResponseTooLarge, maxBytes)
	}
	return data, nil
}
