package netaddr

import (
	"fmt"
	"net/netip"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// PatternPrivate matches any private (RFC 1918) IPv4 address.
const PatternPrivate = "private"

type matchKind int

const (
	matchPrefix matchKind = iota
	matchGlob
	matchCIDR
	matchPrivate
)

// Matcher decides whether an address is the one participants should use.
//
// Pattern forms:
//
//	192.            string prefix (the classic behaviour)
//	192.168.*       glob, matched with doublestar
//	192.168.0.0/16  CIDR prefix
//	private         any private IPv4 address
//
// Only IPv4 addresses match, except for a CIDR pattern with an IPv6 prefix.
type Matcher struct {
	pattern string
	kind    matchKind
	prefix  netip.Prefix
}

// ParsePattern builds a Matcher from its textual form.
func ParsePattern(pattern string) (Matcher, error) {
	pattern = strings.TrimSpace(pattern)
	switch {
	case pattern == "":
		return Matcher{}, fmt.Errorf("empty address pattern")

	case strings.EqualFold(pattern, PatternPrivate):
		return Matcher{pattern: PatternPrivate, kind: matchPrivate}, nil

	case strings.Contains(pattern, "/"):
		prefix, err := netip.ParsePrefix(pattern)
		if err != nil {
			return Matcher{}, fmt.Errorf("invalid CIDR pattern %q: %w", pattern, err)
		}
		return Matcher{pattern: pattern, kind: matchCIDR, prefix: prefix.Masked()}, nil

	case strings.ContainsAny(pattern, "*?[{"):
		if !doublestar.ValidatePattern(pattern) {
			return Matcher{}, fmt.Errorf("invalid glob pattern %q", pattern)
		}
		return Matcher{pattern: pattern, kind: matchGlob}, nil

	default:
		return Matcher{pattern: pattern, kind: matchPrefix}, nil
	}
}

// MustParsePattern is ParsePattern for patterns known to be valid.
func MustParsePattern(pattern string) Matcher {
	m, err := ParsePattern(pattern)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Matcher) String() string {
	return m.pattern
}

// Match reports whether addr satisfies the pattern.
func (m Matcher) Match(addr string) bool {
	ip, err := netip.ParseAddr(addr)
	if err != nil {
		return false
	}
	ip = ip.Unmap()

	if m.kind == matchCIDR {
		return m.prefix.Contains(ip)
	}
	if !ip.Is4() {
		return false
	}

	switch m.kind {
	case matchPrivate:
		return ip.IsPrivate()
	case matchGlob:
		ok, err := doublestar.Match(m.pattern, ip.String())
		return err == nil && ok
	default:
		return strings.HasPrefix(ip.String(), m.pattern)
	}
}
