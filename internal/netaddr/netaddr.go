// Package netaddr resolves the LAN address participants use to reach the
// judge server.
//
// Interface state is read through a Provider so resolution can be tested
// against a fixed address list. SystemProvider is the real implementation.
//
// Enumeration order is whatever the operating system reports (interface
// index order on Linux, adapter order on Windows). It is not guaranteed to be
// stable across platforms or reboots, which is why a preferred interface name
// can be configured on the Resolver.
package netaddr

import (
	"errors"
	"fmt"
	"net/netip"
)

// ErrAddressNotFound is returned when no interface address matches the pattern.
var ErrAddressNotFound = errors.New("no matching local address")

// Family is an IP address family.
type Family int

const (
	IPv4 Family = iota + 1
	IPv6
)

func (f Family) String() string {
	switch f {
	case IPv4:
		return "IPv4"
	case IPv6:
		return "IPv6"
	default:
		return fmt.Sprintf("Family(%d)", int(f))
	}
}

// MarshalText renders the family as "IPv4" or "IPv6" in JSON output.
func (f Family) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// InterfaceAddress is one address reported for one network interface.
type InterfaceAddress struct {
	Interface string `json:"interface"`
	Family    Family `json:"family"`
	Address   string `json:"address"`
}

func (a InterfaceAddress) String() string {
	return fmt.Sprintf("%s %s %s", a.Interface, a.Family, a.Address)
}

// Provider lists the addresses currently assigned to the host's interfaces.
type Provider interface {
	ListAddresses() ([]InterfaceAddress, error)
}

// FamilyOf reports the family of a textual address.
func FamilyOf(addr string) (Family, bool) {
	ip, err := netip.ParseAddr(addr)
	if err != nil {
		return 0, false
	}
	if ip.Unmap().Is4() {
		return IPv4, true
	}
	return IPv6, true
}
