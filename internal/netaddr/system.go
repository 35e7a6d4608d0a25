package netaddr

import (
	"fmt"
	"net"

	"github.com/bmatcuk/doublestar/v4"
)

// SystemProvider reads addresses from the operating system.
type SystemProvider struct {
	// IncludeLoopback keeps loopback interfaces in the listing.
	IncludeLoopback bool
	// Ignore holds interface name globs (e.g. "docker*") to skip.
	Ignore []string
}

// ListAddresses enumerates every address on every interface that is up,
// in the order the OS reports them.
func (p SystemProvider) ListAddresses() ([]InterfaceAddress, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("failed to get network interfaces: %w", err)
	}

	var out []InterfaceAddress
	for _, iface := range ifaces {
		if p.skip(iface.Name, iface.Flags) {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		out = append(out, interfaceAddresses(iface.Name, addrs)...)
	}
	return out, nil
}

func (p SystemProvider) skip(name string, flags net.Flags) bool {
	if flags&net.FlagUp == 0 {
		return true
	}
	if flags&net.FlagLoopback != 0 && !p.IncludeLoopback {
		return true
	}
	for _, pattern := range p.Ignore {
		if ok, err := doublestar.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}

func interfaceAddresses(name string, addrs []net.Addr) []InterfaceAddress {
	var out []InterfaceAddress
	for _, addr := range addrs {
		var ip net.IP
		switch v := addr.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		}
		if ip == nil {
			continue
		}

		family := IPv6
		if ip.To4() != nil {
			family = IPv4
		}
		out = append(out, InterfaceAddress{
			Interface: name,
			Family:    family,
			Address:   ip.String(),
		})
	}
	return out
}
