package netaddr

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Candidate is an enumerated address and whether it satisfies the pattern.
type Candidate struct {
	InterfaceAddress
	Matched bool `json:"matched"`
}

// Resolver picks the local address to announce.
//
// Addresses are considered in enumeration order, except that addresses of the
// preferred Interface (when set) are considered before all others. The first
// matching address wins.
type Resolver struct {
	Provider  Provider
	Matcher   Matcher
	Interface string
	// Log receives a warning when several addresses match. Nil disables it.
	Log *zerolog.Logger
}

// NewResolver returns a Resolver reading from the system interfaces.
func NewResolver(m Matcher, preferred string, ignore []string) *Resolver {
	return &Resolver{
		Provider:  SystemProvider{Ignore: ignore},
		Matcher:   m,
		Interface: preferred,
	}
}

// Resolve returns the first matching address, or ErrAddressNotFound.
// It has no side effects; calling it twice against unchanged interface
// state yields the same answer.
func (r *Resolver) Resolve() (string, error) {
	matches, err := r.Matches()
	if err != nil {
		return "", err
	}

	if len(matches) > 1 && r.Log != nil {
		others := make([]string, 0, len(matches)-1)
		for _, m := range matches[1:] {
			others = append(others, m.Interface+"="+m.Address)
		}
		r.Log.Warn().
			Str("selected", matches[0].Address).
			Str("interface", matches[0].Interface).
			Strs("also_matched", others).
			Msg("several addresses match; set address.interface to choose one")
	}
	return matches[0].Address, nil
}

// Matches returns every matching address in resolution order.
// It fails with ErrAddressNotFound when there are none.
func (r *Resolver) Matches() ([]InterfaceAddress, error) {
	candidates, err := r.Candidates()
	if err != nil {
		return nil, err
	}

	var matches []InterfaceAddress
	for _, c := range candidates {
		if c.Matched {
			matches = append(matches, c.InterfaceAddress)
		}
	}
	if len(matches) == 0 {
		if r.Interface != "" {
			return nil, fmt.Errorf("%w: pattern %q (preferred interface %q)", ErrAddressNotFound, r.Matcher, r.Interface)
		}
		return nil, fmt.Errorf("%w: pattern %q", ErrAddressNotFound, r.Matcher)
	}
	return matches, nil
}

// Candidates lists every enumerated address in resolution order,
// flagging the ones that match.
func (r *Resolver) Candidates() ([]Candidate, error) {
	addrs, err := r.Provider.ListAddresses()
	if err != nil {
		return nil, fmt.Errorf("list interface addresses: %w", err)
	}

	out := make([]Candidate, 0, len(addrs))
	if r.Interface != "" {
		for _, a := range addrs {
			if a.Interface == r.Interface {
				out = append(out, r.candidate(a))
			}
		}
	}
	for _, a := range addrs {
		if r.Interface != "" && a.Interface == r.Interface {
			continue
		}
		out = append(out, r.candidate(a))
	}
	return out, nil
}

func (r *Resolver) candidate(a InterfaceAddress) Candidate {
	return Candidate{
		InterfaceAddress: a,
		Matched:          r.Matcher.Match(a.Address),
	}
}
