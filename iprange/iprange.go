// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package iprange

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"
)

// Validation errors; returned errors wrap these, so check using errors.Is.
var (
	ErrNotIPv4 = errors.New("not an IPv4 address")
	ErrOrder   = errors.New("start IP must be less than end IP")
	ErrSubnet  = errors.New("only one subnet is allowed")
)

// Range is a validated, immutable range of IPv4 addresses, where only the last
// octet varies. The zero Range is empty.
type Range struct {
	start netip.Addr
	end   netip.Addr
}

// ParseAddr parses a single IPv4 address in dotted-quad notation, ignoring any
// surrounding whitespace.
func ParseAddr(s string) (netip.Addr, error) {
	addr, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil {
		return netip.Addr{}, err
	}
	if !addr.Is4() {
		return netip.Addr{}, fmt.Errorf("%w: %s", ErrNotIPv4, addr)
	}
	return addr, nil
}

// Parse parses the start and end addresses and returns the validated Range.
func Parse(start, end string) (Range, error) {
	startAddr, err := ParseAddr(start)
	if err != nil {
		return Range{}, fmt.Errorf("invalid start address: %w", err)
	}
	endAddr, err := ParseAddr(end)
	if err != nil {
		return Range{}, fmt.Errorf("invalid end address: %w", err)
	}
	return New(startAddr, endAddr)
}

// New returns the Range from start to end (inclusive), after checking that
// both addresses are IPv4 addresses, start isn't greater than end, and that
// start and end are in the same subnet, differing only in their last octets.
// The checks are applied in this order.
func New(start, end netip.Addr) (Range, error) {
	if !start.Is4() {
		return Range{}, fmt.Errorf("%w: %s", ErrNotIPv4, start)
	}
	if !end.Is4() {
		return Range{}, fmt.Errorf("%w: %s", ErrNotIPv4, end)
	}
	if start.Compare(end) > 0 {
		return Range{}, fmt.Errorf("%w: %s > %s", ErrOrder, start, end)
	}
	s, e := start.As4(), end.As4()
	for octet := 0; octet < 3; octet++ {
		if s[octet] != e[octet] {
			return Range{}, fmt.Errorf("%w: %s and %s differ in octet %d",
				ErrSubnet, start, end, octet+1)
		}
	}
	return Range{start: start, end: end}, nil
}

// Start returns the first address of the range.
func (r Range) Start() netip.Addr { return r.start }

// End returns the last address of the range.
func (r Range) End() netip.Addr { return r.end }

// IsZero reports whether r is the zero (empty) Range.
func (r Range) IsZero() bool { return !r.start.IsValid() }

// Size returns the number of addresses in the range.
func (r Range) Size() int {
	if r.IsZero() {
		return 0
	}
	return int(r.end.As4()[3]) - int(r.start.As4()[3]) + 1
}

// Contains reports whether addr lies within the range.
func (r Range) Contains(addr netip.Addr) bool {
	if r.IsZero() || !addr.Is4() {
		return false
	}
	return r.start.Compare(addr) <= 0 && addr.Compare(r.end) <= 0
}

// Each calls fn for each address in the range in ascending order, until fn
// returns false.
func (r Range) Each(fn func(addr netip.Addr) bool) {
	if r.IsZero() {
		return
	}
	a := r.start.As4()
	last := r.end.As4()[3]
	for octet := int(a[3]); octet <= int(last); octet++ {
		a[3] = byte(octet)
		if !fn(netip.AddrFrom4(a)) {
			return
		}
	}
}

// Addresses returns all addresses in the range in ascending order.
func (r Range) Addresses() []netip.Addr {
	addrs := make([]netip.Addr, 0, r.Size())
	r.Each(func(addr netip.Addr) bool {
		addrs = append(addrs, addr)
		return true
	})
	return addrs
}

// String returns the range in “start-end” notation.
func (r Range) String() string {
	if r.IsZero() {
		return "<empty>"
	}
	return r.start.String() + "-" + r.end.String()
}
