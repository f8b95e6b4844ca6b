// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package types

import (
	"net/netip"
	"time"
)

// ProbedAddress is an IPv4 address together with its probe [Outcome]. Probed
// addresses are values and thus immutable once sent down a channel; use
// [ProbedAddress.WithOutcome] to derive an updated copy.
type ProbedAddress struct {
	Address netip.Addr    `json:"address"`       // the probed IPv4 address
	Outcome Outcome       `json:"outcome"`       // probing state or final verdict
	RTT     time.Duration `json:"rtt,omitempty"` // round-trip time, responsive addresses only.
	err     error         // failure details for unresponsive addresses.
}

// NewProbedAddress returns a yet unprobed address.
func NewProbedAddress(addr netip.Addr) ProbedAddress {
	return ProbedAddress{Address: addr}
}

// Err returns the reason why an address turned out to be unresponsive, or nil.
func (pa ProbedAddress) Err() error { return pa.err }

// Kind returns the failure kind of an unresponsive address, or [NoFailure].
func (pa ProbedAddress) Kind() FailureKind {
	if pa.Outcome != Unresponsive {
		return NoFailure
	}
	return Classify(pa.err)
}

// WithOutcome returns a copy with the outcome, round-trip time and failure
// reason replaced.
func (pa ProbedAddress) WithOutcome(o Outcome, rtt time.Duration, err error) ProbedAddress {
	return ProbedAddress{
		Address: pa.Address,
		Outcome: o,
		RTT:     rtt,
		err:     err,
	}
}

// NamedAddress is a responsive address together with the DNS names pointing
// back to it.
type NamedAddress struct {
	Address netip.Addr `json:"address"`
	Names   []string   `json:"names"`
	err     error      // optional error that occurred while digging up names.
}

// NewNamedAddress returns a named address, optionally carrying a lookup error.
func NewNamedAddress(addr netip.Addr, names []string, err error) NamedAddress {
	return NamedAddress{Address: addr, Names: names, err: err}
}

// Err returns the error that occurred while looking up names, if any.
func (na NamedAddress) Err() error { return na.err }
