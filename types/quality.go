// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package types

import "fmt"

// Outcome indicates the probing state of a network address, such as not yet
// probed, responsive, et cetera.
type Outcome int

// The probe outcomes of a network address.
const (
	Unprobed     Outcome = iota // address neither in probing nor probed.
	Probing                     // address in probing.
	Unresponsive                // address did not answer (for whatever reason).
	Responsive                  // address answered an echo request in time.
)

// String returns the clear-text representation of an Outcome value.
func (o Outcome) String() string {
	switch o {
	case Unprobed:
		return "unprobed"
	case Probing:
		return "probing"
	case Unresponsive:
		return "unresponsive"
	case Responsive:
		return "responsive"
	}
	return fmt.Sprintf("Outcome(%d)", o)
}

// IsPending returns true as long as an address hasn't reached a final outcome.
func (o Outcome) IsPending() bool {
	switch o {
	case Unprobed, Probing:
		return true
	default:
		return false
	}
}
