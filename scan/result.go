// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package scan

import (
	"errors"
	"fmt"
	"net/netip"
	"sort"

	"github.com/siemens/netscan/iprange"
	"github.com/siemens/netscan/types"
)

// Result of scanning an address range: the set of responsive addresses, as
// well as the individual verdicts of all probed addresses.
//
// A Result is written only by the scan producing it and must not be used
// before the scan has returned it.
type Result struct {
	rng        iprange.Range
	outcomes   map[netip.Addr]types.ProbedAddress // final verdicts only.
	responsive []netip.Addr                       // in order of completion.
}

func newResult(r iprange.Range) *Result {
	return &Result{
		rng:      r,
		outcomes: make(map[netip.Addr]types.ProbedAddress, r.Size()),
	}
}

// record a final verdict. Verdicts for addresses outside the scanned range as
// well as repeated verdicts are ignored.
func (r *Result) record(verdict types.ProbedAddress) bool {
	addr := verdict.Address
	if !r.rng.Contains(addr) {
		return false
	}
	if _, ok := r.outcomes[addr]; ok {
		return false
	}
	r.outcomes[addr] = verdict
	if verdict.Outcome == types.Responsive {
		r.responsive = append(r.responsive, addr)
	}
	return true
}

// pending returns the number of addresses still without a final verdict.
func (r *Result) pending() int {
	return r.rng.Size() - len(r.outcomes)
}

// abandon all addresses without final verdicts, considering them to be
// unresponsive with a cancellation failure caused by err. It returns the
// newly recorded verdicts.
func (r *Result) abandon(err error) []types.ProbedAddress {
	var abandoned []types.ProbedAddress
	r.rng.Each(func(addr netip.Addr) bool {
		if _, ok := r.outcomes[addr]; ok {
			return true
		}
		verdict := types.NewProbedAddress(addr).WithOutcome(types.Unresponsive, 0,
			types.NewProbeError(addr, types.Cancelled, err))
		r.outcomes[addr] = verdict
		abandoned = append(abandoned, verdict)
		return true
	})
	return abandoned
}

// Range returns the scanned address range.
func (r *Result) Range() iprange.Range { return r.rng }

// Len returns the number of responsive addresses.
func (r *Result) Len() int { return len(r.responsive) }

// Responsive returns the responsive addresses in no particular order.
func (r *Result) Responsive() []netip.Addr {
	addrs := make([]netip.Addr, len(r.responsive))
	copy(addrs, r.responsive)
	return addrs
}

// Sorted returns the responsive addresses in ascending order.
func (r *Result) Sorted() []netip.Addr {
	addrs := r.Responsive()
	sort.Slice(addrs, func(a, b int) bool { return addrs[a].Less(addrs[b]) })
	return addrs
}

// Outcome returns the final verdict for the specified address, if any.
func (r *Result) Outcome(addr netip.Addr) (types.ProbedAddress, bool) {
	verdict, ok := r.outcomes[addr]
	return verdict, ok
}

// Failures returns the number of unresponsive addresses per failure kind.
func (r *Result) Failures() map[types.FailureKind]int {
	failures := map[types.FailureKind]int{}
	for _, verdict := range r.outcomes {
		if verdict.Outcome == types.Unresponsive {
			failures[verdict.Kind()]++
		}
	}
	return failures
}

// Systemic returns an error if all probes of a Result failed for the same
// reason, and this reason points to a problem with the scanner itself instead
// of with the scanned hosts, such as not being allowed to open ICMP sockets.
func (r *Result) Systemic() error {
	if r.Len() > 0 || len(r.outcomes) == 0 {
		return nil
	}
	var first *types.ProbeError
	for _, outcome := range r.outcomes {
		var perr *types.ProbeError
		if !errors.As(outcome.Err(), &perr) {
			return nil
		}
		switch perr.Kind {
		case types.Permission, types.Transport, types.Crashed:
		default:
			return nil
		}
		if first == nil {
			first = perr
			continue
		}
		if perr.Kind != first.Kind {
			return nil
		}
	}
	return fmt.Errorf("all %d probes failed (%s): %w", len(r.outcomes), first.Kind, first.Err)
}
