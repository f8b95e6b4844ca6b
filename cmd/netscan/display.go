// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"
	"net/netip"
	"strings"

	"github.com/siemens/netscan/dig"

	"github.com/muesli/termenv"
)

// report renders the responsive addresses, one per line, in the order given.
// If names is non-nil, the DNS names of an address follow it on the same line.
func report(w io.Writer, responsive []netip.Addr, names *dig.NamesMap) {
	if len(responsive) == 0 {
		fmt.Fprintln(w, "No active hosts found in this range")
		return
	}
	out := termenv.NewOutput(w)
	for _, addr := range responsive {
		var n []string
		if names != nil {
			n = names.Names(addr)
		}
		if len(n) == 0 {
			fmt.Fprintln(w, responsiveStyle(out, addr.String()))
			continue
		}
		// pad to the width of the longest dotted quad so names line up.
		fmt.Fprintln(w, responsiveStyle(out, fmt.Sprintf("%-15s", addr)),
			nameStyle(out, strings.Join(n, ", ")))
	}
}
