// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/netip"
	"strings"

	"github.com/siemens/netscan/iprange"
)

const (
	startPrompt  = "Enter start IP (ex. 192.168.1.1): "
	endPrompt    = "Enter end IP (ex. 192.168.1.255): "
	invalidInput = "Invalid input, please try again."
)

// promptAddr keeps prompting for an IPv4 address until the user enters a
// valid one. Empty lines simply prompt again. It fails when the input ends
// before a valid address was entered.
func promptAddr(r *bufio.Reader, w io.Writer, prompt string) (netip.Addr, error) {
	for {
		fmt.Fprint(w, prompt)
		line, err := r.ReadString('\n')
		if line = strings.TrimSpace(line); line != "" {
			addr, perr := iprange.ParseAddr(line)
			if perr == nil {
				return addr, nil
			}
			fmt.Fprintln(w, invalidInput)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return netip.Addr{}, fmt.Errorf("cannot read IP address: %w", err)
		}
	}
}

// promptRange prompts for the start and end addresses of a range.
func promptRange(in io.Reader, w io.Writer) (start, end netip.Addr, err error) {
	r := bufio.NewReader(in)
	if start, err = promptAddr(r, w, startPrompt); err != nil {
		return
	}
	end, err = promptAddr(r, w, endPrompt)
	return
}
