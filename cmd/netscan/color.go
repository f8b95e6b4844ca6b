// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import "github.com/muesli/termenv"

func responsiveStyle(o *termenv.Output, s string) termenv.Style {
	return o.String(s).Foreground(termenv.ANSIGreen)
}

func nameStyle(o *termenv.Output, s string) termenv.Style {
	return o.String(s).Bold()
}

func probingStyle(o *termenv.Output, s string) termenv.Style {
	return o.String(s).Foreground(termenv.ANSIYellow)
}
