// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"os"
)

const version = "0.1.0"

func main() {
	// Cobra already reports the error, so we must not print it a second time,
	// see also: https://github.com/spf13/cobra/issues/304
	if err := newRootCmd().Execute(); err != nil {
		osExit(1)
	}
}

// For CLI unit tests...
var osExit = os.Exit
