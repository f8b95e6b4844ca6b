// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package types

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/netip"
)

// FailureKind classifies why an address turned out to be unresponsive. The
// final scan report collapses all kinds into “unresponsive”, but the kinds are
// kept for diagnostics.
type FailureKind int

// The failure kinds of unresponsive addresses.
const (
	NoFailure   FailureKind = iota
	Timeout                 // no echo reply before the probe's timeout.
	Unreachable             // an ICMP destination unreachable came back.
	Permission              // not allowed to open ICMP sockets.
	Transport               // any other socket or packet level failure.
	Crashed                 // the probing task panicked.
	Cancelled               // the probe was abandoned because the scan was cancelled.
)

// String returns the clear-text representation of a FailureKind value.
func (k FailureKind) String() string {
	switch k {
	case NoFailure:
		return "none"
	case Timeout:
		return "timeout"
	case Unreachable:
		return "unreachable"
	case Permission:
		return "permission denied"
	case Transport:
		return "transport"
	case Crashed:
		return "crashed"
	case Cancelled:
		return "cancelled"
	}
	return fmt.Sprintf("FailureKind(%d)", k)
}

// Sentinel errors for the failure kinds that are not naturally signalled by
// lower-level errors.
var (
	ErrNoReply     = errors.New("no echo reply")
	ErrUnreachable = errors.New("destination unreachable")
)

// ProbeError is the error an unresponsive address carries.
type ProbeError struct {
	Addr netip.Addr
	Kind FailureKind
	Err  error
}

// NewProbeError wraps err, classifying it unless kind is given explicitly
// (that is, not [NoFailure]).
func NewProbeError(addr netip.Addr, kind FailureKind, err error) *ProbeError {
	if kind == NoFailure {
		kind = Classify(err)
	}
	return &ProbeError{Addr: addr, Kind: kind, Err: err}
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("probing %s failed (%s): %s", e.Addr, e.Kind, e.Err)
}

func (e *ProbeError) Unwrap() error { return e.Err }

// Classify returns the failure kind of err. A nil error is [NoFailure].
// Errors of unknown origin count as [Transport] failures.
func Classify(err error) FailureKind {
	if err == nil {
		return NoFailure
	}
	var perr *ProbeError
	if errors.As(err, &perr) {
		return perr.Kind
	}
	switch {
	case errors.Is(err, context.Canceled):
		return Cancelled
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, ErrNoReply):
		return Timeout
	case errors.Is(err, ErrUnreachable):
		return Unreachable
	case errors.Is(err, fs.ErrPermission):
		return Permission
	}
	var neterr net.Error
	if errors.As(err, &neterr) && neterr.Timeout() {
		return Timeout
	}
	return Transport
}
