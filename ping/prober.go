// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package ping

import (
	"context"
	"net/netip"
	"time"
)

// Options are the packet options passed on to a [Prober] uninterpreted.
type Options struct {
	TTL          uint8 // time to live of the echo request packet.
	DontFragment bool  // sets the IPv4 don't fragment flag.
}

// DefaultOptions are the echo request packet options used unless told
// otherwise.
var DefaultOptions = Options{TTL: 64, DontFragment: true}

// Prober sends a single ICMP echo request to the specified address and waits
// for the reply for at most the specified timeout. Probe returns the
// round-trip time on success, otherwise an error describing why there was no
// (timely) reply.
//
// Probers must be safe for concurrent use and should return early when the
// passed context gets cancelled.
type Prober interface {
	Probe(ctx context.Context, addr netip.Addr, timeout time.Duration, opts Options) (time.Duration, error)
}

// ProberFunc adapts an ordinary function into a [Prober].
type ProberFunc func(ctx context.Context, addr netip.Addr, timeout time.Duration, opts Options) (time.Duration, error)

// Probe calls f(ctx, addr, timeout, opts).
func (f ProberFunc) Probe(ctx context.Context, addr netip.Addr, timeout time.Duration, opts Options) (time.Duration, error) {
	return f(ctx, addr, timeout, opts)
}
