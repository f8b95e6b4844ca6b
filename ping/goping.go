// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package ping

import (
	"context"
	"net/netip"
	"time"

	"github.com/siemens/netscan/types"

	"github.com/go-ping/ping"
	"github.com/thediveo/lxkns/ops"
	"github.com/thediveo/lxkns/ops/relations"
	"github.com/thediveo/lxkns/species"
)

// GoPinger is a [Prober] sending its echo requests using [go-ping/ping]. Please
// note that go-ping doesn't support setting the don't fragment flag, so
// [Options.DontFragment] is silently ignored.
//
// [go-ping/ping]: https://github.com/go-ping/ping
type GoPinger struct {
	unprivileged bool               // if true, uses UDP-based pings instead of privileged ICMPs.
	netns        relations.Relation // network namespace to ping from, or nil.
}

var _ Prober = (*GoPinger)(nil)

// GoPingerOption can be passed to NewGoPinger when creating new GoPinger
// objects.
type GoPingerOption func(*GoPinger)

// NewGoPinger returns a new go-ping based [Prober].
//
// To probe from a network namespace different to that of the OS-level thread
// of the caller specify the [InNetworkNamespace] option and pass it a
// filesystem path that must reference a network namespace (such as
// "/proc/666/ns/net").
func NewGoPinger(options ...GoPingerOption) *GoPinger {
	p := &GoPinger{}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// InNetworkNamespace optionally runs a [GoPinger] inside the network namespace
// referenced by the specified filesystem path. An empty path means the
// current network namespace.
func InNetworkNamespace(netnsref string) GoPingerOption {
	return func(p *GoPinger) {
		if netnsref == "" {
			p.netns = nil
			return
		}
		p.netns = ops.NewTypedNamespacePath(netnsref, species.CLONE_NEWNET)
	}
}

// AsUnprivileged tells the GoPinger to carry out unprivileged pings using UDP
// instead of ICMP packets.
func AsUnprivileged() GoPingerOption {
	return func(p *GoPinger) {
		p.unprivileged = true
	}
}

// Probe sends a single echo request to addr and waits at most timeout for the
// echo reply.
func (p *GoPinger) Probe(ctx context.Context, addr netip.Addr, timeout time.Duration, opts Options) (time.Duration, error) {
	var rtt time.Duration
	probe := func() interface{} {
		// A quick and non-blocking check to see if the context has been
		// cancelled before we start our work...
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		pinger, err := ping.NewPinger(addr.String())
		if err != nil {
			return err
		}
		pinger.SetPrivileged(!p.unprivileged)
		pinger.Count = 1
		pinger.Timeout = timeout
		if opts.TTL != 0 {
			pinger.TTL = int(opts.TTL)
		}
		// While the ping will be running, we need to monitor the context in
		// case it becomes "done" by either getting cancelled or reaching
		// its deadline. The done channel here works "the other way round"
		// in the sense that it terminated the concurrent context
		// monitoring.
		done := make(chan struct{})
		defer close(done)
		go func() {
			select {
			case <-ctx.Done():
				pinger.Stop()
			case <-done:
			}
		}()
		if err = pinger.Run(); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		stats := pinger.Statistics()
		if stats.PacketsRecv == 0 {
			return types.ErrNoReply
		}
		rtt = stats.MaxRtt
		return nil
	}
	// Run the ping in the requested network namespace, if necessary.
	var err error
	if p.netns != nil {
		// lxkns' ops.Execute differentiates between a namespace switching
		// error and the under switched namespaces called function result.
		var pingerr interface{}
		pingerr, err = ops.Execute(probe, p.netns)
		if err == nil && pingerr != nil {
			err, _ = pingerr.(error)
		}
	} else if res := probe(); res != nil {
		err = res.(error)
	}
	if err != nil {
		return 0, err
	}
	return rtt, nil
}
