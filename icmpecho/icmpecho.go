// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package icmpecho

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"net/netip"
	"sync/atomic"
	"time"

	"github.com/siemens/netscan/ping"
	"github.com/siemens/netscan/types"

	"github.com/thediveo/lxkns/ops"
	"github.com/thediveo/lxkns/ops/relations"
	"github.com/thediveo/lxkns/species"
	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
)

// protocolICMP is the IANA protocol number of ICMP for IPv4.
const protocolICMP = 1

// payload of echo requests.
var payload = []byte{0, 0, 0, 0}

// Prober is a [ping.Prober] sending echo requests using [x/net/icmp].
//
// [x/net/icmp]: https://pkg.go.dev/golang.org/x/net/icmp
type Prober struct {
	unprivileged bool               // use ICMP datagram instead of raw sockets.
	netns        relations.Relation // network namespace to probe from, or nil.
	id           int                // echo identifier (privileged raw sockets only).
	seq          atomic.Uint32      // echo sequence counter.
}

var _ ping.Prober = (*Prober)(nil)

// Option can be passed to New when creating new Prober objects.
type Option func(*Prober)

// New returns a new [Prober].
func New(options ...Option) *Prober {
	p := &Prober{
		id: rand.Intn(0xffff),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// InNetworkNamespace optionally opens the ICMP sockets of a [Prober] inside the
// network namespace referenced by the specified filesystem path. An empty
// path means the current network namespace.
func InNetworkNamespace(netnsref string) Option {
	return func(p *Prober) {
		if netnsref == "" {
			p.netns = nil
			return
		}
		p.netns = ops.NewTypedNamespacePath(netnsref, species.CLONE_NEWNET)
	}
}

// AsUnprivileged tells the Prober to use unprivileged ICMP datagram sockets
// instead of raw sockets. On Linux, this requires the process' group to be
// within the net.ipv4.ping_group_range.
func AsUnprivileged() Option {
	return func(p *Prober) {
		p.unprivileged = true
	}
}

// Probe sends a single echo request to addr and waits at most timeout for the
// echo reply.
func (p *Prober) Probe(ctx context.Context, addr netip.Addr, timeout time.Duration, opts ping.Options) (time.Duration, error) {
	if !addr.Is4() {
		return 0, fmt.Errorf("icmpecho: not an IPv4 address: %s", addr)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	conn, err := p.open(opts)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return 0, err
	}
	// Unblock a pending read as soon as the context gets cancelled.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.SetReadDeadline(time.Now())
		case <-done:
		}
	}()

	seq := int(uint16(p.seq.Add(1)))
	msg := icmp.Message{
		Type: ipv4.ICMPTypeEcho,
		Body: &icmp.Echo{ID: p.id, Seq: seq, Data: payload},
	}
	wb, err := msg.Marshal(nil)
	if err != nil {
		return 0, err
	}
	var dst net.Addr = &net.IPAddr{IP: addr.AsSlice()}
	if p.unprivileged {
		dst = &net.UDPAddr{IP: addr.AsSlice()}
	}
	sent := time.Now()
	if _, err := conn.WriteTo(wb, dst); err != nil {
		return 0, err
	}

	rb := make([]byte, 1500)
	for {
		n, peer, err := conn.ReadFrom(rb)
		if err != nil {
			if ctxerr := ctx.Err(); ctxerr != nil {
				return 0, ctxerr
			}
			var neterr net.Error
			if errors.As(err, &neterr) && neterr.Timeout() {
				return 0, types.ErrNoReply
			}
			return 0, err
		}
		switch verdict, reason := match(rb[:n], peerAddr(peer), addr, p.echoID(), seq); verdict {
		case echoReply:
			return time.Since(sent), nil
		case errorReply:
			return 0, fmt.Errorf("%s from %s: %w", reason, peerAddr(peer), types.ErrUnreachable)
		}
	}
}

// open opens a new ICMP socket, switching into the Prober's network namespace
// if necessary.
func (p *Prober) open(opts ping.Options) (net.PacketConn, error) {
	if p.netns == nil {
		return listen(!p.unprivileged, opts)
	}
	var conn net.PacketConn
	res, err := ops.Execute(func() interface{} {
		var err error
		conn, err = listen(!p.unprivileged, opts)
		return err
	}, p.netns)
	if err != nil {
		return nil, err
	}
	if err, ok := res.(error); ok && err != nil {
		return nil, err
	}
	return conn, nil
}

// echoID returns the echo identifier to match replies against, or -1 when
// the kernel assigns identifiers (ICMP datagram sockets).
func (p *Prober) echoID() int {
	if p.unprivileged {
		return -1
	}
	return p.id
}

// reply classifies received ICMP messages.
type reply int

const (
	unrelated  reply = iota // not meant for us.
	echoReply               // the echo reply we're waiting for.
	errorReply              // ICMP error relating to our echo request.
)

// match checks whether the ICMP message b received from peer is either the
// echo reply to our echo request with identifier id and sequence number seq
// sent to target, or an ICMP error message about our echo request. An id of
// -1 matches any identifier. For ICMP errors, match additionally returns a
// description of the error.
func match(b []byte, peer, target netip.Addr, id, seq int) (reply, string) {
	msg, err := icmp.ParseMessage(protocolICMP, b)
	if err != nil {
		return unrelated, ""
	}
	switch body := msg.Body.(type) {
	case *icmp.Echo:
		if msg.Type != ipv4.ICMPTypeEchoReply || peer != target {
			return unrelated, ""
		}
		if body.Seq != seq || (id >= 0 && body.ID != id) {
			return unrelated, ""
		}
		return echoReply, ""
	case *icmp.DstUnreach:
		if quotesEcho(body.Data, target, id, seq) {
			return errorReply, "destination unreachable"
		}
	case *icmp.TimeExceeded:
		if quotesEcho(body.Data, target, id, seq) {
			return errorReply, "time exceeded"
		}
	}
	return unrelated, ""
}

// quotesEcho checks if the original datagram quoted in an ICMP error message
// is our echo request.
func quotesEcho(quote []byte, target netip.Addr, id, seq int) bool {
	if len(quote) < ipv4.HeaderLen {
		return false
	}
	hdrlen := int(quote[0]&0x0f) << 2
	if hdrlen < ipv4.HeaderLen || len(quote) < hdrlen+8 {
		return false
	}
	if dst := netip.AddrFrom4([4]byte(quote[16:20])); dst != target {
		return false
	}
	echo := quote[hdrlen:]
	if echo[0] != byte(ipv4.ICMPTypeEcho) {
		return false
	}
	if int(binary.BigEndian.Uint16(echo[6:8])) != seq {
		return false
	}
	return id < 0 || int(binary.BigEndian.Uint16(echo[4:6])) == id
}

// peerAddr returns the IPv4 address of a peer network address.
func peerAddr(addr net.Addr) netip.Addr {
	var ip net.IP
	switch addr := addr.(type) {
	case *net.IPAddr:
		ip = addr.IP
	case *net.UDPAddr:
		ip = addr.IP
	default:
		return netip.Addr{}
	}
	a, _ := netip.AddrFromSlice(ip)
	return a.Unmap()
}
