// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

//go:build !linux

package icmpecho

import (
	"net"

	"github.com/siemens/netscan/ping"

	"github.com/thediveo/lxkns/log"
	"golang.org/x/net/icmp"
)

// listen opens an IPv4 ICMP socket with the TTL applied; the don't fragment
// option isn't supported on this platform. Privileged sockets are raw
// sockets, otherwise ICMP datagram sockets.
func listen(privileged bool, opts ping.Options) (net.PacketConn, error) {
	network := "udp4"
	if privileged {
		network = "ip4:icmp"
	}
	conn, err := icmp.ListenPacket(network, "0.0.0.0")
	if err != nil {
		return nil, err
	}
	if opts.TTL != 0 {
		if err := conn.IPv4PacketConn().SetTTL(int(opts.TTL)); err != nil {
			conn.Close()
			return nil, err
		}
	}
	if opts.DontFragment {
		log.Debugf("icmpecho: don't fragment not supported on this platform, ignoring")
	}
	return conn, nil
}
