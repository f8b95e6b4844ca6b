// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

//go:build linux

package icmpecho

import (
	"net"
	"os"

	"github.com/siemens/netscan/ping"

	"golang.org/x/sys/unix"
)

// listen opens an IPv4 ICMP socket with the TTL and don't fragment options
// applied. Privileged sockets are raw sockets, otherwise ICMP datagram
// sockets.
func listen(privileged bool, opts ping.Options) (net.PacketConn, error) {
	sotype := unix.SOCK_DGRAM
	if privileged {
		sotype = unix.SOCK_RAW
	}
	fd, err := unix.Socket(unix.AF_INET, sotype|unix.SOCK_CLOEXEC, unix.IPPROTO_ICMP)
	if err != nil {
		return nil, os.NewSyscallError("socket", err)
	}
	if err := setsockopts(fd, opts); err != nil {
		unix.Close(fd)
		return nil, err
	}
	if err := unix.Bind(fd, &unix.SockaddrInet4{}); err != nil {
		unix.Close(fd)
		return nil, os.NewSyscallError("bind", err)
	}
	// net.FilePacketConn works on a dup of the socket, so we need to close our
	// original file (and thus socket) in any case.
	f := os.NewFile(uintptr(fd), "icmp")
	defer f.Close()
	return net.FilePacketConn(f)
}

// setsockopts applies the packet options to a socket.
func setsockopts(fd int, opts ping.Options) error {
	if opts.TTL != 0 {
		if err := unix.SetsockoptInt(fd, unix.IPPROTO_IP, unix.IP_TTL, int(opts.TTL)); err != nil {
			return os.NewSyscallError("setsockopt IP_TTL", err)
		}
	}
	pmtud := unix.IP_PMTUDISC_DONT
	if opts.DontFragment {
		pmtud = unix.IP_PMTUDISC_DO
	}
	if err := unix.SetsockoptInt(fd, unix.IPPROTO_IP, unix.IP_MTU_DISCOVER, pmtud); err != nil {
		return os.NewSyscallError("setsockopt IP_MTU_DISCOVER", err)
	}
	return nil
}
