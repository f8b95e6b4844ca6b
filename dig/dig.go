// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package dig

import (
	"context"
	"net/netip"

	"github.com/siemens/netscan/dnsworker"
	"github.com/siemens/netscan/types"

	"github.com/miekg/dns"
)

// Digger digs up the DNS names of IP addresses and then streams its findings
// over its “news” channel.
type Digger struct {
	workers *dnsworker.DnsPool
	news    chan types.NamedAddress
}

// New returns a new Digger with a maximum worker pool of the specified size,
// querying the DNS server at the specified address (including port), as well
// as a “news stream”. This news channel sends NamedAddress elements as the
// outcome(s) of the digs. The news channel gets closed by [Digger.StopWait].
//
// I dunno what Sir Tim, Mick, Phil, and all the others might think of our
// digging here...
func New(size int, server string, options ...dnsworker.DnsPoolOption) (*Digger, <-chan types.NamedAddress, error) {
	news := make(chan types.NamedAddress, size)
	dnsclnt := dns.Client{}
	workers, err := dnsworker.New(
		context.Background(), // ...pretty useless when using a pre-allocated UDP client.
		size,
		&dnsclnt, server,
		options...)
	if err != nil {
		return nil, nil, err
	}
	return &Digger{
		workers: workers,
		news:    news,
	}, news, nil
}

// DigAddresses digs the DNS names of the given addresses. The results are
// getting sent to the channel returned beforehand by New, one for each
// address, with or without names.
func (d *Digger) DigAddresses(ctx context.Context, addrs []netip.Addr) {
	for _, addr := range addrs {
		addr := addr
		// please note that ResolveAddr will enqueue resolutions and thus not
		// block. We only block if the consumer doesn't consume our news ...
		// and then only until the context gets cancelled.
		d.workers.ResolveAddr(ctx, addr, func(names []string, err error) {
			select {
			case d.news <- types.NewNamedAddress(addr, names, err):
			case <-ctx.Done():
			}
		})
	}
}

// StopWait waits for all queued tasks to get processed and then finally closes
// the news channel.
func (d *Digger) StopWait() {
	d.workers.StopWait()
	close(d.news)
}
