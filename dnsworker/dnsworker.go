// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package dnsworker

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"strings"
	"sync"

	"github.com/gammazero/workerpool"
	"github.com/miekg/dns"
	"github.com/thediveo/lxkns/ops"
	"github.com/thediveo/lxkns/ops/relations"
	"github.com/thediveo/lxkns/species"
)

// DnsPool is a (size-limited) pool of DNS client connections talking with the
// same DNS resolver address.
type DnsPool struct {
	netns   relations.Relation // network namespace to dial from, or nil.
	workers *workerpool.WorkerPool
	mu      sync.Mutex // protects the pool of DNS connections
	free    []*dns.Conn
}

// DnsPoolOption can be passed to New when creating new [DnsPool] objects.
type DnsPoolOption func(*DnsPool)

// New returns a pool of the specified size of DNS client connections, with each
// connection using the specified context and talking to the same DNS resolver
// address. Sizes less than one are taken as one.
//
// DNS tasks are submitted using [DnsPool.Submit] in form of task functions
// receiving a concrete [dns.Conn].
//
// The passed context is used for creating (dialing) the DNS client connections
// only. It is not directly passed to the submitted DNS tasks, so task
// submitters are themselves responsible for capturing the necessary context in
// their task function closure.
//
// To operate a DnsPool in a network namespace different to that of the OS-level
// thread of the caller specify the [InNetworkNamespace] option and pass it a
// filesystem path that must reference a network namespace (such as
// "/proc/666/ns/net").
func New(ctx context.Context, size int, dnsclnt *dns.Client, addr string, options ...DnsPoolOption) (*DnsPool, error) {
	if size < 1 {
		size = 1
	}
	dnspool := &DnsPool{}
	for _, opt := range options {
		opt(dnspool)
	}
	// Create the DNS client connections for the workers, one per worker, so
	// that tasks never have to wait for a free connection.
	free := make([]*dns.Conn, 0, size)
	dial := func() interface{} {
		for i := 0; i < size; i++ {
			conn, err := dnsclnt.DialContext(ctx, addr)
			if err != nil {
				// Immediately release all connections created so far.
				for _, conn := range free {
					conn.Close()
				}
				return fmt.Errorf("cannot dial DNS server %s: %w", addr, err)
			}
			free = append(free, conn)
		}
		return nil
	}
	// Dial the connections in the requested network namespace, if necessary.
	var dialerr interface{}
	if dnspool.netns != nil {
		var err error
		if dialerr, err = ops.Execute(dial, dnspool.netns); err != nil {
			return nil, err
		}
	} else {
		dialerr = dial()
	}
	if dialerr != nil {
		return nil, dialerr.(error)
	}
	dnspool.free = free
	dnspool.workers = workerpool.New(size)
	return dnspool, nil
}

// DefaultServer returns the address (including port) of the first DNS server
// configured in the specified resolv.conf file, such as "/etc/resolv.conf".
func DefaultServer(resolvconf string) (string, error) {
	cfg, err := dns.ClientConfigFromFile(resolvconf)
	if err != nil {
		return "", err
	}
	if len(cfg.Servers) == 0 {
		return "", fmt.Errorf("no DNS servers configured in %s", resolvconf)
	}
	return net.JoinHostPort(cfg.Servers[0], cfg.Port), nil
}

// InNetworkNamespace optionally dials the DNS client connections of a DnsPool
// inside the network namespace referenced by the specified filesystem path. An
// empty path means the current network namespace.
func InNetworkNamespace(netnsref string) DnsPoolOption {
	return func(p *DnsPool) {
		if netnsref == "" {
			p.netns = nil
			return
		}
		p.netns = ops.NewTypedNamespacePath(netnsref, species.CLONE_NEWNET)
	}
}

// Submit a task to the DNS client connection pool, where it gets enqueued to be
// executed on an available DNS client connection.
func (p *DnsPool) Submit(task func(conn *dns.Conn)) {
	p.workers.Submit(func() { p.task(task) })
}

// ResolveAddr is a convenience method for submitting a reverse (PTR) query for
// the specified IP address and gathering the results. The results (DNS names,
// without trailing dots) or an error if resolution failed is passed to the
// specified callback function fn.
//
// Please note that when the passed context is cancelled this will cancel all
// in-flight as well as scheduled name resolution jobs.
func (p *DnsPool) ResolveAddr(ctx context.Context, addr netip.Addr, fn func([]string, error)) {
	p.Submit(func(conn *dns.Conn) {
		var names []string
		var err error
		defer func() { fn(names, err) }() // ...ensure triggering the result callback on our way out

		// don't try to resolve the address if the context has been cancelled;
		// trigger the callback immediately with the context error.
		select {
		case <-ctx.Done():
			err = ctx.Err()
			return
		default:
		}

		var arpa string
		arpa, err = dns.ReverseAddr(addr.String())
		if err != nil {
			return
		}
		msg := dns.Msg{
			MsgHdr: dns.MsgHdr{Id: dns.Id()},
		}
		msg.SetQuestion(arpa, dns.TypePTR)
		dnsclnt := dns.Client{}
		var r *dns.Msg
		r, _, err = dnsclnt.ExchangeWithConn(&msg, conn)
		if err != nil {
			return
		}
		if r.Rcode != dns.RcodeSuccess {
			err = fmt.Errorf("ResolveAddr: query for %q failed with %s",
				arpa, dns.RcodeToString[r.Rcode])
			return
		}
		for _, rr := range r.Answer {
			if ptr, ok := rr.(*dns.PTR); ok {
				names = append(names, strings.TrimSuffix(ptr.Ptr, "."))
			}
		}
		// If we didn't get any PTR answers then we consider this to be an
		// error. This ensures to send an error to the callback together with
		// the nil list of names.
		if len(names) == 0 {
			err = fmt.Errorf("ResolveAddr: query for %q yields no answers", arpa)
		}
	})
}

// task grabs the next free DNS client and passes it to the specified function.
// After the function returns, the connection is put back into the free list.
func (p *DnsPool) task(task func(conn *dns.Conn)) {
	// pop off a free DNS client connection,
	// https://ueokande.github.io/go-slice-tricks/,
	p.mu.Lock()
	if len(p.free) == 0 {
		panic("no free DNS client connection available")
	}
	last := len(p.free) - 1
	conn := p.free[last]
	p.free = p.free[:last]
	p.mu.Unlock()
	// run the task with its assigned DNS client connection...
	task(conn)
	// ...and push the DNS client connection back into the free list.
	p.mu.Lock()
	p.free = append(p.free, conn)
	p.mu.Unlock()
}

// StopWait waits for all enqueued reverse lookup or generic DNS request tasks
// to finish, and then shuts down the pool.
func (p *DnsPool) StopWait() {
	p.workers.StopWait()
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, conn := range p.free {
		conn.Close()
	}
	p.free = nil
}
