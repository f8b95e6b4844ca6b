/*
Package dnsworker implements a simple limiting DNS client-request execution
pool. Netscan uses [DnsPool] with a pool of “DNS workers” for reverse (PTR)
lookups of responsive addresses.

Usage

	dnsclnt := dns.Client{}
	workers, err := dnsworker.New(
	    context.Background(),
	    4,                    // number of parallel DNS connections and thus workers
	    &dnsclnt,             // DNS client
	    "127.0.0.1:53",       // address of server/resolver
	)
	workers.ResolveAddr(
	    ctx,
	    netip.MustParseAddr("192.168.1.1"),
	    func(names []string, err error){
	        // do something with names, unless there's an error reported
	    })
	workers.Submit(func(conn *dns.Conn){
	    // do something with the DNS connection
	})
	workers.StopWait()

# Acknowledgements

Under its hood, [DnsPool] leverages [gammazero/workerpool] as
the limiting goroutine pool.

[gammazero/workerpool]: https://github.com/gammazero/workerpool
*/
package dnsworker
