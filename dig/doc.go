/*
Package dig implements an address-to-names digger: it digs up the DNS names of
IP addresses using reverse (PTR) lookups, streaming its findings as
[types.NamedAddress] elements.

Digging runs concurrently, but under the constraints of limited goroutines,
using a [dnsworker.DnsPool]. Addresses for which no names can be dug up are
still reported, but without names and with the lookup error attached.

[NamesMap] tracks the stream of dug up names, so that a display can render
the names of addresses at any time.

Digging is implemented in pure Go, leveraging the incredible Go module
[miekg/dns].

[miekg/dns]: https://github.com/miekg/dns
*/
package dig
