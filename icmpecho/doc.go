/*
Package icmpecho implements a [ping.Prober] sending ICMP echo requests on its
own ICMP sockets, using [x/net/icmp] for building and parsing ICMP messages.

Unlike go-ping, this prober honours all packet options: on Linux it sets the
TTL as well as the IPv4 don't fragment flag (by enforcing path MTU discovery)
on the socket. On other platforms, only the TTL can be set.

Each probe opens its own socket, so probes never need to coordinate when
receiving replies; replies not belonging to a probe are simply skipped. Besides
echo replies, a probe also recognizes ICMP destination unreachable and time
exceeded messages relating to its echo request, so it can tell an
unreachable host from a silent one without having to wait for its timeout.

[x/net/icmp]: https://pkg.go.dev/golang.org/x/net/icmp
*/
package icmpecho
