// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package test

import (
	"net"
	"strings"

	"github.com/miekg/dns"
)

// DNSServer is a minimal DNS server answering PTR queries from a fixed set of
// records; it answers all other queries with NXDOMAIN.
type DNSServer struct {
	server *dns.Server
	addr   string
}

// NewDNSServer starts a UDP DNS server on a random loopback port, serving the
// specified PTR records, mapping IP addresses in textual format to names.
func NewDNSServer(ptrs map[string][]string) (*DNSServer, error) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	records := map[string][]string{}
	for addr, names := range ptrs {
		arpa, err := dns.ReverseAddr(addr)
		if err != nil {
			pc.Close()
			return nil, err
		}
		records[arpa] = names
	}
	started := make(chan struct{})
	server := &dns.Server{
		PacketConn:        pc,
		NotifyStartedFunc: func() { close(started) },
		Handler: dns.HandlerFunc(func(w dns.ResponseWriter, req *dns.Msg) {
			m := new(dns.Msg)
			m.SetReply(req)
			q := req.Question[0]
			names, ok := records[strings.ToLower(q.Name)]
			if q.Qtype != dns.TypePTR || !ok {
				m.SetRcode(req, dns.RcodeNameError)
				_ = w.WriteMsg(m)
				return
			}
			for _, name := range names {
				m.Answer = append(m.Answer, &dns.PTR{
					Hdr: dns.RR_Header{
						Name:   q.Name,
						Rrtype: dns.TypePTR,
						Class:  dns.ClassINET,
						Ttl:    60,
					},
					Ptr: dns.Fqdn(name),
				})
			}
			_ = w.WriteMsg(m)
		}),
	}
	go func() { _ = server.ActivateAndServe() }()
	<-started
	return &DNSServer{server: server, addr: pc.LocalAddr().String()}, nil
}

// Addr returns the address of the server, including the port.
func (s *DNSServer) Addr() string { return s.addr }

// Stop shuts down the server.
func (s *DNSServer) Stop() {
	_ = s.server.Shutdown()
}
