// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package iprange

import (
	"net/netip"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/thediveo/success"
)

var _ = Describe("IPv4 ranges", func() {

	Context("validating", func() {

		It("rejects a reversed range", func() {
			_, err := Parse("10.0.0.5", "10.0.0.2")
			Expect(err).To(MatchError(ErrOrder))
		})

		It("rejects a range across subnets", func() {
			_, err := Parse("10.0.0.1", "10.0.1.1")
			Expect(err).To(MatchError(ErrSubnet))
		})

		It("checks ordering before subnets", func() {
			_, err := Parse("10.0.1.1", "10.0.0.1")
			Expect(err).To(MatchError(ErrOrder))
		})

		It("rejects IPv6", func() {
			_, err := Parse("::1", "::2")
			Expect(err).To(MatchError(ErrNotIPv4))
			_, err = New(netip.MustParseAddr("::ffff:10.0.0.1"), netip.MustParseAddr("10.0.0.2"))
			Expect(err).To(MatchError(ErrNotIPv4))
		})

		It("rejects garbage", func() {
			Expect(Parse("foo", "10.0.0.1")).Error().To(HaveOccurred())
			Expect(Parse("10.0.0.1", "10.0.0.256")).Error().To(HaveOccurred())
		})

		It("accepts a full subnet", func() {
			r := Successful(Parse("192.168.1.1", " 192.168.1.255\n"))
			Expect(r.Size()).To(Equal(255))
			Expect(r.Addresses()).To(HaveLen(255))
			Expect(r.String()).To(Equal("192.168.1.1-192.168.1.255"))
		})

		It("accepts all 256 addresses", func() {
			r := Successful(Parse("192.168.1.0", "192.168.1.255"))
			Expect(r.Size()).To(Equal(256))
		})

	})

	Context("expanding", func() {

		DescribeTable("all addresses in ascending order",
			func(start, end string, size int) {
				r := Successful(Parse(start, end))
				addrs := r.Addresses()
				Expect(addrs).To(HaveLen(size))
				Expect(r.Size()).To(Equal(size))
				Expect(addrs[0]).To(Equal(r.Start()))
				Expect(addrs[len(addrs)-1]).To(Equal(r.End()))
				for idx := 1; idx < len(addrs); idx++ {
					Expect(addrs[idx-1].Less(addrs[idx])).To(BeTrue())
				}
				for _, addr := range addrs {
					Expect(r.Contains(addr)).To(BeTrue())
				}
			},
			Entry("single address", "10.0.0.7", "10.0.0.7", 1),
			Entry("small range", "192.168.1.1", "192.168.1.10", 10),
			Entry("upper end", "192.168.1.250", "192.168.1.255", 6),
			Entry("lower end", "172.16.3.0", "172.16.3.3", 4),
			Entry("everything", "172.16.3.0", "172.16.3.255", 256),
		)

		It("stops lazy expansion early", func() {
			r := Successful(Parse("10.0.0.1", "10.0.0.100"))
			var seen []netip.Addr
			r.Each(func(addr netip.Addr) bool {
				seen = append(seen, addr)
				return len(seen) < 3
			})
			Expect(seen).To(Equal([]netip.Addr{
				netip.MustParseAddr("10.0.0.1"),
				netip.MustParseAddr("10.0.0.2"),
				netip.MustParseAddr("10.0.0.3"),
			}))
		})

		It("doesn't contain foreign addresses", func() {
			r := Successful(Parse("10.0.0.10", "10.0.0.20"))
			Expect(r.Contains(netip.MustParseAddr("10.0.0.9"))).To(BeFalse())
			Expect(r.Contains(netip.MustParseAddr("10.0.1.15"))).To(BeFalse())
			Expect(r.Contains(netip.MustParseAddr("::1"))).To(BeFalse())
		})

		It("expands the zero range into nothing", func() {
			var r Range
			Expect(r.IsZero()).To(BeTrue())
			Expect(r.Size()).To(BeZero())
			Expect(r.Addresses()).To(BeEmpty())
			Expect(r.String()).To(Equal("<empty>"))
		})

	})

})
