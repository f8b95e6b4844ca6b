// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package dig

import (
	"context"
	"net/netip"
	"time"

	"github.com/siemens/netscan/test"
	"github.com/siemens/netscan/types"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/onsi/gomega/gleak"
	. "github.com/thediveo/success"
)

var _ = Describe("digging in the (address) dirt", func() {

	foo := netip.MustParseAddr("10.0.0.1")
	bar := netip.MustParseAddr("10.0.0.2")
	nobody := netip.MustParseAddr("10.0.0.3")

	var server *test.DNSServer

	BeforeEach(func() {
		goodgos := Goroutines()
		server = Successful(test.NewDNSServer(map[string][]string{
			"10.0.0.1": {"foo.example.org"},
			"10.0.0.2": {"bar.example.org", "baz.example.org"},
		}))
		DeferCleanup(func() {
			server.Stop()
			// cancelling a dig can take some time for all associated goroutines
			// to finally terminate...
			Eventually(Goroutines).Within(3 * time.Second).ProbeEvery(250 * time.Millisecond).
				ShouldNot(HaveLeaked(goodgos))
		})
	})

	It("digs and tracks names of addresses", NodeTimeout(30*time.Second), func(ctx context.Context) {
		digger, news := Successful2R(New(2, server.Addr()))
		Expect(digger).NotTo(BeNil())

		go func() {
			defer GinkgoRecover()
			digger.DigAddresses(ctx, []netip.Addr{foo, bar, nobody})
			digger.StopWait()
		}()

		m := NewNamesMap()
		Expect(m.Track(ctx, news)).To(Succeed())
		Expect(m.Names(foo)).To(ConsistOf("foo.example.org"))
		Expect(m.Names(bar)).To(ConsistOf("bar.example.org", "baz.example.org"))
		Expect(m.Names(nobody)).To(BeEmpty())
		Expect(m.Get()).To(HaveLen(3))
		Expect(m.Get()[0].Address).To(Equal(foo))
	})

	It("reports failed digs", NodeTimeout(30*time.Second), func(ctx context.Context) {
		digger, news := Successful2R(New(1, server.Addr()))
		digger.DigAddresses(ctx, []netip.Addr{nobody})
		var namaddr types.NamedAddress
		Eventually(news).Should(Receive(&namaddr))
		Expect(namaddr.Address).To(Equal(nobody))
		Expect(namaddr.Names).To(BeEmpty())
		Expect(namaddr.Err()).To(HaveOccurred())
		digger.StopWait()
		Eventually(news).Should(BeClosed())
	})

	It("cancels digging", NodeTimeout(30*time.Second), func(ctx context.Context) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		digger, _ := Successful2R(New(1, server.Addr()))

		go func() {
			defer GinkgoRecover()
			digger.DigAddresses(ctx, []netip.Addr{foo, bar, nobody})
			digger.StopWait()
		}()

		By("cancelling the context")
		cancel()
		// ...and let the goroutine leak detector do its work!
	})

	It("merges names", func() {
		m := NewNamesMap()
		m.Update(types.NewNamedAddress(foo, []string{"a"}, nil))
		m.Update(types.NewNamedAddress(foo, []string{"b", "a"}, nil))
		m.Update(types.NewNamedAddress(netip.Addr{}, []string{"c"}, nil))
		Expect(m.Names(foo)).To(Equal([]string{"a", "b"}))
		Expect(m.Get()).To(HaveLen(1))
	})

	It("stops tracking when cancelled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		Expect(NewNamesMap().Track(ctx, make(chan types.NamedAddress))).To(MatchError(context.Canceled))
	})

})
