// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package types

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"os"
	"syscall"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("probed addresses", func() {

	It("stringifies outcomes", func() {
		Expect(Unprobed.String()).To(Equal("unprobed"))
		Expect(Probing.String()).To(Equal("probing"))
		Expect(Unresponsive.String()).To(Equal("unresponsive"))
		Expect(Responsive.String()).To(Equal("responsive"))
		Expect(Outcome(42).String()).To(Equal("Outcome(42)"))
	})

	It("knows which outcomes are pending", func() {
		Expect(Unprobed.IsPending()).To(BeTrue())
		Expect(Probing.IsPending()).To(BeTrue())
		Expect(Unresponsive.IsPending()).To(BeFalse())
		Expect(Responsive.IsPending()).To(BeFalse())
	})

	It("derives new outcomes without touching the original", func() {
		addr := netip.MustParseAddr("10.0.0.1")
		pa := NewProbedAddress(addr)
		Expect(pa.Outcome).To(Equal(Unprobed))

		boom := errors.New("boom")
		failed := pa.WithOutcome(Unresponsive, 0, boom)
		Expect(failed.Address).To(Equal(addr))
		Expect(failed.Err()).To(BeIdenticalTo(boom))
		Expect(failed.Kind()).To(Equal(Transport))
		Expect(pa.Err()).To(BeNil())
		Expect(pa.Kind()).To(Equal(NoFailure))

		ok := failed.WithOutcome(Responsive, 42*time.Millisecond, nil)
		Expect(ok.Err()).To(BeNil())
		Expect(ok.RTT).To(Equal(42 * time.Millisecond))
		Expect(ok.Kind()).To(Equal(NoFailure))
	})

	DescribeTable("classifies failures",
		func(err error, kind FailureKind) {
			Expect(Classify(err)).To(Equal(kind))
		},
		Entry("nil", nil, NoFailure),
		Entry("cancelled", fmt.Errorf("oops: %w", context.Canceled), Cancelled),
		Entry("deadline", context.DeadlineExceeded, Timeout),
		Entry("no reply", ErrNoReply, Timeout),
		Entry("unreachable", fmt.Errorf("icmp: %w", ErrUnreachable), Unreachable),
		Entry("EPERM", os.NewSyscallError("socket", syscall.EPERM), Permission),
		Entry("EACCES", os.NewSyscallError("socket", syscall.EACCES), Permission),
		Entry("anything else", errors.New("D'oh!"), Transport),
		Entry("explicit kind",
			NewProbeError(netip.MustParseAddr("10.0.0.1"), Crashed, errors.New("panic")), Crashed),
	)

	It("wraps probe errors", func() {
		addr := netip.MustParseAddr("10.0.0.1")
		perr := NewProbeError(addr, NoFailure, ErrNoReply)
		Expect(perr.Kind).To(Equal(Timeout))
		Expect(perr).To(MatchError(ErrNoReply))
		Expect(perr.Error()).To(ContainSubstring("10.0.0.1"))
		Expect(perr.Error()).To(ContainSubstring("timeout"))
	})

	It("stringifies failure kinds", func() {
		Expect(Permission.String()).To(Equal("permission denied"))
		Expect(FailureKind(666).String()).To(Equal("FailureKind(666)"))
	})

})
