// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"context"
	"io"
	"net/netip"
	"os"
	"strings"
	"time"

	"github.com/siemens/netscan/iprange"
	"github.com/siemens/netscan/ping"
	"github.com/siemens/netscan/test"
	"github.com/siemens/netscan/types"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/onsi/gomega/gleak"
	. "github.com/thediveo/success"
)

// evenProber finds only addresses with an even last octet to be responsive.
func evenProber(ctx context.Context, addr netip.Addr, timeout time.Duration, opts ping.Options) (time.Duration, error) {
	if addr.As4()[3]%2 == 0 {
		return time.Millisecond, nil
	}
	return 0, types.ErrNoReply
}

func netscan(ctx context.Context, stdin string, args ...string) (string, error) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

var _ = Describe("netscan command", func() {

	BeforeEach(func() {
		goodgos := Goroutines()
		oldProber := newProber
		newProber = func(string, bool, string) (ping.Prober, error) {
			return ping.ProberFunc(evenProber), nil
		}
		DeferCleanup(func() {
			newProber = oldProber
			Eventually(Goroutines).Within(2 * time.Second).ProbeEvery(100 * time.Millisecond).
				ShouldNot(HaveLeaked(goodgos,
					IgnoringTopFunction("os/signal.signal_recv"),
					IgnoringTopFunction("os/signal.loop")))
		})
	})

	It("scans a range passed as arguments", NodeTimeout(10*time.Second), func(ctx context.Context) {
		out := Successful(netscan(ctx, "", "10.0.0.1", "10.0.0.6"))
		Expect(out).To(HavePrefix("Simple IP range scanner, as netscan but for CLI. Version " + version + "\n"))
		Expect(out).To(ContainSubstring("Scanning range: 10.0.0.1-10.0.0.6, total 6\n"))
		Expect(out).To(HaveSuffix("\n10.0.0.2\n10.0.0.4\n10.0.0.6\n"))
		Expect(out).NotTo(ContainSubstring(startPrompt))
	})

	It("prompts for the range", NodeTimeout(10*time.Second), func(ctx context.Context) {
		out := Successful(netscan(ctx, "\nfoo\n10.0.0.1\n10.0.0.3\n"))
		Expect(out).To(ContainSubstring(startPrompt + startPrompt + invalidInput + "\n" + startPrompt + endPrompt))
		Expect(out).To(ContainSubstring(endPrompt))
		Expect(out).To(ContainSubstring("total 3\n"))
		Expect(out).To(HaveSuffix("\n10.0.0.2\n"))
	})

	It("reports when there are no active hosts", NodeTimeout(10*time.Second), func(ctx context.Context) {
		out := Successful(netscan(ctx, "", "10.0.0.1", "10.0.0.1"))
		Expect(out).To(ContainSubstring("total 1\n"))
		Expect(out).To(HaveSuffix("No active hosts found in this range\n"))
	})

	It("rejects invalid ranges", NodeTimeout(10*time.Second), func(ctx context.Context) {
		for _, tc := range []struct {
			start, end string
			err        error
		}{
			{"10.0.0.5", "10.0.0.1", iprange.ErrOrder},
			{"10.0.0.1", "10.0.1.1", iprange.ErrSubnet},
			{"10.0.0.1", "fe80::1", iprange.ErrNotIPv4},
		} {
			out, err := netscan(ctx, "", tc.start, tc.end)
			Expect(err).To(MatchError(tc.err), "range %s-%s", tc.start, tc.end)
			Expect(out).NotTo(ContainSubstring("Scanning range"))
		}
	})

	It("fails when input ends before a range was entered", NodeTimeout(10*time.Second), func(ctx context.Context) {
		out, err := netscan(ctx, "10.0.0.1\n")
		Expect(err).To(MatchError(io.ErrUnexpectedEOF))
		Expect(out).NotTo(ContainSubstring("Scanning range"))
	})

	DescribeTable("rejects invalid flags",
		func(args ...string) {
			_, err := netscan(context.Background(), "", args...)
			Expect(err).To(HaveOccurred())
		},
		Entry("single IP", "10.0.0.1"),
		Entry("too many IPs", "10.0.0.1", "10.0.0.2", "10.0.0.3"),
		Entry("too many workers", "--workers=257", "10.0.0.1", "10.0.0.2"),
		Entry("zero TTL", "--ttl=0", "10.0.0.1", "10.0.0.2"),
		Entry("short timeout", "--timeout=1ms", "10.0.0.1", "10.0.0.2"),
		Entry("unknown prober", "--prober=foo", "10.0.0.1", "10.0.0.2"),
		Entry("netns and container", "--netns=/proc/1/ns/net", "--container=foo", "10.0.0.1", "10.0.0.2"),
		Entry("negative deadline", "--deadline=-1s", "10.0.0.1", "10.0.0.2"),
		Entry("fast spinner", "--spinner=1ms", "10.0.0.1", "10.0.0.2"),
	)

	It("passes the probe options", NodeTimeout(10*time.Second), func(ctx context.Context) {
		var seen ping.Options
		var seenTimeout time.Duration
		newProber = func(name string, unprivileged bool, netnsref string) (ping.Prober, error) {
			Expect(name).To(Equal(gopingProber))
			Expect(unprivileged).To(BeTrue())
			Expect(netnsref).To(Equal("/proc/self/ns/net"))
			return ping.ProberFunc(func(ctx context.Context, addr netip.Addr, timeout time.Duration, opts ping.Options) (time.Duration, error) {
				seen = opts
				seenTimeout = timeout
				return time.Millisecond, nil
			}), nil
		}
		Expect(netscan(ctx, "",
			"--prober=goping", "--unprivileged", "--netns=/proc/self/ns/net",
			"--ttl=3", "--dont-fragment=false", "--timeout=500ms", "--workers=1",
			"10.0.0.1", "10.0.0.1")).To(HaveSuffix("\n10.0.0.1\n"))
		Expect(seen).To(Equal(ping.Options{TTL: 3, DontFragment: false}))
		Expect(seenTimeout).To(Equal(500 * time.Millisecond))
	})

	It("reports partial results when the deadline expires", NodeTimeout(10*time.Second), func(ctx context.Context) {
		newProber = func(string, bool, string) (ping.Prober, error) {
			return ping.ProberFunc(func(ctx context.Context, addr netip.Addr, timeout time.Duration, opts ping.Options) (time.Duration, error) {
				if addr.As4()[3]%2 == 0 {
					return time.Millisecond, nil
				}
				<-ctx.Done()
				return 0, ctx.Err()
			}), nil
		}
		start := time.Now()
		out := Successful(netscan(ctx, "", "--deadline=250ms", "--timeout=10s", "10.0.0.1", "10.0.0.4"))
		Expect(time.Since(start)).To(BeNumerically("<", 5*time.Second))
		Expect(out).To(HaveSuffix("\n10.0.0.2\n10.0.0.4\n"))
	})

	It("digs up the names of responsive addresses", NodeTimeout(10*time.Second), func(ctx context.Context) {
		server := Successful(test.NewDNSServer(map[string][]string{
			"10.0.0.2": {"two.example.org"},
		}))
		defer server.Stop()
		out := Successful(netscan(ctx, "", "--resolve", "--dns="+server.Addr(), "10.0.0.1", "10.0.0.4"))
		Expect(out).To(ContainSubstring("\n10.0.0.2        two.example.org\n"))
		Expect(out).To(HaveSuffix("\n10.0.0.4\n"))
	})

	It("digs up names even after the scan deadline expired", NodeTimeout(10*time.Second), func(ctx context.Context) {
		newProber = func(string, bool, string) (ping.Prober, error) {
			return ping.ProberFunc(func(ctx context.Context, addr netip.Addr, timeout time.Duration, opts ping.Options) (time.Duration, error) {
				if addr.As4()[3]%2 == 0 {
					return time.Millisecond, nil
				}
				<-ctx.Done()
				return 0, ctx.Err()
			}), nil
		}
		server := Successful(test.NewDNSServer(map[string][]string{
			"10.0.0.2": {"two.example.org"},
		}))
		defer server.Stop()
		out := Successful(netscan(ctx, "", "--deadline=250ms", "--timeout=10s",
			"--resolve", "--dns="+server.Addr(), "10.0.0.1", "10.0.0.3"))
		Expect(out).To(HaveSuffix("\n10.0.0.2        two.example.org\n"))
	})

	It("renders progress on terminals", NodeTimeout(10*time.Second), func(ctx context.Context) {
		oldOut, oldIsTerminal := progressOut, isTerminal
		defer func() { progressOut, isTerminal = oldOut, oldIsTerminal }()
		var prog bytes.Buffer
		progressOut = &prog
		isTerminal = func(io.Writer) bool { return true }
		_, err := netscan(ctx, "", "10.0.0.1", "10.0.0.6")
		Expect(err).NotTo(HaveOccurred())
		Expect(prog.String()).To(ContainSubstring("6/6 probed, 3 responsive"))
	})

	DescribeTable("exits with code 1 on errors",
		func(args ...string) {
			oldArgs, oldExit, oldStdout := os.Args, osExit, os.Stdout
			defer func() { os.Args, osExit, os.Stdout = oldArgs, oldExit, oldStdout }()
			r, w := Successful2R(os.Pipe())
			defer r.Close()
			os.Stdout = w
			exitCode := 0
			osExit = func(code int) { exitCode = code }
			os.Args = append([]string{"netscan"}, args...)
			main()
			w.Close()
			Expect(exitCode).To(Equal(1))
			Expect(string(Successful(io.ReadAll(r)))).NotTo(ContainSubstring("Scanning range"))
		},
		Entry("invalid flag", "--workers=1000", "10.0.0.1", "10.0.0.2"),
		Entry("start after end", "10.0.0.5", "10.0.0.1"),
		Entry("different subnets", "10.0.0.1", "10.0.1.1"),
	)

})
