// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/thediveo/lxkns/log"
)

var (
	probeTimeout    *time.Duration
	ttl             *uint8
	dontFragment    *bool
	workerNumber    *uint
	proberName      *string
	unprivileged    *bool
	netnsPath       *string
	containerName   *string
	dockerHost      *string
	resolveNames    *bool
	dnsServer       *string
	scanDeadline    *time.Duration
	spinnerInterval *time.Duration
	debug           *bool
)

// maxWorkers is the largest meaningful number of probe workers, as a range
// never spans more than a single subnet's last octet.
const maxWorkers = 256

func newRootCmd() (rootCmd *cobra.Command) {
	rootCmd = &cobra.Command{
		Use:     "netscan [flags] [start-ip end-ip]",
		Short:   "netscan pings all IPv4 addresses of a range and lists the responsive ones",
		Version: version,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return fmt.Errorf("expected either no arguments or start and end IPs, got %d argument(s)", len(args))
			}
			return nil
		},
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if *probeTimeout < 10*time.Millisecond {
				return fmt.Errorf("--timeout must be at least 10ms")
			}
			if *ttl == 0 {
				return fmt.Errorf("--ttl out of range [1..255]")
			}
			if *workerNumber > maxWorkers {
				return fmt.Errorf("--workers out of range [0..%d]", maxWorkers)
			}
			switch *proberName {
			case icmpProber, gopingProber:
			default:
				return fmt.Errorf("--prober must be either %q or %q", icmpProber, gopingProber)
			}
			if *netnsPath != "" && *containerName != "" {
				return fmt.Errorf("--netns and --container are mutually exclusive")
			}
			if *scanDeadline < 0 {
				return fmt.Errorf("--deadline must not be negative")
			}
			if *spinnerInterval < 10*time.Millisecond {
				return fmt.Errorf("--spinner must be at least 10ms")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if *debug {
				log.SetLevel(log.DebugLevel)
				log.Debugf("debug logging enabled")
			}
			return ScanAndReport(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), args)
		},
	}
	// Sets up the flags.
	pf := rootCmd.PersistentFlags()
	probeTimeout = pf.Duration(
		"timeout", 3*time.Second, "timeout per probe")
	ttl = pf.Uint8(
		"ttl", 64, "time to live of echo requests")
	dontFragment = pf.Bool(
		"dont-fragment", true, "set the don't fragment flag on echo requests")
	workerNumber = pf.Uint(
		"workers", 0, "number of concurrent probes; 0 probes all addresses at once")
	proberName = pf.String(
		"prober", icmpProber, "prober implementation, either \"icmp\" or \"goping\"")
	unprivileged = pf.Bool(
		"unprivileged", false, "use unprivileged ICMP datagram sockets")
	netnsPath = pf.String(
		"netns", "", "path of the network namespace to probe from")
	containerName = pf.String(
		"container", "", "name or ID of the Docker container to probe from")
	dockerHost = pf.String(
		"docker-host", "", "Docker engine API endpoint; defaults to DOCKER_HOST or the local socket")
	resolveNames = pf.Bool(
		"resolve", false, "dig up the DNS names of responsive addresses")
	dnsServer = pf.String(
		"dns", "", "DNS server address and port; defaults to the first server in /etc/resolv.conf")
	scanDeadline = pf.Duration(
		"deadline", 0, "deadline for probing all addresses, not including --resolve; 0 means none")
	spinnerInterval = pf.Duration(
		"spinner", 100*time.Millisecond, "spinner interval")
	debug = pf.Bool(
		"debug", false, "enable debugging output")
	return
}
