// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/netip"
	"os"
	"os/signal"
	"syscall"

	"github.com/siemens/netscan/dig"
	"github.com/siemens/netscan/dnsworker"
	"github.com/siemens/netscan/icmpecho"
	"github.com/siemens/netscan/iprange"
	"github.com/siemens/netscan/mobynet"
	"github.com/siemens/netscan/ping"
	"github.com/siemens/netscan/scan"
	"github.com/siemens/netscan/types"

	"github.com/thediveo/lxkns/log"
)

const (
	icmpProber   = "icmp"
	gopingProber = "goping"
)

// digWorkers is the number of concurrent reverse DNS lookups.
const digWorkers = 5

const resolvconf = "/etc/resolv.conf"

// newProber returns the Prober implementation selected by name; it can be
// replaced in unit tests.
var newProber = func(name string, unprivileged bool, netnsref string) (ping.Prober, error) {
	switch name {
	case icmpProber:
		opts := []icmpecho.Option{icmpecho.InNetworkNamespace(netnsref)}
		if unprivileged {
			opts = append(opts, icmpecho.AsUnprivileged())
		}
		return icmpecho.New(opts...), nil
	case gopingProber:
		opts := []ping.GoPingerOption{ping.InNetworkNamespace(netnsref)}
		if unprivileged {
			opts = append(opts, ping.AsUnprivileged())
		}
		return ping.NewGoPinger(opts...), nil
	}
	return nil, fmt.Errorf("unknown prober %q", name)
}

// ScanAndReport asks for the range to scan unless the start and end IPs have
// been passed as args, and then probes all addresses in that range. Finally,
// it reports the responsive addresses, optionally together with their DNS
// names.
//
// A scan cut short by the user or by the deadline isn't an error: the
// addresses found responsive so far still get reported.
func ScanAndReport(ctx context.Context, in io.Reader, out io.Writer, args []string) error {
	fmt.Fprintf(out, "Simple IP range scanner, as netscan but for CLI. Version %s\n", version)
	fmt.Fprintln(out, "Enter start and end IPs")
	fmt.Fprintln(out, "CONSTRAINTS. Only one simple subnet at a time (e.g. 192.168.1.1/24). "+
		"IPv4 only. Start IP must be less than end IP.")

	var start, end netip.Addr
	var err error
	if len(args) == 2 {
		if start, err = iprange.ParseAddr(args[0]); err != nil {
			return fmt.Errorf("invalid start IP: %w", err)
		}
		if end, err = iprange.ParseAddr(args[1]); err != nil {
			return fmt.Errorf("invalid end IP: %w", err)
		}
	} else if start, end, err = promptRange(in, out); err != nil {
		return err
	}
	rng, err := iprange.New(start, end)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Scanning range: %s, total %d\n", rng, rng.Size())

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()
	// The deadline limits only the probing, so that digging up names still
	// works after a scan that has been cut short.
	scanctx := ctx
	if *scanDeadline > 0 {
		var cancelDeadline context.CancelFunc
		scanctx, cancelDeadline = context.WithTimeout(ctx, *scanDeadline)
		defer cancelDeadline()
	}

	netnsref := *netnsPath
	if *containerName != "" {
		netnsref, err = mobynet.ContainerNetnsRef(ctx, *dockerHost, *containerName)
		if err != nil {
			return err
		}
		log.Debugf("probing from network namespace %s of container %s", netnsref, *containerName)
	}
	prober, err := newProber(*proberName, *unprivileged, netnsref)
	if err != nil {
		return err
	}

	opts := []scan.Option{
		scan.WithTimeout(*probeTimeout),
		scan.WithTTL(*ttl),
		scan.WithDontFragment(*dontFragment),
		scan.WithWorkers(int(*workerNumber)),
	}
	var prog *progress
	if isTerminal(progressOut) {
		prog = newProgress(progressOut, rng.Size())
		opts = append(opts, scan.WithProgress(prog.Update))
		prog.Start(*spinnerInterval)
	}
	result, err := scan.New(prober, opts...).Scan(scanctx, rng)
	if prog != nil {
		prog.Stop()
	}
	if err != nil {
		log.Warnf("scan of %s cut short: %s", rng, err)
	}
	logFailures(result)

	var names *dig.NamesMap
	responsive := result.Sorted()
	if *resolveNames && len(responsive) > 0 {
		names, err = digNames(ctx, responsive, netnsref)
		if err != nil {
			log.Warnf("cannot dig up DNS names: %s", err)
		}
	}
	report(out, responsive, names)
	return nil
}

// logFailures logs a summary of why addresses were unresponsive and warns
// about systemic failures that render the scan result meaningless.
func logFailures(result *scan.Result) {
	for kind, count := range result.Failures() {
		log.Debugf("%d addresses unresponsive: %s", count, kind)
	}
	serr := result.Systemic()
	if serr == nil {
		return
	}
	var perr *types.ProbeError
	if errors.As(serr, &perr) && perr.Kind == types.Permission && !*unprivileged {
		log.Warnf("%s; run with elevated privileges or use --unprivileged", serr)
		return
	}
	log.Warnf("%s", serr)
}

// digNames digs up the DNS names of the specified addresses.
func digNames(ctx context.Context, addrs []netip.Addr, netnsref string) (*dig.NamesMap, error) {
	server := *dnsServer
	if server == "" {
		var err error
		if server, err = dnsworker.DefaultServer(resolvconf); err != nil {
			return nil, err
		}
	}
	digger, news, err := dig.New(digWorkers, server, dnsworker.InNetworkNamespace(netnsref))
	if err != nil {
		return nil, err
	}
	go func() {
		digger.DigAddresses(ctx, addrs)
		digger.StopWait()
	}()
	names := dig.NewNamesMap()
	return names, names.Track(ctx, news)
}
