// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package scan

import (
	"context"
	"errors"
	"net/netip"
	"time"

	"github.com/siemens/netscan/iprange"
	"github.com/siemens/netscan/ping"
	"github.com/siemens/netscan/types"

	"github.com/thediveo/lxkns/log"
)

// Scanner probes all addresses of address ranges concurrently.
type Scanner struct {
	prober   ping.Prober
	timeout  time.Duration             // per-probe timeout.
	options  ping.Options              // echo request packet options.
	workers  int                       // max. concurrent probes, 0 for all at once.
	progress func(types.ProbedAddress) // optional progress callback.
}

// Option can be passed to New when creating new Scanner objects.
type Option func(*Scanner)

// New returns a new Scanner using the specified prober. The Scanner defaults
// to a per-probe timeout of 3s, echo requests with a TTL of 64 and the don't
// fragment flag set, and probing all addresses of a range at once.
func New(prober ping.Prober, options ...Option) *Scanner {
	s := &Scanner{
		prober:  prober,
		timeout: ping.DefaultTimeout,
		options: ping.DefaultOptions,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// WithTimeout sets the time each individual probe waits for its echo reply.
// Non-positive timeouts are ignored.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Scanner) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// WithTTL sets the time to live of echo requests.
func WithTTL(ttl uint8) Option {
	return func(s *Scanner) {
		s.options.TTL = ttl
	}
}

// WithDontFragment sets or clears the don't fragment flag of echo requests.
func WithDontFragment(df bool) Option {
	return func(s *Scanner) {
		s.options.DontFragment = df
	}
}

// WithWorkers limits the number of concurrently running probes; zero means
// to probe all addresses of a range at once.
func WithWorkers(workers int) Option {
	return func(s *Scanner) {
		if workers >= 0 {
			s.workers = workers
		}
	}
}

// WithProgress sets a callback that gets called for each address when it
// starts getting probed as well as when its final verdict is in. The callback
// is always called from the goroutine running [Scanner.Scan].
func WithProgress(fn func(types.ProbedAddress)) Option {
	return func(s *Scanner) {
		s.progress = fn
	}
}

// Scan probes all addresses of the specified range and returns the Result
// after all probes have finished. An empty Result with no responsive addresses
// is not an error.
//
// When the context gets cancelled or its deadline expires, Scan doesn't wait
// for the outstanding probes, but instead returns immediately: all addresses
// without verdict are then unresponsive with a [types.Cancelled] failure. The
// Result is thus always complete, yet Scan additionally returns the context's
// error.
func (s *Scanner) Scan(ctx context.Context, r iprange.Range) (*Result, error) {
	result := newResult(r)
	size := r.Size()
	if size == 0 {
		return result, nil
	}
	workers := s.workers
	if workers == 0 || workers > size {
		workers = size
	}
	log.Debugf("scanning %s (%d addresses) using %d workers, timeout %s, %+v",
		r, size, workers, s.timeout, s.options)

	pinger, verdicts := ping.New(workers, s.prober,
		ping.WithTimeout(s.timeout),
		ping.WithOptions(s.options))
	go func() {
		r.Each(func(addr netip.Addr) bool {
			pinger.Probe(ctx, addr)
			return ctx.Err() == nil
		})
		pinger.StopWait()
	}()

	// Aggregate the verdicts until all probes have finished and the Pinger
	// thus has closed its verdict channel, or until we're told to stop.
	for {
		select {
		case verdict, ok := <-verdicts:
			if !ok {
				if pending := result.pending(); pending > 0 {
					// The scan was cancelled while the Pinger had already
					// started to wind down.
					err := ctx.Err()
					if err == nil {
						err = errors.New("probe ended without verdict")
					}
					result.abandon(err)
				}
				return result, ctx.Err()
			}
			s.report(verdict)
			if !verdict.Outcome.IsPending() {
				result.record(verdict)
			}
		case <-ctx.Done():
			log.Debugf("scan of %s cancelled with %d probes outstanding", r, result.pending())
			for _, verdict := range result.abandon(ctx.Err()) {
				s.report(verdict)
			}
			return result, ctx.Err()
		}
	}
}

// report a verdict to the optional progress callback.
func (s *Scanner) report(verdict types.ProbedAddress) {
	if s.progress != nil {
		s.progress(verdict)
	}
}
