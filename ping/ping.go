// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package ping

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"sync"
	"time"

	"github.com/siemens/netscan/types"

	"github.com/gammazero/workerpool"
	"github.com/thediveo/lxkns/log"
)

// DefaultTimeout is the time a single probe waits for an echo reply unless
// told otherwise.
const DefaultTimeout = 3 * time.Second

// Pinger probes IP addresses using a [Prober] and then streams the final
// [types.ProbedAddress] verdicts to a result/output channel (kind of
// “IT-court TV”). Pingers use a goroutine-limited worker pool.
type Pinger struct {
	prober  Prober
	timeout time.Duration // per-probe timeout, starting at dispatch.
	options Options       // packet options passed on to the prober.

	workers  *workerpool.WorkerPool   // workers for running incoming probe jobs concurrently.
	courtTV  chan types.ProbedAddress // results/status stream channel.
	stopOnce sync.Once
}

// PingerOption can be passed to New when creating new Pinger objects.
type PingerOption func(*Pinger)

// New returns a new [Pinger] with a maximum worker pool of the specified size
// as well as a “verdict stream”. The verdict channel will not only send the
// final probe verdicts, but also the initial and yet unprobed addresses as they
// get submitted for ping court verdicts.
//
// The new pinger defaults to a probe timeout of 3s and echo requests with a TTL
// of 64 and the don't fragment flag set. Use the following options to change
// these defaults:
//   - [WithTimeout]
//   - [WithOptions]
func New(size int, prober Prober, options ...PingerOption) (*Pinger, <-chan types.ProbedAddress) {
	return new(size, size, prober, options...)
}

// new returns a new [Pinger] with a maximum worker pool of the specified size and
// a “verdict stream” with the specified buffer size.
func new(workersize int, chansize int, prober Prober, options ...PingerOption) (*Pinger, <-chan types.ProbedAddress) {
	if workersize < 1 {
		workersize = 1
	}
	courtTV := make(chan types.ProbedAddress, chansize)
	pinger := &Pinger{
		prober:  prober,
		timeout: DefaultTimeout,
		options: DefaultOptions,
		workers: workerpool.New(workersize),
		courtTV: courtTV,
	}
	for _, opt := range options {
		opt(pinger)
	}
	return pinger, courtTV
}

// WithTimeout sets the time a single probe waits for an echo reply. The
// timeout clock starts when the probe gets dispatched to a worker.
func WithTimeout(timeout time.Duration) PingerOption {
	if timeout <= 0 {
		panic(fmt.Errorf("Pinger: timeout must be positive, got: %s", timeout))
	}
	return func(p *Pinger) {
		p.timeout = timeout
	}
}

// WithOptions sets the echo request packet options.
func WithOptions(opts Options) PingerOption {
	return func(p *Pinger) {
		p.options = opts
	}
}

// ProbeStream reads addresses to be probed from a channel until the channel is
// closed or the specified context gets cancelled. It does not return until
// then, so callers typically might run ProbeStream in a separate goroutine.
func (p *Pinger) ProbeStream(ctx context.Context, ch <-chan netip.Addr) {
	for {
		select {
		case addr, ok := <-ch:
			if !ok {
				return
			}
			p.Probe(ctx, addr)
		case <-ctx.Done():
			return
		}
	}
}

// Probe the specified IP address. The verdict is then sent to the channel
// returned together with the newly created [Pinger]. Additionally, an initial
// notice for the address to be probed is also sent beforehand.
//
// If the specified context gets cancelled the pending probe verdicts won't be
// echoed to the verdict stream at all, and in particular not even as
// unresponsive. However, spurious verdicts might still appear on the verdict
// stream due to uncontrollable order of verdict sending and context
// cancellation detection.
func (p *Pinger) Probe(ctx context.Context, addr netip.Addr) {
	verdict := types.ProbedAddress{Address: addr, Outcome: types.Probing}
	// Allow cancelling a blocked address verdict send to avoid leaking
	// goroutines. The downside is that since the order in which select checks
	// for ctx.Done() and a blocked verdict channel is random, so we cannot
	// guarantuee that either never a verdict is sent or the verdict gets always
	// sent.
	select {
	case p.courtTV <- verdict: // not yet the final one ;)
	case <-ctx.Done():
		return
	}
	p.workers.Submit(func() {
		verdict := p.probe(ctx, verdict)
		// Again, allow cancelling a blocked address verdict send to avoid
		// leaking goroutines.
		select {
		case p.courtTV <- verdict: // final one this time.
		case <-ctx.Done():
		}
	})
}

// probe runs the prober on the address in verdict, limiting it to the
// Pinger's probe timeout, and returns the final verdict. A prober that panics
// or overruns its timeout gets an unresponsive verdict. In the latter case the
// prober is simply abandoned.
func (p *Pinger) probe(ctx context.Context, verdict types.ProbedAddress) types.ProbedAddress {
	addr := verdict.Address
	parent := ctx
	// The prober's own timeout contract should make it return in time, but we
	// don't rely on it and give it only a little legroom before abandoning it.
	ctx, cancel := context.WithTimeout(ctx, p.timeout+p.timeout/10)
	defer cancel()

	type reply struct {
		rtt time.Duration
		err error
	}
	replies := make(chan reply, 1) // never block an abandoned prober.
	go func() {
		var r reply
		returned := false
		defer func() {
			// Probers leaving by panic(nil) or runtime.Goexit don't hand us
			// anything to recover, yet they never returned a verdict either.
			if crash := recover(); crash != nil || !returned {
				r = reply{err: types.NewProbeError(addr, types.Crashed,
					fmt.Errorf("prober did not return: %v", crash))}
			}
			replies <- r
		}()
		r.rtt, r.err = p.prober.Probe(ctx, addr, p.timeout, p.options)
		returned = true
	}()

	var r reply
	select {
	case r = <-replies:
	case <-ctx.Done():
		r.err = ctx.Err()
	}
	if r.err != nil {
		// Our own probe deadline classifies as a timeout, while a done
		// caller's context always means that the probe got abandoned.
		var perr *types.ProbeError
		switch {
		case parent.Err() != nil:
			perr = types.NewProbeError(addr, types.Cancelled, r.err)
		case !errors.As(r.err, &perr):
			perr = types.NewProbeError(addr, types.NoFailure, r.err)
		}
		log.Debugf("%s", perr)
		return verdict.WithOutcome(types.Unresponsive, 0, perr)
	}
	return verdict.WithOutcome(types.Responsive, r.rtt, nil)
}

// StopWait waits for all queued tasks to get processed and then finally closes
// the court TV channel.
func (p *Pinger) StopWait() {
	p.stopOnce.Do(func() {
		p.workers.StopWait()
		close(p.courtTV)
	})
}
