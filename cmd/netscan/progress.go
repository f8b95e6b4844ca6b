// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/siemens/netscan/types"

	"github.com/gosuri/uilive"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// progressOut receives the live progress display.
var progressOut io.Writer = os.Stderr

// isTerminal returns true if w is a terminal; it can be replaced in unit
// tests.
var isTerminal = func(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// progress renders the number of finished probes and responsive addresses
// while a scan is underway.
type progress struct {
	term       *uilive.Writer
	out        *termenv.Output
	spinner    *spinner
	total      int
	probed     atomic.Int64
	responsive atomic.Int64
	done       chan struct{}
	stopped    chan struct{}
	stopOnce   sync.Once
}

// newProgress returns a new progress display rendering to w, expecting a
// total number of verdicts.
func newProgress(w io.Writer, total int) *progress {
	// Dunno what uilive's background updating mode using Start() is good for?
	// It may trigger anytime with the rendering into the buffer not yet
	// complete, thus making the terminal output very flickery. So we avoid
	// Start() and instead trigger an explicit flush to the terminal after
	// having completed the rendering.
	term := uilive.New()
	term.Out = w
	return &progress{
		term:    term,
		out:     termenv.NewOutput(w),
		spinner: newSpinner(),
		total:   total,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Update the progress with a new verdict, counting only final verdicts.
func (p *progress) Update(verdict types.ProbedAddress) {
	if verdict.Outcome.IsPending() {
		return
	}
	p.probed.Add(1)
	if verdict.Outcome == types.Responsive {
		p.responsive.Add(1)
	}
}

// Start rendering the progress in the background, with the spinner turning
// every interval.
func (p *progress) Start(interval time.Duration) {
	p.spinner.Start(interval)
	go func() {
		defer close(p.stopped)
		p.render()
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.render()
			case <-p.done:
				p.render()
				return
			}
		}
	}()
}

// Stop rendering after a final update and release the background resources.
func (p *progress) Stop() {
	p.stopOnce.Do(func() {
		close(p.done)
		<-p.stopped
		p.spinner.Stop()
	})
}

// render the current progress and flush it to the terminal.
func (p *progress) render() {
	fmt.Fprintf(p.term, "%s%d/%d probed, %d responsive\n",
		probingStyle(p.out, p.spinner.Spinner()),
		p.probed.Load(), p.total, p.responsive.Load())
	_ = p.term.Flush()
}
