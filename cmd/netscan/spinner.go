// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"sync"
	"time"
)

// spinnerPhases are the braille phases of a spinner, one rune per phase.
const spinnerPhases = "⠉⠘⠰⠤⠆⠃"

// spinner turns through its phases at a fixed interval while a scan is
// underway. It is safe to query its current phase concurrently.
type spinner struct {
	phases   []string
	done     chan struct{}
	stopOnce sync.Once
	mu       sync.Mutex
	phase    int
}

// newSpinner returns a new spinner; later call the Start method to make it
// spinning, and the Stop method to stop it and release background resources.
// Stopping a spinner that never started is fine.
func newSpinner() *spinner {
	s := &spinner{done: make(chan struct{})}
	for _, r := range spinnerPhases {
		s.phases = append(s.phases, string(r)+" ")
	}
	return s
}

// Spinner returns the spinner string for the current phase.
func (s *spinner) Spinner() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phases[s.phase]
}

// Start the spinner to spin in steps every specified interval.
func (s *spinner) Start(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.mu.Lock()
				s.phase = (s.phase + 1) % len(s.phases)
				s.mu.Unlock()
			case <-s.done:
				return
			}
		}
	}()
}

// Stop the spinner and release the background resources.
func (s *spinner) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
}
