// Copyright 2019 Intel Corporation.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package engine

import (
	"io"
	"time"
)

// TimerWheel is the out-of-core timer collaborator the main loop
// polls once per iteration unless suppressed. The core only consumes
// this interface; a real timer wheel implementation lives outside the
// engine package.
type TimerWheel interface {
	Poll()
}

// MainOptions configures one call to Main.
type MainOptions struct {
	// Done, if set, is polled after every breath; Main returns once it
	// reports true.
	Done func() bool
	// Duration, if non-zero and Done is nil, runs the loop for this
	// long.
	Duration time.Duration
	// Timers is polled once per iteration unless NoTimers is set.
	Timers TimerWheel
	// NoTimers suppresses timer polling.
	NoTimers bool
	// NoReport suppresses the end-of-run textual report.
	NoReport bool
	// ReportWriter receives the end-of-run report; defaults to nil,
	// meaning the report is dropped, unless the caller supplies one.
	ReportWriter io.Writer
	// MeasureLatency wraps each breath to record its duration in the
	// counters registry's log-scale histogram.
	MeasureLatency bool
}

// Main drives the engine until the termination predicate fires (or
// forever, if neither Done nor Duration is set): breath, timer poll,
// pace, test predicate. On exit it commits counters and, unless
// suppressed, emits the three-section report.
func (e *Engine) Main(opts MainOptions) {
	e.now = time.Now()

	done := opts.Done
	if done == nil && opts.Duration > 0 {
		deadline := e.now.Add(opts.Duration)
		done = func() bool { return time.Now().After(deadline) }
	}

	for {
		if opts.MeasureLatency {
			start := time.Now()
			e.breath()
			e.counters.ObserveBreathLatency(time.Since(start))
		} else {
			e.breath()
		}

		if !opts.NoTimers && opts.Timers != nil {
			opts.Timers.Poll()
		}

		e.pace()

		if done != nil && done() {
			break
		}
	}

	e.commitCounters()
	if !opts.NoReport {
		e.report(opts.ReportWriter)
	}
}
