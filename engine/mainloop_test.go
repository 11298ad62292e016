// Copyright 2019 Intel Corporation.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package engine

import (
	"bytes"
	"testing"
)

// fakeTimerWheel counts Poll invocations so tests can assert Main's
// timer-polling behavior without a real timer implementation.
type fakeTimerWheel struct {
	polls int
}

func (f *fakeTimerWheel) Poll() { f.polls++ }

// TestMainRunsUntilDonePollingTimers checks Main's breath/timer/pace/
// done loop: it should run exactly as many breaths as Done demands,
// polling Timers once per breath.
func TestMainRunsUntilDonePollingTimers(t *testing.T) {
	e := New(Options{LinkCapacity: 8, Busywait: true})

	timers := &fakeTimerWheel{}
	n := 0
	e.Main(MainOptions{
		Done: func() bool {
			n++
			return n >= 5
		},
		Timers:   timers,
		NoReport: true,
	})

	if got, want := e.Breaths(), uint64(5); got != want {
		t.Errorf("Breaths() = %d, want %d", got, want)
	}
	if got, want := timers.polls, 5; got != want {
		t.Errorf("timer polls = %d, want %d", got, want)
	}
}

// TestMainNoTimersSuppressesPolling checks that NoTimers keeps Main
// from calling Poll even when a TimerWheel is supplied.
func TestMainNoTimersSuppressesPolling(t *testing.T) {
	e := New(Options{LinkCapacity: 8, Busywait: true})

	timers := &fakeTimerWheel{}
	n := 0
	e.Main(MainOptions{
		Done: func() bool {
			n++
			return n >= 3
		},
		Timers:   timers,
		NoTimers: true,
		NoReport: true,
	})

	if timers.polls != 0 {
		t.Errorf("timer polls = %d, want 0 with NoTimers set", timers.polls)
	}
}

// TestMainMeasureLatencyStillReports checks that MeasureLatency
// doesn't interfere with the loop's termination or the report's
// suppression by NoReport, and that a report is emitted to
// ReportWriter when NoReport is left unset.
func TestMainMeasureLatencyStillReports(t *testing.T) {
	e := New(Options{LinkCapacity: 8, Busywait: true})

	n := 0
	var buf bytes.Buffer
	e.Main(MainOptions{
		Done: func() bool {
			n++
			return n >= 2
		},
		MeasureLatency: true,
		ReportWriter:   &buf,
	})

	if got, want := e.Breaths(), uint64(2); got != want {
		t.Errorf("Breaths() = %d, want %d", got, want)
	}
	if buf.Len() == 0 {
		t.Error("expected a non-empty report when NoReport is unset")
	}
}

// TestMainNoReportSuppressesOutput checks that NoReport keeps Main
// from writing anything even when a ReportWriter is supplied.
func TestMainNoReportSuppressesOutput(t *testing.T) {
	e := New(Options{LinkCapacity: 8, Busywait: true})

	n := 0
	var buf bytes.Buffer
	e.Main(MainOptions{
		Done: func() bool {
			n++
			return n >= 2
		},
		NoReport:     true,
		ReportWriter: &buf,
	})

	if buf.Len() != 0 {
		t.Errorf("report writer got %d bytes, want 0 with NoReport set", buf.Len())
	}
}
