// Copyright 2019 Intel Corporation.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package timeline is the engine's structured event stream: breath
// boundaries, pull/push invocations, sleeps and wakeups, each tagged
// with a severity that is resampled once per breath so that detailed
// traces are collected at negligible average cost.
package timeline

import (
	"fmt"
	"math/rand"

	"github.com/intel-go/breathe/internal/common"
)

// Severity is internal/common's shared logging scale, reused here
// rather than declared again: the same threshold that gates the
// engine's steady-state log lines also gates how deep a breath's
// sampled event stream goes, so there is exactly one severity
// hierarchy in the engine, not a log-side one and a timeline-side one
// kept in sync by hand.
type Severity = common.Severity

// Severity levels, aliased from internal/common for callers that only
// import timeline.
const (
	SeverityWarning = common.SeverityWarning
	SeverityInfo    = common.SeverityInfo
	SeverityTrace   = common.SeverityTrace
	SeverityApp     = common.SeverityApp
	SeverityPacket  = common.SeverityPacket
)

// Timeline samples one effective severity per breath and gates event
// emission on it.
type Timeline struct {
	rng     *rand.Rand
	current Severity
	sink    func(sev Severity, format string, args ...interface{})
}

// New returns a Timeline that writes gated events through
// internal/common's leveled logger.
func New(seed int64) *Timeline {
	return &Timeline{
		rng:  rand.New(rand.NewSource(seed)),
		sink: defaultSink,
	}
}

func defaultSink(sev Severity, format string, args ...interface{}) {
	common.Log(sev, fmt.Sprintf(format, args...))
}

// Resample chooses the effective severity for the next breath.
// Probabilities per spec: packet 1e-5, app 1e-4, trace 1e-2, info
// 1e-1, otherwise warning. Sampling from rarest to most common and
// falling through keeps the check O(1) and matches the intent that
// higher severities are strictly rarer.
func (t *Timeline) Resample() {
	x := t.rng.Float64()
	switch {
	case x < 1e-5:
		t.current = SeverityPacket
	case x < 1e-5+1e-4:
		t.current = SeverityApp
	case x < 1e-5+1e-4+1e-2:
		t.current = SeverityTrace
	case x < 1e-5+1e-4+1e-2+1e-1:
		t.current = SeverityInfo
	default:
		t.current = SeverityWarning
	}
}

// Current returns the severity sampled for the current breath.
func (t *Timeline) Current() Severity { return t.current }

// emit gates format/args on whether sev is at or below (no finer
// than) the sampled severity for the current breath.
func (t *Timeline) emit(sev Severity, format string, args ...interface{}) {
	if sev <= t.current {
		t.sink(sev, format, args...)
	}
}

// BreathStart records the beginning of a breath.
func (t *Timeline) BreathStart(n uint64) { t.emit(SeverityTrace, "breath %d start", n) }

// BreathEnd records the end of a breath.
func (t *Timeline) BreathEnd(n uint64) { t.emit(SeverityTrace, "breath %d end", n) }

// Pull records one app's pull invocation.
func (t *Timeline) Pull(app string) { t.emit(SeverityApp, "pull %s", app) }

// Push records one app's push invocation.
func (t *Timeline) Push(app string) { t.emit(SeverityApp, "push %s", app) }

// Packet records a per-packet event (highest-detail, rarest sampled).
func (t *Timeline) Packet(link string, length int) {
	t.emit(SeverityPacket, "packet on %s length=%d", link, length)
}

// Sleep records the pacer suspending.
func (t *Timeline) Sleep(us int64) { t.emit(SeverityInfo, "sleep %dus", us) }

// Wakeup records the pacer resuming.
func (t *Timeline) Wakeup() { t.emit(SeverityInfo, "wakeup") }

// Warning records a warning-level event (always emitted; warning is
// the least severe/most common sampled level).
func (t *Timeline) Warning(format string, args ...interface{}) {
	t.emit(SeverityWarning, format, args...)
}
