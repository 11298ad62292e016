// Copyright 2019 Intel Corporation.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package engine

import (
	"time"

	"github.com/intel-go/breathe/app"
)

// reportInterval is how often, in breaths, the engine mirrors its
// counters to the externally visible registry.
const reportInterval = 100

// breath runs one full traversal of the graph: clock refresh, restart
// sweep, pull (inhale), then the push fixed-point (exhale). It returns
// nothing; the pacer's idle detection reads the pool's free counter
// itself.
func (e *Engine) breath() {
	e.now = time.Now()
	e.timeline.Resample()
	e.timeline.BreathStart(e.breaths)

	e.restartSweep()
	e.inhale()
	e.exhale()

	e.breaths++
	if e.breaths%reportInterval == 0 {
		e.commitCounters()
	}
	e.timeline.BreathEnd(e.breaths)
}

// inhale invokes Pull on every live app that exposes it, in the
// engine's deterministic active-array order. Pulls always happen
// strictly before any push within a breath.
func (e *Engine) inhale() {
	for _, entry := range e.appArray {
		if entry.dead != nil {
			continue
		}
		if p, ok := entry.instance.(app.Puller); ok {
			e.timeline.Pull(entry.name)
			e.shieldedCall(entry, func() { p.Pull() })
		}
	}
}

// exhale drains links by repeatedly invoking Push on every link's
// consumer until a full sweep makes no progress. The first sweep
// always visits every link (firstloop); later sweeps only revisit
// links a prior push left with new data. Link visitation order is the
// creation order of the active link array, which is deterministic.
func (e *Engine) exhale() {
	firstloop := true
	for {
		progress := false
		for _, le := range e.linkArray {
			if !firstloop && !le.l.HasNewData {
				continue
			}
			le.l.HasNewData = false

			consumer := e.appArray[le.l.ConsumerIndex]
			if consumer.dead != nil {
				continue
			}
			if p, ok := consumer.instance.(app.Pusher); ok {
				e.timeline.Push(consumer.name)
				e.shieldedCall(consumer, func() { p.Push() })
				progress = true
			}
		}
		firstloop = false
		if !progress {
			return
		}
	}
}

// commitCounters mirrors the engine's process-wide and per-link
// counters to the counters.Registry, matching spec.md's "commit
// counters to their externally visible mirrors" every reportInterval
// breaths (or at an explicit report).
func (e *Engine) commitCounters() {
	e.counters.CommitEngine(e.breaths, e.pool.Frees(), e.pool.FreeBits(), e.pool.FreeBytes(), e.configs)
	for _, le := range e.linkArray {
		e.counters.CommitLink(le.spec.String(), le.l.RxPackets, le.l.RxBytes, le.l.TxPackets, le.l.TxBytes, le.l.TxDrop)
	}
}
