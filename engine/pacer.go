// Copyright 2019 Intel Corporation.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package engine

import "time"

// pace suspends the process between breaths according to the
// configured mode: busywait (no suspension), fixed-Hz (spec.md §4.3's
// nextbreath schedule), or adaptive back-off keyed on whether the
// previous breath freed anything.
func (e *Engine) pace() {
	if e.opts.Busywait {
		return
	}
	if e.opts.Hz != nil {
		e.paceFixed(*e.opts.Hz)
		return
	}
	e.paceAdaptive()
}

func (e *Engine) paceFixed(hz float64) {
	if e.nextBreath.IsZero() {
		e.nextBreath = e.now
	}
	sleep := e.nextBreath.Sub(e.now)
	if sleep > time.Microsecond {
		e.sleepFor(sleep)
	}
	period := time.Duration(float64(time.Second) / hz)
	next := e.nextBreath.Add(period)
	if next.Before(e.now) {
		next = e.now
	}
	e.nextBreath = next
}

func (e *Engine) paceAdaptive() {
	frees := e.pool.Frees()
	if frees == e.lastFrees {
		e.sleep += time.Microsecond
		if e.sleep > e.opts.MaxSleep {
			e.sleep = e.opts.MaxSleep
		}
	} else {
		e.sleep /= 2
	}
	e.lastFrees = frees
	if e.sleep > 0 {
		e.sleepFor(e.sleep)
	}
}

func (e *Engine) sleepFor(d time.Duration) {
	if d <= 0 {
		return
	}
	e.timeline.Sleep(d.Microseconds())
	time.Sleep(d)
	e.timeline.Wakeup()
}
