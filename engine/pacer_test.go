// Copyright 2019 Intel Corporation.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package engine

import (
	"math"
	"testing"
	"time"
)

// TestPaceFixedConvergesToConfiguredHz exercises spec.md's fixed-Hz
// pacing property: over a simulated window, the breath rate converges
// to the configured Hz within +/-1. The clock is driven by hand,
// jumping straight to the pacer's own next-breath decision, so the
// test never blocks on a real sleep the way running this for a wall
// 10s window would.
func TestPaceFixedConvergesToConfiguredHz(t *testing.T) {
	e := New(Options{LinkCapacity: 8})
	const hz = 50.0
	const window = 10 * time.Second

	start := time.Now()
	e.now = start

	var breaths int
	for e.now.Sub(start) < window {
		e.paceFixed(hz)
		if e.now.Before(e.nextBreath) {
			e.now = e.nextBreath
		}
		breaths++
	}

	want := hz * window.Seconds()
	if diff := math.Abs(float64(breaths) - want); diff > 1 {
		t.Fatalf("breaths over %s = %d, want %.0f +/- 1", window, breaths, want)
	}
}

// TestPaceFixedCatchesUpAfterStall checks that if the caller's clock
// jumps past several missed periods (a slow breath), paceFixed
// resets nextBreath to now instead of trying to burn through the
// backlog with zero sleeps.
func TestPaceFixedCatchesUpAfterStall(t *testing.T) {
	e := New(Options{LinkCapacity: 8})
	start := time.Now()
	e.now = start
	e.paceFixed(100)

	stalled := start.Add(time.Second)
	e.now = stalled
	e.paceFixed(100)

	if e.nextBreath.Before(stalled) {
		t.Fatalf("nextBreath = %s, want at or after stall time %s", e.nextBreath, stalled)
	}
}

// TestPaceAdaptiveSaturatesAtMaxSleep exercises spec.md's adaptive
// pacing property: under sustained idle (no packets freed between
// breaths), the back-off reaches MaxSleep within MaxSleep/1us breaths
// and never overshoots it.
func TestPaceAdaptiveSaturatesAtMaxSleep(t *testing.T) {
	e := New(Options{LinkCapacity: 8, MaxSleep: 20 * time.Microsecond})
	e.now = time.Now()

	limit := int(e.opts.MaxSleep / time.Microsecond)
	saturatedAt := -1
	for i := 0; i < limit+5; i++ {
		e.paceAdaptive()
		if e.sleep > e.opts.MaxSleep {
			t.Fatalf("breath %d: sleep = %s, exceeds MaxSleep %s", i, e.sleep, e.opts.MaxSleep)
		}
		if e.sleep == e.opts.MaxSleep && saturatedAt == -1 {
			saturatedAt = i
		}
	}
	if saturatedAt == -1 {
		t.Fatal("adaptive sleep never reached MaxSleep under sustained idle")
	}
	if saturatedAt >= limit {
		t.Fatalf("adaptive sleep reached MaxSleep at breath %d, want within %d breaths", saturatedAt, limit)
	}
}

// TestPaceAdaptiveBacksOffOnProgress checks that once a breath frees
// packets again, the back-off halves instead of continuing to climb.
func TestPaceAdaptiveBacksOffOnProgress(t *testing.T) {
	e := New(Options{LinkCapacity: 8, MaxSleep: 100 * time.Microsecond})
	e.now = time.Now()

	for i := 0; i < 10; i++ {
		e.paceAdaptive()
	}
	saturated := e.sleep
	if saturated == 0 {
		t.Fatal("expected sleep to have grown from idling")
	}

	p := e.pool.Alloc()
	e.pool.Free(p)
	e.paceAdaptive()

	if e.sleep >= saturated {
		t.Fatalf("sleep after progress = %s, want less than %s", e.sleep, saturated)
	}
}
