// Copyright 2019 Intel Corporation.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package engine

import (
	"io/ioutil"
	"testing"
	"time"

	"github.com/intel-go/breathe/app"
	"github.com/intel-go/breathe/config"
	"github.com/intel-go/breathe/packet"
)

type flakyInstance struct {
	failed bool
}

func (f *flakyInstance) Pull() {
	if !f.failed {
		f.failed = true
		panic("boom")
	}
}

type flakyClass struct{}

func (flakyClass) New(arg map[string]interface{}, ports *app.Ports) (app.Instance, error) {
	return &flakyInstance{}, nil
}
func (flakyClass) ConfigSchema() app.Schema { return app.Schema{} }

// flakyFeederInstance pushes a single packet onto its "out" link so a
// downstream Push hook has something to be invoked for.
type flakyFeederInstance struct {
	pool  *packet.Pool
	ports *app.Ports
}

func (f *flakyFeederInstance) Pull() {
	out := f.ports.Output("out")
	p := f.pool.Alloc()
	p.Append([]byte("x"))
	out.Put(p)
}

type flakyFeederClass struct{}

func (flakyFeederClass) New(arg map[string]interface{}, ports *app.Ports) (app.Instance, error) {
	return &flakyFeederInstance{pool: arg["pool"].(*packet.Pool), ports: ports}, nil
}
func (flakyFeederClass) ConfigSchema() app.Schema { return app.Schema{Required: []string{"pool"}} }

// flakyPushInstance panics from Push on its first invocation, and
// drains its input link cleanly thereafter.
type flakyPushInstance struct {
	failed bool
	ports  *app.Ports
}

func (f *flakyPushInstance) Push() {
	if !f.failed {
		f.failed = true
		panic("boom in push")
	}
	in := f.ports.Input("in")
	for {
		if _, ok := in.Get(); !ok {
			return
		}
	}
}

type flakyPushClass struct{}

func (flakyPushClass) New(arg map[string]interface{}, ports *app.Ports) (app.Instance, error) {
	return &flakyPushInstance{ports: ports}, nil
}
func (flakyPushClass) ConfigSchema() app.Schema { return app.Schema{} }

// flakyReportInstance panics from Report on its first invocation.
type flakyReportInstance struct {
	failed bool
}

func (f *flakyReportInstance) Report() string {
	if !f.failed {
		f.failed = true
		panic("boom in report")
	}
	return "ok"
}

type flakyReportClass struct{}

func (flakyReportClass) New(arg map[string]interface{}, ports *app.Ports) (app.Instance, error) {
	return &flakyReportInstance{}, nil
}
func (flakyReportClass) ConfigSchema() app.Schema { return app.Schema{} }

// TestTolerantModeRestartsDeadApp exercises spec.md's S6 scenario
// without relying on wall-clock sleeps: it drives the breath stages
// directly and advances e.now by hand.
func TestTolerantModeRestartsDeadApp(t *testing.T) {
	e := New(Options{LinkCapacity: 8, Tolerant: true, RestartDelay: 2 * time.Second})

	cfg := config.New()
	mustNoErr(t, cfg.App("flaky", "flaky", flakyClass{}, nil))
	mustConfigure(t, e, cfg)

	e.now = time.Now()
	original := e.appTable["flaky"]
	e.inhale()

	if e.appTable["flaky"].dead == nil {
		t.Fatal("app did not get marked dead after panicking pull")
	}

	// Not yet due: restartSweep should leave it dead.
	e.restartSweep()
	if e.appTable["flaky"] != original {
		t.Fatal("app was restarted before its restart delay elapsed")
	}

	e.now = e.now.Add(3 * time.Second)
	e.restartSweep()

	if e.appTable["flaky"] == original {
		t.Fatal("app was not restarted after its restart delay elapsed")
	}
	if e.appTable["flaky"].dead != nil {
		t.Fatal("restarted app should not still be marked dead")
	}

	// The fresh instance should pull cleanly now.
	e.inhale()
	if e.appTable["flaky"].dead != nil {
		t.Fatal("restarted app died again on its first pull")
	}
}

// TestStrictModePanicsPropagate checks that without Tolerant, a
// panicking hook is not contained.
func TestStrictModePanicsPropagate(t *testing.T) {
	e := New(Options{LinkCapacity: 8})

	cfg := config.New()
	mustNoErr(t, cfg.App("flaky", "flaky", flakyClass{}, nil))
	mustConfigure(t, e, cfg)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic to propagate in strict mode")
		}
	}()
	e.now = time.Now()
	e.inhale()
}

// TestTolerantModeContainsPushPanic exercises the Push third of
// spec.md's S6 scenario: a panic raised from a Push hook is contained
// the same way a panic from Pull is.
func TestTolerantModeContainsPushPanic(t *testing.T) {
	e := New(Options{LinkCapacity: 8, Tolerant: true, RestartDelay: 2 * time.Second})

	cfg := config.New()
	mustNoErr(t, cfg.App("feeder", "feeder", flakyFeederClass{}, map[string]interface{}{"pool": e.Pool()}))
	mustNoErr(t, cfg.App("flaky", "flakypush", flakyPushClass{}, nil))
	mustNoErr(t, cfg.Link("feeder.out -> flaky.in"))
	mustConfigure(t, e, cfg)

	e.now = time.Now()
	e.inhale()
	e.exhale()

	if e.appTable["flaky"].dead == nil {
		t.Fatal("app did not get marked dead after panicking push")
	}
}

// TestTolerantModeContainsReportPanic exercises the Report third of
// spec.md's S6 scenario: a panic raised from an app's Report hook
// (invoked by the end-of-run report, per report.go) is contained
// rather than aborting the report for every other app.
func TestTolerantModeContainsReportPanic(t *testing.T) {
	e := New(Options{LinkCapacity: 8, Tolerant: true, RestartDelay: 2 * time.Second})

	cfg := config.New()
	mustNoErr(t, cfg.App("flaky", "flakyreport", flakyReportClass{}, nil))
	mustConfigure(t, e, cfg)

	e.now = time.Now()
	e.report(ioutil.Discard)

	if e.appTable["flaky"].dead == nil {
		t.Fatal("app did not get marked dead after panicking report")
	}
}

// TestRestartQueueDueOrdersEarliestFirst locks down the priority
// queue's pop order independently of the single-app engine-level
// test: with several staggered revive times scheduled out of order,
// due should return exactly the ones at or before now, earliest
// first, and leave the rest pending.
func TestRestartQueueDueOrdersEarliestFirst(t *testing.T) {
	var rq restartQueue
	rq.init()

	base := time.Now()
	rq.schedule("third", base.Add(30*time.Second))
	rq.schedule("first", base.Add(10*time.Second))
	rq.schedule("fourth", base.Add(40*time.Second))
	rq.schedule("second", base.Add(20*time.Second))

	got := rq.due(base.Add(25 * time.Second))
	want := []string{"first", "second"}
	if len(got) != len(want) {
		t.Fatalf("due = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("due = %v, want %v", got, want)
		}
	}

	rest := rq.due(base.Add(100 * time.Second))
	wantRest := []string{"third", "fourth"}
	if len(rest) != len(wantRest) {
		t.Fatalf("due(later) = %v, want %v", rest, wantRest)
	}
	for i := range wantRest {
		if rest[i] != wantRest[i] {
			t.Fatalf("due(later) = %v, want %v", rest, wantRest)
		}
	}
}
