// Copyright 2019 Intel Corporation.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package engine is the core of breathe: it owns the running app
// graph, drives it breath by breath, paces the loop, and contains
// misbehaving apps.
package engine

import (
	"time"

	"github.com/intel-go/breathe/app"
	"github.com/intel-go/breathe/config"
	"github.com/intel-go/breathe/counters"
	"github.com/intel-go/breathe/link"
	"github.com/intel-go/breathe/packet"
	"github.com/intel-go/breathe/timeline"
)

// Options configures one Engine instance. Zero values select the
// engine's defaults (adaptive pacing, tolerant fault shield off,
// 1024-packet links).
type Options struct {
	// Hz selects fixed-frequency pacing when non-nil. Nil selects
	// adaptive pacing unless Busywait is set.
	Hz *float64
	// Busywait disables pacing entirely.
	Busywait bool
	// MaxSleep bounds adaptive pacing's back-off. Defaults to 100us.
	MaxSleep time.Duration
	// RestartDelay is how long an app stays dead before the fault
	// shield restarts it. Defaults to 2s.
	RestartDelay time.Duration
	// LinkCapacity is the ring size for new links; must be a power of
	// two. Defaults to link.DefaultCapacity.
	LinkCapacity int
	// Tolerant enables the fault shield (contain app panics instead of
	// crashing the process). Off by default, matching "tolerant
	// (default off; enable only for operational robustness)".
	Tolerant bool
	// PoolSize is the number of packet buffers preallocated in the
	// engine's arena.
	PoolSize int
}

func (o *Options) setDefaults() {
	if o.MaxSleep == 0 {
		o.MaxSleep = 100 * time.Microsecond
	}
	if o.RestartDelay == 0 {
		o.RestartDelay = 2 * time.Second
	}
	if o.LinkCapacity == 0 {
		o.LinkCapacity = link.DefaultCapacity
	}
	if o.PoolSize == 0 {
		o.PoolSize = 8192
	}
}

// deadInfo marks an app that raised during a hook.
type deadInfo struct {
	err  interface{}
	time time.Time
}

// appEntry is the engine's private bookkeeping for one running app
// instance: everything the Reconfigurator and breath scheduler need
// that isn't part of the app.Instance contract itself.
type appEntry struct {
	name      string
	className string
	class     app.Class
	arg       map[string]interface{}
	instance  app.Instance
	ports     *app.Ports
	zone      string
	dead      *deadInfo
	frame     *counters.Frame
}

// Engine owns one running app graph. It is not safe for concurrent
// use: spec.md's concurrency model is strictly single-threaded
// cooperative within one instance.
type Engine struct {
	opts Options

	configuration *config.Configuration

	appTable map[string]*appEntry
	appArray []*appEntry

	linkTable map[string]*linkEntry
	linkArray []*linkEntry

	pool     *packet.Pool
	counters *counters.Registry
	timeline *timeline.Timeline

	now time.Time

	breaths   uint64
	configs   uint64
	restarts  restartQueue

	sleep       time.Duration
	nextBreath  time.Time
	lastFrees   uint64
}

// New creates an Engine with an empty graph. Call Configure to give
// it an app graph before Main.
func New(opts Options) *Engine {
	opts.setDefaults()
	e := &Engine{
		opts:          opts,
		configuration: config.New(),
		appTable:      make(map[string]*appEntry),
		linkTable:     make(map[string]*linkEntry),
		pool:          packet.NewPool(opts.PoolSize),
		counters:      counters.NewRegistry(),
		timeline:      timeline.New(1),
		now:           time.Now(),
	}
	e.restarts.init()
	return e
}

// Now returns the timestamp cached at the start of the current
// breath. It never advances within a breath.
func (e *Engine) Now() time.Time { return e.now }

// Pool exposes the engine's packet arena so an outer program can hand
// packets to producer apps before the main loop starts, or app
// classes can capture it at New() time via a closure.
func (e *Engine) Pool() *packet.Pool { return e.pool }

// Counters exposes the engine's counter registry, e.g. so an outer
// program can serve it over HTTP.
func (e *Engine) Counters() *counters.Registry { return e.counters }

// Breaths returns the number of breaths executed so far.
func (e *Engine) Breaths() uint64 { return e.breaths }

// Configs returns the number of successful Configure calls.
func (e *Engine) Configs() uint64 { return e.configs }
