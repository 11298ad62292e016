// Copyright 2019 Intel Corporation.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package counters is the engine's shared counter-export surface: the
// process-wide engine/* counters, per-link rx/tx/drop counters, and
// per-app counter frames, all published through a prometheus
// registry so an external monitoring process can scrape them the way
// spec.md's "shared-memory counter export" collaborator would.
package counters

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the engine's counter surface. It is created once per
// Engine and lives for the process's lifetime. All of the engine's
// own counters are monotonically increasing absolute values; since
// prometheus.Counter only exposes Add/Inc, the Registry tracks the
// last committed absolute value per series and adds the delta.
type Registry struct {
	reg *prometheus.Registry

	breaths   prometheus.Counter
	frees     prometheus.Counter
	freebits  prometheus.Counter
	freebytes prometheus.Counter
	configs   prometheus.Counter
	last      engineTotals

	breathLatency prometheus.Histogram

	linkRxPackets *prometheus.CounterVec
	linkRxBytes   *prometheus.CounterVec
	linkTxPackets *prometheus.CounterVec
	linkTxBytes   *prometheus.CounterVec
	linkTxDrop    *prometheus.CounterVec
	linkLast      map[string]linkTotals
}

type engineTotals struct {
	breaths, frees, freebits, freebytes, configs uint64
}

type linkTotals struct {
	rxPackets, rxBytes, txPackets, txBytes, txDrop uint64
}

// NewRegistry builds and registers the engine/* and link/* counter
// families.
func NewRegistry() *Registry {
	r := &Registry{reg: prometheus.NewRegistry(), linkLast: make(map[string]linkTotals)}

	r.breaths = prometheus.NewCounter(prometheus.CounterOpts{Namespace: "engine", Name: "breaths", Help: "Number of breaths executed."})
	r.frees = prometheus.NewCounter(prometheus.CounterOpts{Namespace: "engine", Name: "frees", Help: "Number of packets freed."})
	r.freebits = prometheus.NewCounter(prometheus.CounterOpts{Namespace: "engine", Name: "freebits", Help: "Number of bits freed."})
	r.freebytes = prometheus.NewCounter(prometheus.CounterOpts{Namespace: "engine", Name: "freebytes", Help: "Number of bytes freed."})
	r.configs = prometheus.NewCounter(prometheus.CounterOpts{Namespace: "engine", Name: "configs", Help: "Number of configure() calls applied."})

	r.breathLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "engine",
		Name:      "breath_latency_seconds",
		Help:      "Breath start-to-end duration.",
		Buckets:   prometheus.ExponentialBuckets(1e-6, 2, 21), // ~1us .. ~1s
	})

	linkLabels := []string{"link"}
	r.linkRxPackets = prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "link", Name: "rxpackets"}, linkLabels)
	r.linkRxBytes = prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "link", Name: "rxbytes"}, linkLabels)
	r.linkTxPackets = prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "link", Name: "txpackets"}, linkLabels)
	r.linkTxBytes = prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "link", Name: "txbytes"}, linkLabels)
	r.linkTxDrop = prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "link", Name: "txdrop"}, linkLabels)

	r.reg.MustRegister(r.breaths, r.frees, r.freebits, r.freebytes, r.configs, r.breathLatency,
		r.linkRxPackets, r.linkRxBytes, r.linkTxPackets, r.linkTxBytes, r.linkTxDrop)
	return r
}

// Prometheus exposes the underlying registry for an outer program to
// serve over HTTP; the engine core never opens a listener itself.
func (r *Registry) Prometheus() *prometheus.Registry { return r.reg }

// CommitEngine mirrors the process-wide counters at their current
// absolute values (matching spec.md's "commit counters to their
// externally visible mirrors" every 100 breaths or at explicit
// commit).
func (r *Registry) CommitEngine(breaths, frees, freebits, freebytes, configs uint64) {
	r.breaths.Add(delta(&r.last.breaths, breaths))
	r.frees.Add(delta(&r.last.frees, frees))
	r.freebits.Add(delta(&r.last.freebits, freebits))
	r.freebytes.Add(delta(&r.last.freebytes, freebytes))
	r.configs.Add(delta(&r.last.configs, configs))
}

// ObserveBreathLatency records one breath's start-to-end duration.
func (r *Registry) ObserveBreathLatency(d time.Duration) {
	r.breathLatency.Observe(d.Seconds())
}

// CommitLink mirrors one link's counters, labeled by its canonical
// spec string.
func (r *Registry) CommitLink(spec string, rxPackets, rxBytes, txPackets, txBytes, txDrop uint64) {
	t := r.linkLast[spec]
	r.linkRxPackets.WithLabelValues(spec).Add(delta(&t.rxPackets, rxPackets))
	r.linkRxBytes.WithLabelValues(spec).Add(delta(&t.rxBytes, rxBytes))
	r.linkTxPackets.WithLabelValues(spec).Add(delta(&t.txPackets, txPackets))
	r.linkTxBytes.WithLabelValues(spec).Add(delta(&t.txBytes, txBytes))
	r.linkTxDrop.WithLabelValues(spec).Add(delta(&t.txDrop, txDrop))
	r.linkLast[spec] = t
}

// delta returns absolute-*prev and updates *prev to absolute.
func delta(prev *uint64, absolute uint64) float64 {
	d := absolute - *prev
	*prev = absolute
	return float64(d)
}
