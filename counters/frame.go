// Copyright 2019 Intel Corporation.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package counters

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Frame is a named external counter frame for one app instance,
// published under apps/<name>/<counter>. Its lifecycle is tied to the
// app instance's lifetime: created at start, destroyed at stop.
type Frame struct {
	appName   string
	createdAt time.Time
	gauges    map[string]prometheus.Gauge
	reg       *prometheus.Registry
}

// NewFrame creates and registers a counter frame for appName exposing
// one gauge per name in counterNames.
func (r *Registry) NewFrame(appName string, counterNames []string, createdAt time.Time) *Frame {
	f := &Frame{
		appName:   appName,
		createdAt: createdAt,
		gauges:    make(map[string]prometheus.Gauge, len(counterNames)),
		reg:       r.reg,
	}
	for _, name := range counterNames {
		g := prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "apps",
			Subsystem:   appName,
			Name:        name,
			ConstLabels: prometheus.Labels{"app": appName},
		})
		f.gauges[name] = g
		r.reg.MustRegister(g)
	}
	return f
}

// Set updates one named counter in the frame. It is a no-op if name
// wasn't declared in the class's CounterFrameSchema.
func (f *Frame) Set(name string, value float64) {
	if g, ok := f.gauges[name]; ok {
		g.Set(value)
	}
}

// CreatedAt returns the frame's creation timestamp.
func (f *Frame) CreatedAt() time.Time { return f.createdAt }

// Close unregisters the frame's gauges, matching an app's counter
// frame being destroyed alongside the app instance.
func (f *Frame) Close() {
	for _, g := range f.gauges {
		f.reg.Unregister(g)
	}
}
