// Copyright 2019 Intel Corporation.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package app defines the contract every packet-processing app
// satisfies to plug into the engine's graph: a class that constructs
// instances, and an instance that exposes a subset of optional
// lifecycle hooks.
package app

import "github.com/intel-go/breathe/link"

// Instance is the opaque value a Class constructs. The engine
// discovers which lifecycle hooks it supports through the optional
// interfaces below (Puller, Pusher, Stopper, Reconfigurer, Reporter,
// Linker); an Instance can implement any subset, including none.
type Instance interface{}

// Puller is implemented by apps that bring data into the graph.
// Pull is invoked once per breath, before any Push.
type Puller interface {
	Pull()
}

// Pusher is implemented by apps that advance data already in the
// graph. Push is invoked whenever an input link has new data.
type Pusher interface {
	Push()
}

// Stopper is implemented by apps with teardown work.
type Stopper interface {
	Stop()
}

// Reconfigurer is implemented by apps that can absorb a new argument
// value in place instead of being restarted.
type Reconfigurer interface {
	Reconfig(arg map[string]interface{})
}

// Reporter is implemented by apps that contribute custom text to the
// end-of-run report.
type Reporter interface {
	Report() string
}

// Linker is implemented by apps that need to finalize port-dependent
// state (such as caching a port lookup) once their Ports are wired.
// It is invoked after every reconfiguration that leaves the app
// running, new or kept.
type Linker interface {
	Link()
}

// Class is a registered app type: something that can construct
// instances from a validated argument and exposes a config schema
// used to validate that argument.
type Class interface {
	// New constructs a fresh instance. ports is empty at construction
	// time; it is filled in and finalized before Link (if any) is
	// invoked.
	New(arg map[string]interface{}, ports *Ports) (Instance, error)
	ConfigSchema() Schema
}

// Zoner is an optional Class capability giving apps a diagnostic
// label for profiling/tracing grouping.
type Zoner interface {
	Zone() string
}

// CounterFrameClass is an optional Class capability declaring the
// names of the counters an instance of this class exports.
type CounterFrameClass interface {
	CounterFrameSchema() []string
}

// Ports holds the named input and output links attached to one app
// instance. The engine mutates a Ports value in place across
// reconfigurations; an Instance that keeps a reference to its Ports
// always sees the current wiring.
type Ports struct {
	input       map[string]*link.Link
	output      map[string]*link.Link
	inputOrder  []string
	outputOrder []string
}

// NewPorts returns an empty Ports table.
func NewPorts() *Ports {
	return &Ports{
		input:  make(map[string]*link.Link),
		output: make(map[string]*link.Link),
	}
}

// Input returns the link attached to the named input port, or nil if
// none is wired.
func (p *Ports) Input(name string) *link.Link { return p.input[name] }

// Output returns the link attached to the named output port, or nil
// if none is wired.
func (p *Ports) Output(name string) *link.Link { return p.output[name] }

// InputPorts returns input port names in attachment order.
func (p *Ports) InputPorts() []string { return append([]string(nil), p.inputOrder...) }

// OutputPorts returns output port names in attachment order.
func (p *Ports) OutputPorts() []string { return append([]string(nil), p.outputOrder...) }

// AttachInput wires l onto the named input port, replacing whatever
// was there before.
func (p *Ports) AttachInput(name string, l *link.Link) {
	if _, ok := p.input[name]; !ok {
		p.inputOrder = append(p.inputOrder, name)
	}
	p.input[name] = l
}

// AttachOutput wires l onto the named output port, replacing whatever
// was there before.
func (p *Ports) AttachOutput(name string, l *link.Link) {
	if _, ok := p.output[name]; !ok {
		p.outputOrder = append(p.outputOrder, name)
	}
	p.output[name] = l
}

// Reset clears every attached port, used when rebuilding a kept app's
// wiring during a reconfigure so stale ports don't linger.
func (p *Ports) Reset() {
	p.input = make(map[string]*link.Link)
	p.output = make(map[string]*link.Link)
	p.inputOrder = nil
	p.outputOrder = nil
}
