// Copyright 2019 Intel Corporation.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package testapps provides a synthetic Source and Sink pair for
// demoing and load-testing a graph without a real packet source,
// grounded on the teacher's fixed-payload IPv4 generator example.
package testapps

import (
	"fmt"

	"github.com/intel-go/breathe/app"
	"github.com/intel-go/breathe/internal/common"
	"github.com/intel-go/breathe/packet"
)

var fixedPayload = []byte{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}

// SourceClass constructs Instance values that fill their "out" port
// every breath with a fixed-size payload, up to the link's PullCap().
type SourceClass struct{}

// ConfigSchema requires "pool" and takes an optional "size" (default
// len(fixedPayload)).
func (SourceClass) ConfigSchema() app.Schema {
	return app.Schema{
		Required:  []string{"pool"},
		Permitted: []string{"pool", "size"},
		Defaults:  map[string]interface{}{"size": len(fixedPayload)},
	}
}

// New builds a Source.
func (SourceClass) New(arg map[string]interface{}, ports *app.Ports) (app.Instance, error) {
	size := arg["size"].(int)
	if size <= 0 || size > packet.MaxSize {
		return nil, common.Wrap(nil, "testapps: size out of range", common.BadArgument)
	}
	return &Source{pool: arg["pool"].(*packet.Pool), size: size, ports: ports}, nil
}

// Source is a Puller that never runs dry.
type Source struct {
	pool  *packet.Pool
	size  int
	ports *app.Ports
	sent  uint64
}

// Pull fills the output port up to its pull capacity every breath.
func (s *Source) Pull() {
	out := s.ports.Output("out")
	if out == nil {
		return
	}
	payload := make([]byte, s.size)
	copy(payload, fixedPayload)
	for i := 0; i < out.PullCap(); i++ {
		p := s.pool.Alloc()
		p.Append(payload)
		if out.Put(p) {
			s.sent++
		} else {
			s.pool.Free(p)
		}
	}
}

// Report shows the running send count.
func (s *Source) Report() string {
	return fmt.Sprintf("sent %d packets", s.sent)
}

// SinkClass constructs Instance values that free every packet they
// receive without inspecting it.
type SinkClass struct{}

// ConfigSchema requires "pool".
func (SinkClass) ConfigSchema() app.Schema {
	return app.Schema{Required: []string{"pool"}}
}

// New builds a Sink.
func (SinkClass) New(arg map[string]interface{}, ports *app.Ports) (app.Instance, error) {
	return &Sink{pool: arg["pool"].(*packet.Pool), ports: ports}, nil
}

// Sink is a Pusher that discards everything.
type Sink struct {
	pool     *packet.Pool
	ports    *app.Ports
	received uint64
}

// Push drains "in" and frees every packet.
func (s *Sink) Push() {
	in := s.ports.Input("in")
	if in == nil {
		return
	}
	for {
		p, ok := in.Get()
		if !ok {
			return
		}
		s.received++
		s.pool.Free(p)
	}
}

// Report shows the running receive count.
func (s *Sink) Report() string {
	return fmt.Sprintf("received %d packets", s.received)
}
