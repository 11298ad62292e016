// Copyright 2019 Intel Corporation.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pcapsink is a Pusher app that writes every packet arriving on
// its "in" port to a pcap capture file.
package pcapsink

import (
	"fmt"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"github.com/intel-go/breathe/app"
	"github.com/intel-go/breathe/internal/common"
	"github.com/intel-go/breathe/packet"
)

// Class constructs Instance values that write to a pcap file named by
// the "path" argument.
type Class struct{}

// ConfigSchema requires "path" and takes an optional "pool" used to
// free packets once written.
func (Class) ConfigSchema() app.Schema {
	return app.Schema{Required: []string{"path"}, Permitted: []string{"path", "pool"}}
}

// New creates (truncating) the capture file and writes its pcap
// header up front.
func (Class) New(arg map[string]interface{}, ports *app.Ports) (app.Instance, error) {
	path := arg["path"].(string)
	f, err := os.Create(path)
	if err != nil {
		return nil, common.Wrap(err, "pcapsink: creating "+path, common.BadConstructor)
	}
	w := pcapgo.NewWriter(f)
	if err := w.WriteFileHeader(uint32(packet.MaxSize), layers.LinkTypeEthernet); err != nil {
		f.Close()
		return nil, common.Wrap(err, "pcapsink: writing pcap header of "+path, common.BadConstructor)
	}
	pool, _ := arg["pool"].(*packet.Pool)
	return &Instance{path: path, file: f, writer: w, pool: pool, ports: ports}, nil
}

// Instance appends every packet it sees to a pcap file.
type Instance struct {
	path    string
	file    *os.File
	writer  *pcapgo.Writer
	pool    *packet.Pool
	ports   *app.Ports
	written uint64
}

// Push drains "in" and writes each packet as one pcap record.
func (in *Instance) Push() {
	link := in.ports.Input("in")
	if link == nil {
		return
	}
	for {
		p, ok := link.Get()
		if !ok {
			return
		}
		ci := gopacket.CaptureInfo{
			Timestamp:     time.Now(),
			CaptureLength: p.Length(),
			Length:        p.Length(),
		}
		if err := in.writer.WritePacket(ci, p.Data()); err != nil {
			common.LogWarning("pcapsink: write error:", err)
		} else {
			in.written++
		}
		if in.pool != nil {
			in.pool.Free(p)
		}
	}
}

// Stop closes the capture file.
func (in *Instance) Stop() {
	in.file.Close()
}

// Report describes how many packets this sink has captured.
func (in *Instance) Report() string {
	return fmt.Sprintf("%s: %d packets captured", in.path, in.written)
}
