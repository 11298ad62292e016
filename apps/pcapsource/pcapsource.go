// Copyright 2019 Intel Corporation.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pcapsource is a Puller app that replays a pcap file onto its
// "out" port, one PullCap()-sized batch per breath.
package pcapsource

import (
	"io"
	"os"

	"github.com/google/gopacket/pcapgo"

	"github.com/intel-go/breathe/app"
	"github.com/intel-go/breathe/internal/common"
	"github.com/intel-go/breathe/packet"
)

// Class constructs Instance values that read from a pcap file named by
// the "path" argument.
type Class struct{}

// ConfigSchema requires "path" and takes an optional "pool" packet.Pool
// used to allocate outgoing packets; if omitted a private pool is
// created.
func (Class) ConfigSchema() app.Schema {
	return app.Schema{
		Required: []string{"path"},
		Permitted: []string{"path", "pool", "loop"},
		Defaults: map[string]interface{}{"loop": false},
	}
}

// New opens the pcap file at construction time so a bad path fails
// Configure immediately instead of failing silently at the first Pull.
func (Class) New(arg map[string]interface{}, ports *app.Ports) (app.Instance, error) {
	path := arg["path"].(string)
	f, err := os.Open(path)
	if err != nil {
		return nil, common.Wrap(err, "pcapsource: opening "+path, common.BadConstructor)
	}
	r, err := pcapgo.NewReader(f)
	if err != nil {
		f.Close()
		return nil, common.Wrap(err, "pcapsource: reading pcap header of "+path, common.BadConstructor)
	}
	pool, _ := arg["pool"].(*packet.Pool)
	if pool == nil {
		pool = packet.NewPool(64)
	}
	loop, _ := arg["loop"].(bool)
	return &Instance{path: path, file: f, reader: r, pool: pool, loop: loop, ports: ports}, nil
}

// Instance replays a pcap capture file.
type Instance struct {
	path   string
	file   *os.File
	reader *pcapgo.Reader
	pool   *packet.Pool
	loop   bool
	ports  *app.Ports
	eof    bool
}

// Pull reads up to the output link's PullCap() packets from the
// capture and puts them on "out". At end of file it either rewinds (if
// loop is set) or stops producing, matching a source that has run dry.
func (in *Instance) Pull() {
	if in.eof {
		return
	}
	out := in.ports.Output("out")
	if out == nil {
		return
	}
	for i := 0; i < out.PullCap(); i++ {
		data, _, err := in.reader.ReadPacketData()
		if err == io.EOF {
			if in.loop {
				in.rewind()
				i--
				continue
			}
			in.eof = true
			return
		}
		if err != nil {
			common.LogWarning("pcapsource: read error:", err)
			in.eof = true
			return
		}
		if len(data) > packet.MaxSize {
			common.LogWarning("pcapsource: dropping oversized packet:", len(data))
			continue
		}
		p := in.pool.Alloc()
		p.Append(data)
		if !out.Put(p) {
			in.pool.Free(p)
		}
	}
}

func (in *Instance) rewind() {
	if _, err := in.file.Seek(0, io.SeekStart); err != nil {
		common.LogWarning("pcapsource: rewind failed:", err)
		in.eof = true
		return
	}
	r, err := pcapgo.NewReader(in.file)
	if err != nil {
		common.LogWarning("pcapsource: rewind header failed:", err)
		in.eof = true
		return
	}
	in.reader = r
}

// Stop closes the underlying file.
func (in *Instance) Stop() {
	in.file.Close()
}

// Report describes replay progress for the end-of-run report.
func (in *Instance) Report() string {
	if in.eof {
		return in.path + ": exhausted"
	}
	return in.path + ": replaying"
}
