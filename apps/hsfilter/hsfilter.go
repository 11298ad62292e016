// Copyright 2019 Intel Corporation.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package hsfilter is a Pusher app that forwards a packet from "in" to
// "out" only if its payload matches one of a set of Hyperscan
// patterns, grounded on the teacher's dpi example's allow-list
// Hyperscan block scan.
package hsfilter

import (
	"github.com/flier/gohs/hyperscan"

	"github.com/intel-go/breathe/app"
	"github.com/intel-go/breathe/internal/common"
	"github.com/intel-go/breathe/packet"
)

// Class constructs Instance values that compile a fixed set of
// patterns into a single Hyperscan block database.
type Class struct{}

// ConfigSchema requires "patterns" (a []string of Hyperscan regex
// patterns) and takes an optional "pool" used to free dropped packets.
func (Class) ConfigSchema() app.Schema {
	return app.Schema{Required: []string{"patterns"}, Permitted: []string{"patterns", "pool"}}
}

// New compiles the pattern set and allocates one scratch space, since
// this app runs its scan from a single goroutine (the engine's breath
// loop) and never needs more than one.
func (Class) New(arg map[string]interface{}, ports *app.Ports) (app.Instance, error) {
	raw := arg["patterns"].([]string)
	parsed := make([]*hyperscan.Pattern, 0, len(raw))
	for i, r := range raw {
		p, err := hyperscan.ParsePattern(r)
		if err != nil {
			return nil, common.Wrap(err, "hsfilter: parsing pattern "+r, common.BadArgument)
		}
		p.Id = i
		parsed = append(parsed, p)
	}
	db, err := hyperscan.NewBlockDatabase(parsed...)
	if err != nil {
		return nil, common.Wrap(err, "hsfilter: compiling block database", common.BadConstructor)
	}
	scratch, err := hyperscan.NewScratch(db)
	if err != nil {
		db.Close()
		return nil, common.Wrap(err, "hsfilter: allocating scratch", common.BadConstructor)
	}
	pool, _ := arg["pool"].(*packet.Pool)
	return &Instance{db: db, scratch: scratch, pool: pool, ports: ports}, nil
}

// Instance holds one compiled Hyperscan database plus the scratch
// space it scans packet payloads with.
type Instance struct {
	db      hyperscan.BlockDatabase
	scratch *hyperscan.Scratch
	pool    *packet.Pool
	ports   *app.Ports

	matched uint64
	dropped uint64
}

func onMatch(id uint, from, to uint64, flags uint, context interface{}) error {
	*(context.(*bool)) = true
	return nil
}

// Push scans every payload on "in" and forwards only the packets that
// match at least one pattern.
func (in *Instance) Push() {
	inLink := in.ports.Input("in")
	outLink := in.ports.Output("out")
	if inLink == nil || outLink == nil {
		return
	}
	for {
		p, ok := inLink.Get()
		if !ok {
			return
		}
		matched := new(bool)
		if err := in.db.Scan(p.Data(), in.scratch, onMatch, matched); err != nil {
			common.LogWarning("hsfilter: scan error:", err)
		}
		if *matched {
			in.matched++
			if !outLink.Put(p) && in.pool != nil {
				in.pool.Free(p)
			}
		} else {
			in.dropped++
			if in.pool != nil {
				in.pool.Free(p)
			}
		}
	}
}

// Stop releases the Hyperscan scratch and database.
func (in *Instance) Stop() {
	in.scratch.Free()
	in.db.Close()
}
