// Copyright 2019 Intel Corporation.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package linkstatus is a Puller app that mirrors kernel network
// interface up/down events into the engine's report, the way the
// teacher's netlink route-cache example mirrored kernel routes into an
// LPM table.
package linkstatus

import (
	"fmt"
	"sync"

	"github.com/vishvananda/netlink"

	"github.com/intel-go/breathe/app"
	"github.com/intel-go/breathe/internal/common"
)

// Class constructs Instance values that subscribe to netlink link
// updates for the lifetime of the app.
type Class struct{}

// ConfigSchema takes no arguments of its own; it accepts and ignores
// the "pool" key configfile adds to every app.
func (Class) ConfigSchema() app.Schema { return app.Schema{Permitted: []string{"pool"}} }

// New subscribes to netlink link updates and starts a goroutine that
// drains them into an internal buffer, matching the subscribe-then-poll
// shape of the teacher's updateRouteCache.
func (Class) New(arg map[string]interface{}, ports *app.Ports) (app.Instance, error) {
	links, err := netlink.LinkList()
	if err != nil {
		return nil, common.Wrap(err, "linkstatus: initial LinkList", common.BadConstructor)
	}
	in := &Instance{status: make(map[string]bool), done: make(chan struct{})}
	for _, l := range links {
		in.status[l.Attrs().Name] = l.Attrs().OperState == netlink.OperUp
	}

	ch := make(chan netlink.LinkUpdate)
	if err := netlink.LinkSubscribe(ch, in.done); err != nil {
		return nil, common.Wrap(err, "linkstatus: LinkSubscribe", common.BadConstructor)
	}
	in.updates = ch
	go in.drain()
	return in, nil
}

// Instance tracks the up/down state of every interface the kernel
// reports, updated asynchronously and read once per breath.
type Instance struct {
	mu     sync.Mutex
	status map[string]bool
	events int

	updates chan netlink.LinkUpdate
	done    chan struct{}
}

func (in *Instance) drain() {
	for u := range in.updates {
		in.mu.Lock()
		in.status[u.Link.Attrs().Name] = u.Link.Attrs().OperState == netlink.OperUp
		in.events++
		in.mu.Unlock()
	}
}

// Pull does nothing: linkstatus produces no packets, and the drain
// goroutine keeps the status Report reads current.
func (in *Instance) Pull() {}

// Stop unsubscribes from netlink updates.
func (in *Instance) Stop() {
	close(in.done)
}

// Report lists every tracked interface's last known operational state.
func (in *Instance) Report() string {
	in.mu.Lock()
	defer in.mu.Unlock()
	s := fmt.Sprintf("%d interfaces, %d events seen:", len(in.status), in.events)
	for name, up := range in.status {
		state := "down"
		if up {
			state = "up"
		}
		s += fmt.Sprintf(" %s=%s", name, state)
	}
	return s
}
