// Copyright 2019 Intel Corporation.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package engine

import (
	"fmt"
	"time"

	"github.com/Workiva/go-datastructures/queue"

	"github.com/intel-go/breathe/internal/common"
)

// shieldedCall runs fn, which must invoke exactly one of an app's
// pull/push/report hooks. In tolerant mode a panic is caught, the app
// is marked dead with the panic value and the current breath's
// timestamp, and shieldedCall returns without propagating. In strict
// mode (the default) the panic propagates and aborts the process, per
// spec.md §7.
func (e *Engine) shieldedCall(entry *appEntry, fn func()) {
	if !e.opts.Tolerant {
		fn()
		return
	}
	defer func() {
		if r := recover(); r != nil {
			entry.dead = &deadInfo{err: r, time: e.now}
			e.restarts.schedule(entry.name, e.now.Add(e.opts.RestartDelay))
			e.timeline.Warning("app %s died: %v", entry.name, r)
			common.LogWarning("app", entry.name, "died:", r)
		}
	}()
	fn()
}

// restartItem is one pending restart, ordered by revival time so the
// priority queue always Peeks the app due soonest.
type restartItem struct {
	name    string
	revive  time.Time
}

// Compare orders restartItems by revive time, earliest as least
// (go-datastructures' PriorityQueue pops in ascending Compare order,
// so the earliest revive time comes out first).
func (r *restartItem) Compare(other queue.Item) int {
	o := other.(*restartItem)
	switch {
	case r.revive.Before(o.revive):
		return -1
	case r.revive.After(o.revive):
		return 1
	default:
		return 0
	}
}

// restartQueue tracks apps flagged dead, ordered by when their
// restart delay elapses, avoiding an O(active apps) scan every
// breath.
type restartQueue struct {
	pq *queue.PriorityQueue
}

func (rq *restartQueue) init() {
	rq.pq = queue.NewPriorityQueue(8, false)
}

// schedule records that name should be restarted once revive has
// passed. A name may be scheduled more than once (repeated failures);
// the restart sweep tolerates duplicate/stale entries by checking the
// app is still dead when it pops due.
func (rq *restartQueue) schedule(name string, revive time.Time) {
	_ = rq.pq.Put(&restartItem{name: name, revive: revive})
}

// due pops every entry whose revive time is at or before now.
func (rq *restartQueue) due(now time.Time) []string {
	var names []string
	for rq.pq.Len() > 0 {
		item, ok := rq.pq.Peek().(*restartItem)
		if !ok || item.revive.After(now) {
			break
		}
		items, err := rq.pq.Get(1)
		if err != nil || len(items) == 0 {
			break
		}
		names = append(names, items[0].(*restartItem).name)
	}
	return names
}

// restartSweep is stage 2 of the breath (spec.md §4.2): any app whose
// dead.time is at least RestartDelay in the past is restarted via a
// synthesized reconfiguration against the currently running
// configuration.
func (e *Engine) restartSweep() {
	due := e.restarts.due(e.now)
	if len(due) == 0 {
		return
	}
	force := make(map[string]bool, len(due))
	for _, name := range due {
		entry := e.appTable[name]
		if entry == nil || entry.dead == nil {
			continue // already restarted/removed since being scheduled
		}
		if e.now.Sub(entry.dead.time) < e.opts.RestartDelay {
			e.restarts.schedule(name, entry.dead.time.Add(e.opts.RestartDelay))
			continue
		}
		force[name] = true
	}
	if len(force) == 0 {
		return
	}
	if err := e.apply(e.configuration, force); err != nil {
		// A restart failure counts as a fresh death: reschedule so a
		// chronically failing app keeps being retried at the
		// configured cadence.
		for name := range force {
			e.timeline.Warning("restart of %s failed: %v", name, err)
			common.LogWarning("restart of", name, "failed:", err)
			if entry := e.appTable[name]; entry != nil {
				entry.dead = &deadInfo{err: fmt.Sprint(err), time: e.now}
				e.restarts.schedule(name, e.now.Add(e.opts.RestartDelay))
			}
		}
	}
}
