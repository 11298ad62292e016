// Copyright 2019 Intel Corporation.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package engine

import (
	"fmt"
	"reflect"

	"github.com/intel-go/breathe/app"
	"github.com/intel-go/breathe/config"
	"github.com/intel-go/breathe/internal/common"
	"github.com/intel-go/breathe/link"
)

// linkEntry pairs a link buffer with the spec that created it, so the
// engine can tell which old links survive a reconfiguration.
type linkEntry struct {
	spec config.LinkSpec
	l    *link.Link
}

type action int

const (
	actionStart action = iota
	actionKeep
	actionReconfig
	actionRestart
	actionStop
)

// Configure diffs newConfig against the currently running
// configuration, classifies every app into start/keep/reconfig/
// restart/stop, and applies the plan in the fixed order the spec
// requires: stop, restart, keep, reconfig, start. New app and link
// tables are built out-of-place and only swapped in on success, so a
// failed Configure leaves the running graph untouched.
func (e *Engine) Configure(newConfig *config.Configuration) error {
	return e.apply(newConfig, nil)
}

// apply is Configure's implementation, parameterized by forceRestart
// so the fault shield's restart sweep (spec.md §4.4) can reuse it: it
// re-applies the current configuration but forces the named apps
// through actionRestart instead of the actionKeep their unchanged
// class and arg would otherwise select.
func (e *Engine) apply(newConfig *config.Configuration, forceRestart map[string]bool) error {
	// Reject a link naming an undefined app before any app is stopped
	// or any Ports table is reset, so that failure leaves the running
	// graph untouched.
	for _, spec := range newConfig.Links() {
		for _, name := range []string{spec.FromApp, spec.ToApp} {
			if _, ok := newConfig.Apps()[name]; !ok {
				return common.Wrap(nil, fmt.Sprintf("link %q: undefined app %q", spec.String(), name), common.UndefinedAppInLink)
			}
		}
	}

	plan := e.classify(newConfig, forceRestart)

	newAppTable := make(map[string]*appEntry, len(newConfig.Apps()))
	newAppArray := make([]*appEntry, 0, len(newConfig.Apps()))

	order := []action{actionStop, actionRestart, actionKeep, actionReconfig, actionStart}
	// Stop first so restarted/kept names are free; the array below is
	// built in newConfig's app order within each action bucket so
	// scheduling order stays deterministic across reconfigurations
	// that don't touch topology.
	byAction := make(map[action][]string)
	for name, act := range plan {
		byAction[act] = append(byAction[act], name)
	}
	nameOrder := make(map[string]int, len(newConfig.AppNames()))
	for i, n := range newConfig.AppNames() {
		nameOrder[n] = i
	}
	for _, act := range order {
		names := byAction[act]
		sortByConfigOrder(names, nameOrder)
		for _, name := range names {
			switch act {
			case actionStop:
				e.stopApp(e.appTable[name])
			case actionRestart:
				e.stopApp(e.appTable[name])
				entry, err := e.startApp(name, newConfig)
				if err != nil {
					return err
				}
				newAppTable[name] = entry
				newAppArray = append(newAppArray, entry)
			case actionKeep:
				entry := e.appTable[name]
				entry.arg = newConfig.Apps()[name].Arg
				newAppTable[name] = entry
				newAppArray = append(newAppArray, entry)
			case actionReconfig:
				entry := e.appTable[name]
				newArg := newConfig.Apps()[name].Arg
				if r, ok := entry.instance.(app.Reconfigurer); ok {
					r.Reconfig(newArg)
				}
				entry.arg = newArg
				newAppTable[name] = entry
				newAppArray = append(newAppArray, entry)
			case actionStart:
				entry, err := e.startApp(name, newConfig)
				if err != nil {
					return err
				}
				newAppTable[name] = entry
				newAppArray = append(newAppArray, entry)
			}
		}
	}

	newLinkTable, newLinkArray, err := e.reconcileLinks(newConfig, newAppTable, newAppArray)
	if err != nil {
		return err
	}

	// Swap in the new tables: this is the point at which the
	// reconfiguration becomes visible, "atomic" only in the sense of
	// happening between breaths.
	e.appTable = newAppTable
	e.appArray = newAppArray
	e.linkTable = newLinkTable
	e.linkArray = newLinkArray
	e.configuration = newConfig
	e.configs++

	for _, entry := range newAppArray {
		if l, ok := entry.instance.(app.Linker); ok {
			l.Link()
		}
	}

	return nil
}

func sortByConfigOrder(names []string, order map[string]int) {
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && order[names[j-1]] > order[names[j]]; j-- {
			names[j-1], names[j] = names[j], names[j-1]
		}
	}
}

// classify implements the diff algorithm of spec.md §4.1 for every
// app name in the union of the old and new configurations.
func (e *Engine) classify(newConfig *config.Configuration, forceRestart map[string]bool) map[string]action {
	plan := make(map[string]action)
	oldApps := e.configuration.Apps()
	newApps := newConfig.Apps()

	for name := range oldApps {
		if _, ok := newApps[name]; !ok {
			plan[name] = actionStop
		}
	}
	for name, newSpec := range newApps {
		oldSpec, existed := oldApps[name]
		switch {
		case !existed:
			plan[name] = actionStart
		case forceRestart[name]:
			plan[name] = actionRestart
		case oldSpec.ClassName != newSpec.ClassName:
			plan[name] = actionRestart
		case !reflect.DeepEqual(oldSpec.Arg, newSpec.Arg):
			if _, ok := e.appTable[name].instance.(app.Reconfigurer); ok {
				plan[name] = actionReconfig
			} else {
				plan[name] = actionRestart
			}
		default:
			plan[name] = actionKeep
		}
	}
	return plan
}

// startApp instantiates name's class from newConfig, giving it a
// fresh, empty Ports table. A constructor error is fatal to the whole
// apply call.
func (e *Engine) startApp(name string, newConfig *config.Configuration) (*appEntry, error) {
	spec := newConfig.Apps()[name]
	ports := app.NewPorts()
	instance, err := spec.Class.New(spec.Arg, ports)
	if err != nil {
		return nil, common.Wrap(err, fmt.Sprintf("app %q: constructor failed", name), common.BadConstructor)
	}
	if instance == nil {
		return nil, common.Wrap(nil, fmt.Sprintf("app %q: constructor returned nil instance", name), common.BadConstructor)
	}
	entry := &appEntry{
		name:      name,
		className: spec.ClassName,
		class:     spec.Class,
		arg:       spec.Arg,
		instance:  instance,
		ports:     ports,
	}
	if z, ok := spec.Class.(app.Zoner); ok {
		entry.zone = z.Zone()
	}
	if cf, ok := spec.Class.(app.CounterFrameClass); ok {
		entry.frame = e.counters.NewFrame(name, cf.CounterFrameSchema(), e.now)
	}
	return entry, nil
}

// stopApp invokes the Stop hook if present and destroys the app's
// counter frame. entry may be nil if the name never had a running
// instance (shouldn't happen given classify's invariants, but stop is
// idempotent regardless).
func (e *Engine) stopApp(entry *appEntry) {
	if entry == nil {
		return
	}
	if s, ok := entry.instance.(app.Stopper); ok {
		// Stop is not part of the fault shield's contract (spec.md
		// §4.4 only wraps pull/push/report); a panicking Stop aborts
		// Configure regardless of mode.
		s.Stop()
	}
	if entry.frame != nil {
		entry.frame.Close()
	}
}

// reconcileLinks rebuilds the link tables for newConfig: an existing
// link is reused, ring and all, when its spec is unchanged and both
// endpoint apps survive; everything else is a fresh link. Every
// surviving/new app's Ports are reset and rebuilt from scratch so
// stale wiring never lingers.
func (e *Engine) reconcileLinks(newConfig *config.Configuration, newAppTable map[string]*appEntry, newAppArray []*appEntry) (map[string]*linkEntry, []*linkEntry, error) {
	for _, entry := range newAppArray {
		entry.ports.Reset()
	}

	indexOf := make(map[string]int, len(newAppArray))
	for i, entry := range newAppArray {
		indexOf[entry.name] = i
	}

	newLinkTable := make(map[string]*linkEntry, len(newConfig.Links()))
	newLinkArray := make([]*linkEntry, 0, len(newConfig.Links()))

	for _, spec := range newConfig.Links() {
		from, ok := newAppTable[spec.FromApp]
		if !ok {
			return nil, nil, common.Wrap(nil, fmt.Sprintf("link %q: undefined app %q", spec.String(), spec.FromApp), common.UndefinedAppInLink)
		}
		to, ok := newAppTable[spec.ToApp]
		if !ok {
			return nil, nil, common.Wrap(nil, fmt.Sprintf("link %q: undefined app %q", spec.String(), spec.ToApp), common.UndefinedAppInLink)
		}

		key := spec.String()
		var le *linkEntry
		if old, existed := e.linkTable[key]; existed {
			le = old
		} else {
			le = &linkEntry{spec: spec, l: link.New(key, e.opts.LinkCapacity)}
		}
		le.l.ConsumerIndex = indexOf[spec.ToApp]

		from.ports.AttachOutput(spec.FromPort, le.l)
		to.ports.AttachInput(spec.ToPort, le.l)

		newLinkTable[key] = le
		newLinkArray = append(newLinkArray, le)
	}

	return newLinkTable, newLinkArray, nil
}
