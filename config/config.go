// Copyright 2019 Intel Corporation.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config holds the immutable Configuration value the engine
// diffs against its currently running graph, plus the API a loader
// uses to build one.
package config

import (
	"fmt"

	"github.com/intel-go/breathe/app"
	"github.com/intel-go/breathe/internal/common"
)

// AppSpec is one app entry in a Configuration: a class name (for
// diagnostics and class-change detection), the Class itself, and the
// already schema-validated argument map.
type AppSpec struct {
	ClassName string
	Class     app.Class
	Arg       map[string]interface{}
}

// Configuration is an immutable description of an app graph: which
// apps exist with which class and argument, and how their ports are
// wired together. Configurations are built with New/App/Link and
// handed to the engine's Configure; the engine never mutates one.
type Configuration struct {
	apps     map[string]AppSpec
	appOrder []string

	links     map[string]LinkSpec
	linkOrder []string
}

// New returns a fresh, empty Configuration.
func New() *Configuration {
	return &Configuration{
		apps:  make(map[string]AppSpec),
		links: make(map[string]LinkSpec),
	}
}

// App records an app named name of the given class, validating arg
// against the class's config schema (applying defaults, rejecting
// missing required keys or unknown keys). Calling App twice with the
// same name overwrites the previous entry, matching a config builder
// that accumulates state top to bottom.
func (c *Configuration) App(name, className string, class app.Class, arg map[string]interface{}) error {
	resolved, err := app.Validate(class.ConfigSchema(), arg)
	if err != nil {
		return common.Wrap(err, fmt.Sprintf("app %q: invalid argument", name), common.BadArgument)
	}
	if _, exists := c.apps[name]; !exists {
		c.appOrder = append(c.appOrder, name)
	}
	c.apps[name] = AppSpec{ClassName: className, Class: class, Arg: resolved}
	return nil
}

// Link records a link specification. A spec identical to one already
// present in this Configuration is rejected: the source behavior for
// duplicate specs is unspecified, and the spec's own open questions
// direct implementations to reject duplicates at construction time.
func (c *Configuration) Link(spec string) error {
	parsed, err := ParseLinkSpec(spec)
	if err != nil {
		return err
	}
	key := parsed.String()
	if _, exists := c.links[key]; exists {
		return common.Wrap(nil, fmt.Sprintf("duplicate link spec %q", key), common.DuplicateLinkSpec)
	}
	c.links[key] = parsed
	c.linkOrder = append(c.linkOrder, key)
	return nil
}

// Apps returns the app name to AppSpec mapping. Callers must not
// mutate the returned map.
func (c *Configuration) Apps() map[string]AppSpec { return c.apps }

// AppNames returns app names in the order they were first added.
func (c *Configuration) AppNames() []string { return append([]string(nil), c.appOrder...) }

// Links returns link specs in the order they were first added.
func (c *Configuration) Links() []LinkSpec {
	out := make([]LinkSpec, 0, len(c.linkOrder))
	for _, k := range c.linkOrder {
		out = append(out, c.links[k])
	}
	return out
}
