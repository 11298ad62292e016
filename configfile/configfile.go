// Copyright 2019 Intel Corporation.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package configfile loads a config.Configuration from an INI file, the
// way the engine is expected to be driven outside of tests: a static
// description of apps and links rather than Go code building a
// Configuration by hand. It is deliberately ambient, non-core
// machinery — engine and config know nothing about it.
package configfile

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/intel-go/breathe/app"
	"github.com/intel-go/breathe/config"
	"github.com/intel-go/breathe/internal/common"
	"github.com/intel-go/breathe/packet"
)

// Registry maps the class names used in a config file to the app.Class
// values that implement them. A caller builds one from whichever app
// packages it links in; configfile has no built-in knowledge of any
// app.
type Registry map[string]app.Class

const (
	appSectionPrefix = "app."
	linksSection     = "links"
	classKey         = "class"
)

// Load reads path as an INI file and builds a config.Configuration.
//
// Each app is a section named "app.<name>", with a "class" key naming
// an entry of reg and every other key becoming an argument passed to
// app.Class.New (after config.App runs it through the class's schema).
// Argument values are parsed as int, then float64, then bool, then a
// comma-separated string list, falling back to a plain string,
// mirroring the loose typing ini.v1's Key accessors already offer.
//
// pool is the engine's own packet arena; since a *packet.Pool cannot
// be spelled in INI text, Load/Build inject it under the "pool" key of
// every app's argument map themselves, for app classes such as
// testapps.SourceClass (which requires it) or hsfilter.Class (which
// accepts it optionally).
// Passing a nil pool is fine for classes that don't need one.
//
// Links live in a single "links" section; each key's value is a link
// spec in "<app>.<port> -> <app>.<port>" form. Key names in that
// section are ignored and only exist so INI accepts repeated entries.
func Load(path string, reg Registry, pool *packet.Pool) (*config.Configuration, error) {
	f, err := ini.Load(path)
	if err != nil {
		return nil, common.Wrap(err, fmt.Sprintf("loading config file %q", path), common.Fail)
	}
	return Build(f, reg, pool)
}

// Build is Load's parsing half, split out so tests can hand it an
// in-memory *ini.File instead of a path on disk.
func Build(f *ini.File, reg Registry, pool *packet.Pool) (*config.Configuration, error) {
	cfg := config.New()

	for _, section := range f.Sections() {
		name := section.Name()
		switch {
		case name == ini.DefaultSection:
			continue
		case name == linksSection:
			if err := loadLinks(cfg, section); err != nil {
				return nil, err
			}
		case strings.HasPrefix(name, appSectionPrefix):
			if err := loadApp(cfg, reg, section, pool); err != nil {
				return nil, err
			}
		default:
			return nil, common.Wrap(nil, fmt.Sprintf("config file: unrecognized section %q", name), common.Fail)
		}
	}
	return cfg, nil
}

func loadApp(cfg *config.Configuration, reg Registry, section *ini.Section, pool *packet.Pool) error {
	appName := strings.TrimPrefix(section.Name(), appSectionPrefix)
	if !section.HasKey(classKey) {
		return common.Wrap(nil, fmt.Sprintf("app %q: missing %q key", appName, classKey), common.BadClassName)
	}
	className := section.Key(classKey).String()
	class, ok := reg[className]
	if !ok {
		return common.Wrap(nil, fmt.Sprintf("app %q: unknown class %q", appName, className), common.BadClassName)
	}

	arg := make(map[string]interface{})
	for _, key := range section.Keys() {
		if key.Name() == classKey {
			continue
		}
		arg[key.Name()] = coerce(key.String())
	}
	if pool != nil {
		arg["pool"] = pool
	}
	return cfg.App(appName, className, class, arg)
}

func loadLinks(cfg *config.Configuration, section *ini.Section) error {
	for _, key := range section.Keys() {
		if err := cfg.Link(key.String()); err != nil {
			return err
		}
	}
	return nil
}

// coerce turns an INI value into an int, float64, bool or []string
// where it unambiguously parses as one, and otherwise leaves it a
// string. Apps that want a specific type declare it via their config
// schema, so this only needs to get the common cases right; a value
// such as "tcp,http,dns" (apps/hsfilter's "patterns" key) becomes
// []string{"tcp", "http", "dns"}.
func coerce(s string) interface{} {
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if fl, err := strconv.ParseFloat(s, 64); err == nil {
		return fl
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	if strings.Contains(s, ",") {
		parts := strings.Split(s, ",")
		list := make([]string, len(parts))
		for i, part := range parts {
			list[i] = strings.TrimSpace(part)
		}
		return list
	}
	return s
}
