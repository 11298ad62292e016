// Copyright 2019 Intel Corporation.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package app

import (
	"fmt"

	"github.com/intel-go/breathe/internal/common"
)

// Schema describes the permitted shape of a Class's arg map: which
// keys are required, which have defaults, and which are permitted at
// all. A key present in arg but absent from Required, Defaults and
// Permitted is rejected as unknown.
type Schema struct {
	Required  []string
	Defaults  map[string]interface{}
	Permitted []string
}

func (s Schema) permittedSet() map[string]bool {
	set := make(map[string]bool, len(s.Required)+len(s.Defaults)+len(s.Permitted))
	for _, k := range s.Required {
		set[k] = true
	}
	for k := range s.Defaults {
		set[k] = true
	}
	for _, k := range s.Permitted {
		set[k] = true
	}
	return set
}

// Validate applies s.Defaults to a copy of arg, checks every key in
// s.Required is present, and rejects any key not in the permitted set.
// It never mutates arg.
func Validate(s Schema, arg map[string]interface{}) (map[string]interface{}, error) {
	resolved := make(map[string]interface{}, len(arg)+len(s.Defaults))
	for k, v := range s.Defaults {
		resolved[k] = v
	}
	for k, v := range arg {
		resolved[k] = v
	}

	permitted := s.permittedSet()
	for k := range resolved {
		if !permitted[k] {
			return nil, common.Wrap(nil, fmt.Sprintf("unknown config key %q", k), common.UnknownArg)
		}
	}
	for _, k := range s.Required {
		if _, ok := arg[k]; !ok {
			return nil, common.Wrap(nil, fmt.Sprintf("missing required config key %q", k), common.MissingRequiredArg)
		}
	}
	return resolved, nil
}
