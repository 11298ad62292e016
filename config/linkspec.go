// Copyright 2019 Intel Corporation.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"fmt"
	"regexp"

	"github.com/intel-go/breathe/internal/common"
)

// LinkSpec is a parsed "<app>.<port> -> <app>.<port>" link
// specification.
type LinkSpec struct {
	FromApp  string
	FromPort string
	ToApp    string
	ToPort   string
}

// String renders the canonical form of the spec, which also serves as
// its identity: two specs with the same String() refer to the same
// link across a reconfiguration.
func (s LinkSpec) String() string {
	return fmt.Sprintf("%s.%s -> %s.%s", s.FromApp, s.FromPort, s.ToApp, s.ToPort)
}

var linkSpecRegexp = regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_]*)\.([A-Za-z_][A-Za-z0-9_]*)\s*->\s*([A-Za-z_][A-Za-z0-9_]*)\.([A-Za-z_][A-Za-z0-9_]*)\s*$`)

// ParseLinkSpec parses the grammar "<app_name>.<port> -> <app_name>.<port>",
// with optional whitespace around "->". Port and app names are
// identifiers.
func ParseLinkSpec(spec string) (LinkSpec, error) {
	m := linkSpecRegexp.FindStringSubmatch(spec)
	if m == nil {
		return LinkSpec{}, common.Wrap(nil, fmt.Sprintf("malformed link spec %q", spec), common.ParseLinkSpecErr)
	}
	return LinkSpec{
		FromApp:  m[1],
		FromPort: m[2],
		ToApp:    m[3],
		ToPort:   m[4],
	}, nil
}
