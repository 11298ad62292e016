// Copyright 2019 Intel Corporation.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"testing"

	"github.com/intel-go/breathe/app"
)

type stubClass struct{ schema app.Schema }

func (s stubClass) New(arg map[string]interface{}, ports *app.Ports) (app.Instance, error) {
	return struct{}{}, nil
}
func (s stubClass) ConfigSchema() app.Schema { return s.schema }

func TestAppValidatesArgAgainstSchema(t *testing.T) {
	class := stubClass{schema: app.Schema{
		Required: []string{"a"},
		Defaults: map[string]interface{}{"b": "foo"},
	}}

	c := New()
	if err := c.App("x", "stub", class, map[string]interface{}{"c": 1}); err == nil {
		t.Fatal("App() did not reject an unknown key")
	}
	if err := c.App("x", "stub", class, nil); err == nil {
		t.Fatal("App() did not reject a missing required key")
	}
	if err := c.App("x", "stub", class, map[string]interface{}{"a": 1}); err != nil {
		t.Fatalf("App() rejected a valid arg: %v", err)
	}
	if got := c.Apps()["x"].Arg["b"]; got != "foo" {
		t.Errorf("default not applied: b = %v, want %q", got, "foo")
	}
}

func TestLinkRejectsDuplicateSpec(t *testing.T) {
	c := New()
	if err := c.Link("a.x -> b.y"); err != nil {
		t.Fatalf("first Link() failed: %v", err)
	}
	if err := c.Link("a.x  ->  b.y"); err == nil {
		t.Fatal("Link() accepted a duplicate spec (whitespace-normalized)")
	}
}

func TestLinkRejectsMalformedSpec(t *testing.T) {
	c := New()
	for _, bad := range []string{"a.x -> b", "a -> b.y", "a.x=>b.y", ""} {
		if err := c.Link(bad); err == nil {
			t.Errorf("Link(%q) should have failed", bad)
		}
	}
}

func TestParseLinkSpec(t *testing.T) {
	got, err := ParseLinkSpec("a1.x -> a2.y")
	if err != nil {
		t.Fatalf("ParseLinkSpec failed: %v", err)
	}
	want := LinkSpec{FromApp: "a1", FromPort: "x", ToApp: "a2", ToPort: "y"}
	if got != want {
		t.Errorf("ParseLinkSpec() = %+v, want %+v", got, want)
	}
}
