// Copyright 2019 Intel Corporation.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package app

import "testing"

func TestValidateAppliesDefaults(t *testing.T) {
	s := Schema{Defaults: map[string]interface{}{"count": 5}}
	got, err := Validate(s, nil)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if got["count"] != 5 {
		t.Errorf("count = %v, want 5", got["count"])
	}
}

func TestValidateRejectsMissingRequired(t *testing.T) {
	s := Schema{Required: []string{"path"}}
	if _, err := Validate(s, nil); err == nil {
		t.Fatal("Validate accepted a missing required key")
	}
}

func TestValidateRejectsUnknownKey(t *testing.T) {
	s := Schema{Permitted: []string{"a"}}
	if _, err := Validate(s, map[string]interface{}{"b": 1}); err == nil {
		t.Fatal("Validate accepted a key outside required/defaults/permitted")
	}
}

func TestValidateDoesNotMutateInput(t *testing.T) {
	s := Schema{Defaults: map[string]interface{}{"count": 5}}
	arg := map[string]interface{}{"count": 9}
	if _, err := Validate(s, arg); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if arg["count"] != 9 {
		t.Error("Validate mutated its input map")
	}
}
