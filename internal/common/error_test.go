// Copyright 2019 Intel Corporation.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package common

import (
	"reflect"
	"strconv"
	"testing"
)

var badArgCause = Wrap(nil, "missing required key \"pool\"", MissingRequiredArg)

var errorCauseTests = []struct {
	testError    error
	expectedCode ErrorCode
	expectedNil  bool
}{
	{&strconv.NumError{Func: "Atoi", Num: "", Err: strconv.ErrSyntax}, -1, true},
	{nil, -1, true},
	{Wrap(&strconv.NumError{Func: "Atoi", Num: "", Err: strconv.ErrSyntax}, "parsing arg", BadArgument), BadArgument, false},
	{Wrap(badArgCause, "app %q: invalid argument", BadArgument), BadArgument, false},
}

func TestGetEngineErrorAndCode(t *testing.T) {
	for _, tt := range errorCauseTests {
		eerr := GetEngineError(tt.testError)
		if tt.expectedNil && eerr != nil {
			t.Errorf("GetEngineError(%v) = %v, want nil", tt.testError, eerr)
			continue
		}
		if !tt.expectedNil && eerr == nil {
			t.Errorf("GetEngineError(%v) = nil, want non-nil", tt.testError)
			continue
		}
		if code := GetErrorCode(tt.testError); code != tt.expectedCode {
			t.Errorf("GetErrorCode(%v) = %v, want %v", tt.testError, code, tt.expectedCode)
		}
	}
}

func TestGetEngineErrorFindsOuterWrap(t *testing.T) {
	outer := Wrap(badArgCause, "app \"gen\": invalid argument", BadArgument)
	eerr := GetEngineError(outer)
	if eerr == nil {
		t.Fatal("GetEngineError returned nil for a wrapped EngineError")
	}
	if eerr.Code != BadArgument {
		t.Errorf("Code = %v, want BadArgument (the outer wrap, not the inner MissingRequiredArg cause)", eerr.Code)
	}
}

func TestCauseUnwrapsToNonEngineRoot(t *testing.T) {
	root := &strconv.NumError{Func: "Atoi", Num: "", Err: strconv.ErrSyntax}
	err := Wrap(root, "parsing arg", BadArgument)
	eerr := GetEngineError(err)
	if eerr == nil {
		t.Fatal("expected an EngineError")
	}
	if !reflect.DeepEqual(eerr.Cause(), root) {
		t.Errorf("Cause() = %v, want %v", eerr.Cause(), root)
	}
}

func TestSeverityByCode(t *testing.T) {
	cases := []struct {
		code ErrorCode
		want Severity
	}{
		{BadArgument, SeverityWarning},
		{RuntimeAppError, SeverityApp},
		{RestartFailed, SeverityApp},
		{PacerAnomaly, SeverityWarning},
	}
	for _, tt := range cases {
		e := &EngineError{Code: tt.code}
		if got := e.Severity(); got != tt.want {
			t.Errorf("EngineError{Code: %v}.Severity() = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestErrorFormatsMessageAndCode(t *testing.T) {
	err := Wrap(nil, "bad thing happened", Fail)
	if got := err.Error(); got == "" {
		t.Fatal("Error() returned empty string")
	}
}
