// Copyright 2019 Intel Corporation.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package common

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// ErrorCode identifies the category of an EngineError, per the error
// taxonomy of the engine (configuration, construction, runtime, pacer).
type ErrorCode int

// constants with error codes
const (
	_ ErrorCode = iota
	Fail
	UndefinedAppInLink
	DuplicateLinkSpec
	BadArgument
	MissingRequiredArg
	UnknownArg
	BadConstructor
	BadClassName
	RuntimeAppError
	RestartFailed
	PacerAnomaly
	ParseLinkSpecErr
)

// EngineError is the error type returned by engine functions.
type EngineError struct {
	Code     ErrorCode
	Message  string
	CauseErr error
}

// Error implements the error interface.
func (err EngineError) Error() string {
	return fmt.Sprintf("%s (%d)", err.Message, err.Code)
}

// Severity maps an error's code onto the engine's shared logging
// scale (see Severity in log.go). Errors raised during construction
// or configuration are surfaced at warning level, the same as any
// other operator-facing anomaly; errors raised by a running app's
// hooks are tagged at app level, matching timeline's Pull/Push
// events, since they originate from the same per-app activity.
func (err *EngineError) Severity() Severity {
	switch err.Code {
	case RuntimeAppError, RestartFailed:
		return SeverityApp
	default:
		return SeverityWarning
	}
}

// GetErrorCode returns the Code field if err is an EngineError or a
// pointer to one, and -1 otherwise.
func GetErrorCode(err error) ErrorCode {
	if eerr := GetEngineError(err); eerr != nil {
		return eerr.Code
	}
	return -1
}

type causer interface {
	Cause() error
}

// GetEngineError walks err's cause chain (the same chain pkg/errors'
// own Cause follows) one hop at a time and returns the first
// EngineError it finds, or nil if the chain never wraps one. It stops
// as soon as it finds one rather than calling all the way through to
// errors.Cause, since an EngineError's own Cause() may itself recurse
// past a nested EngineError to the non-engine error underneath it.
func GetEngineError(err error) *EngineError {
	for err != nil {
		switch e := err.(type) {
		case *EngineError:
			return e
		case EngineError:
			return &e
		}
		c, ok := err.(causer)
		if !ok {
			return nil
		}
		err = c.Cause()
	}
	return nil
}

// Cause returns the underlying cause of the error, if any. If not,
// returns err itself.
func (err *EngineError) Cause() error {
	if err == nil {
		return nil
	}
	if err.CauseErr != nil {
		return errors.Cause(err.CauseErr)
	}
	return err
}

// Format supports %s, %v and %+v the same way pkg/errors does: %+v
// recursively prints the cause chain and stack trace.
func (err *EngineError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			if cause := err.Cause(); cause != err && cause != nil {
				fmt.Fprintf(s, "%+v\n", err.Cause())
				io.WriteString(s, err.Message)
				return
			}
		}
		fallthrough
	case 's', 'q':
		io.WriteString(s, err.Error())
	}
}

// Wrap annotates err with a stack trace at the point Wrap is called and
// an EngineError carrying message and code. If err is nil the cause
// chain simply terminates at this EngineError.
func Wrap(err error, message string, code ErrorCode) error {
	err = &EngineError{
		CauseErr: err,
		Message:  message,
		Code:     code,
	}
	return errors.WithStack(err)
}
