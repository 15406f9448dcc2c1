// Package status carries the uniform result type used across managers,
// repositories and service surfaces. Codes follow the gRPC numbering so
// boundaries can translate without a table.
package status

import (
	"errors"
	"fmt"
)

type Code int

const (
	CodeOK              Code = 0
	CodeInvalidArgument Code = 3
	CodeNotFound        Code = 5
	CodeAlreadyExists   Code = 6
	CodeInternal        Code = 13
	CodeUnavailable     Code = 14
	CodeUnauthenticated Code = 16
)

func (c Code) String() string {
	switch c {
	case CodeOK:
		return "OK"
	case CodeInvalidArgument:
		return "INVALID_ARGUMENT"
	case CodeNotFound:
		return "NOT_FOUND"
	case CodeAlreadyExists:
		return "ALREADY_EXISTS"
	case CodeInternal:
		return "INTERNAL"
	case CodeUnavailable:
		return "UNAVAILABLE"
	case CodeUnauthenticated:
		return "UNAUTHENTICATED"
	default:
		return fmt.Sprintf("CODE(%d)", int(c))
	}
}

// Status is a code plus a human message. A nil *Status means success, so it
// can travel as a plain error return.
type Status struct {
	code Code
	msg  string
}

func New(code Code, msg string) *Status {
	if code == CodeOK {
		return nil
	}
	return &Status{code: code, msg: msg}
}

func Newf(code Code, format string, args ...any) *Status {
	return New(code, fmt.Sprintf(format, args...))
}

func InvalidArgument(msg string) *Status { return New(CodeInvalidArgument, msg) }
func NotFound(msg string) *Status        { return New(CodeNotFound, msg) }
func AlreadyExists(msg string) *Status   { return New(CodeAlreadyExists, msg) }
func Internal(msg string) *Status        { return New(CodeInternal, msg) }
func Unavailable(msg string) *Status     { return New(CodeUnavailable, msg) }
func Unauthenticated(msg string) *Status { return New(CodeUnauthenticated, msg) }

func (s *Status) Code() Code {
	if s == nil {
		return CodeOK
	}
	return s.code
}

func (s *Status) Message() string {
	if s == nil {
		return ""
	}
	return s.msg
}

func (s *Status) Error() string {
	if s == nil {
		return "OK"
	}
	return fmt.Sprintf("%s: %s", s.code, s.msg)
}

// Err returns the status as an error, nil on success.
func (s *Status) Err() error {
	if s == nil {
		return nil
	}
	return s
}

// FromError recovers a *Status from an error chain. Arbitrary errors map to
// Internal so callers never lose the failure.
func FromError(err error) *Status {
	if err == nil {
		return nil
	}
	var s *Status
	if errors.As(err, &s) {
		return s
	}
	return &Status{code: CodeInternal, msg: err.Error()}
}

// CodeOf is shorthand for FromError(err).Code().
func CodeOf(err error) Code {
	return FromError(err).Code()
}
