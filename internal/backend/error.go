package backend

import (
	"errors"
	"strings"
)

// Code classifies a run failure.
type Code int

const (
	CodeOK Code = iota
	// CodeModelRun means the backend executed and reported a failure.
	CodeModelRun
	// CodeAlloc means the run context or a batch could not be built.
	CodeAlloc
)

func (c Code) String() string {
	switch c {
	case CodeOK:
		return "OK"
	case CodeModelRun:
		return "MODELRUN"
	case CodeAlloc:
		return "ALLOC"
	}
	return "UNKNOWN"
}

// Error is the error slot carried by a run: a code, the full detail, and a
// single-line detail suitable for reply entries.
type Error struct {
	Code          Code
	Detail        string
	DetailOneline string
}

// NewError builds an Error from a detail string.
func NewError(code Code, detail string) *Error {
	return &Error{Code: code, Detail: detail, DetailOneline: oneline(detail)}
}

func (e *Error) Error() string { return e.Detail }

// Clone returns an independent copy of e.
func (e *Error) Clone() *Error {
	if e == nil {
		return nil
	}
	c := *e
	return &c
}

func oneline(s string) string {
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		return s[:i]
	}
	return s
}

type unavailableError struct{ msg string }

func (e unavailableError) Error() string { return e.msg }

// ErrDependencyUnavailable reports a backend that was not compiled into this
// binary or whose runtime cannot be found.
func ErrDependencyUnavailable(msg string) error { return unavailableError{msg: msg} }

func IsDependencyUnavailable(err error) bool {
	var u unavailableError
	return errors.As(err, &u)
}
