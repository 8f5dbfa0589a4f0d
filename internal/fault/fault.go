// Package fault defines the error taxonomy shared by the cartridge, bank and
// persistence layers.
//
// Every error produced by those layers is a *Error carrying a Kind. Callers
// decide what to do by kind rather than by message:
//
//	Validation      malformed or unsupported header field; the cartridge is rejected
//	Storage         open/seek/read/write failure on a backing file
//	Allocation      the bank pool cannot supply a buffer
//	FormatMismatch  snapshot version differs from the current format (logged only)
//
// Component sentinels are wrapped with %w so that errors.Is works on them as
// well as fault.Is on the kind.
package fault

import (
	"errors"
	"fmt"
)

// Kind classifies an error.
type Kind int

// List of valid Kind values.
const (
	Unknown Kind = iota
	Validation
	Storage
	Allocation
	FormatMismatch
)

var kindNames = map[Kind]string{
	Unknown:        "unknown error",
	Validation:     "validation error",
	Storage:        "storage error",
	Allocation:     "allocation error",
	FormatMismatch: "format mismatch",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return kindNames[Unknown]
}

// Error is the error type returned by the emulation core.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error of the given kind from a format string.
func New(kind Kind, op string, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// Wrap attaches a kind to an existing error. Wrapping a nil error returns nil.
//
// An error that is already a *Error of the same kind is not wrapped twice.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) && fe.Kind == kind && fe.Op == op {
		return err
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Is reports whether any error in err's chain is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	for err != nil {
		var fe *Error
		if !errors.As(err, &fe) {
			return false
		}
		if fe.Kind == kind {
			return true
		}
		err = fe.Err
	}
	return false
}

// KindOf returns the kind of the outermost *Error in err's chain, or Unknown.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return Unknown
}
