// Package pdfops holds the error taxonomy shared by the page-model engine
// (document, pageops, overlay) and the request pipeline built on top of it.
package pdfops

import (
	"errors"
	"fmt"
)

// Sentinel errors classifying every failure the engine can report.
// Use errors.Is to test an error against them.
var (
	ErrValidation      = errors.New("pdfops: invalid request")
	ErrCorruptDocument = errors.New("pdfops: document is corrupted")
	ErrEncrypted       = errors.New("pdfops: document is encrypted")
	ErrIndexOutOfRange = errors.New("pdfops: page index out of range")
	ErrResourceLimit   = errors.New("pdfops: resource limit exceeded")
	ErrInternal        = errors.New("pdfops: internal error")
)

// Error represents a failure of a specific engine operation.
// Kind is one of the sentinel errors above; Err carries the detail.
type Error struct {
	Op   string // operation name, e.g. "Parse", "Merge"
	Kind error  // classification sentinel
	Err  error  // underlying error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pdfops.%s: %v: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("pdfops.%s: %v", e.Op, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the classification of e.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

// NewError creates an Error of the given kind for op.
func NewError(op string, kind error, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// Errorf creates an Error of the given kind with a formatted detail message.
func Errorf(op string, kind error, format string, args ...any) *Error {
	return &Error{Op: op, Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the classification of err, or ErrInternal when err carries
// none of the known sentinels.
func KindOf(err error) error {
	for _, kind := range []error{ErrValidation, ErrResourceLimit, ErrCorruptDocument, ErrIndexOutOfRange, ErrInternal} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return ErrInternal
}
