// Package errs implements the five-way error taxonomy of the converter:
// Malformed, Unsupported, InvalidOperation, Lowering and Writer failures.
// Every failure short-circuits the enclosing op.Op chain; no intermediate
// state is usable after a failure.
package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind is the error taxonomy from the external diagnostic surface.
type Kind string

const (
	// Malformed indicates the bytecode container or chunk structure is
	// inconsistent.
	Malformed Kind = "malformed"
	// Unsupported indicates a DXBC opcode, resource shape or shader stage
	// the core does not implement.
	Unsupported Kind = "unsupported"
	// InvalidOperation indicates a correct-but-illegal IR construction.
	InvalidOperation Kind = "invalid_operation"
	// Lowering indicates the translator reached an instruction whose
	// operand data types do not match the type-analysis result.
	Lowering Kind = "lowering"
	// Writer indicates metallib serialization failed.
	Writer Kind = "writer"
)

// Error is a taxonomy-tagged diagnostic. It implements error and carries
// the underlying cause for inspection via errors.Unwrap/errors.Cause.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause to errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.cause }

// New creates a new taxonomy error with a formatted message and a captured
// stack trace (via github.com/pkg/errors).
func New(kind Kind, format string, args ...interface{}) error {
	return errors.WithStack(&Error{Kind: kind, Message: fmt.Sprintf(format, args...)})
}

// Wrap attaches a taxonomy and an explanatory message to an existing error,
// preserving it as the cause. If cause is nil, Wrap returns nil.
func Wrap(kind Kind, cause error, format string, args ...interface{}) error {
	if cause == nil {
		return nil
	}
	return errors.WithStack(&Error{Kind: kind, Message: fmt.Sprintf(format, args...), cause: cause})
}

// Is reports whether err (or any error in its chain) carries the given kind.
func Is(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			if e.Kind == kind {
				return true
			}
			err = e.cause
			continue
		}
		err = errors.Unwrap(err)
	}
	return false
}

// KindOf returns the taxonomy kind of err, or "" if err does not carry one.
func KindOf(err error) Kind {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind
		}
		err = errors.Unwrap(err)
	}
	return ""
}
