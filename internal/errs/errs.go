package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a processing error.
type Kind string

const (
	// KindFormat marks a structurally invalid required file. Fatal for the
	// file it was read from; the offending content travels in Context.
	KindFormat Kind = "format"
	// KindProvider marks a missing optional ancillary file. Recoverable: the
	// caller substitutes a default and records a warning.
	KindProvider Kind = "provider"
	// KindSolver marks a radiative-transfer process failure or malformed
	// solver output. Fatal for one section only.
	KindSolver Kind = "solver"
	// KindTimeout marks a job exceeding its deadline. Fatal for the batch.
	KindTimeout Kind = "timeout"
	// KindValidation marks invalid configuration or request data.
	KindValidation Kind = "validation"
	// KindExecution wraps an arbitrary failure inside a section job.
	KindExecution Kind = "execution"
)

// Error is the typed error carried through the processing core.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Context map[string]any
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "unknown processing error"
	}
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Kind, e.Op, msg)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, msg)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// With attaches a context key/value pair and returns the error.
func (e *Error) With(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// NewFormat creates a format error for a malformed file, keeping the
// offending line so the failure can be audited.
func NewFormat(op, message, line string) *Error {
	e := &Error{Kind: KindFormat, Op: op, Message: message}
	if line != "" {
		e.With("line", line)
	}
	return e
}

// NewProvider creates a recoverable provider error for a missing optional
// ancillary source.
func NewProvider(op, message string) *Error {
	return &Error{Kind: KindProvider, Op: op, Message: message}
}

// NewSolver creates a solver error for one section.
func NewSolver(op string, cause error, message string) *Error {
	return &Error{Kind: KindSolver, Op: op, Message: message, Err: cause}
}

// NewTimeout creates a batch-fatal timeout error.
func NewTimeout(op string, timeout string) *Error {
	e := &Error{Kind: KindTimeout, Op: op, Message: fmt.Sprintf("job exceeded timeout of %s", timeout)}
	return e.With("timeout", timeout)
}

// NewValidation creates a validation error.
func NewValidation(op, message string) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: message}
}

// Wrap wraps an arbitrary error as an execution error, preserving an
// existing *Error unchanged apart from a missing Op.
func Wrap(err error, op, message string) *Error {
	if err == nil {
		return nil
	}
	var pe *Error
	if errors.As(err, &pe) {
		if pe.Op == "" {
			pe.Op = op
		}
		return pe
	}
	return &Error{Kind: KindExecution, Op: op, Message: message, Err: err}
}

// KindOf returns the kind of err, or KindExecution for foreign errors.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindExecution
}

// IsFatalForBatch reports whether err must abort the whole batch rather
// than a single section.
func IsFatalForBatch(err error) bool {
	return KindOf(err) == KindTimeout
}
