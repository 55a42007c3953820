package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies an error by how it should be reported and recovered from
type Kind int

const (
	KindUnknown Kind = iota
	// KindPrecondition is a user mistake detected before any state change
	KindPrecondition
	// KindResourceLoad is a document that could not be opened or parsed
	KindResourceLoad
	// KindFormat is malformed template or interchange data
	KindFormat
	// KindService is a failed call to the remote extraction service
	KindService
	// KindStorage is a failure of the durable template storage
	KindStorage
)

// String returns a string representation of the Kind
func (k Kind) String() string {
	switch k {
	case KindPrecondition:
		return "PRECONDITION"
	case KindResourceLoad:
		return "RESOURCE_LOAD"
	case KindFormat:
		return "FORMAT"
	case KindService:
		return "SERVICE"
	case KindStorage:
		return "STORAGE"
	default:
		return "UNKNOWN"
	}
}

// IsRecoverable reports whether the session can continue after an error of this kind.
// Storage failures leave the in-memory model usable but unsaved, so they count too.
func (k Kind) IsRecoverable() bool {
	return k != KindUnknown
}

// Error is an error tagged with its Kind and the operation that produced it
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

// Error implements the error interface
func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %s error", e.Op, e.Kind)
	}
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error with a message and no cause
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Newf creates an Error with a formatted message
func Newf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Wrap tags err with a kind and operation. A nil err yields nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the Kind of the outermost *Error in err's chain
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the human readable part of err, without the operation prefix.
// Service messages come back verbatim this way.
func Message(err error) string {
	var e *Error
	if stderrors.As(err, &e) {
		if e.Message != "" {
			return e.Message
		}
		if e.Err != nil {
			return e.Err.Error()
		}
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
