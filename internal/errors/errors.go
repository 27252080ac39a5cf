package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind represents the type of error
type Kind int

const (
	ErrInternal Kind = iota
	ErrNotFound
	ErrValidation
	ErrConflict
	ErrUnknownParticipant
	ErrForbidden
	ErrInvalidState
)

func (k Kind) String() string {
	switch k {
	case ErrNotFound:
		return "NotFound"
	case ErrValidation:
		return "ValidationError"
	case ErrConflict:
		return "Conflict"
	case ErrUnknownParticipant:
		return "UnknownParticipant"
	case ErrForbidden:
		return "Forbidden"
	case ErrInvalidState:
		return "InvalidState"
	default:
		return "Internal"
	}
}

// Error is an application-level error with a kind for classification.
// Field and PlayerID identify the offending input when there is one.
type Error struct {
	Kind     Kind
	Message  string
	Field    string
	PlayerID string
	Err      error // underlying error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WithField records the name of the offending input field
func (e *Error) WithField(field string) *Error {
	e.Field = field
	return e
}

// WithPlayer records the offending player
func (e *Error) WithPlayer(playerID string) *Error {
	e.PlayerID = playerID
	return e
}

// Constructor functions for common error types

func NotFound(msg string) *Error {
	return &Error{Kind: ErrNotFound, Message: msg}
}

func NotFoundf(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

func Validation(msg string) *Error {
	return &Error{Kind: ErrValidation, Message: msg}
}

func Validationf(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

func Conflict(msg string) *Error {
	return &Error{Kind: ErrConflict, Message: msg}
}

func Conflictf(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrConflict, Message: fmt.Sprintf(format, args...)}
}

func UnknownParticipant(playerID string) *Error {
	return &Error{
		Kind:     ErrUnknownParticipant,
		Message:  fmt.Sprintf("player %s is not registered in this session", playerID),
		PlayerID: playerID,
	}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: ErrForbidden, Message: msg}
}

func InvalidState(msg string) *Error {
	return &Error{Kind: ErrInvalidState, Message: msg}
}

func InvalidStatef(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrInvalidState, Message: fmt.Sprintf(format, args...)}
}

func Internal(err error) *Error {
	return &Error{Kind: ErrInternal, Message: "internal error", Err: err}
}

func Internalf(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrInternal, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an error with additional context
func Wrap(err error, kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain.
// Errors that carry no classification are ErrInternal.
func KindOf(err error) Kind {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr.Kind
	}
	return ErrInternal
}

// Is reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}
