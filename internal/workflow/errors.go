package workflow

import (
	"errors"
	"fmt"
)

// Kind classifies a workflow failure. Each kind has its own code in API
// responses.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindDuplicateEntity
	KindRoleMismatch
	KindForbidden
	KindInvalidJobState
	KindInvalidTransition
	KindTerminalState
	KindInconsistentState
)

var kindNames = map[Kind]string{
	KindValidation:        "ValidationError",
	KindNotFound:          "NotFoundError",
	KindDuplicateEntity:   "DuplicateEntityError",
	KindRoleMismatch:      "RoleMismatchError",
	KindForbidden:         "ForbiddenError",
	KindInvalidJobState:   "InvalidJobStateError",
	KindInvalidTransition: "InvalidTransitionError",
	KindTerminalState:     "TerminalStateError",
	KindInconsistentState: "InconsistentStateError",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is returned by every lifecycle operation that rejects a request.
type Error struct {
	Kind    Kind
	Entity  string
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return e.Message
}

// Is matches on kind, so errors.Is(err, ErrTerminalState) works for any
// terminal-state failure regardless of entity.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrValidation        = &Error{Kind: KindValidation}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrDuplicateEntity   = &Error{Kind: KindDuplicateEntity}
	ErrRoleMismatch      = &Error{Kind: KindRoleMismatch}
	ErrForbidden         = &Error{Kind: KindForbidden}
	ErrInvalidJobState   = &Error{Kind: KindInvalidJobState}
	ErrInvalidTransition = &Error{Kind: KindInvalidTransition}
	ErrTerminalState     = &Error{Kind: KindTerminalState}
	ErrInconsistentState = &Error{Kind: KindInconsistentState}
)

func newError(kind Kind, entity, format string, args ...any) *Error {
	return &Error{Kind: kind, Entity: entity, Message: fmt.Sprintf(format, args...)}
}

func Validation(entity, format string, args ...any) *Error {
	return newError(KindValidation, entity, format, args...)
}

func NotFound(entity, format string, args ...any) *Error {
	return newError(KindNotFound, entity, format, args...)
}

func Duplicate(entity, format string, args ...any) *Error {
	return newError(KindDuplicateEntity, entity, format, args...)
}

func RoleMismatch(entity, format string, args ...any) *Error {
	return newError(KindRoleMismatch, entity, format, args...)
}

func Forbidden(entity, format string, args ...any) *Error {
	return newError(KindForbidden, entity, format, args...)
}

func InvalidJobState(format string, args ...any) *Error {
	return newError(KindInvalidJobState, "Job", format, args...)
}

func InvalidTransition(entity, format string, args ...any) *Error {
	return newError(KindInvalidTransition, entity, format, args...)
}

func TerminalState(entity, format string, args ...any) *Error {
	return newError(KindTerminalState, entity, format, args...)
}

func InconsistentState(entity, format string, args ...any) *Error {
	return newError(KindInconsistentState, entity, format, args...)
}

// KindOf returns the kind of a workflow error anywhere in err's chain.
func KindOf(err error) (Kind, bool) {
	var we *Error
	if errors.As(err, &we) {
		return we.Kind, true
	}
	return 0, false
}
