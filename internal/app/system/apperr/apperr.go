// Package apperr defines the error taxonomy shared by domain components and
// the HTTP layer. Components return *Error; handlers translate the Kind into
// a status code with respond.Err.
package apperr

import "errors"

// Kind classifies a failure for the caller.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error carries a Kind and a short, user-safe message.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

// Validation reports malformed or disallowed input.
func Validation(msg string) *Error { return &Error{Kind: KindValidation, Msg: msg} }

// Unauthenticated reports a missing or unknown credential.
func Unauthenticated(msg string) *Error { return &Error{Kind: KindUnauthenticated, Msg: msg} }

// Forbidden reports an authenticated caller lacking a role or ownership.
func Forbidden(msg string) *Error { return &Error{Kind: KindForbidden, Msg: msg} }

// NotFound reports an unresolved id or slug.
func NotFound(msg string) *Error { return &Error{Kind: KindNotFound, Msg: msg} }

// Conflict reports a state clash such as a duplicate or an already-applied action.
func Conflict(msg string) *Error { return &Error{Kind: KindConflict, Msg: msg} }

// KindOf returns the Kind of err, or KindInternal when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}
