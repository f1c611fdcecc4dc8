// Package apperr defines the closed set of failure kinds the service can
// report and the error value that carries one of them from the point of
// detection to the single response translation step.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind uint8

const (
	KindInternal Kind = iota
	KindStore
	KindValidation
	KindNotFound
	KindUnauthenticated
	KindInvalidCredential
	KindForbidden
	KindConflict
	KindBadCredentials
	KindMethodNotAllowed
	KindUnavailable
)

// Kinds enumerates every kind, in domain code order.
var Kinds = []Kind{
	KindInternal,
	KindStore,
	KindValidation,
	KindNotFound,
	KindUnauthenticated,
	KindInvalidCredential,
	KindForbidden,
	KindConflict,
	KindBadCredentials,
	KindMethodNotAllowed,
	KindUnavailable,
}

// GenericMessage is shown to clients for every non-operational failure.
const GenericMessage = "internal server error"

func (k Kind) String() string {
	switch k {
	case KindInternal:
		return "internal"
	case KindStore:
		return "store"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindInvalidCredential:
		return "invalid_credential"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindBadCredentials:
		return "bad_credentials"
	case KindMethodNotAllowed:
		return "method_not_allowed"
	case KindUnavailable:
		return "unavailable"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// HTTPStatus is the default status code a kind is reported with.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthenticated, KindBadCredentials:
		return http.StatusUnauthorized
	case KindInvalidCredential, KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case KindUnavailable:
		return http.StatusServiceUnavailable
	case KindInternal, KindStore:
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

// Code is the stable domain code clients branch on. It never equals an HTTP
// status and never changes once published.
func (k Kind) Code() int {
	switch k {
	case KindInternal:
		return 1000
	case KindStore:
		return 1001
	case KindValidation:
		return 1002
	case KindNotFound:
		return 1003
	case KindUnauthenticated:
		return 1004
	case KindInvalidCredential:
		return 1005
	case KindForbidden:
		return 1006
	case KindConflict:
		return 1007
	case KindBadCredentials:
		return 1008
	case KindMethodNotAllowed:
		return 1009
	case KindUnavailable:
		return 1010
	}
	return 1000
}

// Operational reports whether failures of this kind are expected and their
// messages safe to show verbatim.
func (k Kind) Operational() bool {
	switch k {
	case KindInternal, KindStore:
		return false
	case KindValidation, KindNotFound, KindUnauthenticated, KindInvalidCredential,
		KindForbidden, KindConflict, KindBadCredentials, KindMethodNotAllowed, KindUnavailable:
		return true
	}
	return false
}

type Error struct {
	Kind    Kind
	Message string
	Err     error // underlying cause, never shown to clients of non-operational kinds
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) HTTPStatus() int   { return e.Kind.HTTPStatus() }
func (e *Error) Code() int         { return e.Kind.Code() }
func (e *Error) Operational() bool { return e.Kind.Operational() }

// PublicMessage is the message the client sees.
func (e *Error) PublicMessage() string {
	if !e.Operational() {
		return GenericMessage
	}
	return e.Message
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func Validation(format string, args ...any) *Error {
	return New(KindValidation, fmt.Sprintf(format, args...))
}

func NotFound(msg string) *Error { return New(KindNotFound, msg) }

func Unauthenticated(msg string) *Error { return New(KindUnauthenticated, msg) }

func InvalidCredential(err error) *Error {
	return Wrap(KindInvalidCredential, "token is invalid or expired", err)
}

func Forbidden(msg string) *Error { return New(KindForbidden, msg) }

func Conflict(msg string) *Error { return New(KindConflict, msg) }

func BadCredentials() *Error {
	return New(KindBadCredentials, "invalid username or password")
}

// Store wraps a persistence failure. op names the store call that failed.
func Store(op string, err error) *Error {
	return Wrap(KindStore, op, err)
}

func Internal(err error) *Error {
	return Wrap(KindInternal, "unexpected error", err)
}

// From returns the *Error in err's chain, or wraps err as Internal.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}

// Is reports whether err carries an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
