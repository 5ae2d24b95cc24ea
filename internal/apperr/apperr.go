package apperr

import (
	"errors"
	"fmt"
	"net/http"

	pkgerrors "github.com/pkg/errors"
)

// Kind classifies an expected failure returned by a service call.
type Kind int

const (
	Internal Kind = iota
	NotFound
	Unauthorized
	Forbidden
	ValidationFailed
	Conflict
)

// GenericDetail is the only detail ever shown for Internal failures.
const GenericDetail = "An unexpected error occurred"

var kindNames = map[Kind]string{
	Internal:         "internal",
	NotFound:         "not_found",
	Unauthorized:     "unauthorized",
	Forbidden:        "forbidden",
	ValidationFailed: "validation_failed",
	Conflict:         "conflict",
}

var kindStatus = map[Kind]int{
	Internal:         http.StatusInternalServerError,
	NotFound:         http.StatusNotFound,
	Unauthorized:     http.StatusUnauthorized,
	Forbidden:        http.StatusForbidden,
	ValidationFailed: http.StatusBadRequest,
	Conflict:         http.StatusConflict,
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Status maps a kind onto its HTTP status code.
func Status(k Kind) int {
	if code, ok := kindStatus[k]; ok {
		return code
	}
	return http.StatusInternalServerError
}

// Error is a typed failure. Detail is safe to show to API consumers.
type Error struct {
	Kind   Kind
	Detail string
	cause  error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.cause
}

func New(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// Wrap turns an infrastructure error into an Internal failure, keeping the
// cause for logs only.
func Wrap(err error, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: Internal, Detail: GenericDetail, cause: pkgerrors.Wrap(err, message)}
}

// KindOf reports the kind of err. Errors that are not *Error are Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// DetailOf returns the consumer-facing message for err.
func DetailOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != Internal {
		return e.Detail
	}
	return GenericDetail
}
