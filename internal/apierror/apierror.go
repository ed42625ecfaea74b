/*
Package apierror is Reddwarf's closed error taxonomy for the REST API:
every failure the api and controller packages produce is one of a fixed
set of Kinds, each bound to an HTTP status and renderable as the
types.Status envelope the wire protocol specifies.

Domain packages (kv, version, runtime) return their own sentinel errors;
apierror.From classifies those into a Kind at the boundary, the way the
teacher's HTTP handlers map storage errors to status codes inline — made
a single reusable mapping here because the API surface is much larger.
*/
package apierror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/cloudnebula/reddwarf/pkg/kv"
	"github.com/cloudnebula/reddwarf/pkg/types"
	"github.com/cloudnebula/reddwarf/pkg/version"
)

// Kind is a closed enumeration of the failure categories the API
// surfaces. Adding a Kind requires updating httpStatus and reasons
// below; callers should never construct a Status from an arbitrary
// string.
type Kind int

const (
	KindNotFound Kind = iota
	KindAlreadyExists
	KindConflict
	KindInvalid
	KindBadRequest
	KindInternal
	KindUnavailable
)

var httpStatus = map[Kind]int{
	KindNotFound:      http.StatusNotFound,
	KindAlreadyExists: http.StatusConflict,
	KindConflict:      http.StatusConflict,
	KindInvalid:       http.StatusUnprocessableEntity,
	KindBadRequest:    http.StatusBadRequest,
	KindInternal:      http.StatusInternalServerError,
	KindUnavailable:   http.StatusServiceUnavailable,
}

var reasons = map[Kind]string{
	KindNotFound:      "NotFound",
	KindAlreadyExists: "AlreadyExists",
	KindConflict:      "Conflict",
	KindInvalid:       "Invalid",
	KindBadRequest:    "BadRequest",
	KindInternal:      "Internal",
	KindUnavailable:   "ServiceUnavailable",
}

// Error is apierror's concrete error type, carrying a Kind plus a
// human-readable message and wrapping whatever underlying error
// triggered the classification.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", reasons[e.Kind], e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", reasons[e.Kind], e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// HTTPStatus returns the status code this error should be rendered with.
func (e *Error) HTTPStatus() int { return httpStatus[e.Kind] }

// New constructs an *Error directly, for call sites that know their
// failure kind without consulting a domain sentinel (validation,
// malformed request bodies).
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies an arbitrary error into an *Error of the given Kind,
// preserving it as Cause.
func Wrap(kind Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// From classifies an error returned by pkg/kv, pkg/version, or another
// domain package into an *Error. Errors already of type *Error pass
// through unchanged; anything unrecognized becomes KindInternal.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return existing
	}

	var conflict *version.ConflictError
	switch {
	case errors.As(err, &conflict):
		return Wrap(KindConflict, err, "resourceVersion conflict")
	case errors.Is(err, version.ErrAlreadyExists), errors.Is(err, kv.ErrAlreadyExists):
		return Wrap(KindAlreadyExists, err, "resource already exists")
	case errors.Is(err, version.ErrNotFound), errors.Is(err, kv.ErrNotFound):
		return Wrap(KindNotFound, err, "resource not found")
	default:
		return Wrap(KindInternal, err, "internal error")
	}
}

// ToStatus renders e as the wire-level failure envelope.
func ToStatus(e *Error) types.Status {
	return types.Status{
		TypeMeta: types.TypeMeta{APIVersion: "v1", Kind: "Status"},
		Status:   "Failure",
		Code:     e.HTTPStatus(),
		Reason:   reasons[e.Kind],
		Message:  e.Message,
	}
}
