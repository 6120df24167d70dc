// Package apperror defines the failure kinds shared by the server modules,
// the HTTP surface and the client.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure.
type Kind string

const (
	// Unauthenticated means the bearer credential is missing or invalid.
	Unauthenticated Kind = "unauthorized"
	// InvalidCredentials means a login did not match any account.
	InvalidCredentials Kind = "invalid_credentials"
	// NotFound covers both absent resources and resources owned by someone else.
	NotFound Kind = "not_found"
	// Validation means the request is missing a field or carries a bad value.
	Validation Kind = "validation_error"
	// Conflict means a uniqueness constraint was violated.
	Conflict Kind = "conflict"
	// Unavailable means the store or the network could not be reached.
	Unavailable Kind = "unavailable"
	// Internal is any other server-side failure.
	Internal Kind = "internal_error"
)

// Error is a classified failure. It is JSON-serializable so it can travel
// inside request-reply responses and HTTP error bodies.
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// New creates an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an Error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

// Is matches an *Error of the same kind and message. A target with an empty
// message matches any error of its kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// KindOf returns the kind of the first *Error in err's chain, or Internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// HasKind reports whether err carries the given kind.
func HasKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps a kind to its response status code.
func (k Kind) HTTPStatus() int {
	switch k {
	case Unauthenticated:
		return http.StatusUnauthorized
	case InvalidCredentials, Validation, Conflict:
		// A taken email answers 400; the body code tells it apart.
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// FromStatus infers a kind from an HTTP status code when the body does not
// carry one.
func FromStatus(status int) Kind {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return Unauthenticated
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return Validation
	case http.StatusNotFound:
		return NotFound
	case http.StatusConflict:
		return Conflict
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout, http.StatusTooManyRequests:
		return Unavailable
	default:
		return Internal
	}
}

// ParseKind returns the kind named by code, falling back to Internal.
func ParseKind(code string) Kind {
	switch k := Kind(code); k {
	case Unauthenticated, InvalidCredentials, NotFound, Validation, Conflict, Unavailable, Internal:
		return k
	default:
		return Internal
	}
}

// Wrap classifies cause under kind while keeping it in the chain.
func Wrap(kind Kind, message string, cause error) error {
	if cause == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", New(kind, message), cause)
}

// Storage marks a store failure as Unavailable unless it is already
// classified.
func Storage(op string, cause error) error {
	if cause == nil {
		return nil
	}
	var e *Error
	if errors.As(cause, &e) {
		return cause
	}
	return Wrap(Unavailable, op+": storage unavailable", cause)
}

// Public converts err into a fault safe to send to a caller. Internal and
// Unavailable faults get a generic message; the detail stays server-side.
func Public(err error) *Error {
	if err == nil {
		return nil
	}
	switch kind := KindOf(err); kind {
	case Internal:
		return New(kind, "internal error")
	case Unavailable:
		return New(kind, "service temporarily unavailable")
	}
	var e *Error
	errors.As(err, &e)
	return e
}

// Err returns e as an error, or a nil error when e is nil.
func (e *Error) Err() error {
	if e == nil {
		return nil
	}
	return e
}
