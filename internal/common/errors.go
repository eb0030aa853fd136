package common

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	ErrNotFound       = errors.New("requested resource not found")
	ErrUnauthorized   = errors.New("unauthorized access")
	ErrForbidden      = errors.New("forbidden access")
	ErrBadRequest     = errors.New("bad request")
	ErrConflict       = errors.New("resource conflict") // e.g., username already exists
	ErrValidation     = errors.New("validation failed")

	// Client-side failure kinds.
	ErrEnvelope    = errors.New("api reported failure")
	ErrTransport   = errors.New("request failed")
	ErrAuthExpired = errors.New("session expired")
)

// EnvelopeError is a response the API answered with success=false.
// Message is the server-supplied text and is shown to users verbatim.
type EnvelopeError struct {
	StatusCode int
	Message    string
	kind       error
}

func NewEnvelopeError(status int, message string) *EnvelopeError {
	return &EnvelopeError{StatusCode: status, Message: message, kind: kindFromStatus(status)}
}

func (e *EnvelopeError) Error() string {
	if e.Message == "" {
		return ErrEnvelope.Error()
	}
	return e.Message
}

// Kind returns the failure category derived from the status code, or the
// one set with WithKind.
func (e *EnvelopeError) Kind() error { return e.kind }

// WithKind returns a copy categorised as kind. Used where the server does
// not distinguish failures by status (e.g. lookups reported as 500).
func (e *EnvelopeError) WithKind(kind error) *EnvelopeError {
	cp := *e
	cp.kind = kind
	return &cp
}

func (e *EnvelopeError) Is(target error) bool {
	return target == ErrEnvelope || (e.kind != nil && target == e.kind)
}

func kindFromStatus(status int) error {
	switch status {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	}
	return nil
}

// TransportError covers everything that prevented a usable envelope from
// arriving: dial failures, timeouts, 5xx pages, unparseable bodies.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", ErrTransport, e.Op)
	}
	return fmt.Sprintf("%s: %s: %v", ErrTransport, e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// ValidationError holds client-side form failures keyed by field name.
// It never reaches the network.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// HTTPStatusFromError maps domain errors to HTTP status codes.
func HTTPStatusFromError(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrAuthExpired) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrForbidden) {
		return http.StatusForbidden
	}
	if errors.Is(err, ErrBadRequest) || errors.Is(err, ErrValidation) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrConflict) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrTransport) {
		return http.StatusBadGateway
	}
	var envErr *EnvelopeError
	if errors.As(err, &envErr) && envErr.StatusCode >= 400 {
		return envErr.StatusCode
	}
	return http.StatusInternalServerError
}

// UserMessage is the text a page should show for err: server messages
// verbatim, a generic line for transport failures.
func UserMessage(err error) string {
	var envErr *EnvelopeError
	if errors.As(err, &envErr) {
		return envErr.Error()
	}
	if errors.Is(err, ErrTransport) {
		return "Request failed. Please try again."
	}
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return "Please correct the highlighted fields."
	}
	return "Something went wrong."
}
