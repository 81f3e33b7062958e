package errs

import (
	"net/http"
)

func newError(status int, message string, override bool, code *string) *HTTPError {
	formattedCode := MakeUpperCaseWithUnderscores(http.StatusText(status))
	if code != nil {
		formattedCode = *code
	}
	return &HTTPError{
		Code:     formattedCode,
		Message:  message,
		Status:   status,
		Override: override,
	}
}

// NewUnauthorizedError creates a 401 Unauthorized HTTPError.
func NewUnauthorizedError(message string, override bool) *HTTPError {
	return newError(http.StatusUnauthorized, message, override, nil)
}

// NewForbiddenError creates a 403 Forbidden HTTPError.
func NewForbiddenError(message string, override bool) *HTTPError {
	return newError(http.StatusForbidden, message, override, nil)
}

// NewBadRequestError creates a 400 Bad Request HTTPError.
//
// code replaces the default "BAD_REQUEST" when non-nil; errors carries
// field-level details.
func NewBadRequestError(message string, override bool, code *string, errors []FieldError) *HTTPError {
	err := newError(http.StatusBadRequest, message, override, code)
	err.Errors = errors
	return err
}

// NewNotFoundError creates a 404 Not Found HTTPError.
func NewNotFoundError(message string, override bool, code *string) *HTTPError {
	return newError(http.StatusNotFound, message, override, code)
}

// NewConflictError creates a 409 Conflict HTTPError, used for invoice
// state transitions that are not allowed (e.g. editing a paid invoice).
func NewConflictError(message string, override bool, code *string) *HTTPError {
	return newError(http.StatusConflict, message, override, code)
}

// NewPayloadTooLargeError creates a 413 HTTPError for bodies over the JSON limit.
func NewPayloadTooLargeError(message string) *HTTPError {
	return newError(http.StatusRequestEntityTooLarge, message, true, nil)
}

// NewTooManyRequestsError creates a 429 HTTPError for rate limited clients.
func NewTooManyRequestsError(message string) *HTTPError {
	return newError(http.StatusTooManyRequests, message, true, nil)
}

// NewServiceUnavailableError creates a 503 HTTPError for optional
// dependencies that are not configured (e.g. background jobs without Redis).
func NewServiceUnavailableError(message string) *HTTPError {
	return newError(http.StatusServiceUnavailable, message, true, nil)
}

// NewInternalServerError creates a 500 HTTPError.
//
// The message is always the generic status text; the real cause is only logged.
func NewInternalServerError() *HTTPError {
	return newError(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError), false, nil)
}

// ValidationError converts a generic validation error into a 400 Bad Request HTTPError.
func ValidationError(err error) *HTTPError {
	return NewBadRequestError("Validation failed: "+err.Error(), false, nil, nil)
}
