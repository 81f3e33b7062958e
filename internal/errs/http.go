package errs

import "strings"

// FieldError is one invalid field of a rejected request.
//
//	{ "field": "amount", "error": "\"amount\" is required" }
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// HTTPError is the body of every JSON error response.
//
// Code is machine-friendly ("INVOICE_PAID"), Message is for people.
// Override tells the client the message is safe to show verbatim.
// RequestID is filled in by the terminal error handler.
type HTTPError struct {
	Code      string       `json:"code"`
	Message   string       `json:"message"`
	Status    int          `json:"status"`
	Override  bool         `json:"override"`
	Errors    []FieldError `json:"errors"`
	RequestID string       `json:"requestId,omitempty"`
}

func (e *HTTPError) Error() string {
	return e.Message
}

// Is matches any *HTTPError, regardless of code or status.
func (e *HTTPError) Is(target error) bool {
	_, ok := target.(*HTTPError)
	return ok
}

// MakeUpperCaseWithUnderscores converts "Bad Request" into "BAD_REQUEST".
func MakeUpperCaseWithUnderscores(str string) string {
	return strings.ToUpper(strings.ReplaceAll(str, " ", "_"))
}
