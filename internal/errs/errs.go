// Package errs defines the error types returned to API clients.
//
// Handlers and services return *HTTPError values; the terminal error
// handler in the middleware package turns them into the JSON shape below.
// Validation failures on routes wrapped by the validation reporter are the
// one exception: they answer with a plain-text 400 and never reach here.
package errs
