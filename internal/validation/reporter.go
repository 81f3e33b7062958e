package validation

import (
	"context"
	"fmt"
	"net/http"
	"runtime"

	"github.com/labstack/echo/v4"

	"github.com/deppfellow/shalom-ministry/internal/logsink"
)

// Validator inspects a raw request body. It returns the decoded value on
// success, or an error (usually *Error) describing why the body was rejected.
type Validator func(body []byte) (value any, err error)

// ResponseSink receives the record of every rejected request.
type ResponseSink interface {
	Write(ctx context.Context, level logsink.Level, rec logsink.Record) *logsink.Delivery
}

const (
	// RawBodyKey holds the request body captured by the JSON body middleware.
	RawBodyKey = "raw_body"

	// ValidatedKey holds the value returned by the route's validator.
	ValidatedKey = "validated_body"
)

// reporterFile is the absolute path of this file, stored on every record.
var reporterFile = func() string {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return "internal/validation/reporter.go"
	}
	return file
}()

// Reporter builds route middleware that validates request bodies and
// reports failures to the response log sink.
type Reporter struct {
	sink ResponseSink
}

// NewReporter returns a Reporter writing to sink.
func NewReporter(sink ResponseSink) *Reporter {
	return &Reporter{sink: sink}
}

// Validate runs v over the request body captured by the JSON body
// middleware. Bodies that were not captured are validated as {}.
//
// On success the decoded value is stored under ValidatedKey and the chain
// continues. On failure one record is written at error level (console and
// file before the response, remote started before the response) and the
// client gets 400 with the first detail's message as plain text. The
// failure is never returned to the error handler.
//
// component names the handler in the record's request trace.
func (r *Reporter) Validate(component string, v Validator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			value, verr := v(capturedBody(c))
			if verr == nil {
				c.Set(ValidatedKey, value)
				return next(c)
			}

			failure := AsError(verr)
			first := failure.First()

			rec := logsink.NewRecord(
				first.Path,
				first.Message,
				RenderContext(first.Context),
				reporterFile,
				requestTrace(c, component),
			)
			r.sink.Write(c.Request().Context(), logsink.LevelError, rec)

			return c.String(http.StatusBadRequest, first.Message)
		}
	}
}

// emptyObject stands in for a body the JSON body middleware did not
// capture, such as a request with a non-JSON content type.
var emptyObject = []byte("{}")

// capturedBody returns the body kept by the JSON body middleware, or an
// empty object when there is none. The request body itself is never read.
func capturedBody(c echo.Context) []byte {
	if body, ok := c.Get(RawBodyKey).([]byte); ok {
		return body
	}
	return emptyObject
}

// Validated returns the value stored by a successful Validate.
func Validated[T any](c echo.Context) (T, bool) {
	value, ok := c.Get(ValidatedKey).(T)
	return value, ok
}

func requestTrace(c echo.Context, component string) string {
	req := c.Request()
	uri := req.RequestURI
	if uri == "" {
		uri = req.URL.RequestURI()
	}
	return fmt.Sprintf("%s %s - %s", req.Method, uri, component)
}
