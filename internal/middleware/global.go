package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/deppfellow/shalom-ministry/internal/errs"
	"github.com/deppfellow/shalom-ministry/internal/server"
	"github.com/deppfellow/shalom-ministry/internal/sqlerr"
	"github.com/deppfellow/shalom-ministry/internal/validation"
)

// JSONBodyLimit caps JSON request bodies at 100 KB.
const JSONBodyLimit = 100 * 1024

// GlobalMiddlewares groups the app-wide middleware and the terminal
// error handler. Each reads config from the server container.
type GlobalMiddlewares struct {
	server *server.Server
}

func NewGlobalMiddlewares(s *server.Server) *GlobalMiddlewares {
	return &GlobalMiddlewares{
		server: s,
	}
}

// CORS allows the configured origins to call the API from a browser.
func (global *GlobalMiddlewares) CORS() echo.MiddlewareFunc {
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: global.server.Config.Server.CORSAllowedOrigins,
	})
}

// JSONBody reads JSON request bodies once, up front.
//
// Requests with a JSON content type have their body read (up to
// JSONBodyLimit), checked for syntax and kept on the context under
// validation.RawBodyKey. Request().Body is replaced by a fresh reader over
// the same bytes so later binding still works. Invalid JSON is answered
// with 400 through the error handler; other content types pass untouched.
func (global *GlobalMiddlewares) JSONBody() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Body == nil || req.Body == http.NoBody || !isJSON(req.Header.Get(echo.HeaderContentType)) {
				return next(c)
			}

			body, err := io.ReadAll(io.LimitReader(req.Body, JSONBodyLimit+1))
			if err != nil {
				return errs.NewBadRequestError("Could not read request body", false, nil, nil)
			}
			if len(body) > JSONBodyLimit {
				return errs.NewPayloadTooLargeError(fmt.Sprintf("Request body exceeds %d bytes", JSONBodyLimit))
			}
			if len(bytes.TrimSpace(body)) > 0 && !json.Valid(body) {
				return errs.NewBadRequestError("Request body is not valid JSON", true, nil, nil)
			}

			req.Body = io.NopCloser(bytes.NewReader(body))
			c.Set(validation.RawBodyKey, body)
			return next(c)
		}
	}
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == echo.MIMEApplicationJSON || strings.HasSuffix(mediaType, "+json")
}

// Static serves GET and HEAD requests from the configured directory.
// Requests that match no file continue down the chain.
func (global *GlobalMiddlewares) Static() echo.MiddlewareFunc {
	return middleware.StaticWithConfig(middleware.StaticConfig{
		Root: global.server.Config.Server.StaticDir,
		Skipper: func(c echo.Context) bool {
			method := c.Request().Method
			return method != http.MethodGet && method != http.MethodHead
		},
	})
}

// AccessLog writes one short line per request in the form
//
//	GET /invoices 200 512 - 1.234 ms
//
// The status is derived from the returned error when the handler failed,
// since the error handler writes the response only after this runs.
func (global *GlobalMiddlewares) AccessLog() echo.MiddlewareFunc {
	logger := global.server.Logger.With().Str("component", "access").Logger()

	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:          true,
		LogStatus:       true,
		LogError:        true,
		LogLatency:      true,
		LogMethod:       true,
		LogResponseSize: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			status := v.Status
			if v.Error != nil {
				status = errorStatus(v.Error)
			}

			logger.Info().Msgf("%s %s %d %d - %.3f ms",
				v.Method,
				v.URI,
				status,
				v.ResponseSize,
				float64(v.Latency.Microseconds())/1000,
			)
			return nil
		},
	})
}

// errorStatus is the status the error handler will answer err with.
func errorStatus(err error) int {
	var httpErr *errs.HTTPError
	var echoErr *echo.HTTPError
	switch {
	case errors.As(err, &httpErr):
		return httpErr.Status
	case errors.As(err, &echoErr):
		return echoErr.Code
	default:
		return http.StatusInternalServerError
	}
}

// Recover turns panics into errors for the error handler and logs the stack.
func (global *GlobalMiddlewares) Recover() echo.MiddlewareFunc {
	return middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			global.server.Logger.Error().
				Err(err).
				Str("request_id", GetRequestID(c)).
				Bytes("stack", stack).
				Msg("recovered from panic")
			return err
		},
	})
}

// Secure sets the standard security headers.
func (global *GlobalMiddlewares) Secure() echo.MiddlewareFunc {
	return middleware.Secure()
}

// Gzip compresses responses.
func (global *GlobalMiddlewares) Gzip() echo.MiddlewareFunc {
	return middleware.Gzip()
}

// GlobalErrorHandler is the final error funnel for the HTTP server.
//
// Every error returned down the chain ends here and is answered as an
// errs.HTTPError JSON body. Unknown errors go through sqlerr.HandleError,
// so driver errors never leak. The original error is logged at warn for
// 4xx and error (with stack) for 5xx.
func (global *GlobalMiddlewares) GlobalErrorHandler(err error, c echo.Context) {
	originalErr := err

	var httpErr *errs.HTTPError
	if !errors.As(err, &httpErr) {
		var echoErr *echo.HTTPError
		if errors.As(err, &echoErr) {
			switch echoErr.Code {
			case http.StatusNotFound:
				err = errs.NewNotFoundError("Route not found", false, nil)
			case http.StatusRequestEntityTooLarge:
				err = errs.NewPayloadTooLargeError("Request body too large")
			}
		} else {
			err = sqlerr.HandleError(err)
		}
	}

	var (
		echoErr     *echo.HTTPError
		status      int
		code        string
		message     string
		override    bool
		fieldErrors []errs.FieldError
	)

	switch {
	case errors.As(err, &httpErr):
		status = httpErr.Status
		code = httpErr.Code
		message = httpErr.Message
		override = httpErr.Override
		fieldErrors = httpErr.Errors

	case errors.As(err, &echoErr):
		status = echoErr.Code
		code = errs.MakeUpperCaseWithUnderscores(http.StatusText(status))
		if msg, ok := echoErr.Message.(string); ok {
			message = msg
		} else {
			message = http.StatusText(status)
		}

	default:
		status = http.StatusInternalServerError
		code = errs.MakeUpperCaseWithUnderscores(http.StatusText(status))
		message = http.StatusText(status)
	}

	logger, ok := c.Get(LoggerKey).(*zerolog.Logger)
	if !ok {
		logger = global.server.Logger
	}
	var event *zerolog.Event
	if status >= http.StatusInternalServerError {
		event = logger.Error().Stack()
	} else {
		event = logger.Warn()
	}
	event.
		Err(originalErr).
		Int("status", status).
		Str("error_code", code).
		Msg(message)

	if c.Response().Committed {
		return
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}

	_ = c.JSON(status, errs.HTTPError{
		Code:      code,
		Message:   message,
		Status:    status,
		Override:  override,
		Errors:    fieldErrors,
		RequestID: GetRequestID(c),
	})
}
