package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/integrations/nrpkgerrors"
	"github.com/newrelic/go-agent/v3/newrelic"

	"github.com/deppfellow/shalom-ministry/internal/errs"
	"github.com/deppfellow/shalom-ministry/internal/middleware"
	"github.com/deppfellow/shalom-ministry/internal/server"
	"github.com/deppfellow/shalom-ministry/internal/validation"
)

// Handler is the base handler type that holds shared application dependencies.
type Handler struct {
	server *server.Server
}

func NewHandler(s *server.Server) Handler {
	return Handler{server: s}
}

// HandlerFunc is a typed endpoint: it receives the validated request and
// returns the response body or an error.
type HandlerFunc[Req validation.Validatable, Res any] func(c echo.Context, req Req) (Res, error)

// HandlerFuncNoContent is a typed endpoint without a response body.
type HandlerFuncNoContent[Req validation.Validatable] func(c echo.Context, req Req) error

// ResponseHandler writes a successful result and names the operation in logs.
type ResponseHandler interface {
	Handle(c echo.Context, result interface{}) error
	GetOperation() string
}

type JSONResponseHandler struct {
	status int
}

func (h JSONResponseHandler) Handle(c echo.Context, result interface{}) error {
	return c.JSON(h.status, result)
}

func (h JSONResponseHandler) GetOperation() string {
	return "handler"
}

type NoContentResponseHandler struct {
	status int
}

func (h NoContentResponseHandler) Handle(c echo.Context, _ interface{}) error {
	return c.NoContent(h.status)
}

func (h NoContentResponseHandler) GetOperation() string {
	return "handler_no_content"
}

// decodeRequest produces the request for one call.
//
// Routes wrapped by the validation reporter already hold the decoded body;
// only path parameters are bound on top of it. Every other route binds
// path, query and body into a fresh value and validates it here, where a
// failure becomes a 400 *errs.HTTPError.
func decodeRequest[T any, Req interface {
	*T
	validation.Validatable
}](c echo.Context) (Req, error) {
	if req, ok := validation.Validated[Req](c); ok {
		if err := (&echo.DefaultBinder{}).BindPathParams(c, req); err != nil {
			var zero Req
			return zero, errs.NewBadRequestError("Invalid path parameters", false, nil, nil)
		}
		return req, nil
	}

	req := Req(new(T))
	if err := validation.BindAndValidate(c, req); err != nil {
		var zero Req
		return zero, err
	}
	return req, nil
}

// handleRequest is the shared execution pipeline for every typed handler:
// request decoding, structured logging with the request logger, New Relic
// attributes and error reporting, then writing the response.
func handleRequest[T any, Req interface {
	*T
	validation.Validatable
}](
	c echo.Context,
	handler func(c echo.Context, req Req) (interface{}, error),
	responseHandler ResponseHandler,
) error {
	start := time.Now()
	txn := newrelic.FromContext(c.Request().Context())
	if txn != nil {
		txn.AddAttribute("handler.name", c.Path())
	}

	logger := middleware.GetLogger(c).With().
		Str("operation", responseHandler.GetOperation()).
		Str("route", c.Path()).
		Logger()

	logger.Debug().Msg("handling request")

	validationStart := time.Now()
	req, err := decodeRequest[T, Req](c)
	validationDuration := time.Since(validationStart)
	if err != nil {
		logger.Warn().
			Err(err).
			Dur("validation_duration", validationDuration).
			Msg("request validation failed")

		if txn != nil {
			txn.AddAttribute("validation.status", "failed")
			txn.AddAttribute("validation.duration_ms", validationDuration.Milliseconds())
		}
		return err
	}

	if txn != nil {
		txn.AddAttribute("validation.status", "success")
		txn.AddAttribute("validation.duration_ms", validationDuration.Milliseconds())
	}

	handlerStart := time.Now()
	result, err := handler(c, req)
	handlerDuration := time.Since(handlerStart)

	if err != nil {
		logger.Error().
			Err(err).
			Dur("handler_duration", handlerDuration).
			Dur("total_duration", time.Since(start)).
			Msg("handler execution failed")

		if txn != nil {
			txn.NoticeError(nrpkgerrors.Wrap(err))
			txn.AddAttribute("handler.status", "error")
			txn.AddAttribute("handler.duration_ms", handlerDuration.Milliseconds())
		}
		return err
	}

	if txn != nil {
		txn.AddAttribute("handler.status", "success")
		txn.AddAttribute("handler.duration_ms", handlerDuration.Milliseconds())
	}

	logger.Info().
		Dur("handler_duration", handlerDuration).
		Dur("total_duration", time.Since(start)).
		Msg("request completed successfully")

	return responseHandler.Handle(c, result)
}

// Handle adapts a typed handler into an echo.HandlerFunc answering status
// with the JSON result.
//
//	g.GET("/:id", handler.Handle(h.Invoice.GetInvoice, http.StatusOK))
func Handle[T any, Req interface {
	*T
	validation.Validatable
}, Res any](handler HandlerFunc[Req, Res], status int) echo.HandlerFunc {
	return func(c echo.Context) error {
		return handleRequest[T, Req](c, func(c echo.Context, req Req) (interface{}, error) {
			return handler(c, req)
		}, JSONResponseHandler{status: status})
	}
}

// HandleNoContent is Handle for endpoints that answer without a body.
func HandleNoContent[T any, Req interface {
	*T
	validation.Validatable
}](handler HandlerFuncNoContent[Req], status int) echo.HandlerFunc {
	if status == 0 {
		status = http.StatusNoContent
	}
	return func(c echo.Context) error {
		return handleRequest[T, Req](c, func(c echo.Context, req Req) (interface{}, error) {
			return nil, handler(c, req)
		}, NoContentResponseHandler{status: status})
	}
}
