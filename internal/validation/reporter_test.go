package validation_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deppfellow/shalom-ministry/internal/logsink"
	"github.com/deppfellow/shalom-ministry/internal/logsink/logsinktest"
	"github.com/deppfellow/shalom-ministry/internal/validation"
)

type recordingSink struct {
	records []logsink.Record
}

func (s *recordingSink) Write(_ context.Context, _ logsink.Level, rec logsink.Record) *logsink.Delivery {
	s.records = append(s.records, rec)
	return &logsink.Delivery{}
}

// captureBody stands in for the JSON body middleware.
func captureBody(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		body, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return err
		}
		c.Set(validation.RawBodyKey, body)
		return next(c)
	}
}

func serve(t *testing.T, mw echo.MiddlewareFunc, method, target, body string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	return serveWith(t, []echo.MiddlewareFunc{captureBody, mw}, method, target, body)
}

func serveWith(t *testing.T, mws []echo.MiddlewareFunc, method, target, body string) (*httptest.ResponseRecorder, bool) {
	t.Helper()

	e := echo.New()
	reached := false
	e.Add(method, "/invoices", func(c echo.Context) error {
		reached = true
		return c.NoContent(http.StatusNoContent)
	}, mws...)

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec, reached
}

func TestReporter_PassesValidBody(t *testing.T) {
	sink := &recordingSink{}
	reporter := validation.NewReporter(sink)

	var seen any
	validator := func(body []byte) (any, error) {
		seen = string(body)
		return "ok", nil
	}

	rec, reached := serve(t, reporter.Validate("createInvoice", validator), http.MethodPost, "/invoices", `{"a":1}`)

	assert.True(t, reached)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, `{"a":1}`, seen)
	assert.Empty(t, sink.records)
}

func TestReporter_UncapturedBodyIsEmptyObject(t *testing.T) {
	reporter := validation.NewReporter(&recordingSink{})

	var seen string
	validator := func(body []byte) (any, error) {
		seen = string(body)
		return nil, nil
	}

	_, reached := serveWith(t, []echo.MiddlewareFunc{reporter.Validate("createInvoice", validator)},
		http.MethodPost, "/invoices", `{"number":"INV-1"}`)

	assert.True(t, reached)
	assert.Equal(t, "{}", seen)
}

func TestReporter_RejectsWithFirstMessage(t *testing.T) {
	sink := &recordingSink{}
	reporter := validation.NewReporter(sink)

	validator := func([]byte) (any, error) {
		return nil, &validation.Error{Details: []validation.Detail{
			{
				Message: `"amount" is required`,
				Path:    []any{"amount"},
				Context: []validation.ContextEntry{{Key: "label", Value: "amount"}, {Key: "key", Value: "amount"}},
			},
			{Message: `"currency" is required`, Path: []any{"currency"}},
		}}
	}

	rec, reached := serve(t, reporter.Validate("createInvoice", validator), http.MethodPost, "/invoices?draft=1", `{}`)

	assert.False(t, reached)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, `"amount" is required`, rec.Body.String())

	require.Len(t, sink.records, 1)
	record := sink.records[0]
	assert.Equal(t, []any{"amount"}, record.Path)
	assert.Equal(t, `"amount" is required`, record.Error)
	assert.Equal(t, "{\n\tkey: amount\n }", record.Context)
	assert.Equal(t, "POST /invoices?draft=1 - createInvoice", record.RequestTrace)
	assert.True(t, strings.HasSuffix(record.FileTrace, "reporter.go"))
}

func TestReporter_PlainErrorBecomesSingleDetail(t *testing.T) {
	sink := &recordingSink{}
	reporter := validation.NewReporter(sink)

	validator := func([]byte) (any, error) { return nil, errors.New("body rejected") }

	rec, _ := serve(t, reporter.Validate("updateInvoice", validator), http.MethodPut, "/invoices", `{}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "body rejected", rec.Body.String())
	require.Len(t, sink.records, 1)
	assert.Empty(t, sink.records[0].Path)
	assert.Equal(t, "", sink.records[0].Context)
}

func TestReporter_WritesEveryDestination(t *testing.T) {
	console := logsinktest.NewMemoryDestination("console")
	file := logsinktest.NewMemoryDestination("file")
	remote := logsinktest.NewMemoryDestination("mongodb")
	sink := logsink.New(logsink.Options{Console: console, File: file, Remote: remote})
	reporter := validation.NewReporter(sink)

	validator := func([]byte) (any, error) {
		return nil, &validation.Error{Details: []validation.Detail{{Message: "X", Path: []any{"field"}}}}
	}

	rec, _ := serve(t, reporter.Validate("createInvoice", validator), http.MethodPost, "/invoices", `{}`)
	require.NoError(t, sink.Close(context.Background()))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "X", rec.Body.String())
	assert.Len(t, console.Entries(), 1)
	assert.Len(t, file.Entries(), 1)
	assert.Len(t, remote.Entries(), 1)
}

func TestValidated(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	_, ok := validation.Validated[string](c)
	assert.False(t, ok)

	c.Set(validation.ValidatedKey, "value")
	got, ok := validation.Validated[string](c)
	assert.True(t, ok)
	assert.Equal(t, "value", got)
}
