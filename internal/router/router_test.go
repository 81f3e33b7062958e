package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deppfellow/shalom-ministry/internal/config"
	"github.com/deppfellow/shalom-ministry/internal/errs"
	"github.com/deppfellow/shalom-ministry/internal/handler"
	"github.com/deppfellow/shalom-ministry/internal/logsink"
	"github.com/deppfellow/shalom-ministry/internal/logsink/logsinktest"
	"github.com/deppfellow/shalom-ministry/internal/model"
	"github.com/deppfellow/shalom-ministry/internal/router"
	"github.com/deppfellow/shalom-ministry/internal/server"
	"github.com/deppfellow/shalom-ministry/internal/service"
)

type fakeInvoices struct {
	created *model.CreateInvoiceRequest
	updated *model.UpdateInvoiceRequest
	deleted uuid.UUID
}

func (f *fakeInvoices) CreateInvoice(_ context.Context, req *model.CreateInvoiceRequest) (*model.Invoice, error) {
	f.created = req
	return &model.Invoice{ID: uuid.New(), Number: req.Number, Amount: req.Amount.Decimal, Status: model.InvoiceStatusDraft}, nil
}

func (f *fakeInvoices) GetInvoice(_ context.Context, id uuid.UUID) (*model.Invoice, error) {
	return nil, errs.NewNotFoundError("Invoice not found", true, nil)
}

func (f *fakeInvoices) ListInvoices(_ context.Context, q *model.ListInvoicesQuery) (*service.InvoicePage, error) {
	return &service.InvoicePage{Data: []model.Invoice{}, Limit: q.Limit, Offset: q.Offset}, nil
}

func (f *fakeInvoices) UpdateInvoice(_ context.Context, id uuid.UUID, req *model.UpdateInvoiceRequest) (*model.Invoice, error) {
	f.updated = req
	return &model.Invoice{ID: id, Amount: decimal.Zero}, nil
}

func (f *fakeInvoices) DeleteInvoice(_ context.Context, id uuid.UUID) error {
	f.deleted = id
	return nil
}

func (f *fakeInvoices) SendInvoice(_ context.Context, id uuid.UUID) (*model.Invoice, error) {
	return nil, errs.NewServiceUnavailableError("Invoice emails are not available right now")
}

type fixture struct {
	echo     *echo.Echo
	server   *server.Server
	logs     *bytes.Buffer
	console  *logsinktest.MemoryDestination
	file     *logsinktest.MemoryDestination
	remote   *logsinktest.MemoryDestination
	invoices *fakeInvoices
}

func newFixture(t *testing.T, env string) *fixture {
	t.Helper()

	staticDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(staticDir, "hello.txt"), []byte("shalom"), 0o644))

	logs := &bytes.Buffer{}
	logger := zerolog.New(logs)

	f := &fixture{
		logs:     logs,
		console:  logsinktest.NewMemoryDestination("console"),
		file:     logsinktest.NewMemoryDestination("file"),
		remote:   logsinktest.NewMemoryDestination("mongodb"),
		invoices: &fakeInvoices{},
	}

	f.server = &server.Server{
		Config: &config.Config{
			Primary: config.Primary{Env: env},
			Server: config.ServerConfig{
				CORSAllowedOrigins: []string{"*"},
				StaticDir:          staticDir,
			},
			Observability: config.DefaultObservabilityConfig(),
		},
		Logger: &logger,
		ResponseLog: logsink.New(logsink.Options{
			Console: f.console,
			File:    f.file,
			Remote:  f.remote,
		}),
	}

	handlers := &handler.Handlers{
		Health:  handler.NewHealthHandlerWithChecks(f.server, time.Second),
		Invoice: handler.NewInvoiceHandler(f.server, f.invoices),
	}
	f.echo = router.NewRouter(f.server, handlers)
	return f
}

func (f *fixture) do(method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	f.echo.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) doWithType(method, target, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	f.echo.ServeHTTP(rec, req)
	return rec
}

// drain waits for the remote writes started by the sink.
func (f *fixture) drain(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, f.server.ResponseLog.Close(ctx))
}

const validInvoice = `{"number":"INV-1","customerName":"Ruth","customerEmail":"ruth@example.org","amount":12.5,"currency":"USD","dueDate":"2024-05-01"}`

func TestCreateInvoice_InvalidBodyIsReportedEverywhere(t *testing.T) {
	f := newFixture(t, config.EnvTest)

	rec := f.do(http.MethodPost, "/invoices", `{"customerName":"X"}`)
	f.drain(t)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, `"number" is required`, rec.Body.String())
	assert.True(t, strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMETextPlain))
	assert.Nil(t, f.invoices.created)

	for _, dest := range []*logsinktest.MemoryDestination{f.console, f.file, f.remote} {
		entries := dest.Entries()
		require.Len(t, entries, 1, dest.Name())

		entry := entries[0]
		assert.Equal(t, logsink.DefaultLabel, entry.Label)
		assert.Equal(t, logsink.LevelError, entry.Level)
		assert.Equal(t, []any{"number"}, entry.Meta.Path)
		assert.Equal(t, `"number" is required`, entry.Meta.Error)
		assert.Equal(t, "{\n\tkey: number\n }", entry.Meta.Context)
		assert.Equal(t, "POST /invoices - createInvoice", entry.Meta.RequestTrace)
		assert.True(t, strings.HasSuffix(entry.Meta.FileTrace, "reporter.go"))
	}
}

func TestCreateInvoice_NonJSONContentTypeIsNotDecoded(t *testing.T) {
	f := newFixture(t, config.EnvTest)

	rec := f.doWithType(http.MethodPost, "/invoices", echo.MIMETextPlain, validInvoice)
	f.drain(t)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, `"number" is required`, rec.Body.String())
	assert.Nil(t, f.invoices.created)
	require.Len(t, f.remote.Entries(), 1)
	assert.Equal(t, []any{"number"}, f.remote.Entries()[0].Meta.Path)
}

func TestCreateInvoice_EmptyBodyReportsFirstMissingField(t *testing.T) {
	f := newFixture(t, config.EnvTest)

	rec := f.doWithType(http.MethodPost, "/invoices", echo.MIMEApplicationJSON, "")
	f.drain(t)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, `"number" is required`, rec.Body.String())
	assert.Nil(t, f.invoices.created)
}

func TestCreateInvoice_AmountMustBeANumber(t *testing.T) {
	f := newFixture(t, config.EnvTest)

	body := strings.Replace(validInvoice, `"amount":12.5`, `"amount":"abc"`, 1)
	rec := f.do(http.MethodPost, "/invoices", body)
	f.drain(t)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, `"amount" must be a number`, rec.Body.String())

	entries := f.file.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, []any{"amount"}, entries[0].Meta.Path)
	assert.True(t, strings.HasSuffix(entries[0].Meta.Context, "{\n\tkey: amount\n }"))
}

func TestCreateInvoice_UnknownField(t *testing.T) {
	f := newFixture(t, config.EnvTest)

	rec := f.do(http.MethodPost, "/invoices", `{"foo":1}`)
	f.drain(t)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, `"foo" is not allowed`, rec.Body.String())
	assert.Len(t, f.remote.Entries(), 1)
}

func TestCreateInvoice_ValidBodyReachesHandler(t *testing.T) {
	f := newFixture(t, config.EnvTest)

	rec := f.do(http.MethodPost, "/invoices", validInvoice)
	f.drain(t)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.NotNil(t, f.invoices.created)
	assert.Equal(t, "INV-1", f.invoices.created.Number)
	assert.Empty(t, f.console.Entries())
	assert.Empty(t, f.remote.Entries())

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "draft", body["status"])
}

func TestCreateInvoice_MalformedJSONGoesToErrorHandler(t *testing.T) {
	f := newFixture(t, config.EnvTest)

	rec := f.do(http.MethodPost, "/invoices", `{"number":`)
	f.drain(t)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var httpErr errs.HTTPError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &httpErr))
	assert.Equal(t, "BAD_REQUEST", httpErr.Code)
	assert.Equal(t, "Request body is not valid JSON", httpErr.Message)
	assert.Equal(t, rec.Header().Get("X-Request-ID"), httpErr.RequestID)
	assert.Empty(t, f.remote.Entries())
}

func TestUpdateInvoice_ReportsWithComponentAndBindsID(t *testing.T) {
	f := newFixture(t, config.EnvTest)
	id := uuid.New()

	rec := f.do(http.MethodPut, "/invoices/"+id.String(), `{"status":"lost"}`)
	f.drain(t)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, `"status" must be one of [draft, sent, paid, void]`, rec.Body.String())
	require.Len(t, f.file.Entries(), 1)
	assert.Equal(t, "PUT /invoices/"+id.String()+" - updateInvoice", f.file.Entries()[0].Meta.RequestTrace)

	rec = f.do(http.MethodPut, "/invoices/"+id.String(), `{"status":"paid"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, f.invoices.updated)
	assert.Equal(t, id.String(), f.invoices.updated.ID)
}

func TestGetInvoice_InvalidIDIsJSONError(t *testing.T) {
	f := newFixture(t, config.EnvTest)

	rec := f.do(http.MethodGet, "/invoices/not-a-uuid", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON)
	assert.Empty(t, f.console.Entries())
}

func TestGetInvoice_NotFound(t *testing.T) {
	f := newFixture(t, config.EnvTest)

	rec := f.do(http.MethodGet, "/invoices/"+uuid.NewString(), "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var httpErr errs.HTTPError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &httpErr))
	assert.Equal(t, "Invoice not found", httpErr.Message)
}

func TestListInvoices_RejectsLimitOverHundred(t *testing.T) {
	f := newFixture(t, config.EnvTest)

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/invoices?limit=101", "").Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/invoices?limit=10&status=paid", "").Code)
}

func TestDeleteInvoice_OpenWithoutAuthConfig(t *testing.T) {
	f := newFixture(t, config.EnvTest)
	id := uuid.New()

	rec := f.do(http.MethodDelete, "/invoices/"+id.String(), "")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, id, f.invoices.deleted)
}

func TestSendInvoice_ServiceUnavailable(t *testing.T) {
	f := newFixture(t, config.EnvTest)

	rec := f.do(http.MethodPost, "/invoices/"+uuid.NewString()+"/send", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAccessLog_DevelopmentOnly(t *testing.T) {
	dev := newFixture(t, config.EnvDevelopment)
	require.Equal(t, http.StatusOK, dev.do(http.MethodGet, "/status", "").Code)
	assert.Contains(t, dev.logs.String(), `"component":"access"`)
	assert.Contains(t, dev.logs.String(), "GET /status 200 ")

	for _, env := range []string{config.EnvProduction, config.EnvTest} {
		f := newFixture(t, env)
		require.Equal(t, http.StatusOK, f.do(http.MethodGet, "/status", "").Code)
		assert.NotContains(t, f.logs.String(), `"component":"access"`, env)
	}
}

func TestProductionSettings(t *testing.T) {
	prod := newFixture(t, config.EnvProduction)
	rec := prod.do(http.MethodGet, "/status", "")
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXXSSProtection))

	dev := newFixture(t, config.EnvDevelopment)
	rec = dev.do(http.MethodGet, "/status", "")
	assert.Empty(t, rec.Header().Get(echo.HeaderXXSSProtection))
}

func TestStaticFilesAndFallThrough(t *testing.T) {
	f := newFixture(t, config.EnvTest)

	rec := f.do(http.MethodGet, "/hello.txt", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "shalom", rec.Body.String())

	rec = f.do(http.MethodGet, "/missing.txt", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var httpErr errs.HTTPError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &httpErr))
	assert.Equal(t, "Route not found", httpErr.Message)
}

func TestRequestIDIsEchoed(t *testing.T) {
	f := newFixture(t, config.EnvTest)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	f.echo.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestRequestIDIsReplacedWhenUnusable(t *testing.T) {
	f := newFixture(t, config.EnvTest)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("X-Request-ID", strings.Repeat("a", 200))
	rec := httptest.NewRecorder()
	f.echo.ServeHTTP(rec, req)

	id := rec.Header().Get("X-Request-ID")
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
}
