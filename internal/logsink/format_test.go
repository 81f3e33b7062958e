package logsink

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatter_Format(t *testing.T) {
	entry := Entry{
		Label:     "response",
		Level:     LevelError,
		Timestamp: time.Date(2026, 10, 19, 15, 4, 5, 123_000_000, time.UTC),
		Meta: Record{
			Path:         []any{"amount"},
			Error:        `"amount" is required`,
			Context:      "{\n\tkey: amount\n }",
			FileTrace:    "/srv/internal/validation/reporter.go",
			RequestTrace: "POST /invoices - createInvoice",
		},
	}

	out, err := Formatter{}.Format(entry)
	require.NoError(t, err)

	want := "\n--- response error ---\n" +
		`[2026-10-19 03:04:05.123 PM] error {"path":["amount"],"error":"\"amount\" is required","context":"{\n\tkey: amount\n }","fileTrace":"/srv/internal/validation/reporter.go","requestTrace":"POST /invoices - createInvoice"}` +
		"\n--- response error ---\n"
	assert.Equal(t, want, string(out))
}

func TestFormatter_KeepsHTMLCharacters(t *testing.T) {
	entry := Entry{Label: "response", Level: LevelError, Meta: Record{Error: `"a" must be <b>`}}

	out, err := Formatter{}.Format(entry)
	require.NoError(t, err)
	assert.Contains(t, string(out), `must be <b>`)
}
