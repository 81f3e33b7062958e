package money

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Amount *Amount `json:"amount"`
}

func TestAmount_UnmarshalJSON(t *testing.T) {
	var p payload
	require.NoError(t, json.Unmarshal([]byte(`{"amount":12.5}`), &p))
	assert.Equal(t, "12.5", p.Amount.String())

	require.NoError(t, json.Unmarshal([]byte(`{"amount":"7.25"}`), &p))
	assert.Equal(t, "7.25", p.Amount.String())
}

func TestAmount_RejectsNonNumbersWithField(t *testing.T) {
	for _, body := range []string{`{"amount":"abc"}`, `{"amount":true}`, `{"amount":{}}`} {
		var p payload
		err := json.Unmarshal([]byte(body), &p)

		var typeErr *json.UnmarshalTypeError
		require.ErrorAs(t, err, &typeErr, body)
		assert.Equal(t, "amount", typeErr.Field, body)
		assert.Equal(t, decimalType, typeErr.Type, body)
	}
}

func TestAmount_MarshalsLikeDecimal(t *testing.T) {
	a := RequireFromString("3.10")
	out, err := json.Marshal(payload{Amount: &a})
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"3.1"}`, string(out))
}
