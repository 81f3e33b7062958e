package validation

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deppfellow/shalom-ministry/internal/money"
)

func TestRenderContext_LabelAndKey(t *testing.T) {
	got := RenderContext([]ContextEntry{{"label", "string"}, {"key", "amount"}})
	assert.Equal(t, "{\n\tkey: amount\n }", got)
}

func TestRenderContext_OtherKeys(t *testing.T) {
	got := RenderContext([]ContextEntry{
		{"limit", "0"},
		{"value", -5},
		{"label", "amount"},
		{"key", "amount"},
	})
	assert.Equal(t, "limit: 0,\n\tvalue: -5,\n\t{\n\tkey: amount\n }", got)
}

func TestRenderContext_Deterministic(t *testing.T) {
	ctx := []ContextEntry{{"valids", "[a, b]"}, {"label", "status"}, {"key", "status"}}
	assert.Equal(t, RenderContext(ctx), RenderContext(ctx))
	assert.Equal(t, "", RenderContext(nil))
}

type lineItem struct {
	Amount *decimal.Decimal `json:"amount" validate:"required,gt=0"`
}

type sampleRequest struct {
	Email  string     `json:"customerEmail" validate:"required,email"`
	Status string     `json:"status" validate:"omitempty,oneof=draft sent"`
	Name   string     `json:"name" validate:"omitempty,min=2"`
	Items  []lineItem `json:"items" validate:"dive"`
}

func (r *sampleRequest) Validate() error { return Struct(r) }

func TestAsError_ValidatorErrors(t *testing.T) {
	zero := decimal.Zero
	err := Struct(&sampleRequest{
		Status: "paid",
		Name:   "x",
		Items:  []lineItem{{Amount: &zero}},
	})
	require.Error(t, err)

	failure := AsError(err)
	require.Len(t, failure.Details, 4)

	byLabel := map[string]Detail{}
	for _, d := range failure.Details {
		byLabel[d.Context[len(d.Context)-2].Value.(string)] = d
	}

	email := byLabel["customerEmail"]
	assert.Equal(t, `"customerEmail" is required`, email.Message)
	assert.Equal(t, []any{"customerEmail"}, email.Path)
	assert.Equal(t, "{\n\tkey: customerEmail\n }", RenderContext(email.Context))

	status := byLabel["status"]
	assert.Equal(t, `"status" must be one of [draft, sent]`, status.Message)

	name := byLabel["name"]
	assert.Equal(t, `"name" length must be at least 2 characters long`, name.Message)

	amount := byLabel["items[0].amount"]
	assert.Equal(t, `"items[0].amount" must be greater than 0`, amount.Message)
	assert.Equal(t, []any{"items", 0, "amount"}, amount.Path)
}

func TestAsError_JSONTypeError(t *testing.T) {
	var req struct {
		Name string `json:"name"`
	}
	err := json.Unmarshal([]byte(`{"name": 5}`), &req)
	require.Error(t, err)

	failure := AsError(err)
	require.Len(t, failure.Details, 1)
	assert.Equal(t, `"name" must be a string`, failure.First().Message)
	assert.Equal(t, []any{"name"}, failure.First().Path)
}

func TestAsError_PassesThroughError(t *testing.T) {
	original := &Error{Details: []Detail{{Message: "X"}}}
	assert.Same(t, original, AsError(original))
}

func TestSplitPath(t *testing.T) {
	assert.Equal(t, []any{"amount"}, splitPath("amount"))
	assert.Equal(t, []any{"items", 2, "price"}, splitPath("items[2].price"))
	assert.Equal(t, []any{"matrix", 0, 1}, splitPath("matrix[0][1]"))
}

func TestBody(t *testing.T) {
	v := Body[sampleRequest]()

	value, err := v([]byte(`{"customerEmail":"a@b.org"}`))
	require.NoError(t, err)
	req, ok := value.(*sampleRequest)
	require.True(t, ok)
	assert.Equal(t, "a@b.org", req.Email)

	_, err = v(nil)
	assert.Equal(t, `"customerEmail" is required`, AsError(err).First().Message)

	_, err = v([]byte("  \n"))
	assert.Equal(t, []any{"customerEmail"}, AsError(err).First().Path)

	_, err = v([]byte(`{"customerEmail":"a@b.org","extra":1}`))
	assert.Equal(t, `"extra" is not allowed`, AsError(err).First().Message)

	_, err = v([]byte(`{"customerEmail":`))
	require.Error(t, err)
}

type chargeRequest struct {
	Amount *money.Amount `json:"amount" validate:"required,gt=0"`
}

func (r *chargeRequest) Validate() error { return Struct(r) }

func TestBody_AmountMustBeANumber(t *testing.T) {
	v := Body[chargeRequest]()

	for _, body := range []string{`{"amount":"abc"}`, `{"amount":true}`, `{"amount":[1]}`} {
		_, err := v([]byte(body))
		first := AsError(err).First()

		assert.Equal(t, `"amount" must be a number`, first.Message, body)
		assert.Equal(t, []any{"amount"}, first.Path, body)
		assert.True(t, strings.HasSuffix(RenderContext(first.Context), "{\n\tkey: amount\n }"), body)
	}
}

func TestBody_AmountRules(t *testing.T) {
	v := Body[chargeRequest]()

	value, err := v([]byte(`{"amount":"12.50"}`))
	require.NoError(t, err)
	assert.Equal(t, "12.5", value.(*chargeRequest).Amount.String())

	_, err = v([]byte(`{"amount":-1}`))
	assert.Equal(t, `"amount" must be greater than 0`, AsError(err).First().Message)

	_, err = v([]byte(`{}`))
	assert.Equal(t, `"amount" is required`, AsError(err).First().Message)
}
