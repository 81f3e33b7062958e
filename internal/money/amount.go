// Package money holds the decimal type request payloads decode amounts into.
package money

import (
	"bytes"
	"encoding/json"
	"reflect"

	"github.com/shopspring/decimal"
)

// Amount is a decimal.Decimal that reports bad JSON input as a
// *json.UnmarshalTypeError, so encoding/json attaches the field name.
type Amount struct {
	decimal.Decimal
}

// NewAmount wraps d.
func NewAmount(d decimal.Decimal) Amount {
	return Amount{Decimal: d}
}

// RequireFromString is decimal.RequireFromString for Amount.
func RequireFromString(s string) Amount {
	return Amount{Decimal: decimal.RequireFromString(s)}
}

var decimalType = reflect.TypeOf(decimal.Decimal{})

// UnmarshalJSON accepts numbers and numeric strings.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return &json.UnmarshalTypeError{Value: jsonKind(data), Type: decimalType}
	}
	a.Decimal = d
	return nil
}

func jsonKind(data []byte) string {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return "value"
	}
	switch data[0] {
	case '"':
		return "string"
	case 't', 'f':
		return "bool"
	case '{':
		return "object"
	case '[':
		return "array"
	case 'n':
		return "null"
	default:
		return "number"
	}
}
