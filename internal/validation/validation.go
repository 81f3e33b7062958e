// Package validation contains the logic for validating
// request data.
//
// Request payloads carry go-playground/validator struct tags. Failures are
// converted into Details (field path, message, ordered context) so the
// reporter can log them, or into errs.FieldError for JSON error responses.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/deppfellow/shalom-ministry/internal/errs"
	"github.com/deppfellow/shalom-ministry/internal/money"
)

// Validatable is implemented by request payload types that know how to validate themselves.
//
// Typical pattern:
//   - Define a request struct with validator tags (`validate:"required,email"`)
//   - Implement Validate() error that calls validation.Struct(req)
type Validatable interface {
	Validate() error
}

// CustomValidationError represents a single validation issue for a specific field.
// This is used for rules that cannot be expressed via validator tags.
type CustomValidationError struct {
	Field   string
	Message string
}

// CustomValidationErrors is a slice of custom validation errors that satisfies error.
type CustomValidationErrors []CustomValidationError

func (c CustomValidationErrors) Error() string {
	return "Validation failed"
}

var validate = newValidator()

// newValidator names fields by their json tag and validates decimals as
// float64, so `validate:"gt=0"` works on decimal.Decimal and money.Amount.
func newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})

	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		switch d := field.Interface().(type) {
		case decimal.Decimal:
			f, _ := d.Float64()
			return f
		case money.Amount:
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{}, money.Amount{})

	return v
}

// Struct validates s against its struct tags with the shared validator.
func Struct(s any) error {
	return validate.Struct(s)
}

// Body returns a Validator that decodes the body as JSON into a new T and
// runs its Validate method. Unknown fields are rejected and an empty body
// is decoded as {}, so it fails on the first required field.
//
//	reporter.Validate("createInvoice", validation.Body[model.CreateInvoiceRequest]())
func Body[T any, PT interface {
	*T
	Validatable
}]() Validator {
	return func(body []byte) (any, error) {
		if len(bytes.TrimSpace(body)) == 0 {
			body = emptyObject
		}

		req := PT(new(T))
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.DisallowUnknownFields()
		if err := dec.Decode(req); err != nil {
			if field, ok := unknownField(err); ok {
				return nil, &Error{Details: []Detail{{
					Message: `"` + field + `" is not allowed`,
					Path:    []any{field},
					Type:    "object.unknown",
					Context: []ContextEntry{{"child", field}, {"label", field}, {"key", field}},
				}}}
			}
			return nil, AsError(err)
		}

		if err := req.Validate(); err != nil {
			return nil, AsError(err)
		}
		return req, nil
	}
}

// unknownField extracts the field name from encoding/json's
// `json: unknown field "x"` error, which has no typed form.
func unknownField(err error) (string, bool) {
	const prefix = "json: unknown field "
	msg := err.Error()
	if !strings.HasPrefix(msg, prefix) {
		return "", false
	}
	return strings.Trim(strings.TrimPrefix(msg, prefix), `"`), true
}

// BindAndValidate binds request data (path, query, body) into payload and validates it.
//
// It is used by routes that are not wrapped by the reporter; failures
// become a 400 *errs.HTTPError with field-level errors.
func BindAndValidate(c echo.Context, payload Validatable) error {
	if err := c.Bind(payload); err != nil {
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			if msg, ok := httpErr.Message.(string); ok {
				return errs.NewBadRequestError(msg, false, nil, nil)
			}
		}
		return errs.NewBadRequestError("Invalid request", false, nil, nil)
	}

	if msg, fieldErrors := validateStruct(payload); fieldErrors != nil {
		return errs.NewBadRequestError(msg, true, nil, fieldErrors)
	}

	return nil
}

// validateStruct calls v.Validate() and extracts field errors if validation fails.
func validateStruct(v Validatable) (string, []errs.FieldError) {
	if err := v.Validate(); err != nil {
		return extractValidationError(err)
	}
	return "", nil
}

// extractValidationError flattens any validation failure into field errors.
// The message is the first detail's, matching what the reporter answers.
func extractValidationError(err error) (string, []errs.FieldError) {
	failure := AsError(err)

	fieldErrors := make([]errs.FieldError, 0, len(failure.Details))
	for _, d := range failure.Details {
		field := ""
		if len(d.Path) > 0 {
			field = fieldLabelFromPath(d.Path)
		}
		fieldErrors = append(fieldErrors, errs.FieldError{
			Field: field,
			Error: d.Message,
		})
	}

	return failure.First().Message, fieldErrors
}

func fieldLabelFromPath(path []any) string {
	var b strings.Builder
	for i, p := range path {
		if n, ok := p.(int); ok {
			fmt.Fprintf(&b, "[%d]", n)
			continue
		}
		if i > 0 {
			b.WriteString(".")
		}
		fmt.Fprint(&b, p)
	}
	return b.String()
}
