package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ContextEntry is one key/value of a detail's context. Entries keep the
// order the validator reported them in.
type ContextEntry struct {
	Key   string
	Value any
}

// Detail describes one failing field.
type Detail struct {
	Message string
	Path    []any
	Type    string
	Context []ContextEntry
}

// Error is returned by a Validator when the body is rejected.
type Error struct {
	Details []Detail
}

func (e *Error) Error() string {
	messages := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		messages = append(messages, d.Message)
	}
	return strings.Join(messages, ". ")
}

// First returns the first detail. Reporting only looks at this one.
func (e *Error) First() Detail {
	if len(e.Details) == 0 {
		return Detail{Message: "Validation failed"}
	}
	return e.Details[0]
}

// RenderContext turns a detail context into the text stored with the record.
//
// Entries are rendered in order: "label" opens a brace, "key" prints its
// value and closes the brace, anything else prints "name: value,\n\t".
//
//	[{label string} {key amount}] -> "{\n\tkey: amount\n }"
func RenderContext(entries []ContextEntry) string {
	var b strings.Builder
	for _, entry := range entries {
		switch entry.Key {
		case "label":
			b.WriteString("{\n\t")
		case "key":
			fmt.Fprintf(&b, "key: %v\n }", entry.Value)
		default:
			fmt.Fprintf(&b, "%s: %v,\n\t", entry.Key, entry.Value)
		}
	}
	return b.String()
}

// AsError converts any validation failure into an *Error.
//
// validator.ValidationErrors become one detail per failing field, JSON
// decoding errors become a single detail, and anything else is wrapped as a
// detail with no path.
func AsError(err error) *Error {
	var verr *Error
	if errors.As(err, &verr) {
		return verr
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		details := make([]Detail, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			details = append(details, fieldDetail(fe))
		}
		return &Error{Details: details}
	}

	var custom CustomValidationErrors
	if errors.As(err, &custom) {
		details := make([]Detail, 0, len(custom))
		for _, c := range custom {
			label := c.Field
			details = append(details, Detail{
				Message: fmt.Sprintf("%q %s", label, c.Message),
				Path:    []any{c.Field},
				Type:    "any.custom",
				Context: []ContextEntry{{"label", label}, {"key", c.Field}},
			})
		}
		return &Error{Details: details}
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = "value"
		}
		path := splitPath(field)
		return &Error{Details: []Detail{{
			Message: fmt.Sprintf("%q must be %s", field, jsonKindName(typeErr.Type)),
			Path:    path,
			Type:    "any.type",
			Context: []ContextEntry{{"value", typeErr.Value}, {"label", field}, {"key", path[len(path)-1]}},
		}}}
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return &Error{Details: []Detail{{
			Message: "request body must be valid JSON",
			Type:    "object.base",
			Context: []ContextEntry{{"offset", syntaxErr.Offset}},
		}}}
	}

	return &Error{Details: []Detail{{Message: err.Error(), Type: "any.invalid"}}}
}

func fieldDetail(fe validator.FieldError) Detail {
	label := fieldLabel(fe.Namespace())
	path := splitPath(label)
	key := path[len(path)-1]

	var ctx []ContextEntry
	switch {
	case fe.Tag() == "oneof":
		ctx = append(ctx, ContextEntry{"valids", "[" + strings.Join(strings.Fields(fe.Param()), ", ") + "]"})
	case fe.Param() != "":
		ctx = append(ctx, ContextEntry{"limit", fe.Param()})
	}
	if fe.Tag() != "required" {
		ctx = append(ctx, ContextEntry{"value", fe.Value()})
	}
	ctx = append(ctx, ContextEntry{"label", label}, ContextEntry{"key", key})

	return Detail{
		Message: fmt.Sprintf("%q %s", label, ruleMessage(fe)),
		Path:    path,
		Type:    fe.Tag(),
		Context: ctx,
	}
}

func ruleMessage(fe validator.FieldError) string {
	isString := fe.Kind() == reflect.String

	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "uuid", "uuid4":
		return "must be a valid GUID"
	case "iso4217":
		return "must be a valid ISO 4217 currency code"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", strings.Join(strings.Fields(fe.Param()), ", "))
	case "min", "gte":
		if isString {
			return fmt.Sprintf("length must be at least %s characters long", fe.Param())
		}
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "max", "lte":
		if isString {
			return fmt.Sprintf("length must be less than or equal to %s characters long", fe.Param())
		}
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "lt":
		return fmt.Sprintf("must be less than %s", fe.Param())
	case "len":
		return fmt.Sprintf("length must be %s characters long", fe.Param())
	case "datetime":
		return fmt.Sprintf("must be a date in the format %s", fe.Param())
	default:
		if fe.Param() != "" {
			return fmt.Sprintf("failed the %s=%s rule", fe.Tag(), fe.Param())
		}
		return fmt.Sprintf("failed the %s rule", fe.Tag())
	}
}

// fieldLabel drops the struct name from a validator namespace:
// "CreateInvoiceRequest.items[0].amount" -> "items[0].amount".
func fieldLabel(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

// splitPath turns "items[0].amount" into ["items", 0, "amount"].
func splitPath(label string) []any {
	var path []any
	for _, part := range strings.Split(label, ".") {
		for part != "" {
			open := strings.Index(part, "[")
			if open < 0 {
				path = append(path, part)
				break
			}
			if open > 0 {
				path = append(path, part[:open])
			}
			end := strings.Index(part, "]")
			if end < open {
				path = append(path, part[open:])
				break
			}
			index := part[open+1 : end]
			if n, err := strconv.Atoi(index); err == nil {
				path = append(path, n)
			} else {
				path = append(path, index)
			}
			part = part[end+1:]
		}
	}
	if len(path) == 0 {
		path = []any{label}
	}
	return path
}

func jsonKindName(t reflect.Type) string {
	if t == nil {
		return "a valid value"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.PkgPath() == "github.com/shopspring/decimal" {
		return "a number"
	}
	switch t.Kind() {
	case reflect.String:
		return "a string"
	case reflect.Bool:
		return "a boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "a number"
	case reflect.Slice, reflect.Array:
		return "an array"
	default:
		return "an object"
	}
}
