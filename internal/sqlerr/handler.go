package sqlerr

import (
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/deppfellow/shalom-ministry/internal/errs"
)

// ErrCode returns the Code of the first *Error in err's chain, or Other.
func ErrCode(err error) Code {
	var sqlErr *Error
	if errors.As(err, &sqlErr) {
		return sqlErr.Code
	}
	return Other
}

// ConvertPgError normalizes a pgconn.PgError.
func ConvertPgError(src *pgconn.PgError) *Error {
	return &Error{
		Code:           MapCode(src.Code),
		Severity:       MapSeverity(src.Severity),
		DatabaseCode:   src.Code,
		Message:        src.Message,
		SchemaName:     src.SchemaName,
		TableName:      src.TableName,
		ColumnName:     src.ColumnName,
		DataTypeName:   src.DataTypeName,
		ConstraintName: src.ConstraintName,
		driverErr:      src,
	}
}

// errorCode builds a machine readable code such as INVOICE_ALREADY_EXISTS.
func errorCode(tableName string, code Code) string {
	domain := strings.ToUpper(singular(tableName))
	if domain == "" {
		domain = "RECORD"
	}

	action := "ERROR"
	switch code {
	case ForeignKeyViolation:
		action = "NOT_FOUND"
	case UniqueViolation:
		action = "ALREADY_EXISTS"
	case NotNullViolation:
		action = "REQUIRED"
	case CheckViolation, InvalidText:
		action = "INVALID"
	}

	return domain + "_" + action
}

func userMessage(sqlErr *Error) string {
	entity := entityName(sqlErr.TableName, sqlErr.ColumnName)

	switch sqlErr.Code {
	case ForeignKeyViolation:
		return fmt.Sprintf("The referenced %s does not exist", entity)
	case UniqueViolation:
		identifier := "identifier"
		if column := uniqueColumn(sqlErr.ConstraintName); column != "" {
			identifier = humanize(column)
		}
		return fmt.Sprintf("%s %s with this %s already exists", article(entity), entity, identifier)
	case NotNullViolation:
		field := humanize(sqlErr.ColumnName)
		if field == "" {
			field = "field"
		}
		return fmt.Sprintf("The %s is required", field)
	case CheckViolation:
		if field := humanize(sqlErr.ColumnName); field != "" {
			return fmt.Sprintf("The %s value does not meet required conditions", field)
		}
		return "One or more values do not meet required conditions"
	case InvalidText:
		return "One or more values have an invalid format"
	default:
		return "An error occurred while processing your request"
	}
}

// entityName prefers a "<name>_id" column, then the table name.
func entityName(tableName, columnName string) string {
	lower := strings.ToLower(columnName)
	if strings.HasSuffix(lower, "_id") {
		return humanize(strings.TrimSuffix(lower, "_id"))
	}
	if tableName != "" {
		return humanize(singular(tableName))
	}
	return "record"
}

func singular(name string) string {
	if len(name) > 1 && strings.HasSuffix(strings.ToLower(name), "s") {
		return name[:len(name)-1]
	}
	return name
}

func article(word string) string {
	if word != "" && strings.ContainsRune("AEIOUaeiou", rune(word[0])) {
		return "An"
	}
	return "A"
}

// humanize turns "due_date" into "Due Date".
func humanize(text string) string {
	if text == "" {
		return ""
	}
	return cases.Title(language.English).String(strings.ReplaceAll(text, "_", " "))
}

var constraintKeyPattern = regexp.MustCompile(`_([^_]+)_(?:key|ukey)$`)

// uniqueColumn reads the column out of "unique_<table>_<column>" or
// "<table>_<column>_key" constraint names.
func uniqueColumn(constraintName string) string {
	if strings.HasPrefix(constraintName, "unique_") {
		if parts := strings.Split(constraintName, "_"); len(parts) >= 3 {
			return parts[len(parts)-1]
		}
	}
	if m := constraintKeyPattern.FindStringSubmatch(constraintName); len(m) > 1 {
		return m[1]
	}
	return ""
}

// HandleError maps a repository error onto an *errs.HTTPError.
//
// HTTP errors pass through untouched. Constraint violations become 400s,
// missing rows become 404s and everything else is a 500 that does not leak
// driver details. Repositories mark missing rows with "table:<name>:" in
// the wrapping message so the 404 can name the entity.
func HandleError(err error) error {
	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		sqlErr := ConvertPgError(pgErr)
		code := errorCode(sqlErr.TableName, sqlErr.Code)
		message := userMessage(sqlErr)

		switch sqlErr.Code {
		case ForeignKeyViolation:
			return errs.NewBadRequestError(message, false, &code, nil)
		case UniqueViolation, CheckViolation, InvalidText:
			return errs.NewBadRequestError(message, true, &code, nil)
		case NotNullViolation:
			fieldErrors := []errs.FieldError{{
				Field: strings.ToLower(sqlErr.ColumnName),
				Error: "is required",
			}}
			return errs.NewBadRequestError(message, true, &code, fieldErrors)
		default:
			return errs.NewInternalServerError()
		}
	}

	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
		const tablePrefix = "table:"
		msg := err.Error()
		if i := strings.Index(msg, tablePrefix); i >= 0 {
			table := strings.SplitN(msg[i+len(tablePrefix):], ":", 2)[0]
			return errs.NewNotFoundError(entityName(table, "")+" not found", true, nil)
		}
		return errs.NewNotFoundError("Resource not found", false, nil)
	}

	return errs.NewInternalServerError()
}
