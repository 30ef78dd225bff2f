package db

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// Kind labels one class of the adapter's error taxonomy.
type Kind string

const (
	// KindConnection covers transport and authentication failures: the
	// database cannot be reached, or the configured credentials or schema
	// are rejected at session setup.
	KindConnection Kind = "ConnectionError"
	// KindNotFound covers references to tables that do not exist.
	KindNotFound Kind = "NotFoundError"
	// KindQuery covers statements the server rejected, carrying the native
	// MySQL error number and message.
	KindQuery Kind = "QueryError"
	// KindPermission covers metadata reads the configured user is not
	// privileged for.
	KindPermission Kind = "PermissionError"
)

// Error is a classified database failure surfaced to the tool runtime. A
// failed call never terminates the process; the handle recovers by itself.
type Error struct {
	Kind    Kind
	Number  uint16 // native MySQL error number, 0 when not applicable
	Message string
}

func (e *Error) Error() string {
	if e.Number != 0 {
		return fmt.Sprintf("%s: %s (MySQL error %d)", e.Kind, e.Message, e.Number)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// MySQL server error numbers the adapter distinguishes.
const (
	errAccessDenied         = 1045 // ER_ACCESS_DENIED_ERROR
	errBadDatabase          = 1049 // ER_BAD_DB_ERROR
	errDBAccessDenied       = 1044 // ER_DBACCESS_DENIED_ERROR
	errTableAccessDenied    = 1142 // ER_TABLEACCESS_DENIED_ERROR
	errColumnAccessDenied   = 1143 // ER_COLUMNACCESS_DENIED_ERROR
	errSpecificAccessDenied = 1227 // ER_SPECIFIC_ACCESS_DENIED_ERROR
	errBadTable             = 1051 // ER_BAD_TABLE_ERROR
	errNoSuchTable          = 1146 // ER_NO_SUCH_TABLE
)

// classifyMetadata maps a driver error raised by a metadata query
// (list_tables, describe_table).
func classifyMetadata(err error) error {
	var myErr *mysql.MySQLError
	if !errors.As(err, &myErr) {
		return classifyTransport(err)
	}
	switch myErr.Number {
	case errAccessDenied, errBadDatabase:
		return &Error{Kind: KindConnection, Number: myErr.Number, Message: myErr.Message}
	case errDBAccessDenied, errTableAccessDenied, errColumnAccessDenied, errSpecificAccessDenied:
		return &Error{Kind: KindPermission, Number: myErr.Number, Message: myErr.Message}
	case errBadTable, errNoSuchTable:
		return &Error{Kind: KindNotFound, Number: myErr.Number, Message: myErr.Message}
	default:
		return &Error{Kind: KindQuery, Number: myErr.Number, Message: myErr.Message}
	}
}

// classifyStatement maps a driver error raised by execute_sql. Every
// server-side rejection, permission denials included, is a QueryError with
// the native number and message; only session-setup failures become
// ConnectionError.
func classifyStatement(err error) error {
	var myErr *mysql.MySQLError
	if !errors.As(err, &myErr) {
		return classifyTransport(err)
	}
	switch myErr.Number {
	case errAccessDenied, errBadDatabase:
		return &Error{Kind: KindConnection, Number: myErr.Number, Message: myErr.Message}
	default:
		return &Error{Kind: KindQuery, Number: myErr.Number, Message: myErr.Message}
	}
}

// classifyTransport wraps non-server errors (dial failures, broken sessions,
// expired contexts) as ConnectionError.
func classifyTransport(err error) error {
	return &Error{Kind: KindConnection, Message: err.Error()}
}

func notFoundError(table string) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("table %q does not exist", table)}
}
