package sqlfs

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors for the error categories of the store.
var (
	// ErrConfiguration is returned when a mapping, join or dialect
	// configuration is invalid. It is never retried.
	ErrConfiguration = errors.New("sqlfs: invalid configuration")

	// ErrDDLExecution is returned when a table setup statement fails.
	ErrDDLExecution = errors.New("sqlfs: ddl execution failed")

	// ErrQueryExecution is returned when a feature query, or one of the
	// subsequent selects issued while materializing it, fails.
	ErrQueryExecution = errors.New("sqlfs: query execution failed")
)

// ConfigurationError describes an invalid mapping rule or dialect setup.
type ConfigurationError struct {
	Subject string // Offending path, table, join or feature type
	Message string
	Err     error // Optional cause
}

// Error returns the error string.
func (e *ConfigurationError) Error() string {
	var sb strings.Builder
	sb.WriteString("sqlfs: configuration")
	if e.Subject != "" {
		fmt.Fprintf(&sb, " %q", e.Subject)
	}
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if e.Err != nil {
		fmt.Fprintf(&sb, ": %v", e.Err)
	}
	return sb.String()
}

// Is reports whether the target error matches ErrConfiguration.
func (e *ConfigurationError) Is(err error) bool {
	return err == ErrConfiguration
}

// Unwrap returns the underlying error.
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// NewConfigurationError returns a new ConfigurationError.
func NewConfigurationError(subject, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Subject: subject, Message: fmt.Sprintf(format, args...)}
}

// WrapConfigurationError returns a new ConfigurationError caused by err.
func WrapConfigurationError(subject, msg string, err error) *ConfigurationError {
	return &ConfigurationError{Subject: subject, Message: msg, Err: err}
}

// IsConfigurationError returns true if the error is a ConfigurationError.
func IsConfigurationError(err error) bool {
	if err == nil {
		return false
	}
	var e *ConfigurationError
	return errors.As(err, &e) || errors.Is(err, ErrConfiguration)
}

// DDLExecutionError wraps a failed setup statement. The whole setup batch
// was rolled back when this error is returned.
type DDLExecutionError struct {
	Index     int    // Position of the failing statement in the batch
	Statement string // Statement text
	Err       error  // Underlying error
}

// Error returns the error string.
func (e *DDLExecutionError) Error() string {
	return fmt.Sprintf("sqlfs: executing statement %d %q: %v", e.Index, e.Statement, e.Err)
}

// Is reports whether the target error matches ErrDDLExecution.
func (e *DDLExecutionError) Is(err error) bool {
	return err == ErrDDLExecution
}

// Unwrap returns the underlying error.
func (e *DDLExecutionError) Unwrap() error {
	return e.Err
}

// NewDDLExecutionError returns a new DDLExecutionError.
func NewDDLExecutionError(index int, stmt string, err error) *DDLExecutionError {
	return &DDLExecutionError{Index: index, Statement: stmt, Err: err}
}

// IsDDLExecutionError returns true if the error is a DDLExecutionError.
func IsDDLExecutionError(err error) bool {
	if err == nil {
		return false
	}
	var e *DDLExecutionError
	return errors.As(err, &e) || errors.Is(err, ErrDDLExecution)
}

// QueryExecutionError wraps a failing query with the mapping and table it
// was issued for.
type QueryExecutionError struct {
	Path  string // Mapping path, empty for the root query
	Table string // Queried table
	SQL   string
	Err   error // Underlying error
}

// Error returns the error string.
func (e *QueryExecutionError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("sqlfs: querying %s for %q: %v", e.Table, e.Path, e.Err)
	}
	return fmt.Sprintf("sqlfs: querying %s: %v", e.Table, e.Err)
}

// Is reports whether the target error matches ErrQueryExecution.
func (e *QueryExecutionError) Is(err error) bool {
	return err == ErrQueryExecution
}

// Unwrap returns the underlying error.
func (e *QueryExecutionError) Unwrap() error {
	return e.Err
}

// NewQueryExecutionError returns a new QueryExecutionError.
func NewQueryExecutionError(path, table, sql string, err error) *QueryExecutionError {
	return &QueryExecutionError{Path: path, Table: table, SQL: sql, Err: err}
}

// IsQueryExecutionError returns true if the error is a QueryExecutionError.
func IsQueryExecutionError(err error) bool {
	if err == nil {
		return false
	}
	var e *QueryExecutionError
	return errors.As(err, &e) || errors.Is(err, ErrQueryExecution)
}

// SchemaViolationWarning reports a required, non-nillable value that could
// not be materialized. It is not returned as an error: the value is omitted
// and the warning is handed to the configured warning hook.
type SchemaViolationWarning struct {
	FeatureID string
	Path      string
	Message   string
}

// Error returns the warning string.
func (w *SchemaViolationWarning) Error() string {
	return fmt.Sprintf("sqlfs: feature %s: %s: %s", w.FeatureID, w.Path, w.Message)
}

// RollbackError wraps an error that occurred during a transaction rollback.
type RollbackError struct {
	Err error // Original error that triggered rollback
}

// Error returns the error string.
func (e *RollbackError) Error() string {
	return fmt.Sprintf("sqlfs: rollback failed: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *RollbackError) Unwrap() error {
	return e.Err
}

// AggregateError represents multiple errors collected during an operation.
type AggregateError struct {
	Errors []error
}

// Error returns the error string.
func (e *AggregateError) Error() string {
	if len(e.Errors) == 0 {
		return "sqlfs: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString("sqlfs: multiple errors:")
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "\n  [%d] %v", i+1, err)
	}
	return sb.String()
}

// Unwrap returns the collected errors.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// NewAggregateError returns a new AggregateError if there are errors,
// otherwise returns nil.
func NewAggregateError(errs ...error) error {
	var filtered []error
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &AggregateError{Errors: filtered}
}
