package schema

import (
	"fmt"
	"strings"
)

// ValidationError represents a schema validation finding.
type ValidationError struct {
	Table   string
	Column  string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s.%s: %s", e.Table, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Table, e.Message)
}

// ValidationResult holds the results of schema validation.
type ValidationResult struct {
	Errors   []*ValidationError
	Warnings []*ValidationError
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings.
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// String returns a human-readable summary of the validation result.
func (r *ValidationResult) String() string {
	var sb strings.Builder
	if len(r.Errors) > 0 {
		sb.WriteString("Errors:\n")
		for _, e := range r.Errors {
			sb.WriteString("  - ")
			sb.WriteString(e.Error())
			sb.WriteString("\n")
		}
	}
	if len(r.Warnings) > 0 {
		sb.WriteString("Warnings:\n")
		for _, w := range r.Warnings {
			sb.WriteString("  - ")
			sb.WriteString(w.Error())
			sb.WriteString("\n")
		}
	}
	if !r.HasErrors() && !r.HasWarnings() {
		sb.WriteString("No issues found")
	}
	return sb.String()
}

// ValidateOption configures table validation.
type ValidateOption func(*validateConfig)

type validateConfig struct {
	maxIdentifierLength int
}

// MaxIdentifierLength reports identifiers longer than n characters, for
// databases with short identifier limits (30 on older Oracle releases).
func MaxIdentifierLength(n int) ValidateOption {
	return func(c *validateConfig) {
		c.maxIdentifierLength = n
	}
}

// ValidateTables validates table definitions derived from a mapping before
// they are handed to a dialect.
//
//	result := schema.ValidateTables(tables, schema.MaxIdentifierLength(30))
//	if result.HasErrors() {
//	    return errors.New(result.String())
//	}
func ValidateTables(tables []*Table, opts ...ValidateOption) *ValidationResult {
	cfg := &validateConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	result := &ValidationResult{}
	names := make(map[string]bool, len(tables))
	for _, t := range tables {
		if names[t.Name] {
			result.Errors = append(result.Errors, &ValidationError{Table: t.Name, Message: "duplicate table name"})
		}
		names[t.Name] = true
	}
	for _, t := range tables {
		validateTable(t, names, cfg, result)
	}
	return result
}

func validateTable(t *Table, tables map[string]bool, cfg *validateConfig, result *ValidationResult) {
	if len(t.PrimaryKeyColumns()) == 0 {
		result.Warnings = append(result.Warnings, &ValidationError{
			Table:   t.Name,
			Message: "table has no primary key",
		})
	}
	if cfg.maxIdentifierLength > 0 && len(t.Name) > cfg.maxIdentifierLength {
		result.Warnings = append(result.Warnings, &ValidationError{
			Table:   t.Name,
			Message: fmt.Sprintf("table name exceeds %d characters", cfg.maxIdentifierLength),
		})
	}
	for _, c := range t.Columns() {
		name := c.ColumnName()
		if cfg.maxIdentifierLength > 0 && len(name) > cfg.maxIdentifierLength {
			result.Warnings = append(result.Warnings, &ValidationError{
				Table:   t.Name,
				Column:  name,
				Message: fmt.Sprintf("column name exceeds %d characters", cfg.maxIdentifierLength),
			})
		}
		pc, ok := c.(*PrimitiveColumn)
		if !ok {
			continue
		}
		if pc.References != "" && !tables[pc.References] {
			result.Errors = append(result.Errors, &ValidationError{
				Table:   t.Name,
				Column:  name,
				Message: fmt.Sprintf("foreign key references non-existent table %q", pc.References),
			})
		}
		if pc.Autogenerated && !pc.PrimaryKey {
			result.Warnings = append(result.Warnings, &ValidationError{
				Table:   t.Name,
				Column:  name,
				Message: "autogenerated column is not part of the primary key",
			})
		}
	}
}
