package schema

import (
	"strconv"
	"strings"

	appschema "github.com/syssam/sqlfs/schema"
)

// GeometryEncoding is the format a dialect selects geometry values in.
type GeometryEncoding uint8

// Geometry encodings.
const (
	WKB GeometryEncoding = iota
	WKT
)

// BlobSetup describes the hybrid storage tables a dialect bootstraps.
type BlobSetup struct {
	FeatureTypeTable string
	Table            string
	// FeatureTypes are stored in the lookup table with their position as id.
	FeatureTypes []appschema.QName
	SRID         int // 0 for the dialect's undefined SRID
	Domain       [4]float64
}

// Dialect generates the vendor-specific SQL of the feature store.
//
// CREATE TABLE statements are assembled by CreateTableStatements from the
// per-column snippets and additional statements a dialect returns; the
// BLOB bootstrap is entirely dialect-specific.
type Dialect interface {
	// Name returns the dialect name, one of the dialect package constants.
	Name() string
	// LeadingEscapeChar returns the opening identifier quote, or 0 if
	// identifiers are not escaped.
	LeadingEscapeChar() rune
	// TrailingEscapeChar returns the closing identifier quote, or 0.
	TrailingEscapeChar() rune
	// CreateTableStatements returns the primary CREATE TABLE statement of t
	// followed by its additional statements.
	CreateTableStatements(t *Table) []string
	// ColumnSnippet returns the column clause of c inside CREATE TABLE, or
	// false if the column is created by an additional statement.
	ColumnSnippet(c Column, t *Table) (string, bool)
	// AdditionalCreateStatements returns the statements that follow the
	// CREATE TABLE statement of t for column c.
	AdditionalCreateStatements(c Column, t *Table) []string
	// BlobCreateStatements returns the statements creating and populating
	// the hybrid storage tables.
	BlobCreateStatements(b *BlobSetup) []string
	// UndefinedSRID returns the SRID literal used when none is configured.
	UndefinedSRID() string
	// GeometrySelect wraps a geometry column reference in the expression
	// selecting it, and reports the encoding of the selected value.
	GeometrySelect(expr string) (string, GeometryEncoding)
	// Placeholder returns the n-th (1-based) bind parameter marker.
	Placeholder(n int) string
}

// CreateTableStatements builds the statements of t for d: the primary
// CREATE TABLE statement with one clause per column that has a snippet and
// a composite primary key constraint, followed by the additional statements
// of every column.
func CreateTableStatements(d Dialect, t *Table) []string {
	var sb strings.Builder
	sb.WriteString("CREATE TABLE ")
	sb.WriteString(t.Name)
	sb.WriteString(" (")
	first := true
	for _, c := range t.Columns() {
		snippet, ok := d.ColumnSnippet(c, t)
		if !ok {
			continue
		}
		if !first {
			sb.WriteByte(',')
		}
		first = false
		sb.WriteString("\n  ")
		sb.WriteString(snippet)
	}
	if pks := t.PrimaryKeyColumns(); len(pks) > 0 {
		sb.WriteString(",\n  CONSTRAINT ")
		sb.WriteString(PrimaryKeyConstraintName(t.Name))
		sb.WriteString(" PRIMARY KEY (")
		for i, pk := range pks {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(pk.Name)
		}
		sb.WriteByte(')')
	}
	sb.WriteString("\n)")
	stmts := []string{sb.String()}
	for _, c := range t.Columns() {
		stmts = append(stmts, d.AdditionalCreateStatements(c, t)...)
	}
	return stmts
}

// PrimaryKeyConstraintName returns the name of the primary key constraint
// of a table: <table>_pkey without the schema part, keeping a closing quote
// of the table name last.
func PrimaryKeyConstraintName(name string) string {
	_, table := SplitTableName(name)
	if s, ok := strings.CutSuffix(table, `"`); ok {
		return s + `_pkey"`
	}
	return table + "_pkey"
}

// Quote escapes an identifier with the quote characters of d. Identifiers
// that are already quoted are returned as is.
func Quote(d Dialect, ident string) string {
	lead, trail := d.LeadingEscapeChar(), d.TrailingEscapeChar()
	if lead == 0 || (strings.HasPrefix(ident, string(lead)) && strings.HasSuffix(ident, string(trail))) {
		return ident
	}
	return string(lead) + ident + string(trail)
}

// SplitTableName splits a qualified table name into schema and table.
// The schema is empty for unqualified names.
func SplitTableName(name string) (schema, table string) {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}

// SpatialTypeName returns the name of a geometry type in spatial DDL.
// Curves and surfaces are stored as their linear counterparts.
func SpatialTypeName(t appschema.GeometryType) string {
	switch t {
	case appschema.Curve:
		return appschema.LineString.String()
	case appschema.Surface:
		return appschema.Polygon.String()
	case appschema.MultiCurve:
		return appschema.MultiLineString.String()
	case appschema.MultiSurface:
		return appschema.MultiPolygon.String()
	default:
		return t.String()
	}
}

// SRID returns the SRID literal of a geometry column for d.
func SRID(d Dialect, srid int) string {
	if srid == 0 {
		return d.UndefinedSRID()
	}
	return strconv.Itoa(srid)
}

// FormatFloat renders a coordinate for DDL text.
func FormatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Positional is a Placeholder implementation producing "?" markers.
func Positional(int) string { return "?" }

// Numbered is a Placeholder implementation producing "$n" markers.
func Numbered(n int) string { return "$" + strconv.Itoa(n) }
