// Package sqlite implements the SQLite dialect of the feature store.
// SQLite has no spatial types: geometries are stored as WKT text.
package sqlite

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/syssam/sqlfs/dialect"
	sqlschema "github.com/syssam/sqlfs/dialect/sql/schema"
	"github.com/syssam/sqlfs/schema"
)

// Dialect is the SQLite dialect.
type Dialect struct{}

// New returns the SQLite dialect.
func New() *Dialect { return &Dialect{} }

// Name implements schema.Dialect.
func (*Dialect) Name() string { return dialect.SQLite }

// LeadingEscapeChar implements schema.Dialect.
func (*Dialect) LeadingEscapeChar() rune { return '"' }

// TrailingEscapeChar implements schema.Dialect.
func (*Dialect) TrailingEscapeChar() rune { return '"' }

// UndefinedSRID implements schema.Dialect.
func (*Dialect) UndefinedSRID() string { return "0" }

// Placeholder implements schema.Dialect.
func (*Dialect) Placeholder(n int) string { return sqlschema.Positional(n) }

// GeometrySelect implements schema.Dialect.
func (*Dialect) GeometrySelect(expr string) (string, sqlschema.GeometryEncoding) {
	return expr, sqlschema.WKT
}

// CreateTableStatements implements schema.Dialect.
func (d *Dialect) CreateTableStatements(t *sqlschema.Table) []string {
	return sqlschema.CreateTableStatements(d, t)
}

// ColumnSnippet implements schema.Dialect. An autogenerated INTEGER key
// column becomes an alias of the rowid.
func (*Dialect) ColumnSnippet(c sqlschema.Column, _ *sqlschema.Table) (string, bool) {
	var sb strings.Builder
	sb.WriteString(c.ColumnName())
	sb.WriteByte(' ')
	switch c := c.(type) {
	case *sqlschema.PrimitiveColumn:
		sb.WriteString(typeName(c.Type))
		if c.NotNull {
			sb.WriteString(" NOT NULL")
		}
		if c.References != "" {
			sb.WriteString(" REFERENCES ")
			sb.WriteString(c.References)
			if c.OnDeleteCascade {
				sb.WriteString(" ON DELETE CASCADE")
			}
		}
	case *sqlschema.GeometryColumn:
		sb.WriteString("TEXT")
		if c.NotNull {
			sb.WriteString(" NOT NULL")
		}
	case *sqlschema.BlobColumn:
		sb.WriteString("BLOB")
		if c.NotNull {
			sb.WriteString(" NOT NULL")
		}
	default:
		panic(fmt.Sprintf("sqlite: unhandled column type %T", c))
	}
	return sb.String(), true
}

// AdditionalCreateStatements implements schema.Dialect. Foreign key
// columns are indexed.
func (*Dialect) AdditionalCreateStatements(c sqlschema.Column, t *sqlschema.Table) []string {
	pc, ok := c.(*sqlschema.PrimitiveColumn)
	if !ok || pc.References == "" {
		return nil
	}
	_, table := sqlschema.SplitTableName(t.Name)
	return []string{fmt.Sprintf("CREATE INDEX %s_%s_idx ON %s (%s)", table, pc.Name, t.Name, pc.Name)}
}

// BlobCreateStatements implements schema.Dialect.
func (*Dialect) BlobCreateStatements(b *sqlschema.BlobSetup) []string {
	stmts := []string{
		"CREATE TABLE " + b.FeatureTypeTable + " (id INTEGER PRIMARY KEY, qname TEXT NOT NULL, bbox TEXT)",
	}
	for i, name := range b.FeatureTypes {
		stmts = append(stmts, "INSERT INTO "+b.FeatureTypeTable+"  (id,qname) VALUES ("+strconv.Itoa(i)+",'"+name.String()+"')")
	}
	return append(stmts,
		"CREATE TABLE "+b.Table+" (id INTEGER PRIMARY KEY AUTOINCREMENT, gml_id TEXT UNIQUE NOT NULL, ft_type INTEGER REFERENCES "+
			b.FeatureTypeTable+" , binary_object BLOB, gml_bounded_by TEXT)",
	)
}

func typeName(t schema.BaseType) string {
	switch t {
	case schema.String, schema.Date, schema.DateTime, schema.Time:
		return "TEXT"
	case schema.Boolean, schema.Integer:
		return "INTEGER"
	case schema.Decimal:
		return "NUMERIC"
	case schema.Double:
		return "REAL"
	default:
		panic(fmt.Sprintf("sqlite: unhandled base type %s", t))
	}
}

var _ sqlschema.Dialect = (*Dialect)(nil)
