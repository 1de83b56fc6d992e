// Package mysql implements the MySQL dialect of the feature store.
package mysql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/syssam/sqlfs/dialect"
	sqlschema "github.com/syssam/sqlfs/dialect/sql/schema"
	"github.com/syssam/sqlfs/schema"
)

// Dialect is the MySQL dialect. Foreign keys are added as table
// constraints, since InnoDB ignores inline column references.
type Dialect struct{}

// New returns the MySQL dialect.
func New() *Dialect { return &Dialect{} }

// Name implements schema.Dialect.
func (*Dialect) Name() string { return dialect.MySQL }

// LeadingEscapeChar implements schema.Dialect.
func (*Dialect) LeadingEscapeChar() rune { return '`' }

// TrailingEscapeChar implements schema.Dialect.
func (*Dialect) TrailingEscapeChar() rune { return '`' }

// UndefinedSRID implements schema.Dialect.
func (*Dialect) UndefinedSRID() string { return "0" }

// Placeholder implements schema.Dialect.
func (*Dialect) Placeholder(n int) string { return sqlschema.Positional(n) }

// GeometrySelect implements schema.Dialect.
func (*Dialect) GeometrySelect(expr string) (string, sqlschema.GeometryEncoding) {
	return "ST_AsBinary(" + expr + ")", sqlschema.WKB
}

// CreateTableStatements implements schema.Dialect.
func (d *Dialect) CreateTableStatements(t *sqlschema.Table) []string {
	return sqlschema.CreateTableStatements(d, t)
}

// ColumnSnippet implements schema.Dialect.
func (*Dialect) ColumnSnippet(c sqlschema.Column, _ *sqlschema.Table) (string, bool) {
	var sb strings.Builder
	sb.WriteString(c.ColumnName())
	sb.WriteByte(' ')
	switch c := c.(type) {
	case *sqlschema.PrimitiveColumn:
		sb.WriteString(typeName(c.Type, c.PrimaryKey || c.References != ""))
		if c.NotNull || c.PrimaryKey {
			sb.WriteString(" NOT NULL")
		}
		if c.Autogenerated {
			sb.WriteString(" AUTO_INCREMENT")
		}
		return sb.String(), true
	case *sqlschema.GeometryColumn:
		sb.WriteString(sqlschema.SpatialTypeName(c.Type))
		if c.NotNull {
			sb.WriteString(" NOT NULL")
		}
		if c.SRID != 0 {
			sb.WriteString(" SRID ")
			sb.WriteString(strconv.Itoa(c.SRID))
		}
		return sb.String(), true
	case *sqlschema.BlobColumn:
		sb.WriteString("LONGBLOB")
		if c.NotNull {
			sb.WriteString(" NOT NULL")
		}
		return sb.String(), true
	default:
		panic(fmt.Sprintf("mysql: unhandled column type %T", c))
	}
}

// AdditionalCreateStatements implements schema.Dialect. Spatial indexes
// are only created on NOT NULL geometry columns.
func (*Dialect) AdditionalCreateStatements(c sqlschema.Column, t *sqlschema.Table) []string {
	_, table := sqlschema.SplitTableName(t.Name)
	switch c := c.(type) {
	case *sqlschema.PrimitiveColumn:
		if c.References == "" {
			return nil
		}
		ref := c.ReferencedColumn
		if ref == "" {
			ref = "id"
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s_%s_fkey FOREIGN KEY (%s) REFERENCES %s (%s)", t.Name, table, c.Name, c.Name, c.References, ref)
		if c.OnDeleteCascade {
			stmt += " ON DELETE CASCADE"
		}
		return []string{stmt}
	case *sqlschema.GeometryColumn:
		if c.NotNull {
			return []string{fmt.Sprintf("CREATE SPATIAL INDEX %s_%s_sidx ON %s (%s)", table, c.Name, t.Name, c.Name)}
		}
	}
	return nil
}

// BlobCreateStatements implements schema.Dialect.
func (d *Dialect) BlobCreateStatements(b *sqlschema.BlobSetup) []string {
	stmts := []string{
		"CREATE TABLE " + b.FeatureTypeTable + " (id smallint PRIMARY KEY, qname text NOT NULL, bbox GEOMETRY)",
	}
	for i, name := range b.FeatureTypes {
		stmts = append(stmts, "INSERT INTO "+b.FeatureTypeTable+"  (id,qname) VALUES ("+strconv.Itoa(i)+",'"+name.String()+"')")
	}
	srid := ""
	if b.SRID != 0 {
		srid = " SRID " + strconv.Itoa(b.SRID)
	}
	return append(stmts,
		"CREATE TABLE "+b.Table+" (id integer AUTO_INCREMENT PRIMARY KEY, gml_id varchar(255) UNIQUE NOT NULL, ft_type smallint, binary_object LONGBLOB, gml_bounded_by GEOMETRY NOT NULL"+srid+
			", FOREIGN KEY (ft_type) REFERENCES "+b.FeatureTypeTable+" (id))",
		"CREATE SPATIAL INDEX gml_objects_sidx ON "+b.Table+" (gml_bounded_by)",
	)
}

// typeName returns the column type of t. Key columns cannot be of a
// TEXT type.
func typeName(t schema.BaseType, key bool) string {
	switch t {
	case schema.String:
		if key {
			return "varchar(255)"
		}
		return "TEXT"
	case schema.Boolean:
		return "BOOLEAN"
	case schema.Decimal:
		return "DECIMAL(65,10)"
	case schema.Double:
		return "DOUBLE"
	case schema.Integer:
		return "INTEGER"
	case schema.Date:
		return "DATE"
	case schema.DateTime:
		return "DATETIME(6)"
	case schema.Time:
		return "TIME(6)"
	default:
		panic(fmt.Sprintf("mysql: unhandled base type %s", t))
	}
}

var _ sqlschema.Dialect = (*Dialect)(nil)
