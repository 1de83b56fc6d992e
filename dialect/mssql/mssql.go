// Package mssql implements the Microsoft SQL Server dialect of the
// feature store.
package mssql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/syssam/sqlfs/dialect"
	sqlschema "github.com/syssam/sqlfs/dialect/sql/schema"
	"github.com/syssam/sqlfs/schema"
)

// Dialect is the SQL Server dialect. Autogenerated columns are identity
// columns and geometries use the planar geometry type.
type Dialect struct {
	bbox [4]float64
}

// Option configures the dialect.
type Option func(*Dialect)

// WithBoundingBox sets the bounding box (min x, min y, max x, max y) of
// spatial indexes on geometry columns. The default is the WGS 84 domain.
func WithBoundingBox(bbox [4]float64) Option {
	return func(d *Dialect) {
		d.bbox = bbox
	}
}

// New returns the SQL Server dialect.
func New(opts ...Option) *Dialect {
	d := &Dialect{bbox: [4]float64{-180, -90, 180, 90}}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name implements schema.Dialect.
func (*Dialect) Name() string { return dialect.SQLServer }

// LeadingEscapeChar implements schema.Dialect.
func (*Dialect) LeadingEscapeChar() rune { return '[' }

// TrailingEscapeChar implements schema.Dialect.
func (*Dialect) TrailingEscapeChar() rune { return ']' }

// UndefinedSRID implements schema.Dialect.
func (*Dialect) UndefinedSRID() string { return "0" }

// Placeholder implements schema.Dialect.
func (*Dialect) Placeholder(n int) string { return "@p" + strconv.Itoa(n) }

// GeometrySelect implements schema.Dialect.
func (*Dialect) GeometrySelect(expr string) (string, sqlschema.GeometryEncoding) {
	return expr + ".STAsBinary()", sqlschema.WKB
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
		if c.Autogenerated {
			sb.WriteString(" IDENTITY(1,1)")
		}
		if c.NotNull || c.PrimaryKey {
			sb.WriteString(" NOT NULL")
		}
		if c.References != "" {
			sb.WriteString(" REFERENCES ")
			sb.WriteString(c.References)
			if c.OnDeleteCascade {
				sb.WriteString(" ON DELETE CASCADE")
			}
		}
		return sb.String(), true
	case *sqlschema.GeometryColumn:
		sb.WriteString("GEOMETRY")
	case *sqlschema.BlobColumn:
		sb.WriteString("varbinary(max)")
	default:
		panic(fmt.Sprintf("mssql: unhandled column type %T", c))
	}
	if c.IsNotNull() {
		sb.WriteString(" NOT NULL")
	}
	return sb.String(), true
}

// AdditionalCreateStatements implements schema.Dialect. Geometry columns
// receive a validity check and a spatial index.
func (d *Dialect) AdditionalCreateStatements(c sqlschema.Column, t *sqlschema.Table) []string {
	g, ok := c.(*sqlschema.GeometryColumn)
	if !ok {
		return nil
	}
	_, table := sqlschema.SplitTableName(t.Name)
	prefix := table + "_" + g.Name
	stmts := []string{
		"ALTER TABLE " + t.Name + " ADD CONSTRAINT " + prefix + "_geochk CHECK (" + g.Name + ".STIsValid() = 1)",
	}
	if g.SRID != 0 {
		stmts = append(stmts, "ALTER TABLE "+t.Name+" ADD CONSTRAINT "+prefix+"_sridchk CHECK ("+g.Name+".STSrid = "+strconv.Itoa(g.SRID)+")")
	}
	if len(t.PrimaryKeyColumns()) > 0 {
		// Spatial indexes need a clustered primary key.
		stmts = append(stmts, "CREATE SPATIAL INDEX "+prefix+"_sidx ON "+t.Name+"("+g.Name+") WITH ( BOUNDING_BOX = ( "+joinFloats(d.bbox)+" ) )")
	}
	return stmts
}

// BlobCreateStatements implements schema.Dialect.
func (*Dialect) BlobCreateStatements(b *sqlschema.BlobSetup) []string {
	stmts := []string{
		"CREATE TABLE " + b.FeatureTypeTable + " (id integer PRIMARY KEY, qname text NOT NULL, bbox GEOMETRY)",
	}
	for i, name := range b.FeatureTypes {
		stmts = append(stmts, "INSERT INTO "+b.FeatureTypeTable+"  (id,qname) VALUES ("+strconv.Itoa(i)+",'"+name.String()+"')")
	}
	return append(stmts,
		"CREATE TABLE "+b.Table+" (id integer IDENTITY(1,1) PRIMARY KEY, gml_id varchar(2000) NOT NULL, ft_type integer REFERENCES "+
			b.FeatureTypeTable+" , binary_object varbinary(max), gml_bounded_by GEOMETRY)",
		"ALTER TABLE "+b.Table+" ADD CONSTRAINT gml_objects_geochk CHECK (gml_bounded_by.STIsValid() = 1)",
		"CREATE SPATIAL INDEX gml_objects_sidx ON "+b.Table+"(gml_bounded_by) WITH ( BOUNDING_BOX = ( "+joinFloats(b.Domain)+" ) )",
	)
}

func joinFloats(fs [4]float64) string {
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = sqlschema.FormatFloat(f)
	}
	return strings.Join(parts, ",")
}

// typeName returns the column type of t. Key columns cannot be of a large
// text type.
func typeName(t schema.BaseType, key bool) string {
	switch t {
	case schema.String:
		if key {
			return "varchar(2000)"
		}
		return "varchar(max)"
	case schema.Boolean:
		return "bit"
	case schema.Decimal:
		return "decimal(38,10)"
	case schema.Double:
		return "float"
	case schema.Integer:
		return "integer"
	case schema.Date:
		return "date"
	case schema.DateTime:
		return "datetime2"
	case schema.Time:
		return "time"
	default:
		panic(fmt.Sprintf("mssql: unhandled base type %s", t))
	}
}

var _ sqlschema.Dialect = (*Dialect)(nil)
