// Package postgis implements the PostgreSQL/PostGIS dialect of the
// feature store.
package postgis

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/syssam/sqlfs/dialect"
	sqlschema "github.com/syssam/sqlfs/dialect/sql/schema"
	"github.com/syssam/sqlfs/schema"
)

// DefaultSchema is the database schema of unqualified tables.
const DefaultSchema = "public"

// Dialect is the PostGIS dialect. Geometry columns are registered with
// ADDGEOMETRYCOLUMN instead of being declared inline.
type Dialect struct {
	undefinedSRID string
}

// Option configures the dialect.
type Option func(*Dialect)

// WithLegacySRID uses -1 as the undefined SRID, as PostGIS releases
// before 2.0 expect.
func WithLegacySRID() Option {
	return func(d *Dialect) {
		d.undefinedSRID = "-1"
	}
}

// New returns the PostGIS dialect.
func New(opts ...Option) *Dialect {
	d := &Dialect{undefinedSRID: "0"}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name implements schema.Dialect.
func (*Dialect) Name() string { return dialect.Postgres }

// LeadingEscapeChar implements schema.Dialect. Identifiers are not escaped.
func (*Dialect) LeadingEscapeChar() rune { return 0 }

// TrailingEscapeChar implements schema.Dialect.
func (*Dialect) TrailingEscapeChar() rune { return 0 }

// UndefinedSRID implements schema.Dialect.
func (d *Dialect) UndefinedSRID() string { return d.undefinedSRID }

// Placeholder implements schema.Dialect.
func (*Dialect) Placeholder(n int) string { return sqlschema.Numbered(n) }

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
	switch c := c.(type) {
	case *sqlschema.PrimitiveColumn:
		var sb strings.Builder
		sb.WriteString(c.Name)
		sb.WriteByte(' ')
		if c.Autogenerated && c.Type == schema.Integer {
			sb.WriteString("serial")
		} else {
			sb.WriteString(typeName(c.Type))
		}
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
		return sb.String(), true
	case *sqlschema.BlobColumn:
		s := c.Name + " bytea"
		if c.NotNull {
			s += " NOT NULL"
		}
		return s, true
	case *sqlschema.GeometryColumn:
		return "", false
	default:
		panic(fmt.Sprintf("postgis: unhandled column type %T", c))
	}
}

// AdditionalCreateStatements implements schema.Dialect. Geometry columns
// are added with ADDGEOMETRYCOLUMN and receive a GIST index.
func (d *Dialect) AdditionalCreateStatements(c sqlschema.Column, t *sqlschema.Table) []string {
	g, ok := c.(*sqlschema.GeometryColumn)
	if !ok {
		return nil
	}
	dbSchema, table := splitTableName(t.Name)
	stmts := []string{
		fmt.Sprintf("SELECT ADDGEOMETRYCOLUMN('%s', '%s','%s','%s','%s',%d)",
			dbSchema, table, strings.ToLower(g.Name), sqlschema.SRID(d, g.SRID), sqlschema.SpatialTypeName(g.Type), g.Dimension()),
	}
	if g.NotNull {
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET NOT NULL", t.Name, g.Name))
	}
	stmts = append(stmts, fmt.Sprintf("CREATE INDEX %s_%s_sidx ON %s USING GIST (%s)", table, strings.ToLower(g.Name), t.Name, g.Name))
	return stmts
}

// BlobCreateStatements implements schema.Dialect.
func (d *Dialect) BlobCreateStatements(b *sqlschema.BlobSetup) []string {
	ftSchema, ftTable := splitTableName(b.FeatureTypeTable)
	blobSchema, blobTable := splitTableName(b.Table)
	srid := sqlschema.SRID(d, b.SRID)
	stmts := []string{
		"CREATE TABLE " + b.FeatureTypeTable + " (id smallint PRIMARY KEY, qname text NOT NULL)",
		"COMMENT ON TABLE " + b.FeatureTypeTable + " IS 'Ids and bboxes of concrete feature types'",
		"SELECT ADDGEOMETRYCOLUMN('" + ftSchema + "', '" + ftTable + "','bbox','" + d.undefinedSRID + "','GEOMETRY',2)",
	}
	for i, name := range b.FeatureTypes {
		stmts = append(stmts, "INSERT INTO "+b.FeatureTypeTable+"  (id,qname) VALUES ("+strconv.Itoa(i)+",'"+name.String()+"')")
	}
	return append(stmts,
		"CREATE TABLE "+b.Table+" (id serial PRIMARY KEY, gml_id text UNIQUE NOT NULL, ft_type smallint REFERENCES "+b.FeatureTypeTable+" , binary_object bytea)",
		"COMMENT ON TABLE "+b.Table+" IS 'All objects (features and geometries)'",
		"SELECT ADDGEOMETRYCOLUMN('"+blobSchema+"', '"+blobTable+"','gml_bounded_by','"+srid+"','GEOMETRY',2)",
		"ALTER TABLE "+b.Table+" ADD CONSTRAINT gml_objects_geochk CHECK (ST_IsValid(gml_bounded_by))",
		"CREATE INDEX gml_objects_sidx ON "+b.Table+"  USING GIST (gml_bounded_by)",
	)
}

func splitTableName(name string) (string, string) {
	s, t := sqlschema.SplitTableName(name)
	if s == "" {
		s = DefaultSchema
	}
	return strings.ToLower(s), strings.ToLower(t)
}

func typeName(t schema.BaseType) string {
	switch t {
	case schema.String:
		return "text"
	case schema.Boolean:
		return "boolean"
	case schema.Decimal:
		return "numeric"
	case schema.Double:
		return "double precision"
	case schema.Integer:
		return "integer"
	case schema.Date:
		return "date"
	case schema.DateTime:
		return "timestamp"
	case schema.Time:
		return "time"
	default:
		panic(fmt.Sprintf("postgis: unhandled base type %s", t))
	}
}

var _ sqlschema.Dialect = (*Dialect)(nil)
