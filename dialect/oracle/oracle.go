// Package oracle implements the Oracle Spatial dialect of the feature store.
package oracle

import (
	"fmt"
	"strconv"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/syssam/sqlfs/dialect"
	sqlschema "github.com/syssam/sqlfs/dialect/sql/schema"
	"github.com/syssam/sqlfs/schema"
)

// Tolerance of the spatial metadata dimension elements.
const Tolerance = "0.00000005"

// Dialect is the Oracle dialect. Autogenerated columns are filled by a
// sequence and a before-insert trigger.
type Dialect struct {
	domain [4]float64
	upper  cases.Caser
}

// Option configures the dialect.
type Option func(*Dialect)

// WithDomain sets the coordinate domain (min x, min y, max x, max y)
// registered for geometry columns. The default is the WGS 84 domain.
func WithDomain(domain [4]float64) Option {
	return func(d *Dialect) {
		d.domain = domain
	}
}

// New returns the Oracle dialect.
func New(opts ...Option) *Dialect {
	d := &Dialect{
		domain: [4]float64{-180, -90, 180, 90},
		upper:  cases.Upper(language.Und),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name implements schema.Dialect.
func (*Dialect) Name() string { return dialect.Oracle }

// LeadingEscapeChar implements schema.Dialect. Identifiers are not escaped,
// so that unquoted names keep resolving case-insensitively.
func (*Dialect) LeadingEscapeChar() rune { return 0 }

// TrailingEscapeChar implements schema.Dialect.
func (*Dialect) TrailingEscapeChar() rune { return 0 }

// UndefinedSRID implements schema.Dialect.
func (*Dialect) UndefinedSRID() string { return "null" }

// Placeholder implements schema.Dialect.
func (*Dialect) Placeholder(n int) string { return ":" + strconv.Itoa(n) }

// GeometrySelect implements schema.Dialect.
func (*Dialect) GeometrySelect(expr string) (string, sqlschema.GeometryEncoding) {
	return "SDO_UTIL.TO_WKBGEOMETRY(" + expr + ")", sqlschema.WKB
}

// CreateTableStatements implements schema.Dialect.
func (d *Dialect) CreateTableStatements(t *sqlschema.Table) []string {
	return sqlschema.CreateTableStatements(d, t)
}

// ColumnSnippet implements schema.Dialect.
func (*Dialect) ColumnSnippet(c sqlschema.Column, _ *sqlschema.Table) (string, bool) {
	var s string
	switch c := c.(type) {
	case *sqlschema.PrimitiveColumn:
		s = c.Name + " " + typeName(c.Type)
		if c.NotNull || c.Autogenerated {
			s += " NOT NULL"
		}
		if c.References != "" {
			s += " REFERENCES " + c.References
			if c.OnDeleteCascade {
				s += " ON DELETE CASCADE"
			}
		}
		return s, true
	case *sqlschema.GeometryColumn:
		s = c.Name + " sdo_geometry"
	case *sqlschema.BlobColumn:
		s = c.Name + " blob"
	default:
		panic(fmt.Sprintf("oracle: unhandled column type %T", c))
	}
	if c.IsNotNull() {
		s += " NOT NULL"
	}
	return s, true
}

// AdditionalCreateStatements implements schema.Dialect.
func (d *Dialect) AdditionalCreateStatements(c sqlschema.Column, t *sqlschema.Table) []string {
	switch c := c.(type) {
	case *sqlschema.PrimitiveColumn:
		if !c.Autogenerated {
			return nil
		}
		seq := t.Name + "_" + c.Name + "_seq"
		return []string{
			"create sequence " + seq + " start with 1 increment by 1 nomaxvalue",
			"create or replace trigger " + t.Name + "_" + c.Name + "_trigger before insert on " + t.Name +
				" for each row begin select " + seq + ".nextval into :new." + c.Name + " from dual; end;",
		}
	case *sqlschema.GeometryColumn:
		_, table := sqlschema.SplitTableName(t.Name)
		return []string{
			d.geomMetadata(d.upper.String(table), d.upper.String(c.Name), d.domain, sqlschema.SRID(d, c.SRID)),
			"CREATE INDEX " + table + "_" + c.Name + "_sidx ON " + t.Name + "(" + c.Name + ") INDEXTYPE IS MDSYS.SPATIAL_INDEX",
		}
	}
	return nil
}

func (*Dialect) geomMetadata(table, column string, dom [4]float64, srid string) string {
	return "INSERT INTO user_sdo_geom_metadata(TABLE_NAME,COLUMN_NAME,DIMINFO,SRID) VALUES ('" + table + "','" + column +
		"',SDO_DIM_ARRAY(SDO_DIM_ELEMENT('X', " + sqlschema.FormatFloat(dom[0]) + ", " + sqlschema.FormatFloat(dom[2]) + ", " + Tolerance +
		"), SDO_DIM_ELEMENT('Y', " + sqlschema.FormatFloat(dom[1]) + ", " + sqlschema.FormatFloat(dom[3]) + ", " + Tolerance + ")), " + srid + ")"
}

// BlobCreateStatements implements schema.Dialect.
func (d *Dialect) BlobCreateStatements(b *sqlschema.BlobSetup) []string {
	stmts := []string{
		"CREATE TABLE " + b.FeatureTypeTable + " (id integer PRIMARY KEY, qname varchar2(4000) NOT NULL, bbox sdo_geometry)",
	}
	for i, name := range b.FeatureTypes {
		stmts = append(stmts, "INSERT INTO "+b.FeatureTypeTable+"  (id,qname) VALUES ("+strconv.Itoa(i)+",'"+name.String()+"')")
	}
	return append(stmts,
		"CREATE TABLE "+b.Table+" (id integer not null, gml_id varchar2(4000) NOT NULL, ft_type integer REFERENCES "+b.FeatureTypeTable+
			" , binary_object blob, gml_bounded_by sdo_GEOMETRY, constraint gml_objects_id_pk primary key(id))",
		"create sequence "+b.Table+"_id_seq start with 1 increment by 1 nomaxvalue",
		"create or replace trigger "+b.Table+"_id_trigger before insert on "+b.Table+
			" for each row begin select "+b.Table+"_id_seq.nextval into :new.id from dual; end;",
		d.geomMetadata(b.Table, "gml_bounded_by", b.Domain, "null"),
		"CREATE INDEX gml_objects_sidx ON "+b.Table+"(gml_bounded_by) INDEXTYPE IS MDSYS.SPATIAL_INDEX",
	)
}

func typeName(t schema.BaseType) string {
	switch t {
	case schema.String:
		return "varchar2(4000)"
	case schema.Boolean:
		return "number(1)"
	case schema.Decimal:
		return "number"
	case schema.Double:
		return "binary_double"
	case schema.Integer:
		return "integer"
	case schema.Date:
		return "date"
	case schema.DateTime, schema.Time:
		return "timestamp"
	default:
		panic(fmt.Sprintf("oracle: unhandled base type %s", t))
	}
}

var _ sqlschema.Dialect = (*Dialect)(nil)
