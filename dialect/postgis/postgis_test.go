package postgis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sqlschema "github.com/syssam/sqlfs/dialect/sql/schema"
	"github.com/syssam/sqlfs/schema"
)

func TestCreateTableStatements(t *testing.T) {
	tbl := sqlschema.NewTable("f_tag")
	require.NoError(t, tbl.AddColumn(&sqlschema.PrimitiveColumn{Name: "id", Type: schema.Integer, PrimaryKey: true, Autogenerated: true}))
	require.NoError(t, tbl.AddColumn(&sqlschema.PrimitiveColumn{Name: "fk", Type: schema.Integer, References: "f", OnDeleteCascade: true}))
	require.NoError(t, tbl.AddColumn(&sqlschema.PrimitiveColumn{Name: "idx", Type: schema.Integer, NotNull: true}))
	require.NoError(t, tbl.AddColumn(&sqlschema.PrimitiveColumn{Name: "tag", Type: schema.String}))
	require.NoError(t, tbl.AddColumn(&sqlschema.PrimitiveColumn{Name: "at", Type: schema.DateTime}))
	require.NoError(t, tbl.AddColumn(&sqlschema.BlobColumn{Name: "data"}))
	require.NoError(t, tbl.AddColumn(&sqlschema.GeometryColumn{Name: "geom", Type: schema.Surface, SRID: 4326}))

	stmts := New().CreateTableStatements(tbl)
	require.Len(t, stmts, 3)
	assert.Equal(t, "CREATE TABLE f_tag (\n"+
		"  id serial,\n"+
		"  fk integer REFERENCES f ON DELETE CASCADE,\n"+
		"  idx integer NOT NULL,\n"+
		"  tag text,\n"+
		"  at timestamp,\n"+
		"  data bytea,\n"+
		"  CONSTRAINT f_tag_pkey PRIMARY KEY (id)\n"+
		")", stmts[0])
	assert.Equal(t, "SELECT ADDGEOMETRYCOLUMN('public', 'f_tag','geom','4326','POLYGON',2)", stmts[1])
	assert.Equal(t, "CREATE INDEX f_tag_geom_sidx ON f_tag USING GIST (geom)", stmts[2])
}

func TestGeometryColumnUndefinedSRID(t *testing.T) {
	tbl := sqlschema.NewTable("App.Road")
	require.NoError(t, tbl.AddColumn(&sqlschema.GeometryColumn{Name: "Geom", Type: schema.Curve, Dim: 3, NotNull: true}))

	stmts := New().CreateTableStatements(tbl)
	require.Len(t, stmts, 4)
	assert.Equal(t, "CREATE TABLE App.Road (\n)", stmts[0])
	assert.Equal(t, "SELECT ADDGEOMETRYCOLUMN('app', 'road','geom','0','LINESTRING',3)", stmts[1])
	assert.Equal(t, "ALTER TABLE App.Road ALTER COLUMN Geom SET NOT NULL", stmts[2])

	legacy := New(WithLegacySRID()).CreateTableStatements(tbl)
	assert.Equal(t, "SELECT ADDGEOMETRYCOLUMN('app', 'road','geom','-1','LINESTRING',3)", legacy[1])
}

func TestBlobCreateStatements(t *testing.T) {
	stmts := New().BlobCreateStatements(&sqlschema.BlobSetup{
		FeatureTypeTable: "ft",
		Table:            "blob",
		FeatureTypes: []schema.QName{
			{Space: "http://www.example.org/app", Local: "Road"},
			{Space: "http://www.example.org/app", Local: "River"},
		},
	})
	assert.Equal(t, []string{
		"CREATE TABLE ft (id smallint PRIMARY KEY, qname text NOT NULL)",
		"COMMENT ON TABLE ft IS 'Ids and bboxes of concrete feature types'",
		"SELECT ADDGEOMETRYCOLUMN('public', 'ft','bbox','0','GEOMETRY',2)",
		"INSERT INTO ft  (id,qname) VALUES (0,'{http://www.example.org/app}Road')",
		"INSERT INTO ft  (id,qname) VALUES (1,'{http://www.example.org/app}River')",
		"CREATE TABLE blob (id serial PRIMARY KEY, gml_id text UNIQUE NOT NULL, ft_type smallint REFERENCES ft , binary_object bytea)",
		"COMMENT ON TABLE blob IS 'All objects (features and geometries)'",
		"SELECT ADDGEOMETRYCOLUMN('public', 'blob','gml_bounded_by','0','GEOMETRY',2)",
		"ALTER TABLE blob ADD CONSTRAINT gml_objects_geochk CHECK (ST_IsValid(gml_bounded_by))",
		"CREATE INDEX gml_objects_sidx ON blob  USING GIST (gml_bounded_by)",
	}, stmts)
}

func TestSelectAndPlaceholders(t *testing.T) {
	d := New()
	expr, enc := d.GeometrySelect("X1.geom")
	assert.Equal(t, "ST_AsBinary(X1.geom)", expr)
	assert.Equal(t, sqlschema.WKB, enc)
	assert.Equal(t, "$2", d.Placeholder(2))
	assert.Equal(t, "postgres", d.Name())
	assert.Equal(t, "f", sqlschema.Quote(d, "f"))
}
