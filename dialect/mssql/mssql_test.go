package mssql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sqlschema "github.com/syssam/sqlfs/dialect/sql/schema"
	"github.com/syssam/sqlfs/schema"
)

func TestCreateTableStatements(t *testing.T) {
	tbl := sqlschema.NewTable("road")
	require.NoError(t, tbl.AddColumn(&sqlschema.PrimitiveColumn{Name: "gid", Type: schema.String, PrimaryKey: true}))
	require.NoError(t, tbl.AddColumn(&sqlschema.PrimitiveColumn{Name: "open", Type: schema.Boolean, NotNull: true}))
	require.NoError(t, tbl.AddColumn(&sqlschema.GeometryColumn{Name: "geom", Type: schema.LineString, SRID: 4326}))

	stmts := New(WithBoundingBox([4]float64{0, 0, 100, 50})).CreateTableStatements(tbl)
	assert.Equal(t, []string{
		"CREATE TABLE road (\n  gid varchar(2000) NOT NULL,\n  open bit NOT NULL,\n  geom GEOMETRY,\n  CONSTRAINT road_pkey PRIMARY KEY (gid)\n)",
		"ALTER TABLE road ADD CONSTRAINT road_geom_geochk CHECK (geom.STIsValid() = 1)",
		"ALTER TABLE road ADD CONSTRAINT road_geom_sridchk CHECK (geom.STSrid = 4326)",
		"CREATE SPATIAL INDEX road_geom_sidx ON road(geom) WITH ( BOUNDING_BOX = ( 0,0,100,50 ) )",
	}, stmts)
}

func TestJoinTable(t *testing.T) {
	tbl := sqlschema.NewTable("road_tag")
	require.NoError(t, tbl.AddColumn(&sqlschema.PrimitiveColumn{Name: "id", Type: schema.Integer, PrimaryKey: true, Autogenerated: true}))
	require.NoError(t, tbl.AddColumn(&sqlschema.PrimitiveColumn{Name: "fk", Type: schema.String, References: "road", OnDeleteCascade: true}))
	require.NoError(t, tbl.AddColumn(&sqlschema.PrimitiveColumn{Name: "tag", Type: schema.String}))

	stmts := New().CreateTableStatements(tbl)
	assert.Equal(t, []string{
		"CREATE TABLE road_tag (\n  id integer IDENTITY(1,1) NOT NULL,\n  fk varchar(2000) REFERENCES road ON DELETE CASCADE,\n  tag varchar(max),\n  CONSTRAINT road_tag_pkey PRIMARY KEY (id)\n)",
	}, stmts)
}

func TestBlobCreateStatements(t *testing.T) {
	stmts := New().BlobCreateStatements(&sqlschema.BlobSetup{
		FeatureTypeTable: "ft",
		Table:            "blob",
		FeatureTypes:     []schema.QName{{Space: "http://www.example.org/app", Local: "Road"}},
		Domain:           [4]float64{-180, -90, 180, 90},
	})
	assert.Equal(t, []string{
		"CREATE TABLE ft (id integer PRIMARY KEY, qname text NOT NULL, bbox GEOMETRY)",
		"INSERT INTO ft  (id,qname) VALUES (0,'{http://www.example.org/app}Road')",
		"CREATE TABLE blob (id integer IDENTITY(1,1) PRIMARY KEY, gml_id varchar(2000) NOT NULL, ft_type integer REFERENCES ft , binary_object varbinary(max), gml_bounded_by GEOMETRY)",
		"ALTER TABLE blob ADD CONSTRAINT gml_objects_geochk CHECK (gml_bounded_by.STIsValid() = 1)",
		"CREATE SPATIAL INDEX gml_objects_sidx ON blob(gml_bounded_by) WITH ( BOUNDING_BOX = ( -180,-90,180,90 ) )",
	}, stmts)
}

func TestQuoteAndSelect(t *testing.T) {
	d := New()
	assert.Equal(t, "[road]", sqlschema.Quote(d, "road"))
	assert.Equal(t, "[road]", sqlschema.Quote(d, "[road]"))
	expr, _ := d.GeometrySelect("X1.geom")
	assert.Equal(t, "X1.geom.STAsBinary()", expr)
	assert.Equal(t, "@p1", d.Placeholder(1))
}
