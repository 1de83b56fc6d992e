package mysql

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
	require.NoError(t, tbl.AddColumn(&sqlschema.PrimitiveColumn{Name: "fk", Type: schema.Integer, References: "f", ReferencedColumn: "fid", OnDeleteCascade: true}))
	require.NoError(t, tbl.AddColumn(&sqlschema.PrimitiveColumn{Name: "tag", Type: schema.String}))
	require.NoError(t, tbl.AddColumn(&sqlschema.GeometryColumn{Name: "pos", Type: schema.Point, SRID: 4326, NotNull: true}))

	stmts := New().CreateTableStatements(tbl)
	assert.Equal(t, []string{
		"CREATE TABLE f_tag (\n  id INTEGER NOT NULL AUTO_INCREMENT,\n  fk INTEGER,\n  tag TEXT,\n  pos POINT NOT NULL SRID 4326,\n  CONSTRAINT f_tag_pkey PRIMARY KEY (id)\n)",
		"ALTER TABLE f_tag ADD CONSTRAINT f_tag_fk_fkey FOREIGN KEY (fk) REFERENCES f (fid) ON DELETE CASCADE",
		"CREATE SPATIAL INDEX f_tag_pos_sidx ON f_tag (pos)",
	}, stmts)
}

func TestNullableGeometryHasNoIndex(t *testing.T) {
	tbl := sqlschema.NewTable("road")
	require.NoError(t, tbl.AddColumn(&sqlschema.PrimitiveColumn{Name: "gid", Type: schema.String, PrimaryKey: true}))
	require.NoError(t, tbl.AddColumn(&sqlschema.GeometryColumn{Name: "geom", Type: schema.Surface}))
	stmts := New().CreateTableStatements(tbl)
	assert.Equal(t, []string{"CREATE TABLE road (\n  gid varchar(255) NOT NULL,\n  geom POLYGON,\n  CONSTRAINT road_pkey PRIMARY KEY (gid)\n)"}, stmts)
}

func TestBlobCreateStatements(t *testing.T) {
	stmts := New().BlobCreateStatements(&sqlschema.BlobSetup{
		FeatureTypeTable: "ft",
		Table:            "blob",
		FeatureTypes:     []schema.QName{{Local: "Road"}},
	})
	assert.Equal(t, []string{
		"CREATE TABLE ft (id smallint PRIMARY KEY, qname text NOT NULL, bbox GEOMETRY)",
		"INSERT INTO ft  (id,qname) VALUES (0,'Road')",
		"CREATE TABLE blob (id integer AUTO_INCREMENT PRIMARY KEY, gml_id varchar(255) UNIQUE NOT NULL, ft_type smallint, binary_object LONGBLOB, gml_bounded_by GEOMETRY NOT NULL, FOREIGN KEY (ft_type) REFERENCES ft (id))",
		"CREATE SPATIAL INDEX gml_objects_sidx ON blob (gml_bounded_by)",
	}, stmts)
}

func TestQuote(t *testing.T) {
	d := New()
	assert.Equal(t, "`road`", sqlschema.Quote(d, "road"))
	assert.Equal(t, "?", d.Placeholder(4))
}
