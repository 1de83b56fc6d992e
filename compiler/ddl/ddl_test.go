package ddl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/sqlfs"
	"github.com/syssam/sqlfs/dialect/postgis"
	sqlschema "github.com/syssam/sqlfs/dialect/sql/schema"
	"github.com/syssam/sqlfs/dialect/sqlite"
	"github.com/syssam/sqlfs/internal/testutil"
	"github.com/syssam/sqlfs/mapping"
	"github.com/syssam/sqlfs/schema"
)

func TestCompileTagSchema(t *testing.T) {
	ms := testutil.TagSchema(t, mapping.DeferredSelect, "idx-")
	stmts, err := Compile(ms, sqlite.New())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"CREATE TABLE f (\n  id INTEGER,\n  name TEXT,\n  CONSTRAINT f_pkey PRIMARY KEY (id)\n)",
		"CREATE TABLE f_tag (\n  id INTEGER,\n  fk INTEGER REFERENCES f ON DELETE CASCADE,\n  idx INTEGER NOT NULL,\n  tag TEXT,\n  CONSTRAINT f_tag_pkey PRIMARY KEY (id)\n)",
		"CREATE INDEX f_tag_fk_idx ON f_tag (fk)",
	}, stmts)

	again, err := Compile(ms, sqlite.New())
	require.NoError(t, err)
	assert.Equal(t, stmts, again)
}

func TestBuildTablesJoinForeignKey(t *testing.T) {
	tables, err := BuildTables(testutil.TagSchema(t, mapping.InlineJoin))
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Equal(t, "f", tables[0].Name)
	assert.Equal(t, "f_tag", tables[1].Name)

	id := tables[0].PrimaryKeyColumns()
	require.Len(t, id, 1)
	assert.True(t, id[0].Autogenerated)

	c, ok := tables[1].Column("fk")
	require.True(t, ok)
	fk := c.(*sqlschema.PrimitiveColumn)
	assert.Equal(t, schema.Integer, fk.Type)
	assert.Equal(t, "f", fk.References)
	assert.Equal(t, "id", fk.ReferencedColumn)
	assert.True(t, fk.OnDeleteCascade)
}

func TestBuildTablesCompositeOriginKey(t *testing.T) {
	fid, err := mapping.NewFIDMapping("F_", "_", mapping.UUIDGenerator{},
		mapping.FIDColumn{Name: "a", Type: schema.String},
		mapping.FIDColumn{Name: "b", Type: schema.String},
	)
	require.NoError(t, err)
	join := testutil.Join(t, "f", "a", "f_tag", "fk")
	ftm, err := mapping.NewFeatureTypeMapping(testutil.QName("F"), "f", fid, []mapping.Mapping{
		testutil.Primitive(t, "app:tag", "tag", join),
	})
	require.NoError(t, err)

	_, err = BuildTables(mappedSchema(t, ftm))
	require.Error(t, err)
	assert.True(t, sqlfs.IsConfigurationError(err))
	assert.Contains(t, err.Error(), "table f has 2 primary key columns")
}

func TestBuildTablesColumnKindConflict(t *testing.T) {
	ftm, err := mapping.NewFeatureTypeMapping(testutil.QName("F"), "f", testutil.FID(t, "F_", "id"), []mapping.Mapping{
		testutil.Primitive(t, "app:name", "name"),
		&mapping.Geometry{
			Particle: mapping.Particle{Path: testutil.Path(t, "app:tag")},
			Value:    mapping.ColumnRef{Name: "name"},
			Type:     schema.Point,
		},
	})
	require.NoError(t, err)
	_, err = BuildTables(mappedSchema(t, ftm))
	require.Error(t, err)
	assert.True(t, sqlfs.IsConfigurationError(err))
	assert.Contains(t, err.Error(), "cannot merge column definitions name")
}

func TestBuildTablesParticleKinds(t *testing.T) {
	area := testutil.Join(t, "f", "id", "f_area", "f_id")
	ref := testutil.Join(t, "f", "owner_id", "owner", "id")
	ftm, err := mapping.NewFeatureTypeMapping(testutil.QName("F"), "f", testutil.FID(t, "F_", "id"), []mapping.Mapping{
		testutil.Primitive(t, "app:name", "name"),
		mapping.NewCompound(mapping.Particle{Path: testutil.Path(t, "app:tag"), Joins: []*mapping.TableJoin{area}}, nil,
			&mapping.Geometry{
				Particle: mapping.Particle{Path: testutil.Path(t, "app:Polygon")},
				Value:    mapping.ColumnRef{Name: "geom"},
				Type:     schema.Surface,
				SRID:     4326,
			},
			&mapping.SQLExpression{Particle: mapping.Particle{Path: testutil.Path(t, "app:area")}, SQL: "ST_Area(geom)"},
			&mapping.Primitive{
				Particle: mapping.Particle{Path: testutil.Path(t, "@app:unit")},
				Value:    mapping.SQLExpr{SQL: "'m2'"},
			},
		),
		&mapping.FeatureRef{
			Particle:    mapping.Particle{Path: testutil.Path(t, "app:owner"), Joins: []*mapping.TableJoin{ref}},
			Href:        mapping.ColumnRef{Name: "owner_href"},
			FeatureType: testutil.QName("Owner"),
		},
		&mapping.Blob{Particle: mapping.Particle{Path: testutil.Path(t, "app:extra")}, Column: "extra"},
	}, mapping.WithTypeColumn("ft_type"))
	require.NoError(t, err)

	tables, err := BuildTables(mappedSchema(t, ftm))
	require.NoError(t, err)
	require.Len(t, tables, 2)

	names := func(tbl *sqlschema.Table) []string {
		var ns []string
		for _, c := range tbl.Columns() {
			ns = append(ns, c.ColumnName())
		}
		return ns
	}
	assert.Equal(t, []string{"id", "ft_type", "name", "owner_id", "owner_href", "extra"}, names(tables[0]))
	assert.Equal(t, []string{"id", "f_id", "geom"}, names(tables[1]))
	g, _ := tables[1].Column("geom")
	assert.Equal(t, 4326, g.(*sqlschema.GeometryColumn).SRID)
}

func TestCompileBlobBootstrapFirst(t *testing.T) {
	as, err := schema.New([]*schema.FeatureType{testutil.TagFeatureType(), {Name: testutil.QName("G")}})
	require.NoError(t, err)
	ftm, err := mapping.NewFeatureTypeMapping(testutil.QName("F"), "f", testutil.FID(t, "F_", "id"), []mapping.Mapping{
		testutil.Primitive(t, "app:name", "name"),
	})
	require.NoError(t, err)
	ms, err := mapping.NewMappedSchema(as, []*mapping.FeatureTypeMapping{ftm}, mapping.WithBlobMapping(mapping.BlobMapping{}))
	require.NoError(t, err)

	stmts, err := Compile(ms, postgis.New())
	require.NoError(t, err)
	require.Len(t, stmts, 11)
	assert.Equal(t, "CREATE TABLE feature_types (id smallint PRIMARY KEY, qname text NOT NULL)", stmts[0])
	assert.Equal(t, "INSERT INTO feature_types  (id,qname) VALUES (0,'{http://www.example.org/app}F')", stmts[3])
	assert.Equal(t, "INSERT INTO feature_types  (id,qname) VALUES (1,'{http://www.example.org/app}G')", stmts[4])
	assert.Equal(t, "CREATE TABLE f (\n  id serial,\n  name text,\n  CONSTRAINT f_pkey PRIMARY KEY (id)\n)", stmts[10])
}

func mappedSchema(t *testing.T, ftm *mapping.FeatureTypeMapping) *mapping.MappedSchema {
	t.Helper()
	as, err := schema.New([]*schema.FeatureType{testutil.TagFeatureType()})
	require.NoError(t, err)
	ms, err := mapping.NewMappedSchema(as, []*mapping.FeatureTypeMapping{ftm})
	require.NoError(t, err)
	return ms
}
