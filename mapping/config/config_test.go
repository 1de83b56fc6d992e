package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/sqlfs"
	"github.com/syssam/sqlfs/compiler/ddl"
	"github.com/syssam/sqlfs/dialect/sqlite"
	"github.com/syssam/sqlfs/internal/testutil"
	"github.com/syssam/sqlfs/mapping"
	"github.com/syssam/sqlfs/schema"
)

const tagYAML = `
namespaces:
  app: http://www.example.org/app
featureTypes:
  - name: app:F
    properties:
      - {name: app:name, minOccurs: 1}
      - {name: app:tag, maxOccurs: unbounded}
mappings:
  - featureType: app:F
    table: f
    fid: {prefix: F_, columns: [{name: id}]}
    particles:
      - path: app:name
      - path: app:tag
        joins:
          - {from: [id], table: f_tag, to: [fk], order: [idx]}
`

func TestLoadTagSchema(t *testing.T) {
	ms, err := Load(strings.NewReader(tagYAML))
	require.NoError(t, err)

	ftm, ok := ms.FeatureTypeMapping(testutil.QName("F"))
	require.True(t, ok)
	assert.Equal(t, "f", ftm.Table())
	assert.Equal(t, "F_7", ftm.FID().Format(int64(7)))

	ft, ok := ms.Schema().FeatureType(testutil.QName("F"))
	require.True(t, ok)
	tag, ok := ft.Property(testutil.QName("tag"))
	require.True(t, ok)
	assert.Equal(t, schema.Unbounded, tag.MaxOccurs)

	want, err := ddl.Compile(testutil.TagSchema(t, mapping.InlineJoin, "idx"), sqlite.New())
	require.NoError(t, err)
	got, err := ddl.Compile(ms, sqlite.New())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadDefaults(t *testing.T) {
	ms, err := Load(strings.NewReader(`
namespaces: {app: http://www.example.org/app}
geometryElements:
  - {name: app:Area, type: Surface}
featureTypes:
  - name: app:RoadSegment
    properties:
      - {name: app:laneCount}
      - {name: app:extent, nillable: true}
      - {name: app:owner}
mappings:
  - featureType: app:RoadSegment
    fid: {generator: uuid, columns: [{name: gid, type: string}]}
    typeColumn: ft_type
    particles:
      - {path: app:laneCount, type: integer}
      - path: app:extent
        voidable: true
        element: {nillable: true, requiredAttributes: [app:reason]}
        joins:
          - {from: [gid], table: extent, to: [road_gid], fetch: deferred, order: [idx-]}
        children:
          - {path: app:Area, kind: geometry, column: geom, type: polygon, srid: 4326}
          - {path: "@app:reason", column: reason}
      - {path: app:owner, kind: feature, featureType: app:RoadSegment, href: owner_href}
      - {path: app:label, kind: sql, expression: "upper(name)"}
`))
	require.NoError(t, err)

	ftm, ok := ms.FeatureTypeMapping(testutil.QName("RoadSegment"))
	require.True(t, ok)
	assert.Equal(t, "road_segment", ftm.Table())
	assert.Equal(t, "ft_type", ftm.TypeColumn())
	assert.Equal(t, "ROAD_SEGMENT_", ftm.FID().Prefix)
	assert.IsType(t, mapping.UUIDGenerator{}, ftm.FID().Generator)
	assert.Equal(t, schema.String, ftm.FID().Columns[0].Type)

	lanes, ok := ftm.Mapping(testutil.QName("laneCount"))
	require.True(t, ok)
	p := lanes.(*mapping.Primitive)
	assert.Equal(t, mapping.ColumnRef{Name: "lane_count"}, p.Value)
	assert.Equal(t, schema.Integer, p.Type)

	extent, ok := ftm.Mapping(testutil.QName("extent"))
	require.True(t, ok)
	c := extent.(*mapping.Compound)
	assert.True(t, c.Voidable)
	require.NotNil(t, c.Decl)
	assert.True(t, c.Decl.Nillable)
	assert.Equal(t, []schema.QName{testutil.QName("reason")}, c.Decl.RequiredAttributes)
	require.Len(t, c.Joins, 1)
	j := c.Joins[0]
	assert.Equal(t, "road_segment", j.FromTable)
	assert.Equal(t, mapping.DeferredSelect, j.FetchMode)
	assert.Equal(t, []mapping.OrderColumn{{Name: "idx", Desc: true}}, j.OrderColumns)
	require.Len(t, c.Children, 2)
	g := c.Children[0].(*mapping.Geometry)
	assert.Equal(t, schema.Polygon, g.Type)
	assert.Equal(t, 4326, g.SRID)
	assert.Equal(t, mapping.AttributeAxis, c.Children[1].Base().Path.Axis)

	owner, ok := ftm.Mapping(testutil.QName("owner"))
	require.True(t, ok)
	ref := owner.(*mapping.FeatureRef)
	assert.Equal(t, testutil.QName("RoadSegment"), ref.FeatureType)
	assert.Equal(t, mapping.ColumnRef{Name: "owner_href"}, ref.Href)

	label, ok := ftm.Mapping(testutil.QName("label"))
	require.True(t, ok)
	assert.Equal(t, "upper(name)", label.(*mapping.SQLExpression).SQL)

	assert.True(t, ms.Schema().Hierarchy().IsSurfaceSubstitution(testutil.QName("Area")))
}

func TestLoadErrors(t *testing.T) {
	head := "namespaces: {app: http://www.example.org/app}\nfeatureTypes: [{name: app:F}]\n"
	tests := []struct {
		name   string
		doc    string
		config bool
	}{
		{"unknown field", head + "bogus: 1\n", false},
		{"unbound prefix", head + "mappings: [{featureType: other:F}]\n", true},
		{"multi step path", head + "mappings: [{featureType: app:F, particles: [{path: app:a/app:b}]}]\n", true},
		{"unknown kind", head + "mappings: [{featureType: app:F, particles: [{path: app:a, kind: magic}]}]\n", true},
		{"bad base type", head + "mappings: [{featureType: app:F, particles: [{path: app:a, type: money}]}]\n", true},
		{"join mismatch", head + "mappings: [{featureType: app:F, particles: [{path: app:a, joins: [{from: [a, b], table: t, to: [c]}]}]}]\n", true},
		{"unknown fetch mode", head + "mappings: [{featureType: app:F, particles: [{path: app:a, joins: [{from: [a], table: t, to: [c], fetch: lazy}]}]}]\n", true},
		{"bad maxOccurs", "namespaces: {app: x}\nfeatureTypes: [{name: app:F, properties: [{name: app:a, maxOccurs: many}]}]\n", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.Equal(t, tt.config, sqlfs.IsConfigurationError(err), err.Error())
		})
	}
}
