package convert

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"

	"github.com/syssam/sqlfs/blob"
	"github.com/syssam/sqlfs/dialect/postgis"
	"github.com/syssam/sqlfs/dialect/sqlite"
	"github.com/syssam/sqlfs/feature"
	"github.com/syssam/sqlfs/internal/testutil"
	"github.com/syssam/sqlfs/mapping"
	"github.com/syssam/sqlfs/schema"
)

func TestPrimitive(t *testing.T) {
	tests := []struct {
		name string
		in   any
		typ  schema.BaseType
		want any
	}{
		{"string", "Alpha", schema.String, "Alpha"},
		{"bytes as string", []byte("Alpha"), schema.String, "Alpha"},
		{"int as string", int64(3), schema.String, "3"},
		{"integer", int64(42), schema.Integer, int64(42)},
		{"integer from numeric", []byte("12.0"), schema.Integer, int64(12)},
		{"double", 2.5, schema.Double, 2.5},
		{"boolean", true, schema.Boolean, true},
		{"boolean from int", int64(0), schema.Boolean, false},
		{"boolean from text", "t", schema.Boolean, true},
		{"date", "2024-05-01", schema.Date, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
		{"datetime", "2024-05-01 10:30:00", schema.DateTime, time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Primitive(tt.in, tt.typ)
			require.NoError(t, err)
			assert.Equal(t, tt.typ, v.Type)
			assert.Equal(t, tt.want, v.Value)
		})
	}

	_, err := Primitive("yes please", schema.Boolean)
	assert.Error(t, err)
	_, err = Primitive("ten", schema.Decimal)
	assert.Error(t, err)
	_, err = Primitive(struct{}{}, schema.Integer)
	assert.Error(t, err)
}

func TestPrimitiveDecimal(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"from bytes", []byte("10.25"), "10.25"},
		{"beyond float64", "12345678901234567890.123456789", "12345678901234567890.123456789"},
		{"from integer", int64(7), "7"},
		{"from double", 0.1, "0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Primitive(tt.in, schema.Decimal)
			require.NoError(t, err)
			r, ok := v.Value.(*big.Rat)
			require.True(t, ok)
			assert.Equal(t, tt.want, schema.FormatDecimal(r))
		})
	}
}

func TestPrimitiveConverter(t *testing.T) {
	m := testutil.Primitive(t, "app:name", "name")
	c, err := For(m, sqlite.New())
	require.NoError(t, err)
	assert.Equal(t, []string{"X1.name"}, c.SelectTerms("X1"))

	n, err := c.ToParticle([]any{"Alpha"})
	require.NoError(t, err)
	assert.Equal(t, feature.PrimitiveValue{Value: "Alpha", Type: schema.String}, n)

	n, err = c.ToParticle([]any{nil})
	require.NoError(t, err)
	assert.Nil(t, n)

	expr := &mapping.Primitive{
		Particle: mapping.Particle{Path: testutil.Path(t, "app:len")},
		Value:    mapping.SQLExpr{SQL: "length(X1.name)"},
		Type:     schema.Integer,
	}
	c, err = For(expr, sqlite.New())
	require.NoError(t, err)
	assert.Equal(t, []string{"length(X1.name)"}, c.SelectTerms("X2"))
}

func TestGeometryConverter(t *testing.T) {
	m := &mapping.Geometry{
		Particle: mapping.Particle{Path: testutil.Path(t, "app:area")},
		Value:    mapping.ColumnRef{Name: "geom"},
		Type:     schema.Surface,
		SRID:     4326,
	}
	poly := geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}})

	t.Run("WKB", func(t *testing.T) {
		c, err := For(m, postgis.New())
		require.NoError(t, err)
		assert.Equal(t, []string{"ST_AsBinary(X2.geom)"}, c.SelectTerms("X2"))
		b, err := wkb.Marshal(poly, wkb.NDR)
		require.NoError(t, err)
		n, err := c.ToParticle([]any{b})
		require.NoError(t, err)
		g, ok := n.(*feature.Geometry)
		require.True(t, ok)
		assert.Equal(t, feature.Surface, g.Kind)
		assert.Equal(t, 4326, g.SRID)
		assert.Equal(t, poly.FlatCoords(), g.Value.FlatCoords())
	})

	t.Run("WKT", func(t *testing.T) {
		c, err := For(m, sqlite.New())
		require.NoError(t, err)
		assert.Equal(t, []string{"X1.geom"}, c.SelectTerms("X1"))
		n, err := c.ToParticle([]any{"POLYGON ((0 0, 1 0, 1 1, 0 0))"})
		require.NoError(t, err)
		g := n.(*feature.Geometry)
		assert.Len(t, g.Patches, 1)
	})

	t.Run("Invalid", func(t *testing.T) {
		c, err := For(m, postgis.New())
		require.NoError(t, err)
		_, err = c.ToParticle([]any{[]byte{1, 2, 3}})
		assert.Error(t, err)
	})
}

func TestFeatureRefConverter(t *testing.T) {
	ms := testutil.TagSchema(t, mapping.InlineJoin)
	ref := &mapping.FeatureRef{
		Particle:    mapping.Particle{Path: testutil.Path(t, "app:owner"), Joins: []*mapping.TableJoin{testutil.Join(t, "g", "owner_id", "f", "id")}},
		Href:        mapping.ColumnRef{Name: "owner_href"},
		FeatureType: testutil.QName("F"),
	}
	c, err := For(ref, sqlite.New(), WithSchema(ms))
	require.NoError(t, err)
	assert.Equal(t, []string{"X1.owner_id", "X1.owner_href"}, c.SelectTerms("X1"))

	n, err := c.ToParticle([]any{int64(7), nil})
	require.NoError(t, err)
	assert.Equal(t, &feature.Reference{Href: "#F_7", FeatureType: testutil.QName("F")}, n)

	n, err = c.ToParticle([]any{nil, "http://example.org/f/1"})
	require.NoError(t, err)
	assert.Equal(t, "http://example.org/f/1", n.(*feature.Reference).Href)

	n, err = c.ToParticle([]any{nil, nil})
	require.NoError(t, err)
	assert.Nil(t, n)
}

func TestBlobConverter(t *testing.T) {
	m := &mapping.Blob{Particle: mapping.Particle{Path: testutil.Path(t, "app:extra")}, Column: "data"}
	c, err := For(m, sqlite.New())
	require.NoError(t, err)
	assert.Equal(t, []string{"X3.data"}, c.SelectTerms("X3"))

	want := &feature.Element{Name: testutil.QName("extra"), Children: []feature.Node{feature.PrimitiveValue{Value: "v"}}}
	b, err := blob.Encode(want)
	require.NoError(t, err)
	n, err := c.ToParticle([]any{b})
	require.NoError(t, err)
	assert.Equal(t, want, n)

	_, err = c.ToParticle([]any{"text"})
	assert.Error(t, err)
}

func TestNoConverter(t *testing.T) {
	_, err := For(&mapping.SQLExpression{Particle: mapping.Particle{Path: testutil.Path(t, "app:x")}, SQL: "1"}, sqlite.New())
	assert.Error(t, err)
	_, err = For(mapping.NewCompound(mapping.Particle{Path: testutil.Path(t, "app:c")}, nil), sqlite.New())
	assert.Error(t, err)
}
