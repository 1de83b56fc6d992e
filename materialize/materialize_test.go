package materialize

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/sqlfs"
	"github.com/syssam/sqlfs/compiler/query"
	"github.com/syssam/sqlfs/dialect"
	"github.com/syssam/sqlfs/dialect/sql"
	"github.com/syssam/sqlfs/dialect/sqlite"
	"github.com/syssam/sqlfs/feature"
	"github.com/syssam/sqlfs/internal/testutil"
	"github.com/syssam/sqlfs/mapping"
	"github.com/syssam/sqlfs/schema"
)

func compile(t *testing.T, ms *mapping.MappedSchema, name string) (*mapping.FeatureTypeMapping, *query.Plan) {
	t.Helper()
	ftm, ok := ms.FeatureTypeMapping(testutil.QName(name))
	require.True(t, ok)
	plan, err := query.Compile(ftm, sqlite.New())
	require.NoError(t, err)
	return ftm, plan
}

func propValues(t *testing.T, f *feature.Feature, prop string) []any {
	t.Helper()
	var vs []any
	for _, p := range f.Property(testutil.QName(prop)) {
		pv, ok := p.Value().(feature.PrimitiveValue)
		require.True(t, ok, "property %s holds %T", prop, p.Value())
		vs = append(vs, pv.Value)
	}
	return vs
}

func TestBuildInline(t *testing.T) {
	ms := testutil.TagSchema(t, mapping.InlineJoin, "idx")
	ftm, plan := compile(t, ms, "F")
	b := New(ms, ftm, plan, nil, WithLogger(testutil.NewTestLogger(t)))

	// Rows carry X1.id, X1.name, X2.tag and X2.id; the repeated row 10 is
	// built once, row 12 with an equal value is kept.
	f, err := b.Build(context.Background(), [][]any{
		{int64(1), "Alpha", "x", int64(10)},
		{int64(1), "Alpha", "y", int64(11)},
		{int64(1), "Alpha", "x", int64(10)},
		{int64(1), "Alpha", "x", int64(12)},
	})
	require.NoError(t, err)
	assert.Equal(t, "F_1", f.ID)
	assert.Equal(t, testutil.QName("F"), f.Type)
	assert.Equal(t, []any{"Alpha"}, propValues(t, f, "name"))
	assert.Equal(t, []any{"x", "y", "x"}, propValues(t, f, "tag"))
	require.NotNil(t, f.Properties[0].Type)
	assert.Equal(t, 1, f.Properties[0].Type.MinOccurs)

	// An outer join without match yields no tag.
	f, err = b.Build(context.Background(), [][]any{{int64(2), "Beta", nil, nil}})
	require.NoError(t, err)
	assert.Equal(t, []any{"Beta"}, propValues(t, f, "name"))
	assert.Empty(t, f.Property(testutil.QName("tag")))
	assert.Empty(t, b.Warnings())
}

func TestBuildRequiredMissing(t *testing.T) {
	ms := testutil.TagSchema(t, mapping.InlineJoin)
	ftm, plan := compile(t, ms, "F")
	var hooked []*sqlfs.SchemaViolationWarning
	b := New(ms, ftm, plan, nil, WithWarningHook(func(w *sqlfs.SchemaViolationWarning) {
		hooked = append(hooked, w)
	}))

	f, err := b.Build(context.Background(), [][]any{{int64(3), nil, "x", int64(10)}})
	require.NoError(t, err)
	assert.Empty(t, f.Property(testutil.QName("name")))
	require.Len(t, hooked, 1)
	assert.Equal(t, "F_3", hooked[0].FeatureID)
	assert.Equal(t, "app:name", hooked[0].Path)
	assert.Equal(t, hooked, b.Warnings())

	_, err = b.Build(context.Background(), nil)
	assert.Error(t, err)
}

func TestBuildNillableProperty(t *testing.T) {
	ft := &schema.FeatureType{
		Name:       testutil.QName("N"),
		Properties: []schema.PropertyType{{Name: testutil.QName("name"), MinOccurs: 1, MaxOccurs: 1, Nillable: true}},
	}
	as, err := schema.New([]*schema.FeatureType{ft})
	require.NoError(t, err)
	ftm, err := mapping.NewFeatureTypeMapping(ft.Name, "n", testutil.FID(t, "N_", "id"), []mapping.Mapping{testutil.Primitive(t, "app:name", "name")})
	require.NoError(t, err)
	ms, err := mapping.NewMappedSchema(as, []*mapping.FeatureTypeMapping{ftm})
	require.NoError(t, err)
	_, plan := compile(t, ms, "N")

	f, err := New(ms, ftm, plan, nil).Build(context.Background(), [][]any{{int64(1), nil}})
	require.NoError(t, err)
	props := f.Property(testutil.QName("name"))
	require.Len(t, props, 1)
	assert.True(t, props[0].Nilled())
	assert.Empty(t, props[0].Children)

	f, err = New(ms, ftm, plan, nil, WithNullEscalation(false)).Build(context.Background(), [][]any{{int64(1), nil}})
	require.NoError(t, err)
	assert.Empty(t, f.Properties)
}

// surveySchema maps app:G onto table g with a required compound
// app:survey holding an attribute @code and a child app:value.
func surveySchema(t *testing.T, voidable, nillable bool) *mapping.MappedSchema {
	t.Helper()
	code := schema.QName{Local: "code"}
	ft := &schema.FeatureType{
		Name:       testutil.QName("G"),
		Properties: []schema.PropertyType{{Name: testutil.QName("survey"), MinOccurs: 1, MaxOccurs: 1}},
	}
	as, err := schema.New([]*schema.FeatureType{ft})
	require.NoError(t, err)
	decl := &schema.ElementDecl{Name: testutil.QName("survey"), Nillable: nillable, RequiredAttributes: []schema.QName{code}}
	survey := mapping.NewCompound(mapping.Particle{Path: testutil.Path(t, "app:survey"), Voidable: voidable}, decl,
		testutil.Primitive(t, "@code", "code"),
		testutil.Primitive(t, "app:value", "value"),
	)
	ftm, err := mapping.NewFeatureTypeMapping(ft.Name, "g", testutil.FID(t, "G_", "id"), []mapping.Mapping{survey})
	require.NoError(t, err)
	ms, err := mapping.NewMappedSchema(as, []*mapping.FeatureTypeMapping{ftm})
	require.NoError(t, err)
	return ms
}

func TestBuildCompoundEscalation(t *testing.T) {
	survey := testutil.QName("survey")
	tests := []struct {
		name     string
		voidable bool
		nillable bool
		escalate bool
		row      []any
		warnings int
		check    func(t *testing.T, props []*feature.Property)
	}{
		{
			name: "complete", nillable: true, escalate: true,
			row: []any{int64(1), "A", "12"},
			check: func(t *testing.T, props []*feature.Property) {
				require.Len(t, props, 1)
				code, ok := props[0].Attrs.Get(schema.QName{Local: "code"})
				require.True(t, ok)
				assert.Equal(t, "A", code.Value)
				require.Len(t, props[0].Children, 1)
				e := props[0].Children[0].(*feature.Element)
				assert.Equal(t, testutil.QName("value"), e.Name)
				assert.Equal(t, []feature.Node{feature.PrimitiveValue{Value: "12"}}, e.Children)
			},
		},
		{
			name: "nilled with required attribute", nillable: true, escalate: true,
			row: []any{int64(1), "A", nil},
			check: func(t *testing.T, props []*feature.Property) {
				require.Len(t, props, 1)
				assert.True(t, props[0].Nilled())
				assert.Len(t, props[0].Attrs, 2)
				assert.Empty(t, props[0].Children)
			},
		},
		{
			name: "required attribute missing", nillable: true, escalate: true,
			row: []any{int64(1), nil, nil}, warnings: 1,
			check: func(t *testing.T, props []*feature.Property) {
				assert.Empty(t, props)
			},
		},
		{
			name: "voidable", voidable: true, nillable: true, escalate: true,
			row: []any{int64(1), "A", nil},
			check: func(t *testing.T, props []*feature.Property) {
				assert.Empty(t, props)
			},
		},
		{
			name: "neither voidable nor nillable", escalate: true,
			row: []any{int64(1), "A", nil}, warnings: 1,
			check: func(t *testing.T, props []*feature.Property) {
				assert.Empty(t, props)
			},
		},
		{
			name: "escalation disabled", nillable: true,
			row: []any{int64(1), "A", nil},
			check: func(t *testing.T, props []*feature.Property) {
				require.Len(t, props, 1)
				assert.False(t, props[0].Nilled())
				assert.Len(t, props[0].Attrs, 1)
				assert.Empty(t, props[0].Children)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ms := surveySchema(t, tt.voidable, tt.nillable)
			ftm, plan := compile(t, ms, "G")
			b := New(ms, ftm, plan, nil, WithNullEscalation(tt.escalate))
			f, err := b.Build(context.Background(), [][]any{tt.row})
			require.NoError(t, err)
			tt.check(t, f.Property(survey))
			assert.Len(t, b.Warnings(), tt.warnings)
		})
	}
}

func TestBuildGeometryElement(t *testing.T) {
	area := testutil.QName("Area")
	ft := &schema.FeatureType{
		Name:       testutil.QName("H"),
		Properties: []schema.PropertyType{{Name: testutil.QName("extent"), MaxOccurs: 1}},
	}
	as, err := schema.New([]*schema.FeatureType{ft},
		schema.WithGeometryElement(area, schema.Surface, schema.PropertyType{Name: testutil.QName("quality")}))
	require.NoError(t, err)
	extent := mapping.NewCompound(mapping.Particle{Path: testutil.Path(t, "app:extent")}, nil,
		mapping.NewCompound(mapping.Particle{Path: testutil.Path(t, "app:Area"), Voidable: true}, nil,
			&mapping.Geometry{
				Particle: mapping.Particle{Path: testutil.Path(t, ".")},
				Value:    mapping.ColumnRef{Name: "geom"},
				Type:     schema.Polygon,
			},
			testutil.Primitive(t, "app:quality", "quality"),
		),
	)
	ftm, err := mapping.NewFeatureTypeMapping(ft.Name, "h", testutil.FID(t, "H_", "id"), []mapping.Mapping{extent})
	require.NoError(t, err)
	ms, err := mapping.NewMappedSchema(as, []*mapping.FeatureTypeMapping{ftm})
	require.NoError(t, err)
	_, plan := compile(t, ms, "H")
	assert.Equal(t, "SELECT X1.id,X1.geom,X1.quality FROM h X1 ORDER BY X1.id", plan.SQL)

	f, err := New(ms, ftm, plan, nil).Build(context.Background(), [][]any{{int64(5), "POLYGON ((0 0, 1 0, 1 1, 0 0))", "good"}})
	require.NoError(t, err)
	props := f.Property(testutil.QName("extent"))
	require.Len(t, props, 1)
	g, ok := props[0].Value().(*feature.Geometry)
	require.True(t, ok, "extent holds %T", props[0].Value())
	assert.Equal(t, "H_5_APP_EXTENT_APP_AREA", g.ID)
	assert.Equal(t, feature.Surface, g.Kind)
	assert.Equal(t, area, g.Element)
	require.Len(t, g.Properties, 1)
	assert.Equal(t, testutil.QName("quality"), g.Properties[0].Name)
	require.NotNil(t, g.Properties[0].Type)

	// Without geometry the element yields no value.
	f, err = New(ms, ftm, plan, nil).Build(context.Background(), [][]any{{int64(6), nil, "good"}})
	require.NoError(t, err)
	assert.Empty(t, f.Property(testutil.QName("extent")))
}

func TestBuildDeferred(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	shape := testutil.Join(t, "f", "id", "f_shape", "fk", mapping.WithFetchMode(mapping.DeferredSelect), mapping.WithOrderColumns("idx-"))
	ftm, err := mapping.NewFeatureTypeMapping(testutil.QName("F"), "f", testutil.FID(t, "F_", "id"), []mapping.Mapping{
		testutil.Primitive(t, "app:name", "name"),
		&mapping.Geometry{
			Particle: mapping.Particle{Path: testutil.Path(t, "app:tag"), Joins: []*mapping.TableJoin{shape}},
			Value:    mapping.ColumnRef{Name: "geom"},
			Type:     schema.Point,
		},
	})
	require.NoError(t, err)
	as, err := schema.New([]*schema.FeatureType{testutil.TagFeatureType()})
	require.NoError(t, err)
	ms, err := mapping.NewMappedSchema(as, []*mapping.FeatureTypeMapping{ftm})
	require.NoError(t, err)
	_, plan := compile(t, ms, "F")
	sub := plan.Deferred(ftm.Mappings()[1])
	require.NotNil(t, sub)
	assert.Equal(t, "SELECT X1.geom FROM f_shape X1 WHERE X1.fk = ? ORDER BY X1.idx DESC", sub.SQL)

	mock.ExpectQuery(sub.SQL).WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"geom"}).AddRow("POINT (2 2)").AddRow("POINT (1 1)"))
	drv := sql.OpenDB(dialect.SQLite, db)
	f, err := New(ms, ftm, plan, drv).Build(context.Background(), [][]any{{int64(1), "Alpha"}})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	tags := f.Property(testutil.QName("tag"))
	require.Len(t, tags, 2)
	for i, want := range []struct {
		id string
		x  float64
	}{{"F_1_APP_TAG_0", 2}, {"F_1_APP_TAG_1", 1}} {
		g := tags[i].Value().(*feature.Geometry)
		assert.Equal(t, want.id, g.ID)
		assert.Equal(t, want.x, g.Value.FlatCoords()[0])
	}

	mock.ExpectQuery(sub.SQL).WithArgs(int64(2)).WillReturnError(assert.AnError)
	_, err = New(ms, ftm, plan, drv).Build(context.Background(), [][]any{{int64(2), "Beta"}})
	require.Error(t, err)
	assert.True(t, sqlfs.IsQueryExecutionError(err))
	assert.ErrorIs(t, err, assert.AnError)
}

func TestBuildSiblingJoinsWithKeys(t *testing.T) {
	ft := &schema.FeatureType{
		Name: testutil.QName("S"),
		Properties: []schema.PropertyType{
			{Name: testutil.QName("tag"), MaxOccurs: schema.Unbounded},
			{Name: testutil.QName("note"), MaxOccurs: schema.Unbounded},
		},
	}
	as, err := schema.New([]*schema.FeatureType{ft})
	require.NoError(t, err)
	tagJoin := testutil.Join(t, "s", "id", "s_tag", "fk", mapping.WithKeyColumn("tid", mapping.AutoIDGenerator{}))
	noteJoin := testutil.Join(t, "s", "id", "s_note", "fk", mapping.WithKeyColumn("nid", mapping.AutoIDGenerator{}))
	ftm, err := mapping.NewFeatureTypeMapping(ft.Name, "s", testutil.FID(t, "S_", "id"), []mapping.Mapping{
		testutil.Primitive(t, "app:tag", "tag", tagJoin),
		testutil.Primitive(t, "app:note", "note", noteJoin),
	})
	require.NoError(t, err)
	ms, err := mapping.NewMappedSchema(as, []*mapping.FeatureTypeMapping{ftm})
	require.NoError(t, err)
	_, plan := compile(t, ms, "S")
	assert.Equal(t, []string{"X1.id", "X2.tag", "X2.tid", "X3.note", "X3.nid"}, plan.Terms())

	// Two tags times two notes: every key appears twice in the product.
	f, err := New(ms, ftm, plan, nil).Build(context.Background(), [][]any{
		{int64(1), "x", int64(1), "n", int64(7)},
		{int64(1), "x", int64(1), "m", int64(8)},
		{int64(1), "y", int64(2), "n", int64(7)},
		{int64(1), "y", int64(2), "m", int64(8)},
	})
	require.NoError(t, err)
	assert.Equal(t, []any{"x", "y"}, propValues(t, f, "tag"))
	assert.Equal(t, []any{"n", "m"}, propValues(t, f, "note"))
}

func TestBuildEqualChildValues(t *testing.T) {
	t.Run("inline", func(t *testing.T) {
		ms := testutil.TagSchema(t, mapping.InlineJoin, "idx")
		ftm, plan := compile(t, ms, "F")
		f, err := New(ms, ftm, plan, nil).Build(context.Background(), [][]any{
			{int64(1), "Alpha", "x", int64(10)},
			{int64(1), "Alpha", "x", int64(11)},
		})
		require.NoError(t, err)
		assert.Equal(t, []any{"x", "x"}, propValues(t, f, "tag"))
	})

	t.Run("deferred", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
		require.NoError(t, err)
		defer db.Close()

		ms := testutil.TagSchema(t, mapping.DeferredSelect, "idx")
		ftm, plan := compile(t, ms, "F")
		sub := plan.Deferred(ftm.Mappings()[1])
		require.NotNil(t, sub)
		mock.ExpectQuery(sub.SQL).WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"tag"}).AddRow("x").AddRow("x"))

		f, err := New(ms, ftm, plan, sql.OpenDB(dialect.SQLite, db)).Build(context.Background(), [][]any{{int64(1), "Alpha"}})
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
		assert.Equal(t, []any{"x", "x"}, propValues(t, f, "tag"))
	})
}

func TestBuildTypeColumnAndCache(t *testing.T) {
	f2 := &schema.FeatureType{Name: testutil.QName("F2")}
	as, err := schema.New([]*schema.FeatureType{testutil.TagFeatureType(), f2})
	require.NoError(t, err)
	ftm, err := mapping.NewFeatureTypeMapping(testutil.QName("F"), "f", testutil.FID(t, "F_", "id"),
		[]mapping.Mapping{testutil.Primitive(t, "app:name", "name")}, mapping.WithTypeColumn("ft_type"))
	require.NoError(t, err)
	ms, err := mapping.NewMappedSchema(as, []*mapping.FeatureTypeMapping{ftm})
	require.NoError(t, err)
	_, plan := compile(t, ms, "F")

	cache := sqlfs.NewFIFOCache[*feature.Feature](10)
	b := New(ms, ftm, plan, nil, WithCache(cache))
	row := []any{int64(1), "{" + testutil.NS + "}F2", "Alpha"}
	f, err := b.Build(context.Background(), [][]any{row})
	require.NoError(t, err)
	assert.Equal(t, f2.Name, f.Type)
	again, err := b.Build(context.Background(), [][]any{row})
	require.NoError(t, err)
	assert.Same(t, f, again)
	assert.Equal(t, 1, cache.Len())

	f, err = b.Build(context.Background(), [][]any{{int64(2), "unknown", "Beta"}})
	require.NoError(t, err)
	assert.Equal(t, testutil.QName("F"), f.Type)
}

func TestPartitions(t *testing.T) {
	rows := [][]any{
		{int64(1), "a"},
		{int64(2), "b"},
		{int64(1), "c"},
		{nil, "d"},
	}
	parts := Partitions(rows, []int{0})
	require.Len(t, parts, 3)
	assert.Len(t, parts[0].Rows, 2)
	assert.Equal(t, "c", parts[0].Rows[1][1])
	assert.False(t, parts[1].Null)
	assert.True(t, parts[2].Null)

	assert.Len(t, Partitions(rows, nil), 4)

	// NULL and the empty string are distinct keys, as are values that
	// only differ in how they split across columns.
	parts = Partitions([][]any{
		{nil, "a"},
		{"", "a"},
		{"ab", "c"},
		{"a", "bc"},
	}, []int{0, 1})
	require.Len(t, parts, 4)
	assert.False(t, parts[0].Null)
	assert.True(t, Partitions([][]any{{nil, nil}}, []int{0, 1})[0].Null)

	tr := NewTracker()
	m := testutil.Primitive(t, "app:tag", "tag")
	assert.True(t, tr.Track(m, "", "1"))
	assert.False(t, tr.Track(m, "", "1"))
	assert.True(t, tr.Track(m, "/2", "1"))
	assert.Equal(t, 2, tr.Len())
}
